package core

import "testing"

func TestFormatYen(t *testing.T) {
	cases := []struct {
		in   Yen
		want string
	}{
		{0, "¥0"},
		{100, "¥100"},
		{1000, "¥1,000"},
		{123456, "¥123,456"},
		{1234567, "¥1,234,567"},
		{-2500, "-¥2,500"},
	}
	for _, c := range cases {
		if got := FormatYen(c.in); got != c.want {
			t.Errorf("FormatYen(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSummarizeUsesUnitPrice(t *testing.T) {
	records := make([]WashRecord, 13)
	st := Summarize(records)
	if st.Count != 13 || st.Cost != 13*UnitPrice {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if st.Cost.String() != "¥1,300" {
		t.Fatalf("unexpected cost string: %s", st.Cost)
	}
}
