package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"washlog/internal/core"
)

// parseRows converts a values matrix (as returned by the Sheets API) into
// wash records. A header row and rows without a date are skipped. Dates may
// arrive formatted by the sheet, so the month key is recomputed from the
// date when it is missing.
func parseRows(values [][]interface{}) []core.WashRecord {
	out := make([]core.WashRecord, 0, len(values))
	for _, row := range values {
		cols := toStrings(row)
		date := safeGet(cols, 0)
		if date == "" || strings.EqualFold(date, "date") {
			continue
		}
		rec := core.WashRecord{
			Date:  normalizeDate(date),
			Time:  safeGet(cols, 1),
			Month: safeGet(cols, 2),
			Note:  safeGet(cols, 3),
		}
		if rec.Month == "" && len(rec.Date) >= 7 {
			rec.Month = rec.Date[:7]
		}
		out = append(out, rec)
	}
	return out
}

// normalizeDate turns sheet-formatted dates like 2024/5/1 into 2024-05-01.
func normalizeDate(s string) string {
	for _, layout := range []string{"2006-01-02", "2006/1/2", "2006-1-2"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// rowFromRange extracts the last row number of an A1 range like "Washes!A5:D5".
func rowFromRange(a1 string) (int, bool) {
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		a1 = a1[i+1:]
	}
	if i := strings.LastIndex(a1, ":"); i >= 0 {
		a1 = a1[i+1:]
	}
	digits := strings.TrimLeftFunc(a1, func(r rune) bool { return r < '0' || r > '9' })
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
