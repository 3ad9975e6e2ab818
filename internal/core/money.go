package core

import "strconv"

// Yen is an amount in whole yen.
type Yen int64

// UnitPrice is the fixed price charged per wash.
const UnitPrice Yen = 100

// Stats summarises a set of washes.
type Stats struct {
	Count int
	Cost  Yen
}

// Summarize counts records and prices them at UnitPrice each.
func Summarize(records []WashRecord) Stats {
	n := len(records)
	return Stats{Count: n, Cost: Yen(n) * UnitPrice}
}

// String formats the amount with the yen sign and thousands separators,
// e.g. "¥1,200".
func (y Yen) String() string {
	return FormatYen(y)
}

// FormatYen formats y as "¥" followed by comma-grouped digits.
func FormatYen(y Yen) string {
	neg := y < 0
	v := int64(y)
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	grouped := make([]byte, 0, len(digits)+len(digits)/3)
	for i := 0; i < len(digits); i++ {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, digits[i])
	}
	if neg {
		return "-¥" + string(grouped)
	}
	return "¥" + string(grouped)
}
