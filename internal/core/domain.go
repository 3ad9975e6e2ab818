package core

import (
	"sort"
	"time"
)

// AllMonths is the filter value selecting every record.
const AllMonths = "all"

// AllMonthsLabel is the label shown for the AllMonths option.
const AllMonthsLabel = "全期間"

type (
	// WashRecord is one logged dishwashing event as returned by the history query.
	WashRecord struct {
		Date  string `json:"date"`
		Time  string `json:"time"`
		Month string `json:"month"` // YYYY-MM grouping key
		Note  string `json:"note"`
	}

	// HistoryResponse is the envelope returned by the history query.
	HistoryResponse struct {
		Status  string       `json:"status"`
		Message string       `json:"message,omitempty"`
		Data    []WashRecord `json:"data,omitempty"`
	}

	// RegistrationResult is the envelope returned by a registration.
	RegistrationResult struct {
		Status  string `json:"status"`
		Message string `json:"message,omitempty"`
		Data    struct {
			Count int `json:"count"`
		} `json:"data"`
	}

	// MonthOption is one entry of the month filter control.
	MonthOption struct {
		Value string
		Label string
	}
)

// StatusSuccess is the only status value treated as success by the collaborator.
const StatusSuccess = "success"

// OK reports whether the envelope carries a success status.
func (r HistoryResponse) OK() bool { return r.Status == StatusSuccess }

// OK reports whether the envelope carries a success status.
func (r RegistrationResult) OK() bool { return r.Status == StatusSuccess }

// Display returns the date followed by the time truncated to hour:minute.
func (r WashRecord) Display() string {
	t := []rune(r.Time)
	if len(t) > 5 {
		t = t[:5]
	}
	return r.Date + " " + string(t)
}

// MonthKey returns the zero-padded YYYY-MM key for t.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// DistinctMonths returns the distinct month keys of records, newest first.
// Keys are zero-padded YYYY-MM so lexical order is chronological order.
func DistinctMonths(records []WashRecord) []string {
	seen := make(map[string]struct{}, len(records))
	months := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.Month]; ok {
			continue
		}
		seen[r.Month] = struct{}{}
		months = append(months, r.Month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// MonthOptions builds the filter options: the all-time entry followed by
// each distinct month, newest first.
func MonthOptions(months []string) []MonthOption {
	opts := make([]MonthOption, 0, len(months)+1)
	opts = append(opts, MonthOption{Value: AllMonths, Label: AllMonthsLabel})
	for _, m := range months {
		opts = append(opts, MonthOption{Value: m, Label: m})
	}
	return opts
}

// DefaultMonth picks the initial filter: the UTC month of now if present,
// otherwise the most recent month, otherwise "" when there are no records.
func DefaultMonth(months []string, now time.Time) string {
	current := MonthKey(now.UTC())
	for _, m := range months {
		if m == current {
			return current
		}
	}
	if len(months) > 0 {
		return months[0]
	}
	return ""
}

// Filter returns the records visible under filter, preserving order.
func Filter(records []WashRecord, filter string) []WashRecord {
	if filter == AllMonths {
		out := make([]WashRecord, len(records))
		copy(out, records)
		return out
	}
	out := make([]WashRecord, 0, len(records))
	for _, r := range records {
		if r.Month == filter {
			out = append(out, r)
		}
	}
	return out
}
