// Package time holds date helpers for optional values
package time

import "time"

// DateLayout is the calendar date form used by postings and config
const DateLayout = time.DateOnly

// Ptr returns &t, or nil for the zero time
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// ParseDatePtr parses an optional YYYY-MM-DD value. nil and "" give nil
func ParseDatePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
