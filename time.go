package redisom

import (
	"fmt"
	"strconv"
	"time"
)

// Time wraps time.Time with an epoch-seconds JSON encoding, matching the
// numeric representation date/time fields are indexed under. Plain
// time.Time fields are also indexed as epoch seconds in predicates, but
// their RFC 3339 JSON form is not range-queryable; use Time for fields
// that need time-range searches.
type Time struct {
	time.Time
}

// Now returns the current time as a Time.
func Now() Time {
	return Time{Time: time.Now()}
}

// MarshalJSON encodes the time as integer epoch seconds.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(t.Unix(), 10)), nil
}

// UnmarshalJSON decodes integer epoch seconds.
func (t *Time) UnmarshalJSON(data []byte) error {
	sec, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("epoch time %q: %w", data, err)
	}
	t.Time = time.Unix(sec, 0).UTC()
	return nil
}
