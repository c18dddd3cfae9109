package model

import (
	"strconv"
	"time"
)

// Layouts used for every derived date/time string and for dated file names.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Hours is a duration in hours rounded to one decimal. It always
// serializes with exactly one fractional digit (2.0, not 2).
type Hours float64

// MarshalJSON writes h with one fractional digit.
func (h Hours) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(h), 'f', 1, 64)), nil
}

// Slot is one retained calendar entry, reshaped for the filtered output.
// Field order is the JSON key order.
type Slot struct {
	// ID is the booking identifier with its textual prefix stripped.
	ID string `json:"uid"`
	// Tag is the word following "Moment:" in the summary, or "N/A".
	Tag string `json:"moment"`
	// Location is nil, and encodes as null, when the entry had none.
	Location *string `json:"location"`

	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	DurationHours Hours `json:"hours"`

	CreatedDate      string `json:"created_date"`
	CreatedTime      string `json:"created_time"`
	LastModifiedDate string `json:"last_modified_date"`
	LastModifiedTime string `json:"last_modified_time"`
}

// Day formats t as the YYYY-MM-DD key used in file names and queries.
func Day(t time.Time) string {
	return t.Format(DateLayout)
}
