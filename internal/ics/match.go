package ics

import "regexp"

// TagUnknown is the tag of an entry whose summary has no "Moment:" token.
const TagUnknown = "N/A"

var (
	// Word characters include non-ASCII letters (Swedish å, ä, ö).
	momentRe  = regexp.MustCompile(`Moment: ([\p{L}\p{M}\p{N}_]+)`)
	bookingRe = regexp.MustCompile(`BokningsId_(\d+_\d+)`)
)

// MomentTag returns the word after "Moment: " in summary.
func MomentTag(summary string) (string, bool) {
	m := momentRe.FindStringSubmatch(summary)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// BookingID returns the "<digits>_<digits>" part of a
// "BokningsId_<digits>_<digits>" identifier.
func BookingID(uid string) (string, bool) {
	m := bookingRe.FindStringSubmatch(uid)
	if m == nil {
		return "", false
	}
	return m[1], true
}
