package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "roomslots/internal/log"
)

var (
	// ErrEmptyFeed is returned for a zero-length raw feed.
	ErrEmptyFeed = errors.New("empty ICS body")
	// ErrMissingProperty marks a VEVENT lacking a property extraction needs.
	ErrMissingProperty = errors.New("missing required property")
)

// Entry is one VEVENT with the properties extraction reads. All fields
// except Location are required; UID may be present but empty.
type Entry struct {
	UID     string
	Summary string

	Location    string
	HasLocation bool

	Start time.Time
	End   time.Time

	Created      time.Time
	LastModified time.Time
}

// ParseFeed decodes body and returns its VEVENTs in document order.
//
// Any malformed document or any event missing a required property fails
// the whole feed; no partial result is returned.
func ParseFeed(body []byte) ([]Entry, error) {
	if len(body) == 0 {
		return nil, ErrEmptyFeed
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	vevents := cal.Events()
	entries := make([]Entry, 0, len(vevents))
	for i, ve := range vevents {
		e, err := parseVEvent(ve)
		if err != nil {
			return nil, fmt.Errorf("vevent %d: %w", i, err)
		}
		entries = append(entries, e)
	}

	appLog.Debug("ics parse completed", "event_count", len(entries))
	return entries, nil
}

func parseVEvent(ve *ical.VEvent) (Entry, error) {
	var out Entry

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil {
		return out, fmt.Errorf("%w: UID", ErrMissingProperty)
	}
	out.UID = uid.Value

	summary := ve.GetProperty(ical.ComponentPropertySummary)
	if summary == nil {
		return out, fmt.Errorf("%w: SUMMARY (uid %s)", ErrMissingProperty, out.UID)
	}
	out.Summary = summary.Value

	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
		out.HasLocation = true
	}

	var err error
	if out.Start, err = requireTime(ve, ical.ComponentPropertyDtStart, ve.GetStartAt); err != nil {
		return out, fmt.Errorf("%w (uid %s)", err, out.UID)
	}
	if out.End, err = requireTime(ve, ical.ComponentPropertyDtEnd, ve.GetEndAt); err != nil {
		return out, fmt.Errorf("%w (uid %s)", err, out.UID)
	}
	if out.LastModified, err = requireTime(ve, ical.ComponentPropertyLastModified, ve.GetLastModifiedAt); err != nil {
		return out, fmt.Errorf("%w (uid %s)", err, out.UID)
	}
	// The library has no CREATED accessor.
	created := func() (time.Time, error) {
		p := ve.GetProperty(ical.ComponentPropertyCreated)
		return parseICSTime(p.Value, tzidOf(p))
	}
	if out.Created, err = requireTime(ve, ical.ComponentPropertyCreated, created); err != nil {
		return out, fmt.Errorf("%w (uid %s)", err, out.UID)
	}

	return out, nil
}

func requireTime(ve *ical.VEvent, prop ical.ComponentProperty, get func() (time.Time, error)) (time.Time, error) {
	if ve.GetProperty(prop) == nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrMissingProperty, prop)
	}
	t, err := get()
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", prop, err)
	}
	return t, nil
}

func tzidOf(p *ical.IANAProperty) string {
	if p == nil || p.ICalParameters == nil {
		return ""
	}
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		return tzs[0]
	}
	return ""
}

// parseICSTime parses a DATE or DATE-TIME value. Values without a Z
// suffix are read in tzid, or time.Local when tzid is empty.
func parseICSTime(v, tzid string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	loc := time.Local
	if tzid != "" {
		l, err := time.LoadLocation(tzid)
		if err != nil {
			return time.Time{}, err
		}
		loc = l
	}

	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
