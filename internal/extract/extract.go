// Package extract turns a stored raw feed into the filtered slot list.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"golang.org/x/text/cases"

	"roomslots/internal/ics"
	appLog "roomslots/internal/log"
	"roomslots/internal/model"
	"roomslots/internal/store"
)

// Options controls how entries are reshaped and which are kept.
type Options struct {
	// Moment is the tag an entry must carry to be retained, compared with
	// Unicode case folding.
	Moment string
	// Location converts derived date/time fields. Nil keeps the zone of
	// each timestamp.
	Location *time.Location
}

// Result summarizes one extraction.
type Result struct {
	Name  string
	Path  string
	Total int
	Slots []model.Slot
}

// Extractor reads a day's raw feed from a Store and writes the filtered
// JSON next to it.
type Extractor struct {
	store store.Store
	opts  Options
}

// New returns an Extractor reading from and writing to st.
func New(st store.Store, opts Options) *Extractor {
	return &Extractor{store: st, opts: opts}
}

// Extract runs the whole stage for day. Any decode or field error aborts
// before the output is written.
func (x *Extractor) Extract(day time.Time) (Result, error) {
	rawName := store.RawName(day)
	body, err := x.store.Read(rawName)
	if err != nil {
		return Result{}, fmt.Errorf("read raw feed: %w", err)
	}

	entries, err := ics.ParseFeed(body)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", rawName, err)
	}

	slots := Filter(entries, x.opts)
	data, err := Encode(slots)
	if err != nil {
		return Result{}, err
	}

	name := store.FilteredName(day)
	if err := x.store.Write(name, data); err != nil {
		return Result{}, fmt.Errorf("save %s: %w", name, err)
	}

	res := Result{
		Name:  name,
		Path:  x.store.Path(name),
		Total: len(entries),
		Slots: slots,
	}
	appLog.Info("extract completed", "day", model.Day(day), "events", res.Total, "kept", len(slots), "path", res.Path)
	return res, nil
}

// Filter reshapes every entry and keeps those whose tag matches
// opts.Moment, preserving feed order. The result is never nil.
func Filter(entries []ics.Entry, opts Options) []model.Slot {
	fold := cases.Fold()
	want := fold.String(opts.Moment)

	out := make([]model.Slot, 0)
	for _, e := range entries {
		s := NewSlot(e, opts.Location)
		if fold.String(s.Tag) != want {
			appLog.Debug("event dropped", "uid", s.ID, "moment", s.Tag)
			continue
		}
		out = append(out, s)
	}
	return out
}

// NewSlot derives the output record for one entry.
func NewSlot(e ics.Entry, loc *time.Location) model.Slot {
	in := func(t time.Time) time.Time {
		if loc == nil {
			return t
		}
		return t.In(loc)
	}
	start, end := in(e.Start), in(e.End)
	created, modified := in(e.Created), in(e.LastModified)

	tag, ok := ics.MomentTag(e.Summary)
	if !ok {
		tag = ics.TagUnknown
	}
	id, ok := ics.BookingID(e.UID)
	if !ok {
		id = e.UID
	}

	var location *string
	if e.HasLocation {
		l := e.Location
		location = &l
	}

	return model.Slot{
		ID:               id,
		Tag:              tag,
		Location:         location,
		Date:             start.Format(model.DateLayout),
		StartTime:        start.Format(model.TimeLayout),
		EndTime:          end.Format(model.TimeLayout),
		DurationHours:    DurationHours(e.Start, e.End),
		CreatedDate:      created.Format(model.DateLayout),
		CreatedTime:      created.Format(model.TimeLayout),
		LastModifiedDate: modified.Format(model.DateLayout),
		LastModifiedTime: modified.Format(model.TimeLayout),
	}
}

// DurationHours is end-start in hours, rounded to one decimal with ties
// to even (15 minutes is 0.2, 45 minutes is 0.8).
func DurationHours(start, end time.Time) model.Hours {
	h := end.Sub(start).Seconds() / 3600
	return model.Hours(math.RoundToEven(h*10) / 10)
}

// Encode renders slots as a 2-space indented JSON array with literal
// Unicode and no HTML escaping. An empty list encodes as [].
func Encode(slots []model.Slot) ([]byte, error) {
	if slots == nil {
		slots = []model.Slot{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(slots); err != nil {
		return nil, fmt.Errorf("encode slots: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
