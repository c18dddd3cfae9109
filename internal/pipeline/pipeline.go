// Package pipeline sequences the fetch and extract stages for one day and
// prints the console diagnostics for each.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"roomslots/internal/config"
	"roomslots/internal/extract"
	"roomslots/internal/ics"
	appLog "roomslots/internal/log"
	"roomslots/internal/model"
	"roomslots/internal/store"
)

// Pipeline wires both stages to one Store. The stages share nothing else.
type Pipeline struct {
	src       config.SourceConfig
	fetcher   *ics.Fetcher
	extractor *extract.Extractor
	out       io.Writer
}

// New builds a Pipeline from cfg. Console lines are written to out.
func New(cfg *config.Config, st store.Store, out io.Writer) (*Pipeline, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		src:     cfg.Source,
		fetcher: ics.NewFetcher(cfg.Source, st),
		extractor: extract.New(st, extract.Options{
			Moment:   cfg.Filter.Moment,
			Location: loc,
		}),
		out: out,
	}, nil
}

// Fetch downloads day's feed. An unavailable or empty response is
// reported on out and is not an error.
func (p *Pipeline) Fetch(ctx context.Context, day time.Time) (ics.FetchResult, error) {
	res, err := p.fetcher.Fetch(ctx, day)
	if err != nil {
		appLog.Error("fetch failed", err, "day", model.Day(day))
		return res, err
	}
	if !res.Saved {
		fmt.Fprintf(p.out, "Failed to download file or file is empty. Status code: %d\n", res.Status)
		return res, nil
	}
	fmt.Fprintf(p.out, "File saved as %s\n", res.Path)
	return res, nil
}

// Extract filters day's stored feed into its JSON output.
func (p *Pipeline) Extract(day time.Time) (extract.Result, error) {
	res, err := p.extractor.Extract(day)
	if err != nil {
		appLog.Error("extract failed", err, "day", model.Day(day))
		return res, err
	}
	fmt.Fprintf(p.out, "Filtered events saved to %s\n", res.Path)
	return res, nil
}

// Run fetches then extracts. Extraction is skipped when nothing was saved.
func (p *Pipeline) Run(ctx context.Context, day time.Time) error {
	fetched, err := p.Fetch(ctx, day)
	if err != nil {
		return err
	}
	if !fetched.Saved {
		fmt.Fprintf(p.out, "Skipping extraction for %s: no feed was saved\n", model.Day(day))
		return nil
	}
	_, err = p.Extract(day)
	return err
}

// URLs prints the export and view links for day.
func (p *Pipeline) URLs(day time.Time) error {
	export, err := ics.ExportURL(p.src, day)
	if err != nil {
		return err
	}
	view, err := ics.ViewURL(p.src, day)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "export: %s\nview:   %s\n", export, view)
	return nil
}
