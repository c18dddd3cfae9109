package ics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"roomslots/internal/config"
	appLog "roomslots/internal/log"
	"roomslots/internal/model"
	"roomslots/internal/store"
)

// FetchResult describes the outcome of one export request.
type FetchResult struct {
	URL    string
	Status int
	Size   int
	// Saved is true when the body was written to Name.
	Saved bool
	Name  string
	Path  string
}

// Fetcher downloads one day's export and stores the body verbatim.
type Fetcher struct {
	client *http.Client
	src    config.SourceConfig
	store  store.Store
}

// NewFetcher creates a Fetcher. No client timeout is set; the caller's
// context bounds the request.
func NewFetcher(src config.SourceConfig, st store.Store) *Fetcher {
	return &Fetcher{
		client: &http.Client{},
		src:    src,
		store:  st,
	}
}

// ExportURL builds the iCalendar export URL for day.
func ExportURL(src config.SourceConfig, day time.Time) (string, error) {
	return withQuery(src.BaseURL, src, day)
}

// ViewURL builds the human-readable schedule URL for the same query.
func ViewURL(src config.SourceConfig, day time.Time) (string, error) {
	return withQuery(src.ViewURL, src, day)
}

func withQuery(base string, src config.SourceConfig, day time.Time) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base url %q is not absolute", base)
	}

	q := u.Query()
	q.Set("sprak", src.Language)
	q.Set("sokMedAND", strconv.FormatBool(src.SearchWithAND))
	q.Set("intervallAntal", strconv.Itoa(src.IntervalCount))
	q.Set("startDatum", model.Day(day))
	q.Set("intervallTyp", src.IntervalType)
	q.Set("resurser", src.Resources)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Fetch issues a single GET for day. A 200 response with a non-empty body
// is written to the day's raw feed name. Any other status, or an empty
// body, writes nothing and is reported through FetchResult, not as an
// error. Transport and storage failures are returned as errors.
func (f *Fetcher) Fetch(ctx context.Context, day time.Time) (FetchResult, error) {
	link, err := ExportURL(f.src, day)
	if err != nil {
		return FetchResult{}, err
	}
	res := FetchResult{URL: link}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return res, err
	}
	req.Header.Set("User-Agent", f.src.UserAgent)

	appLog.Info("feed fetch start", "url", redactURL(link), "day", model.Day(day))

	resp, err := f.client.Do(req)
	if err != nil {
		return res, fmt.Errorf("fetch %s: %w", redactURL(link), err)
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		appLog.Info("feed fetch unavailable", "url", redactURL(link), "status", resp.StatusCode)
		return res, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return res, fmt.Errorf("read body: %w", err)
	}
	res.Size = len(body)
	if len(body) == 0 {
		appLog.Info("feed fetch returned empty body", "url", redactURL(link), "status", resp.StatusCode)
		return res, nil
	}

	name := store.RawName(day)
	if err := f.store.Write(name, body); err != nil {
		return res, fmt.Errorf("save %s: %w", name, err)
	}
	res.Saved = true
	res.Name = name
	res.Path = f.store.Path(name)

	appLog.Info("feed fetch success", "url", redactURL(link), "status", resp.StatusCode, "bytes", len(body), "path", res.Path)
	return res, nil
}

// redactURL drops the query string so log lines stay short.
func redactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "ics://...(redacted)"
	}
	return parsed.Scheme + "://" + parsed.Host + parsed.Path
}
