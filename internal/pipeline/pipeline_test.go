package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomslots/internal/config"
	"roomslots/internal/model"
	"roomslots/internal/store"
)

var testDay = time.Date(2024, time.October, 17, 0, 0, 0, 0, time.UTC)

func newPipeline(t *testing.T, handler http.HandlerFunc) (*Pipeline, *store.Memory, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Source.BaseURL = srv.URL + "/setup/jsp/SchemaICAL.ics"

	st := store.NewMemory()
	var out bytes.Buffer
	p, err := New(cfg, st, &out)
	require.NoError(t, err)
	return p, st, &out
}

func serveFixture(t *testing.T) http.HandlerFunc {
	data, err := os.ReadFile("../../testdata/feed.ics")
	require.NoError(t, err)
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}
}

func TestRun_EndToEnd(t *testing.T) {
	p, st, out := newPipeline(t, serveFixture(t))

	require.NoError(t, p.Run(context.Background(), testDay))

	assert.Contains(t, out.String(), "File saved as mem://2024-10-17.ics")
	assert.Contains(t, out.String(), "Filtered events saved to mem://2024-10-17_filtered.json")

	data, err := st.Read("2024-10-17_filtered.json")
	require.NoError(t, err)

	var slots []model.Slot
	require.NoError(t, json.Unmarshal(data, &slots))
	require.Len(t, slots, 2)
	assert.Equal(t, "20240812_000000369", slots[0].ID)
	assert.Equal(t, "Ledig", slots[0].Tag)
	assert.Equal(t, "20240815_000000512", slots[1].ID)
	assert.Equal(t, "ledig", slots[1].Tag)
}

func TestFetch_NotFoundPrintsStatus(t *testing.T) {
	p, st, out := newPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	res, err := p.Fetch(context.Background(), testDay)
	require.NoError(t, err)

	assert.False(t, res.Saved)
	assert.Contains(t, out.String(), "404")
	assert.Empty(t, st.Names())
}

func TestRun_SkipsExtractWhenNothingSaved(t *testing.T) {
	p, st, out := newPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	require.NoError(t, p.Run(context.Background(), testDay))

	assert.Contains(t, out.String(), "Status code: 503")
	assert.Contains(t, out.String(), "Skipping extraction for 2024-10-17")
	assert.Empty(t, st.Names())
}

func TestExtract_WithoutFeedFails(t *testing.T) {
	p, _, out := newPipeline(t, serveFixture(t))

	_, err := p.Extract(testDay)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, out.String())
}

func TestExtract_ZeroMatchesWritesEmptyArray(t *testing.T) {
	p, st, _ := newPipeline(t, serveFixture(t))
	feed := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n"
	require.NoError(t, st.Write(store.RawName(testDay), []byte(feed)))

	res, err := p.Extract(testDay)
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	data, err := st.Read(store.FilteredName(testDay))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestURLs(t *testing.T) {
	p, _, out := newPipeline(t, serveFixture(t))

	require.NoError(t, p.URLs(testDay))
	assert.Contains(t, out.String(), "export: http://")
	assert.Contains(t, out.String(), "view:   https://schema.mau.se/setup/jsp/Schema.jsp?")
	assert.Contains(t, out.String(), "startDatum=2024-10-17")
}
