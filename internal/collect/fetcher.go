// Package collect pulls raw odds payloads from configured feeds and hands
// them to the ingestion boundary. Fetchers only move bytes; all validation
// and normalization happens in ingest.
package collect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/alanyoungcy/oddsarb/internal/ingest"
)

// maxFeedBytes caps a single feed response; anything larger is a broken or
// hostile feed.
const maxFeedBytes = 32 << 20

// Fetcher retrieves one batch of raw odds records from a feed.
type Fetcher interface {
	// Name returns a human-readable identifier for the feed.
	Name() string
	Fetch(ctx context.Context) ([]ingest.RawRecord, error)
}

// HTTPFetcher pulls a JSON array of raw records from an HTTP endpoint.
type HTTPFetcher struct {
	name   string
	url    string
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher for the given feed URL. It uses a
// default HTTP client with a 15-second timeout.
func NewHTTPFetcher(name, url string) *HTTPFetcher {
	return &HTTPFetcher{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Name returns the feed identifier.
func (f *HTTPFetcher) Name() string {
	return f.name
}

// Fetch performs a GET request against the feed URL and decodes the body as
// a JSON array of raw records.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]ingest.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("collect: create request for %s: %w", f.name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("collect: fetch %s: %w", f.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("collect: fetch %s: unexpected status %d: %s", f.name, resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("collect: read %s response: %w", f.name, err)
	}

	records, err := ingest.DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("collect: decode %s response: %w", f.name, err)
	}
	return records, nil
}

// FileFetcher reads raw records from a JSON file on disk. Useful for fixture
// feeds and local development; the file is re-read on every fetch so edits
// show up on the next tick.
type FileFetcher struct {
	name string
	path string
}

// NewFileFetcher creates a FileFetcher for the given fixture path.
func NewFileFetcher(name, path string) *FileFetcher {
	return &FileFetcher{name: name, path: path}
}

// Name returns the feed identifier.
func (f *FileFetcher) Name() string {
	return f.name
}

// Fetch reads and decodes the fixture file.
func (f *FileFetcher) Fetch(ctx context.Context) ([]ingest.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("collect: read fixture %s: %w", f.path, err)
	}

	records, err := ingest.DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("collect: decode fixture %s: %w", f.path, err)
	}
	return records, nil
}

// sourcedFetcher stamps a registered source id onto records that do not
// carry one themselves.
type sourcedFetcher struct {
	Fetcher
	sourceID int64
}

// WithSource wraps f so every fetched record without an explicit source_id
// is attributed to the given registered source.
func WithSource(f Fetcher, sourceID int64) Fetcher {
	return &sourcedFetcher{Fetcher: f, sourceID: sourceID}
}

func (s *sourcedFetcher) Fetch(ctx context.Context) ([]ingest.RawRecord, error) {
	records, err := s.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].SourceID == 0 {
			records[i].SourceID = s.sourceID
		}
	}
	return records, nil
}
