package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const feedBody = `[
	{"source_id": 0, "source_match_id": "m-1", "sport": "soccer",
	 "participants": ["Arsenal", "Chelsea"], "start_time": "2026-09-05T15:00:00Z",
	 "market_label": "Match Winner", "outcomes": {"home": 2.11, "away": 2.09}}
]`

func TestFileFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	if err := os.WriteFile(path, []byte(feedBody), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewFileFetcher("fixture", path)
	records, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(records) != 1 || records[0].SourceMatchID != "m-1" {
		t.Errorf("records = %+v, want one record m-1", records)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q, want application/json", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("test-book", srv.URL)
	records, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}

func TestHTTPFetcherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewHTTPFetcher("test-book", srv.URL)
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Error("Fetch() accepted a 502 response")
	}
}

func TestWithSourceStampsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	if err := os.WriteFile(path, []byte(feedBody), 0o644); err != nil {
		t.Fatal(err)
	}

	f := WithSource(NewFileFetcher("fixture", path), 42)
	records, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if records[0].SourceID != 42 {
		t.Errorf("SourceID = %d, want stamped 42", records[0].SourceID)
	}
	if f.Name() != "fixture" {
		t.Errorf("Name() = %q, want fixture", f.Name())
	}
}
