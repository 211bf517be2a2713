package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/oddsarb/internal/domain"
)

type stubOppStore struct {
	domain.OpportunityStore
	lastLimit int
	opps      []domain.Opportunity
}

func (s *stubOppStore) ListRecent(_ context.Context, limit int) ([]domain.Opportunity, error) {
	s.lastLimit = limit
	return s.opps, nil
}

func TestOpportunityListRecent(t *testing.T) {
	store := &stubOppStore{}
	h := NewOpportunityHandler(store, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities/recent", nil)
	rec := httptest.NewRecorder()
	h.ListRecent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.lastLimit != 50 {
		t.Errorf("default limit = %d, want 50", store.lastLimit)
	}

	var body struct {
		Opportunities []domain.Opportunity `json:"opportunities"`
		Count         int                  `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	// A nil store result serializes as an empty array, never null.
	if body.Opportunities == nil {
		t.Error("opportunities field is null, want []")
	}
}

func TestOpportunityListRecentClampsLimit(t *testing.T) {
	store := &stubOppStore{}
	h := NewOpportunityHandler(store, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities/recent?limit=9000", nil)
	h.ListRecent(httptest.NewRecorder(), req)
	if store.lastLimit != 500 {
		t.Errorf("limit = %d, want clamped to 500", store.lastLimit)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/opportunities/recent?limit=-3", nil)
	h.ListRecent(httptest.NewRecorder(), req)
	if store.lastLimit != 50 {
		t.Errorf("limit = %d, want default 50 for invalid input", store.lastLimit)
	}
}

type stubOddsStore struct {
	domain.OddsStore
	lastSport   string
	lastMarkets []string
	lastSpan    time.Duration
}

func (s *stubOddsStore) ReadWindow(_ context.Context, sport string, from, to time.Time, markets []string) ([]domain.WindowRow, error) {
	s.lastSport = sport
	s.lastMarkets = markets
	s.lastSpan = to.Sub(from)
	return nil, nil
}

func TestOddsWindow(t *testing.T) {
	store := &stubOddsStore{}
	h := NewOddsHandler(store, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/odds/window?sport=soccer&hours=72&markets=1X2,BTTS", nil)
	rec := httptest.NewRecorder()
	h.Window(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.lastSport != "soccer" {
		t.Errorf("sport = %q, want soccer", store.lastSport)
	}
	if store.lastSpan != 72*time.Hour {
		t.Errorf("window span = %v, want 72h", store.lastSpan)
	}
	if len(store.lastMarkets) != 2 || store.lastMarkets[0] != "1X2" || store.lastMarkets[1] != "BTTS" {
		t.Errorf("markets = %v, want [1X2 BTTS]", store.lastMarkets)
	}
}

func TestOddsWindowRequiresSport(t *testing.T) {
	h := NewOddsHandler(&stubOddsStore{}, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/odds/window", nil)
	rec := httptest.NewRecorder()
	h.Window(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

type stubAliasStore struct {
	domain.AliasStore
	upserts [][2]string
}

func (s *stubAliasStore) Upsert(_ context.Context, canonical, alias string) error {
	s.upserts = append(s.upserts, [2]string{canonical, alias})
	return nil
}

func TestAliasUpsert(t *testing.T) {
	store := &stubAliasStore{}
	reloaded := false
	h := NewAliasHandler(store, func(context.Context) error { reloaded = true; return nil }, slog.Default())

	body := `{"canonical": "arsenal", "alias": "The Gunners"}`
	req := httptest.NewRequest(http.MethodPut, "/api/aliases", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Upsert(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(store.upserts) != 1 {
		t.Fatalf("got %d upserts, want 1", len(store.upserts))
	}
	if store.upserts[0][0] != "arsenal" || store.upserts[0][1] != "the gunners" {
		t.Errorf("upsert = %v, want lowercased (arsenal, the gunners)", store.upserts[0])
	}
	if !reloaded {
		t.Error("alias index reload hook not called")
	}
}

func TestAliasUpsertValidation(t *testing.T) {
	store := &stubAliasStore{}
	h := NewAliasHandler(store, nil, slog.Default())

	req := httptest.NewRequest(http.MethodPut, "/api/aliases", strings.NewReader(`{"canonical": "", "alias": "x"}`))
	rec := httptest.NewRecorder()
	h.Upsert(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(store.upserts) != 0 {
		t.Errorf("blank canonical reached the store")
	}
}
