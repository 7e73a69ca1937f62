package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"creditbot/internal/game"
	"creditbot/internal/snapshot"
)

const owner = "42"

func newTestServer(t *testing.T) (*Server, *game.Service) {
	t.Helper()
	fs, err := snapshot.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := game.Open(context.Background(), fs, game.Options{OwnerID: owner, Logger: logger})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return New(logger, svc, http.NotFoundHandler()), svc
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestKeepAlive(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/")
	if rec.Code != http.StatusOK || rec.Body.String() != "I'm alive!" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(t, s, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz %d", rec.Code)
	}
}

func TestLeaderboardView(t *testing.T) {
	s, svc := newTestServer(t)
	ctx := context.Background()
	for id, amount := range map[string]int64{"a": 500, "b": 10, "c": 10000} {
		if _, err := svc.AddCredits(ctx, owner, id, game.NewCredits(amount)); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	rec := get(t, s, "/v1/leaderboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Rows []struct {
			Rank    int             `json:"rank"`
			UserID  string          `json:"user_id"`
			Credits json.RawMessage `json:"credits"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Rows) != 3 || body.Rows[0].UserID != "c" || string(body.Rows[0].Credits) != "10000" || body.Rows[2].UserID != "b" {
		t.Fatalf("rows %+v", body.Rows)
	}
}

func TestMarketAndAccountViews(t *testing.T) {
	s, svc := newTestServer(t)
	ctx := context.Background()

	rec := get(t, s, "/v1/market")
	if !strings.Contains(rec.Body.String(), `"listings":[]`) {
		t.Fatalf("empty market body %s", rec.Body.String())
	}

	if _, err := svc.AddItem(ctx, game.AddItemInput{Seller: "s", Name: "Kite", Price: game.NewCredits(5)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddCredits(ctx, owner, "p", game.NewCredits(9)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.Buy(ctx, "p", 1); err != nil {
		t.Fatalf("buy: %v", err)
	}

	rec = get(t, s, "/v1/accounts/p")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"credits":4`) || !strings.Contains(rec.Body.String(), `"Kite"`) {
		t.Fatalf("account %d %s", rec.Code, rec.Body.String())
	}
	rec = get(t, s, "/v1/accounts/p/inventory")
	if !strings.Contains(rec.Body.String(), `{"name":"Kite","count":1}`) {
		t.Fatalf("inventory %s", rec.Body.String())
	}
	rec = get(t, s, "/v1/boost")
	if !strings.Contains(rec.Body.String(), `"multiplier":1`) {
		t.Fatalf("boost %s", rec.Body.String())
	}
}
