package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"creditbot/internal/config"
	"creditbot/internal/game"
	"creditbot/internal/snapshot"
)

const testOwner = "42"

func run(t *testing.T, dir, owner string, args ...string) error {
	t.Helper()
	root := newRootCmd(&app{cfg: config.CtlConfig{OwnerID: owner}})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--data-dir", dir}, args...))
	return root.ExecuteContext(context.Background())
}

func openEngine(t *testing.T, dir string) *game.Service {
	t.Helper()
	fs, err := snapshot.NewFileStore(dir)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	svc, err := game.Open(context.Background(), fs, game.Options{
		OwnerID: testOwner,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return svc
}

func TestGrantRevokeReset(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	if err := run(t, dir, testOwner, "grant", "7", "1_000"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := run(t, dir, testOwner, "revoke", "7", "250"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	got, err := openEngine(t, dir).CheckCredits(ctx, "7")
	if err != nil || got.String() != "750" {
		t.Fatalf("balance after grant/revoke = %s, %v", got, err)
	}

	if err := run(t, dir, testOwner, "reset", "7"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	got, _ = openEngine(t, dir).CheckCredits(ctx, "7")
	if got.Sign() != 0 {
		t.Fatalf("expected zero after reset, got %s", got)
	}
}

func TestMutationsNeedOwner(t *testing.T) {
	dir := t.TempDir()
	if err := run(t, dir, "", "grant", "7", "10"); err == nil {
		t.Fatalf("expected grant without owner to fail")
	}
	if err := run(t, dir, "", "resetboost"); err == nil {
		t.Fatalf("expected resetboost without owner to fail")
	}
	if err := run(t, dir, "", "credits", "7"); err != nil {
		t.Fatalf("read-only command failed: %v", err)
	}
}

func TestRejectsBadAmount(t *testing.T) {
	if err := run(t, t.TempDir(), testOwner, "grant", "7", "lots"); err == nil {
		t.Fatalf("expected parse failure")
	}
	if err := run(t, t.TempDir(), testOwner, "revoke", "7", "0"); err == nil {
		t.Fatalf("expected zero amount to be rejected")
	}
}

func TestMarketRemoveByID(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	res, err := openEngine(t, dir).AddItem(ctx, game.AddItemInput{Seller: "9", Name: "Lamp", Price: game.NewCredits(3)})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := run(t, dir, testOwner, "market", "remove", res.Listing.ID); err != nil {
		t.Fatalf("market remove: %v", err)
	}
	entries, _ := openEngine(t, dir).ListMarket(ctx)
	if len(entries) != 0 {
		t.Fatalf("expected empty market, got %d entries", len(entries))
	}
	if err := run(t, dir, testOwner, "market", "remove", res.Listing.ID); err == nil {
		t.Fatalf("expected second removal to fail")
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"a-very-long-user-id", 8, "a-ver..."},
		{"abcdef", 2, "ab"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.n); got != tc.want {
			t.Fatalf("truncate(%q,%d)=%q want %q", tc.in, tc.n, got, tc.want)
		}
	}
}
