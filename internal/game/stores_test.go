package game

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"creditbot/internal/snapshot"
)

func TestBoostDecrementClearsMultiplier(t *testing.T) {
	bs, err := LoadBoost(context.Background(), newMemStore())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := bs.Get(); got != (Boost{Multiplier: 1}) {
		t.Fatalf("default boost %+v", got)
	}
	bs.Set(4, 2)
	if got := bs.DecrementSpin(); got != (Boost{Multiplier: 4, SpinsLeft: 1}) {
		t.Fatalf("after first spin %+v", got)
	}
	if got := bs.DecrementSpin(); got != (Boost{Multiplier: 1, SpinsLeft: 0}) {
		t.Fatalf("after last spin %+v", got)
	}
	if got := bs.DecrementSpin(); got != (Boost{Multiplier: 1, SpinsLeft: 0}) {
		t.Fatalf("decrement of inactive boost changed it: %+v", got)
	}
}

func TestLoadBoostNormalizes(t *testing.T) {
	store := newMemStore()
	store.put(t, BoostSnapshot, Boost{Multiplier: 7, SpinsLeft: 0})
	bs, err := LoadBoost(context.Background(), store)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := bs.Get(); got.Multiplier != 1 {
		t.Fatalf("exhausted boost kept multiplier %d", got.Multiplier)
	}
}

func TestLedgerKeepsFirstSeenOrder(t *testing.T) {
	fs, err := snapshot.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	ctx := context.Background()
	l, err := LoadLedger(ctx, fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, id := range []string{"zed", "amy", "mo"} {
		l.Upsert(id).Credits = NewCredits(int64(len(id)))
	}
	l.Upsert("amy").Inventory = append(l.Upsert("amy").Inventory, "Hat")
	if err := l.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	reloaded, err := LoadLedger(ctx, fs)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	var order []string
	reloaded.Each(func(id string, acct Account) {
		order = append(order, id)
		want, _ := l.Lookup(id)
		if acct.Credits.Cmp(want.Credits) != 0 || len(acct.Inventory) != len(want.Inventory) {
			t.Fatalf("account %s: got %+v want %+v", id, acct, want)
		}
	})
	if len(order) != 3 || order[0] != "zed" || order[1] != "amy" || order[2] != "mo" {
		t.Fatalf("order lost: %v", order)
	}
}

func TestLedgerReadsLegacyFile(t *testing.T) {
	dir := t.TempDir()
	raw := `{
    "859193969061920788": {"credits": 500},
    "123": {"credits": 10, "inventory": ["Cake", "Cake"]}
}`
	if err := os.WriteFile(filepath.Join(dir, "users.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	l, err := LoadLedger(context.Background(), &snapshot.FileStore{Dir: dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	acct, ok := l.Lookup("859193969061920788")
	if !ok || acct.Credits.Cmp(NewCredits(500)) != 0 {
		t.Fatalf("got %+v ok=%v", acct, ok)
	}
	if acct.Inventory == nil {
		t.Fatalf("missing inventory should load as empty")
	}
	if _, ok := l.Lookup("nobody"); ok {
		t.Fatalf("lookup created an account")
	}
	if l.Len() != 2 {
		t.Fatalf("len=%d", l.Len())
	}
}

func TestMarketAssignsIDsToLegacyListings(t *testing.T) {
	store := newMemStore()
	store.data[MarketSnapshot] = []byte(`[{"name":"Bow","price":40,"seller":"1"},{"name":"Axe","price":60,"seller":"2"}]`)
	m, err := LoadMarket(context.Background(), store)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	all := m.All()
	if len(all) != 2 || all[0].ID == "" || all[1].ID == "" || all[0].ID == all[1].ID {
		t.Fatalf("ids not assigned: %+v", all)
	}
}

func TestMarketRemoveAtShifts(t *testing.T) {
	m, err := LoadMarket(context.Background(), newMemStore())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, name := range []string{"a", "b", "c"} {
		m.Append(Listing{ID: name, Name: name, Price: NewCredits(1), Seller: "s"})
	}
	restore := m.checkpoint()
	removed, err := m.RemoveAt(2)
	if err != nil || removed.Name != "b" {
		t.Fatalf("removed %+v err=%v", removed, err)
	}
	if l, _ := m.At(2); l.Name != "c" {
		t.Fatalf("index 2 is now %q", l.Name)
	}
	if _, err := m.At(3); err == nil {
		t.Fatalf("expected index 3 to be out of range")
	}
	restore()
	if m.Count() != 3 {
		t.Fatalf("restore failed, count=%d", m.Count())
	}
	if idx, ok := m.IndexOf("b"); !ok || idx != 2 {
		t.Fatalf("IndexOf(b)=%d,%v", idx, ok)
	}
}
