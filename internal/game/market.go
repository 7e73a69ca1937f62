package game

import (
	"context"
	"fmt"

	"creditbot/internal/snapshot"

	"github.com/google/uuid"
)

const MarketSnapshot = "market"

// Market is the ordered list of live listings. Index 1 is the oldest.
type Market struct {
	store    snapshot.Store
	listings []Listing
}

func LoadMarket(ctx context.Context, store snapshot.Store) (*Market, error) {
	listings := []Listing{}
	if _, err := store.Load(ctx, MarketSnapshot, &listings); err != nil {
		return nil, fmt.Errorf("load market: %w", err)
	}
	if listings == nil {
		listings = []Listing{}
	}
	// Files written before listings carried ids get fresh ones.
	for i := range listings {
		if listings[i].ID == "" {
			listings[i].ID = uuid.NewString()
		}
	}
	return &Market{store: store, listings: listings}, nil
}

// Append adds a listing and returns the new listing count.
func (m *Market) Append(l Listing) int {
	m.listings = append(m.listings, l)
	return len(m.listings)
}

func (m *Market) At(index int) (Listing, error) {
	if index < 1 || index > len(m.listings) {
		return Listing{}, fmt.Errorf("%w: no listing #%d", ErrNotFound, index)
	}
	return m.listings[index-1], nil
}

// IndexOf returns the 1-based position of the listing with the given id.
func (m *Market) IndexOf(id string) (int, bool) {
	for i, l := range m.listings {
		if l.ID == id {
			return i + 1, true
		}
	}
	return 0, false
}

func (m *Market) RemoveAt(index int) (Listing, error) {
	l, err := m.At(index)
	if err != nil {
		return Listing{}, err
	}
	m.listings = append(m.listings[:index-1:index-1], m.listings[index:]...)
	return l, nil
}

func (m *Market) Count() int {
	return len(m.listings)
}

func (m *Market) All() []Listing {
	out := make([]Listing, len(m.listings))
	copy(out, m.listings)
	return out
}

func (m *Market) Commit(ctx context.Context) error {
	return m.store.Save(ctx, MarketSnapshot, m.listings)
}

func (m *Market) checkpoint() func() {
	saved := m.All()
	return func() { m.listings = saved }
}
