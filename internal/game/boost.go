package game

import (
	"context"
	"fmt"

	"creditbot/internal/snapshot"
)

const BoostSnapshot = "boost"

// BoostStore holds the single global spin boost.
type BoostStore struct {
	store snapshot.Store
	boost Boost
}

func LoadBoost(ctx context.Context, store snapshot.Store) (*BoostStore, error) {
	b := Boost{Multiplier: 1}
	if _, err := store.Load(ctx, BoostSnapshot, &b); err != nil {
		return nil, fmt.Errorf("load boost: %w", err)
	}
	bs := &BoostStore{store: store}
	bs.Set(b.Multiplier, b.SpinsLeft)
	return bs, nil
}

func (bs *BoostStore) Get() Boost {
	return bs.boost
}

// Set stores the boost, normalizing it so an exhausted boost always has
// multiplier 1.
func (bs *BoostStore) Set(multiplier, spinsLeft int64) Boost {
	if spinsLeft <= 0 {
		bs.boost = Boost{Multiplier: 1}
		return bs.boost
	}
	if multiplier < 1 {
		multiplier = 1
	}
	bs.boost = Boost{Multiplier: multiplier, SpinsLeft: spinsLeft}
	return bs.boost
}

// DecrementSpin consumes one boosted spin and returns the new state.
func (bs *BoostStore) DecrementSpin() Boost {
	if bs.boost.SpinsLeft <= 0 {
		return bs.boost
	}
	return bs.Set(bs.boost.Multiplier, bs.boost.SpinsLeft-1)
}

func (bs *BoostStore) Reset() Boost {
	return bs.Set(1, 0)
}

func (bs *BoostStore) Commit(ctx context.Context) error {
	return bs.store.Save(ctx, BoostSnapshot, bs.boost)
}

func (bs *BoostStore) checkpoint() func() {
	saved := bs.boost
	return func() { bs.boost = saved }
}
