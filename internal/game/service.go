package game

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"creditbot/internal/snapshot"

	"github.com/google/uuid"
)

// Recorder observes every engine operation.
type Recorder interface {
	ObserveOp(op string, err error, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOp(string, error, time.Duration) {}

type Options struct {
	// OwnerID is the only principal allowed to run owner-gated operations.
	OwnerID string
	// CreditSeller pays the seller when a listing is bought. Off by default:
	// the buyer is debited and the price leaves the economy.
	CreditSeller bool
	Dice         Dice
	Logger       *slog.Logger
	Recorder     Recorder
}

// Service is the economy engine. One RWMutex covers the ledger, the market
// and the boost; every mutation commits its stores before the lock is released.
type Service struct {
	mu     sync.RWMutex
	ledger *Ledger
	market *Market
	boost  *BoostStore

	ownerID      string
	creditSeller bool
	dice         Dice
	log          *slog.Logger
	rec          Recorder
}

// Open loads the three stores from store and builds a Service over them.
func Open(ctx context.Context, store snapshot.Store, opts Options) (*Service, error) {
	ledger, err := LoadLedger(ctx, store)
	if err != nil {
		return nil, err
	}
	market, err := LoadMarket(ctx, store)
	if err != nil {
		return nil, err
	}
	boost, err := LoadBoost(ctx, store)
	if err != nil {
		return nil, err
	}
	return NewService(ledger, market, boost, opts), nil
}

func NewService(ledger *Ledger, market *Market, boost *BoostStore, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Dice == nil {
		opts.Dice = NewClockDice()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Service{
		ledger:       ledger,
		market:       market,
		boost:        boost,
		ownerID:      opts.OwnerID,
		creditSeller: opts.CreditSeller,
		dice:         opts.Dice,
		log:          opts.Logger,
		rec:          opts.Recorder,
	}
}

func (s *Service) IsOwner(userID string) bool {
	return s.ownerID != "" && userID == s.ownerID
}

func (s *Service) Spin(ctx context.Context, userID string) (out SpinResult, err error) {
	defer s.observe("spin", time.Now(), &err)
	if err := requireUser(userID); err != nil {
		return out, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.boost.Get()
	stores := []committer{s.ledger}
	if before.Active() {
		stores = append(stores, s.boost)
	}
	err = s.mutate(ctx, "spin", func() error {
		out.Multiplier = before.Effective()
		shape := SpinShapePerMultiplier * float64(out.Multiplier)
		out.Reward = creditsFromDraw(s.dice.Gamma(shape, SpinScale))

		acct := s.ledger.Upsert(userID)
		acct.Credits = acct.Credits.Add(out.Reward)
		out.Balance = acct.Credits
		out.Boost = s.boost.DecrementSpin()
		return nil
	}, stores...)
	return out, err
}

func (s *Service) Sacrifice(ctx context.Context, userID string, amount Credits) (out Boost, err error) {
	defer s.observe("sacrifice", time.Now(), &err)
	if err := requireUser(userID); err != nil {
		return out, err
	}
	if err := requirePositive(amount, "amount"); err != nil {
		return out, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireFunds(userID, amount); err != nil {
		return out, err
	}
	err = s.mutate(ctx, "sacrifice", func() error {
		acct := s.ledger.Upsert(userID)
		acct.Credits = acct.Credits.Sub(amount)
		out = s.boost.Set(sacrificeMultiplier(amount), SacrificeSpins)
		return nil
	}, s.ledger, s.boost)
	return out, err
}

func (s *Service) CheckCredits(ctx context.Context, userID string) (out Credits, err error) {
	defer s.observe("credits", time.Now(), &err)
	if err := requireUser(userID); err != nil {
		return out, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, _ := s.ledger.Lookup(userID)
	return acct.Credits, nil
}

// Account returns a copy of the user's account; unknown users read as empty.
func (s *Service) Account(ctx context.Context, userID string) (out Account, err error) {
	defer s.observe("account", time.Now(), &err)
	if err := requireUser(userID); err != nil {
		return out, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out, _ = s.ledger.Lookup(userID)
	return out, nil
}

func (s *Service) AddItem(ctx context.Context, in AddItemInput) (out AddItemResult, err error) {
	defer s.observe("additem", time.Now(), &err)
	if err := requireUser(in.Seller); err != nil {
		return out, err
	}
	if in.MarketBanned {
		return out, fmt.Errorf("%w: seller is banned from the market", ErrPermissionDenied)
	}
	name, err := validateItemName(in.Name)
	if err != nil {
		return out, err
	}
	if err := requirePositive(in.Price, "price"); err != nil {
		return out, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.mutate(ctx, "additem", func() error {
		out.Listing = Listing{ID: uuid.NewString(), Name: name, Price: in.Price, Seller: in.Seller}
		out.Count = s.market.Append(out.Listing)
		return nil
	}, s.market)
	return out, err
}

func (s *Service) ListMarket(ctx context.Context) (out []MarketEntry, err error) {
	defer s.observe("market", time.Now(), &err)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, l := range s.market.All() {
		out = append(out, MarketEntry{Index: i + 1, Listing: l})
	}
	return out, nil
}

// Buy purchases the listing currently at the 1-based index.
func (s *Service) Buy(ctx context.Context, buyerID string, index int) (out Listing, err error) {
	defer s.observe("buy", time.Now(), &err)
	if err := requireUser(buyerID); err != nil {
		return out, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.market.At(index); err != nil {
		return out, err
	}
	return s.buyLocked(ctx, buyerID, index)
}

// BuyListing purchases a listing by its stable id.
func (s *Service) BuyListing(ctx context.Context, buyerID, listingID string) (out Listing, err error) {
	defer s.observe("buy", time.Now(), &err)
	if err := requireUser(buyerID); err != nil {
		return out, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.market.IndexOf(listingID)
	if !ok {
		return out, fmt.Errorf("%w: listing %s", ErrNotFound, listingID)
	}
	return s.buyLocked(ctx, buyerID, index)
}

func (s *Service) buyLocked(ctx context.Context, buyerID string, index int) (Listing, error) {
	listing, err := s.market.At(index)
	if err != nil {
		return Listing{}, err
	}
	if err := s.requireFunds(buyerID, listing.Price); err != nil {
		return Listing{}, err
	}
	err = s.mutate(ctx, "buy", func() error {
		buyer := s.ledger.Upsert(buyerID)
		buyer.Credits = buyer.Credits.Sub(listing.Price)
		buyer.Inventory = append(buyer.Inventory, listing.Name)
		if s.creditSeller && listing.Seller != "" {
			seller := s.ledger.Upsert(listing.Seller)
			seller.Credits = seller.Credits.Add(listing.Price)
		}
		_, err := s.market.RemoveAt(index)
		return err
	}, s.ledger, s.market)
	if err != nil {
		return Listing{}, err
	}
	return listing, nil
}

// RemoveItem withdraws the listing at the 1-based index. Only its seller or
// the owner may do so.
func (s *Service) RemoveItem(ctx context.Context, userID string, index int) (out Listing, err error) {
	defer s.observe("removeitem", time.Now(), &err)
	if err := requireUser(userID); err != nil {
		return out, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.market.At(index); err != nil {
		return out, err
	}
	return s.removeLocked(ctx, userID, index)
}

func (s *Service) RemoveListing(ctx context.Context, userID, listingID string) (out Listing, err error) {
	defer s.observe("removeitem", time.Now(), &err)
	if err := requireUser(userID); err != nil {
		return out, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.market.IndexOf(listingID)
	if !ok {
		return out, fmt.Errorf("%w: listing %s", ErrNotFound, listingID)
	}
	return s.removeLocked(ctx, userID, index)
}

func (s *Service) removeLocked(ctx context.Context, userID string, index int) (Listing, error) {
	listing, err := s.market.At(index)
	if err != nil {
		return Listing{}, err
	}
	if listing.Seller != userID && !s.IsOwner(userID) {
		return Listing{}, fmt.Errorf("%w: only the seller or the owner can remove this listing", ErrPermissionDenied)
	}
	err = s.mutate(ctx, "removeitem", func() error {
		_, err := s.market.RemoveAt(index)
		return err
	}, s.market)
	if err != nil {
		return Listing{}, err
	}
	return listing, nil
}

// Bonus gives the next spin the given multiplier.
func (s *Service) Bonus(ctx context.Context, callerID string, multiplier int64) (out Boost, err error) {
	defer s.observe("bonus", time.Now(), &err)
	if err := s.requireOwner(callerID); err != nil {
		return out, err
	}
	if multiplier <= 1 {
		return out, fmt.Errorf("%w: multiplier must be > 1", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.mutate(ctx, "bonus", func() error {
		out = s.boost.Set(multiplier, 1)
		return nil
	}, s.boost)
	return out, err
}

func (s *Service) Gamble(ctx context.Context, userID string, amount Credits) (out GambleResult, err error) {
	defer s.observe("gamble", time.Now(), &err)
	if err := requireUser(userID); err != nil {
		return out, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gambleLocked(ctx, "gamble", userID, amount)
}

// ForceGamble is Gamble run by the owner on someone else's balance.
func (s *Service) ForceGamble(ctx context.Context, callerID, targetID string, amount Credits) (out GambleResult, err error) {
	defer s.observe("forcegamble", time.Now(), &err)
	if err := s.requireOwner(callerID); err != nil {
		return out, err
	}
	if err := requireUser(targetID); err != nil {
		return out, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gambleLocked(ctx, "forcegamble", targetID, amount)
}

func (s *Service) gambleLocked(ctx context.Context, op, userID string, amount Credits) (GambleResult, error) {
	out := GambleResult{Amount: amount}
	if err := requirePositive(amount, "amount"); err != nil {
		return out, err
	}
	if err := s.requireFunds(userID, amount); err != nil {
		return out, err
	}
	err := s.mutate(ctx, op, func() error {
		acct := s.ledger.Upsert(userID)
		out.Won = s.dice.Coin()
		if out.Won {
			acct.Credits = acct.Credits.Add(amount)
		} else {
			acct.Credits = acct.Credits.Sub(amount)
		}
		out.Balance = acct.Credits
		return nil
	}, s.ledger)
	if err != nil {
		return GambleResult{Amount: amount}, err
	}
	return out, nil
}

func (s *Service) Pay(ctx context.Context, senderID, receiverID string, amount Credits) (out PayResult, err error) {
	defer s.observe("pay", time.Now(), &err)
	if err := requireUser(senderID); err != nil {
		return out, err
	}
	if err := requireUser(receiverID); err != nil {
		return out, err
	}
	if senderID == receiverID {
		return out, fmt.Errorf("%w: cannot pay yourself", ErrInvalidArgument)
	}
	if err := requirePositive(amount, "amount"); err != nil {
		return out, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireFunds(senderID, amount); err != nil {
		return out, err
	}
	err = s.mutate(ctx, "pay", func() error {
		sender := s.ledger.Upsert(senderID)
		receiver := s.ledger.Upsert(receiverID)
		sender.Credits = sender.Credits.Sub(amount)
		receiver.Credits = receiver.Credits.Add(amount)
		out = PayResult{Amount: amount, SenderBalance: sender.Credits, ReceiverBalance: receiver.Credits}
		return nil
	}, s.ledger)
	if err != nil {
		return PayResult{}, err
	}
	return out, nil
}

func (s *Service) Work(ctx context.Context, userID string) (out WorkResult, err error) {
	defer s.observe("work", time.Now(), &err)
	if err := requireUser(userID); err != nil {
		return out, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.mutate(ctx, "work", func() error {
		out.Earned = NewCredits(s.dice.Between(WorkMinCredits, WorkMaxCredits))
		acct := s.ledger.Upsert(userID)
		acct.Credits = acct.Credits.Add(out.Earned)
		out.Balance = acct.Credits
		return nil
	}, s.ledger)
	if err != nil {
		return WorkResult{}, err
	}
	return out, nil
}

func (s *Service) AddCredits(ctx context.Context, callerID, targetID string, amount Credits) (out Credits, err error) {
	defer s.observe("addcredits", time.Now(), &err)
	return s.adjustCredits(ctx, "addcredits", callerID, targetID, amount, false)
}

// RemoveCredits debits the target, stopping at zero.
func (s *Service) RemoveCredits(ctx context.Context, callerID, targetID string, amount Credits) (out Credits, err error) {
	defer s.observe("remcredits", time.Now(), &err)
	return s.adjustCredits(ctx, "remcredits", callerID, targetID, amount, true)
}

func (s *Service) adjustCredits(ctx context.Context, op, callerID, targetID string, amount Credits, debit bool) (Credits, error) {
	if err := s.requireOwner(callerID); err != nil {
		return Credits{}, err
	}
	if err := requireUser(targetID); err != nil {
		return Credits{}, err
	}
	if err := requirePositive(amount, "amount"); err != nil {
		return Credits{}, err
	}
	delta := amount
	if debit {
		delta = Credits{}.Sub(amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out Credits
	err := s.mutate(ctx, op, func() error {
		acct := s.ledger.Upsert(targetID)
		acct.Credits = acct.Credits.Add(delta)
		if acct.Credits.Sign() < 0 {
			acct.Credits = Credits{}
		}
		out = acct.Credits
		return nil
	}, s.ledger)
	if err != nil {
		return Credits{}, err
	}
	return out, nil
}

func (s *Service) ResetCredits(ctx context.Context, callerID, targetID string) (err error) {
	defer s.observe("resetcredits", time.Now(), &err)
	if err := s.requireOwner(callerID); err != nil {
		return err
	}
	if err := requireUser(targetID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutate(ctx, "resetcredits", func() error {
		s.ledger.Upsert(targetID).Credits = Credits{}
		return nil
	}, s.ledger)
}

func (s *Service) ResetBoost(ctx context.Context, callerID string) (err error) {
	defer s.observe("resetboost", time.Now(), &err)
	if err := s.requireOwner(callerID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutate(ctx, "resetboost", func() error {
		s.boost.Reset()
		return nil
	}, s.boost)
}

func (s *Service) Boost(ctx context.Context) Boost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boost.Get()
}

// Leaderboard returns the richest accounts, highest first. Equal balances
// keep the order in which the accounts were created.
func (s *Service) Leaderboard(ctx context.Context) (out []LeaderboardRow, err error) {
	defer s.observe("leaderboard", time.Now(), &err)
	s.mu.RLock()
	rows := make([]LeaderboardRow, 0, s.ledger.Len())
	s.ledger.Each(func(userID string, acct Account) {
		rows = append(rows, LeaderboardRow{UserID: userID, Credits: acct.Credits})
	})
	s.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Credits.Cmp(rows[j].Credits) > 0
	})
	if len(rows) > LeaderboardSize {
		rows = rows[:LeaderboardSize]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// Inventory counts the user's items, listing names in order of first purchase.
func (s *Service) Inventory(ctx context.Context, userID string) (out []InventoryItem, err error) {
	defer s.observe("inventory", time.Now(), &err)
	if err := requireUser(userID); err != nil {
		return out, err
	}
	s.mu.RLock()
	acct, _ := s.ledger.Lookup(userID)
	s.mu.RUnlock()

	pos := map[string]int{}
	for _, name := range acct.Inventory {
		if i, ok := pos[name]; ok {
			out[i].Count++
			continue
		}
		pos[name] = len(out)
		out = append(out, InventoryItem{Name: name, Count: 1})
	}
	return out, nil
}

type committer interface {
	Commit(ctx context.Context) error
	checkpoint() func()
}

// mutate runs apply and commits stores in order. If apply or any commit
// fails, all stores are restored in memory and stores that were already
// written are written again with the restored state. Callers hold s.mu.
func (s *Service) mutate(ctx context.Context, op string, apply func() error, stores ...committer) error {
	restores := make([]func(), len(stores))
	for i, st := range stores {
		restores[i] = st.checkpoint()
	}
	rollback := func() {
		for _, restore := range restores {
			restore()
		}
	}

	if err := apply(); err != nil {
		rollback()
		return err
	}
	for i, st := range stores {
		if err := st.Commit(ctx); err != nil {
			rollback()
			for _, written := range stores[:i] {
				if rerr := written.Commit(ctx); rerr != nil {
					s.log.Error("rewrite snapshot after failed commit", "op", op, "err", rerr)
				}
			}
			s.log.Error("commit failed", "op", op, "err", err)
			return fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}
	s.log.Debug("committed", "op", op)
	return nil
}

func (s *Service) requireOwner(callerID string) error {
	if !s.IsOwner(callerID) {
		return fmt.Errorf("%w: owner only", ErrPermissionDenied)
	}
	return nil
}

// requireFunds checks the balance without creating the account.
func (s *Service) requireFunds(userID string, amount Credits) error {
	acct, _ := s.ledger.Lookup(userID)
	if acct.Credits.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientFunds, acct.Credits, amount)
	}
	return nil
}

func (s *Service) observe(op string, start time.Time, err *error) {
	s.rec.ObserveOp(op, *err, time.Since(start))
}
