package game

type Account struct {
	Credits   Credits  `json:"credits"`
	Inventory []string `json:"inventory"`
}

func (a Account) clone() Account {
	inv := make([]string, len(a.Inventory))
	copy(inv, a.Inventory)
	return Account{Credits: a.Credits, Inventory: inv}
}

type Listing struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Price  Credits `json:"price"`
	Seller string  `json:"seller"`
}

type Boost struct {
	Multiplier int64 `json:"multiplier"`
	SpinsLeft  int64 `json:"spins_left"`
}

func (b Boost) Active() bool {
	return b.SpinsLeft > 0
}

// Effective is the multiplier the next spin will use.
func (b Boost) Effective() int64 {
	if !b.Active() {
		return 1
	}
	return b.Multiplier
}

type SpinResult struct {
	Reward     Credits `json:"reward"`
	Balance    Credits `json:"balance"`
	Multiplier int64   `json:"multiplier"`
	Boost      Boost   `json:"boost"`
}

type AddItemInput struct {
	Seller       string
	Name         string
	Price        Credits
	MarketBanned bool
}

type AddItemResult struct {
	Listing Listing `json:"listing"`
	Count   int     `json:"count"`
}

type MarketEntry struct {
	Index   int     `json:"index"`
	Listing Listing `json:"listing"`
}

type GambleResult struct {
	Won     bool    `json:"won"`
	Amount  Credits `json:"amount"`
	Balance Credits `json:"balance"`
}

type PayResult struct {
	Amount          Credits `json:"amount"`
	SenderBalance   Credits `json:"sender_balance"`
	ReceiverBalance Credits `json:"receiver_balance"`
}

type WorkResult struct {
	Earned  Credits `json:"earned"`
	Balance Credits `json:"balance"`
}

type LeaderboardRow struct {
	Rank    int     `json:"rank"`
	UserID  string  `json:"user_id"`
	Credits Credits `json:"credits"`
}

type InventoryItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
