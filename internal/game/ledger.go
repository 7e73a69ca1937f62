package game

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"creditbot/internal/snapshot"
)

const LedgerSnapshot = "users"

// Ledger maps user ids to accounts and remembers the order in which accounts
// were first seen. It is not safe for concurrent use; Service guards it.
type Ledger struct {
	store    snapshot.Store
	order    []string
	accounts map[string]*Account
}

func LoadLedger(ctx context.Context, store snapshot.Store) (*Ledger, error) {
	doc := accountsDoc{accounts: map[string]*Account{}}
	if _, err := store.Load(ctx, LedgerSnapshot, &doc); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	for _, acct := range doc.accounts {
		if acct.Inventory == nil {
			acct.Inventory = []string{}
		}
	}
	return &Ledger{store: store, order: doc.order, accounts: doc.accounts}, nil
}

// Lookup returns a copy of the account without creating it.
func (l *Ledger) Lookup(userID string) (Account, bool) {
	acct, ok := l.accounts[userID]
	if !ok {
		return Account{Inventory: []string{}}, false
	}
	return acct.clone(), true
}

// Upsert returns the live account for userID, creating an empty one first
// if needed. Only mutating operations call it.
func (l *Ledger) Upsert(userID string) *Account {
	acct, ok := l.accounts[userID]
	if !ok {
		acct = &Account{Inventory: []string{}}
		l.accounts[userID] = acct
		l.order = append(l.order, userID)
	}
	return acct
}

func (l *Ledger) Len() int {
	return len(l.order)
}

// Each visits accounts in first-seen order.
func (l *Ledger) Each(fn func(userID string, acct Account)) {
	for _, id := range l.order {
		fn(id, l.accounts[id].clone())
	}
}

func (l *Ledger) Commit(ctx context.Context) error {
	return l.store.Save(ctx, LedgerSnapshot, accountsDoc{order: l.order, accounts: l.accounts})
}

func (l *Ledger) checkpoint() func() {
	order := make([]string, len(l.order))
	copy(order, l.order)
	accounts := make(map[string]*Account, len(l.accounts))
	for id, acct := range l.accounts {
		c := acct.clone()
		accounts[id] = &c
	}
	return func() {
		l.order = order
		l.accounts = accounts
	}
}

// accountsDoc is the users snapshot: one JSON object keyed by user id whose
// key order is the ledger's first-seen order.
type accountsDoc struct {
	order    []string
	accounts map[string]*Account
}

func (d accountsDoc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range d.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d.accounts[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *accountsDoc) UnmarshalJSON(raw []byte) error {
	d.order = nil
	d.accounts = map[string]*Account{}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("users snapshot must be a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("users snapshot: unexpected key %v", tok)
		}
		var acct Account
		if err := dec.Decode(&acct); err != nil {
			return fmt.Errorf("users snapshot: account %s: %w", id, err)
		}
		if _, seen := d.accounts[id]; !seen {
			d.order = append(d.order, id)
		}
		d.accounts[id] = &acct
	}
	_, err = dec.Token()
	return err
}
