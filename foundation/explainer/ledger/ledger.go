// Package ledger maintains the list of demo transfers used to explain how
// signed transactions are chained together.
package ledger

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Names are the parties that can appear in a demo transfer.
var Names = []string{"Alice", "Bob", "Charlie", "David", "Eve", "Frank"}

// Tx represents a single transfer between two parties.
type Tx struct {
	ID        int    `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Signature string `json:"signature"`
}

// String implements the Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%d:%s->%s:%s", tx.ID, tx.From, tx.To, tx.Amount)
}

// SignFunc signs the canonical form of a transfer.
type SignFunc func(message string) (string, error)

// seed returns the transfers every ledger starts with.
func seed() []Tx {
	return []Tx{
		{ID: 1, From: "Alice", To: "Bob", Amount: "1", Signature: "3045...a7b2"},
		{ID: 2, From: "Bob", To: "Charlie", Amount: "1", Signature: "4156...c8d3"},
	}
}

// =============================================================================

// Ledger is an ordered set of transfers.
type Ledger struct {
	mu   sync.RWMutex
	rnd  *rand.Rand
	sign SignFunc
	txs  []Tx
}

// New constructs a ledger holding the seed transfers. The random source
// picks parties and amounts, and the sign function signs new transfers.
func New(rnd *rand.Rand, sign SignFunc) *Ledger {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Ledger{
		rnd:  rnd,
		sign: sign,
		txs:  seed(),
	}
}

// Add creates a random transfer between two different parties and appends
// it to the ledger.
func (l *Ledger) Add() (Tx, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	from := Names[l.rnd.IntN(len(Names))]
	to := from
	for to == from {
		to = Names[l.rnd.IntN(len(Names))]
	}

	tx := Tx{
		ID:     len(l.txs) + 1,
		From:   from,
		To:     to,
		Amount: fmt.Sprintf("%.2f", l.rnd.Float64()*5+0.1),
	}

	if l.sign != nil {
		sig, err := l.sign(Message(tx))
		if err != nil {
			return Tx{}, fmt.Errorf("signing tx %d: %w", tx.ID, err)
		}
		tx.Signature = sig
	}

	l.txs = append(l.txs, tx)

	return tx, nil
}

// Reset restores the seed transfers.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.txs = seed()
}

// Copy returns a copy of the transfers in order.
func (l *Ledger) Copy() []Tx {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cpy := make([]Tx, len(l.txs))
	copy(cpy, l.txs)
	return cpy
}

// Count returns the number of transfers.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.txs)
}

// Message returns the canonical text of a transfer that gets signed.
func Message(tx Tx) string {
	return fmt.Sprintf("%s pays %s %s BTC", tx.From, tx.To, tx.Amount)
}
