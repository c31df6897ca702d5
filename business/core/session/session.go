// Package session is the core API for the explainer. A session owns the
// state a single learner works with: a chain, a mining attempt, toy keys
// and signatures, and a demo ledger. Every change produces a snapshot that
// is handed to the rendering side.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/chainlab/foundation/explainer/chain"
	"github.com/ardanlabs/chainlab/foundation/explainer/digest"
	"github.com/ardanlabs/chainlab/foundation/explainer/ledger"
	"github.com/ardanlabs/chainlab/foundation/explainer/pow"
	"github.com/ardanlabs/chainlab/foundation/explainer/signature"
)

// EventHandler defines a function that is called when events
// occur in the processing of a session.
type EventHandler func(v string, args ...any)

// SnapshotHandler defines a function that receives a read only snapshot
// after every change to a session.
type SnapshotHandler func(snap Snapshot)

// Config represents the configuration shared by every session.
type Config struct {
	Digester       digest.Digester
	BatchSize      int
	Throttle       time.Duration
	MaxDifficulty  int
	GenesisPayload string
	Now            func() time.Time
	EvHandler      EventHandler
	OnChange       SnapshotHandler
}

// withDefaults fills in the values that were not provided.
func (cfg Config) withDefaults() Config {
	if cfg.Digester == nil {
		cfg.Digester = digest.Default()
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = pow.DefaultBatchSize
	}

	if cfg.MaxDifficulty <= 0 || cfg.MaxDifficulty > pow.MaxDifficulty {
		cfg.MaxDifficulty = pow.MaxDifficulty
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ev := cfg.EvHandler
	cfg.EvHandler = func(v string, args ...any) {
		if ev != nil {
			ev(v, args...)
		}
	}

	return cfg
}

// =============================================================================

// Snapshot is the read only view of a session handed to the rendering side.
type Snapshot struct {
	ID           string            `json:"id"`
	Chain        []chain.Block     `json:"chain"`
	Mining       Mining            `json:"mining"`
	Keys         signature.KeyPair `json:"keys"`
	Signed       *Signed           `json:"signed,omitempty"`
	Verification *Verification     `json:"verification,omitempty"`
	Ledger       []ledger.Tx       `json:"ledger"`
}

// Session manages the state for a single learner.
type Session struct {
	id  string
	cfg Config

	mu       sync.Mutex
	lastUsed time.Time
	chain    *chain.Chain
	ledger   *ledger.Ledger
	keys     signature.KeyPair
	signed   *Signed
	verified *Verification
	mining   Mining

	// Mining runs on its own goroutine. The generation identifies the
	// current search so a stopped search can't write over a newer one.
	// done is closed when the latest run ends, and every run waits for
	// the one before it.
	generation uint64
	cancel     func()
	done       chan struct{}
}

// New constructs a session with a fresh chain and seeded ledger.
func New(id string, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()

	chn, err := chain.New(chain.Config{
		Digester:       cfg.Digester,
		Now:            cfg.Now,
		GenesisPayload: cfg.GenesisPayload,
	})
	if err != nil {
		return nil, fmt.Errorf("constructing chain: %w", err)
	}

	s := Session{
		id:       id,
		cfg:      cfg,
		lastUsed: cfg.Now(),
		chain:    chn,
		mining:   idleMining(),
	}

	// Ledger transfers are signed with a key that belongs to the ledger,
	// separate from the keys the learner generates.
	ledgerKey := signature.GenerateKeys().Private
	s.ledger = ledger.New(nil, func(message string) (string, error) {
		sig, err := signature.Sign(cfg.Digester, message, ledgerKey)
		if err != nil {
			return "", err
		}
		return signature.Short(sig), nil
	})

	cfg.EvHandler("session: New: id[%s]: genesis[%s]", id, chn.Latest().Digest)

	return &s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// LastUsed returns the last time the session was accessed.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastUsed
}

// Snapshot returns the current read only view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot()
}

// Close stops any mining in progress and waits for it to end.
func (s *Session) Close() {
	s.cfg.EvHandler("session: Close: id[%s]: started", s.id)
	defer s.cfg.EvHandler("session: Close: id[%s]: completed", s.id)

	s.mu.Lock()
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// =============================================================================

// touch records the session was used. The caller must hold the lock.
func (s *Session) touch() {
	s.lastUsed = s.cfg.Now()
}

// snapshot builds the view of the session. The caller must hold the lock.
func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:     s.id,
		Chain:  s.chain.Blocks(),
		Mining: s.mining,
		Keys:   s.keys,
		Ledger: s.ledger.Copy(),
	}

	if s.signed != nil {
		cpy := *s.signed
		snap.Signed = &cpy
	}

	if s.verified != nil {
		cpy := *s.verified
		snap.Verification = &cpy
	}

	if s.mining.Result != nil {
		res := *s.mining.Result
		snap.Mining.Result = &res
	}

	return snap
}

// changed hands the snapshot to the rendering side. It must be called
// without holding the lock.
func (s *Session) changed(snap Snapshot) {
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(snap)
	}
}
