// Package pow implements the proof of work search used to explain mining.
// The search is a linear scan over nonces starting at zero with no shortcuts,
// run as a cooperative loop that yields and checks for cancellation between
// batches of work.
package pow

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ardanlabs/chainlab/foundation/explainer"
	"github.com/ardanlabs/chainlab/foundation/explainer/digest"
)

// MaxDifficulty is the largest difficulty a digest can satisfy.
const MaxDifficulty = digest.Size

// DefaultBatchSize is the number of nonces tried between yields.
const DefaultBatchSize = 1000

// ErrCancelled is returned when a search is stopped before a solution.
var ErrCancelled = errors.New("mining cancelled")

// =============================================================================

// State represents a mining attempt for a single session. The zero nonce
// and attempt count are where every search begins.
type State struct {
	Target   string `json:"target"`
	Nonce    uint64 `json:"nonce"`
	Attempts uint64 `json:"attempts"`
	Digest   string `json:"digest"`
	Found    bool   `json:"found"`
}

// NewState constructs the starting state for the specified difficulty.
func NewState(difficulty int) State {
	return State{
		Target: Target(difficulty),
	}
}

// Step computes the digest for the current nonce and returns the next state.
// When the digest solves the target the nonce is left in place and Found
// is set, otherwise the nonce advances by one.
func Step(d digest.Digester, payload string, st State) (State, error) {
	hash, err := d.Digest(payload + strconv.FormatUint(st.Nonce, 10))
	if err != nil {
		return st, fmt.Errorf("nonce %d: %w", st.Nonce, err)
	}

	st.Attempts++
	st.Digest = hash

	if strings.HasPrefix(hash, st.Target) {
		st.Found = true
		return st, nil
	}

	st.Nonce++
	return st, nil
}

// =============================================================================

// YieldFunc is called between batches to give control back to the host.
// Returning an error ends the search.
type YieldFunc func(ctx context.Context) error

// ProgressHandler receives the mining state after every batch.
type ProgressHandler func(st State)

// Config represents everything needed to run a search.
type Config struct {
	Digester   digest.Digester
	Payload    string
	Difficulty int
	BatchSize  int
	Yield      YieldFunc
	Progress   ProgressHandler
}

// Result is the outcome of a successful search.
type Result struct {
	Nonce    uint64 `json:"nonce"`
	Digest   string `json:"digest"`
	Attempts uint64 `json:"attempts"`
}

// Validate checks the search can be performed with this configuration.
func (cfg Config) Validate() error {
	if cfg.Payload == "" {
		return fmt.Errorf("payload is required: %w", explainer.ErrInvalidInput)
	}

	if cfg.Difficulty < 0 || cfg.Difficulty > MaxDifficulty {
		return fmt.Errorf("difficulty %d must be between 0 and %d: %w", cfg.Difficulty, MaxDifficulty, explainer.ErrInvalidInput)
	}

	return nil
}

// Search looks for the smallest nonce that solves the target. Every call
// starts from nonce zero with a fresh attempt count, nothing is resumed
// from an earlier stopped search.
func Search(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	d := cfg.Digester
	if d == nil {
		d = digest.Default()
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	st := NewState(cfg.Difficulty)

	for {

		// Did someone ask us to stop before this batch.
		if ctx.Err() != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		}

		for range batch {
			var err error
			if st, err = Step(d, cfg.Payload, st); err != nil {
				return Result{}, err
			}

			if st.Found {
				break
			}
		}

		if cfg.Progress != nil {
			cfg.Progress(st)
		}

		if st.Found {
			return Result{Nonce: st.Nonce, Digest: st.Digest, Attempts: st.Attempts}, nil
		}

		if cfg.Yield != nil {
			if err := cfg.Yield(ctx); err != nil {
				return Result{}, fmt.Errorf("%w: %w", ErrCancelled, err)
			}
		}
	}
}

// Throttle returns a YieldFunc that pauses between batches so the progress
// stays visible to a person watching it.
func Throttle(interval time.Duration) YieldFunc {
	return func(ctx context.Context) error {
		if interval <= 0 {
			return ctx.Err()
		}

		t := time.NewTimer(interval)
		defer t.Stop()

		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// =============================================================================

// Target returns the required digest prefix for a difficulty.
func Target(difficulty int) string {
	if difficulty <= 0 {
		return ""
	}

	return strings.Repeat("0", difficulty)
}

// IsSolved checks the hash has a difficulty number of leading 0's.
func IsSolved(difficulty int, hash string) bool {
	if len(hash) != digest.Size || difficulty > MaxDifficulty {
		return false
	}

	return strings.HasPrefix(hash, Target(difficulty))
}

// Verify recomputes the digest for the nonce and checks it solves the target.
func Verify(d digest.Digester, payload string, nonce uint64, difficulty int) (bool, error) {
	hash, err := d.Digest(payload + strconv.FormatUint(nonce, 10))
	if err != nil {
		return false, err
	}

	return IsSolved(difficulty, hash), nil
}

// ExpectedAttempts returns 16^difficulty, the average number of nonces that
// must be tried before one solves the target.
func ExpectedAttempts(difficulty int) *big.Int {
	if difficulty <= 0 {
		return big.NewInt(1)
	}

	return new(big.Int).Exp(big.NewInt(16), big.NewInt(int64(difficulty)), nil)
}
