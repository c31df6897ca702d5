package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/chainlab/foundation/explainer"
	"github.com/ardanlabs/chainlab/foundation/explainer/pow"
)

// Status represents where a mining attempt is in its lifecycle.
type Status string

// Set of mining statuses.
const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusSolved  Status = "solved"
	StatusStopped Status = "stopped"
	StatusFailed  Status = "failed"
)

// Mining is the view of the mining attempt for a session. Progress is reset
// to zero when a search is stopped or solved, the outcome of a solved
// search is kept in Result.
type Mining struct {
	Status     Status      `json:"status"`
	Payload    string      `json:"payload,omitempty"`
	Difficulty int         `json:"difficulty"`
	Expected   string      `json:"expected_attempts,omitempty"`
	Progress   pow.State   `json:"progress"`
	Result     *pow.Result `json:"result,omitempty"`
	Duration   string      `json:"duration,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func idleMining() Mining {
	return Mining{
		Status: StatusIdle,
	}
}

// =============================================================================

// StartMining begins a new proof of work search on its own goroutine. Any
// search already running is cancelled and the new search waits for it to
// end before it starts. The new search always starts at nonce zero.
func (s *Session) StartMining(payload string, difficulty int) (Mining, error) {
	if difficulty > s.cfg.MaxDifficulty {
		return Mining{}, fmt.Errorf("difficulty %d is above the maximum of %d: %w", difficulty, s.cfg.MaxDifficulty, explainer.ErrInvalidInput)
	}

	search := pow.Config{
		Digester:   s.cfg.Digester,
		Payload:    payload,
		Difficulty: difficulty,
		BatchSize:  s.cfg.BatchSize,
		Yield:      pow.Throttle(s.cfg.Throttle),
	}

	if err := search.Validate(); err != nil {
		return Mining{}, err
	}

	s.mu.Lock()
	s.touch()

	s.generation++
	gen := s.generation

	if s.cancel != nil {
		s.cfg.EvHandler("session: StartMining: id[%s]: cancel previous search", s.id)
		s.cancel()
	}

	prev := s.done
	done := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = done

	s.mining = Mining{
		Status:     StatusRunning,
		Payload:    payload,
		Difficulty: difficulty,
		Expected:   pow.ExpectedAttempts(difficulty).String(),
		Progress:   pow.NewState(difficulty),
	}
	mining := s.mining
	snap := s.snapshot()

	s.mu.Unlock()

	s.changed(snap)

	search.Progress = func(st pow.State) {
		s.mu.Lock()
		if s.generation != gen {
			s.mu.Unlock()
			return
		}
		s.mining.Progress = st
		snap := s.snapshot()
		s.mu.Unlock()

		s.changed(snap)
	}

	go func() {
		defer close(done)
		defer cancel()

		if prev != nil {
			<-prev
		}

		s.runSearch(ctx, gen, search)
	}()

	return mining, nil
}

// runSearch performs the search and records the outcome if this search is
// still the current one.
func (s *Session) runSearch(ctx context.Context, gen uint64, search pow.Config) {
	s.cfg.EvHandler("session: runSearch: id[%s]: MINING: started: difficulty[%d]", s.id, search.Difficulty)
	defer s.cfg.EvHandler("session: runSearch: id[%s]: MINING: completed", s.id)

	t := time.Now()
	res, err := pow.Search(ctx, search)
	duration := time.Since(t)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.cfg.EvHandler("session: runSearch: id[%s]: MINING: CANCEL: complete", s.id)
		return
	}

	s.cancel = nil
	s.mining.Progress = pow.NewState(search.Difficulty)
	s.mining.Duration = duration.String()

	switch {
	case err == nil:
		s.mining.Status = StatusSolved
		s.mining.Result = &res
		s.cfg.EvHandler("session: runSearch: id[%s]: MINING: SOLVED: nonce[%d]: attempts[%d]: digest[%s]", s.id, res.Nonce, res.Attempts, res.Digest)

	case errors.Is(err, pow.ErrCancelled):
		s.mining.Status = StatusStopped
		s.cfg.EvHandler("session: runSearch: id[%s]: MINING: CANCEL: complete", s.id)

	default:
		s.mining.Status = StatusFailed
		s.mining.Error = err.Error()
		s.cfg.EvHandler("session: runSearch: id[%s]: MINING: ERROR: %s", s.id, err)
	}

	snap := s.snapshot()
	s.mu.Unlock()

	s.changed(snap)
}

// StopMining ends the search in progress. The nonce and attempt count of
// the stopped search are discarded and the call returns once the search
// goroutine has ended.
func (s *Session) StopMining() Mining {
	s.mu.Lock()
	s.touch()

	if s.mining.Status != StatusRunning {
		mining := s.mining
		s.mu.Unlock()
		return mining
	}

	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	s.mining.Status = StatusStopped
	s.mining.Progress = pow.NewState(s.mining.Difficulty)
	mining := s.mining
	done := s.done
	snap := s.snapshot()
	s.mu.Unlock()

	s.cfg.EvHandler("session: StopMining: id[%s]: MINING: CANCEL: signaled", s.id)

	if done != nil {
		<-done
	}
	s.changed(snap)

	return mining
}

// Mining returns the current mining view.
func (s *Session) Mining() Mining {
	s.mu.Lock()
	defer s.mu.Unlock()

	mining := s.mining
	if mining.Result != nil {
		res := *mining.Result
		mining.Result = &res
	}

	return mining
}
