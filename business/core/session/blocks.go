package session

import (
	"github.com/ardanlabs/chainlab/foundation/explainer/chain"
)

// AppendBlock links a new block with the payload to the end of the chain.
func (s *Session) AppendBlock(payload string) (chain.Block, error) {
	s.mu.Lock()
	s.touch()

	blk, err := s.chain.Append(payload)
	if err != nil {
		s.mu.Unlock()
		return chain.Block{}, err
	}

	snap := s.snapshot()
	s.mu.Unlock()

	s.cfg.EvHandler("session: AppendBlock: id[%s]: blk[%d]: prev[%s]: digest[%s]", s.id, blk.ID, blk.PrevDigest, blk.Digest)
	s.changed(snap)

	return blk, nil
}

// AppendDemoBlock links a new block carrying the next demo payload.
func (s *Session) AppendDemoBlock() (chain.Block, error) {
	s.mu.Lock()
	payload := chain.DefaultPayload(s.chain.Len())
	s.mu.Unlock()

	return s.AppendBlock(payload)
}

// TamperBlock replaces the payload of a block and returns the chain after
// the invalidity has been propagated forward.
func (s *Session) TamperBlock(id uint64, payload string) ([]chain.Block, error) {
	s.mu.Lock()
	s.touch()

	if err := s.chain.Tamper(id, payload); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	snap := s.snapshot()
	s.mu.Unlock()

	var invalid int
	for _, blk := range snap.Chain {
		if !blk.Valid {
			invalid++
		}
	}

	s.cfg.EvHandler("session: TamperBlock: id[%s]: blk[%d]: invalid blocks[%d]", s.id, id, invalid)
	s.changed(snap)

	return snap.Chain, nil
}

// ResetChain discards every block and starts again from a genesis block.
func (s *Session) ResetChain() ([]chain.Block, error) {
	s.mu.Lock()
	s.touch()

	if err := s.chain.Reset(); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	snap := s.snapshot()
	s.mu.Unlock()

	s.cfg.EvHandler("session: ResetChain: id[%s]", s.id)
	s.changed(snap)

	return snap.Chain, nil
}

// Block returns the block with the specified id.
func (s *Session) Block(id uint64) (chain.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chain.Block(id)
}

// Chain returns a copy of the blocks in the chain.
func (s *Session) Chain() []chain.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chain.Blocks()
}

// VerifyChain recomputes every digest and link and reports what is broken.
func (s *Session) VerifyChain() ([]chain.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chain.Verify()
}
