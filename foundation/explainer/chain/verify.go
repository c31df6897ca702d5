package chain

import "fmt"

// Issue describes why a block fails an integrity check.
type Issue struct {
	ID     uint64 `json:"id"`
	Reason string `json:"reason"`
}

// Verify recomputes every digest and link in the chain from scratch without
// changing any block. A block passes when its previous digest equals the
// actual digest of the block before it and its own digest matches the
// recomputation of its fields.
func (c *Chain) Verify() ([]Issue, error) {
	var issues []Issue

	for i, b := range c.blocks {
		expPrev := GenesisPrevDigest
		if i > 0 {
			expPrev = c.blocks[i-1].Digest
		}

		if b.PrevDigest != expPrev {
			issues = append(issues, Issue{
				ID:     b.ID,
				Reason: fmt.Sprintf("previous digest %.12s does not match %.12s", b.PrevDigest, expPrev),
			})
			continue
		}

		hash, err := Seal(c.digester, b.PrevDigest, b.Payload, b.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("sealing block %d: %w", b.ID, err)
		}

		if hash != b.Digest {
			issues = append(issues, Issue{
				ID:     b.ID,
				Reason: fmt.Sprintf("digest %.12s does not match contents %.12s", b.Digest, hash),
			})
		}
	}

	return issues, nil
}
