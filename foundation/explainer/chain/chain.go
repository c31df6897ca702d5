// Package chain maintains an append only sequence of blocks linked by digest
// and detects tampering by re-linking those digests. A Chain is owned by a
// single session and is not safe for concurrent use.
package chain

import (
	"fmt"
	"time"

	"github.com/ardanlabs/chainlab/foundation/explainer"
	"github.com/ardanlabs/chainlab/foundation/explainer/digest"
)

// GenesisPrevDigest is the previous digest recorded by the first block.
const GenesisPrevDigest = "0000000000000000"

// DefaultGenesisPayload is used when no genesis payload is configured.
const DefaultGenesisPayload = "Genesis Block"

// =============================================================================

// Block represents a single link in the chain.
type Block struct {
	ID         uint64 `json:"id"`
	Payload    string `json:"payload"`
	Timestamp  string `json:"timestamp"`
	PrevDigest string `json:"prev_digest"`
	Digest     string `json:"digest"`
	Valid      bool   `json:"valid"`
}

// Seal computes the digest of a block from its inputs.
func Seal(d digest.Digester, prevDigest string, payload string, timestamp string) (string, error) {
	return d.Digest(prevDigest + payload + timestamp)
}

// Timestamp returns the string form of a time that is sealed into a block.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// DefaultPayload returns a demo payload for the nth block of a chain:
// "Tx A, B, C" for the first block, "Tx B, C, D" for the second and so on.
func DefaultPayload(n int) string {
	letter := func(i int) rune {
		return rune('A' + (n+i)%26)
	}

	return fmt.Sprintf("Tx %c, %c, %c", letter(0), letter(1), letter(2))
}

// =============================================================================

// Config represents the dependencies of a chain.
type Config struct {
	Digester       digest.Digester
	Now            func() time.Time
	GenesisPayload string
}

// Chain is the ordered set of blocks for a session.
type Chain struct {
	digester       digest.Digester
	now            func() time.Time
	genesisPayload string
	blocks         []Block
	nextID         uint64
}

// New constructs a chain holding a single genesis block.
func New(cfg Config) (*Chain, error) {
	c := Chain{
		digester:       cfg.Digester,
		now:            cfg.Now,
		genesisPayload: cfg.GenesisPayload,
	}

	if c.digester == nil {
		c.digester = digest.Default()
	}

	if c.now == nil {
		c.now = time.Now
	}

	if c.genesisPayload == "" {
		c.genesisPayload = DefaultGenesisPayload
	}

	if err := c.Reset(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Reset discards every block and starts again from a new genesis block. The
// chain is left as it was if the genesis block can't be sealed.
func (c *Chain) Reset() error {
	genesis, err := c.seal(1, GenesisPrevDigest, c.genesisPayload)
	if err != nil {
		return fmt.Errorf("genesis: %w", err)
	}

	c.blocks = []Block{genesis}
	c.nextID = 2

	return nil
}

// Append links a new block to the current last block of the chain. New
// blocks always chain to the current state, even when earlier blocks have
// been marked invalid.
func (c *Chain) Append(payload string) (Block, error) {
	if payload == "" {
		return Block{}, fmt.Errorf("payload is required: %w", explainer.ErrInvalidInput)
	}

	prevDigest := GenesisPrevDigest
	if len(c.blocks) > 0 {
		prevDigest = c.blocks[len(c.blocks)-1].Digest
	}

	b, err := c.seal(c.nextID, prevDigest, payload)
	if err != nil {
		return Block{}, err
	}

	c.blocks = append(c.blocks, b)
	c.nextID++

	return b, nil
}

// seal builds a valid block linked to the previous digest.
func (c *Chain) seal(id uint64, prevDigest string, payload string) (Block, error) {
	ts := Timestamp(c.now())

	hash, err := Seal(c.digester, prevDigest, payload, ts)
	if err != nil {
		return Block{}, fmt.Errorf("sealing block %d: %w", id, err)
	}

	b := Block{
		ID:         id,
		Payload:    payload,
		Timestamp:  ts,
		PrevDigest: prevDigest,
		Digest:     hash,
		Valid:      true,
	}

	return b, nil
}

// Tamper replaces the payload of a block and recomputes its digest from the
// original previous digest and timestamp. The block is always marked invalid
// and, once the link to the next block breaks, so is everything after it.
// Blocks before the tampered one are not touched.
func (c *Chain) Tamper(id uint64, payload string) error {
	if payload == "" {
		return fmt.Errorf("payload is required: %w", explainer.ErrInvalidInput)
	}

	idx, err := c.index(id)
	if err != nil {
		return err
	}

	b := c.blocks[idx]

	hash, err := Seal(c.digester, b.PrevDigest, payload, b.Timestamp)
	if err != nil {
		return fmt.Errorf("sealing block %d: %w", id, err)
	}

	b.Payload = payload
	b.Digest = hash
	b.Valid = false
	c.blocks[idx] = b

	c.revalidate(idx + 1)

	return nil
}

// Revalidate walks the chain forward from the block with the specified id,
// comparing each block's previous digest with the actual digest of the block
// before it. The first mismatch marks that block and every block after it
// invalid. Blocks before the id are not touched and validity is never
// restored by this walk.
func (c *Chain) Revalidate(from uint64) error {
	idx, err := c.index(from)
	if err != nil {
		return err
	}

	c.revalidate(idx)
	return nil
}

// revalidate performs the forward walk starting at the index.
func (c *Chain) revalidate(start int) {
	if start < 1 {
		start = 1
	}

	var broken bool
	for i := start; i < len(c.blocks); i++ {
		if c.blocks[i].PrevDigest != c.blocks[i-1].Digest {
			broken = true
		}

		if broken {
			c.blocks[i].Valid = false
		}
	}
}

// =============================================================================

// Block returns the block with the specified id.
func (c *Chain) Block(id uint64) (Block, error) {
	idx, err := c.index(id)
	if err != nil {
		return Block{}, err
	}

	return c.blocks[idx], nil
}

// Blocks returns a copy of the blocks in chain order.
func (c *Chain) Blocks() []Block {
	cpy := make([]Block, len(c.blocks))
	copy(cpy, c.blocks)
	return cpy
}

// Latest returns the last block in the chain.
func (c *Chain) Latest() Block {
	return c.blocks[len(c.blocks)-1]
}

// Len returns the number of blocks in the chain.
func (c *Chain) Len() int {
	return len(c.blocks)
}

// index locates the position of a block by id.
func (c *Chain) index(id uint64) (int, error) {
	for i, b := range c.blocks {
		if b.ID == id {
			return i, nil
		}
	}

	return 0, fmt.Errorf("block %d: %w", id, explainer.ErrNotFound)
}
