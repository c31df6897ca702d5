package chain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ardanlabs/chainlab/foundation/explainer"
	"github.com/ardanlabs/chainlab/foundation/explainer/chain"
	"github.com/ardanlabs/chainlab/foundation/explainer/digest"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// clock returns a time function that moves forward one second per call.
func clock() func() time.Time {
	t := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newChain(t *testing.T, genesis string) *chain.Chain {
	c, err := chain.New(chain.Config{
		Now:            clock(),
		GenesisPayload: genesis,
	})
	if err != nil {
		t.Fatalf("Should be able to construct a chain: %s", err)
	}
	return c
}

// =============================================================================

func Test_Integrity(t *testing.T) {
	t.Log("Given the need to link appended blocks by digest.")
	{
		for _, k := range []int{1, 3, 10} {
			t.Logf("\tTest %d:\tWhen appending %d blocks.", k, k)
			{
				c := newChain(t, "")

				for i := range k {
					if _, err := c.Append(chain.DefaultPayload(i + 1)); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to append: %s", failed, k, err)
					}
				}

				blocks := c.Blocks()
				if len(blocks) != k+1 {
					t.Fatalf("\t%s\tTest %d:\tShould have %d blocks, got %d.", failed, k, k+1, len(blocks))
				}

				if blocks[0].PrevDigest != chain.GenesisPrevDigest {
					t.Fatalf("\t%s\tTest %d:\tShould link the genesis block to the sentinel.", failed, k)
				}

				for i, b := range blocks {
					if b.ID != uint64(i+1) {
						t.Fatalf("\t%s\tTest %d:\tShould number blocks from 1, got %d at %d.", failed, k, b.ID, i)
					}

					if !b.Valid {
						t.Fatalf("\t%s\tTest %d:\tShould have every block valid, block %d is not.", failed, k, b.ID)
					}

					exp := digest.Hash(b.PrevDigest + b.Payload + b.Timestamp)
					if b.Digest != exp {
						t.Fatalf("\t%s\tTest %d:\tShould seal block %d from its fields.", failed, k, b.ID)
					}

					if i > 0 && b.PrevDigest != blocks[i-1].Digest {
						t.Fatalf("\t%s\tTest %d:\tShould link block %d to block %d.", failed, k, b.ID, blocks[i-1].ID)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould link and validate every block.", success, k)

				issues, err := c.Verify()
				if err != nil || len(issues) != 0 {
					t.Fatalf("\t%s\tTest %d:\tShould verify cleanly, got %v %v.", failed, k, issues, err)
				}
				t.Logf("\t%s\tTest %d:\tShould verify cleanly.", success, k)
			}
		}
	}
}

func Test_TamperPropagation(t *testing.T) {
	const length = 6

	t.Log("Given the need to detect a tampered block.")
	{
		for target := 1; target <= length; target++ {
			t.Logf("\tTest %d:\tWhen tampering block %d of %d.", target, target, length)
			{
				c := newChain(t, "")
				for i := 1; i < length; i++ {
					if _, err := c.Append(chain.DefaultPayload(i)); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to append: %s", failed, target, err)
					}
				}

				if err := c.Tamper(uint64(target), "Mallory pays Mallory 100 BTC"); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to tamper: %s", failed, target, err)
				}

				for _, b := range c.Blocks() {
					exp := b.ID < uint64(target)
					if b.Valid != exp {
						t.Fatalf("\t%s\tTest %d:\tShould have block %d valid=%v, got %v.", failed, target, b.ID, exp, b.Valid)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould invalidate blocks %d..%d only.", success, target, target, length)

				issues, err := c.Verify()
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to verify: %s", failed, target, err)
				}

				expIssues := 0
				if target < length {
					expIssues = 1
				}
				if len(issues) != expIssues {
					t.Fatalf("\t%s\tTest %d:\tShould report %d broken link, got %v.", failed, target, expIssues, issues)
				}
				if expIssues == 1 && issues[0].ID != uint64(target+1) {
					t.Fatalf("\t%s\tTest %d:\tShould report the broken link at block %d, got %d.", failed, target, target+1, issues[0].ID)
				}
				t.Logf("\t%s\tTest %d:\tShould report the broken link.", success, target)
			}
		}
	}
}

func Test_Scenario(t *testing.T) {
	c := newChain(t, "G")

	g := c.Latest()
	if g.Payload != "G" {
		t.Fatalf("Should start with the genesis payload, got %q", g.Payload)
	}

	a, err := c.Append("A")
	if err != nil {
		t.Fatalf("Should be able to append A: %s", err)
	}

	if a.PrevDigest != digest.Hash(chain.GenesisPrevDigest+"G"+g.Timestamp) {
		t.Fatal("Should link A to the digest of the genesis block.")
	}

	if err := c.Tamper(a.ID, "X"); err != nil {
		t.Fatalf("Should be able to tamper A: %s", err)
	}

	a, _ = c.Block(a.ID)
	if a.Valid {
		t.Fatal("Should mark A invalid after tampering.")
	}

	if a.PrevDigest != g.Digest {
		t.Fatal("Should keep the original previous digest of A.")
	}

	if a.Digest != digest.Hash(g.Digest+"X"+a.Timestamp) {
		t.Fatal("Should reseal A with the new payload and original timestamp.")
	}

	b, err := c.Append("B")
	if err != nil {
		t.Fatalf("Should be able to append B: %s", err)
	}

	if b.PrevDigest != a.Digest {
		t.Fatal("Should link B to the post-tamper digest of A.")
	}

	if !b.Valid {
		t.Fatal("Should mark B valid since it chains to the current state.")
	}

	if err := c.Revalidate(g.ID); err != nil {
		t.Fatalf("Should be able to revalidate: %s", err)
	}
	if b, _ = c.Block(b.ID); !b.Valid {
		t.Fatal("Should keep B valid after revalidation.")
	}
}

func Test_TamperKeepsEarlierBlocks(t *testing.T) {
	t.Log("Given the need to tamper a block after an earlier break was healed by appends.")
	{
		c := newChain(t, "G")
		c.Append("a")
		c.Append("c")

		if err := c.Tamper(2, "x"); err != nil {
			t.Fatalf("\t%s\tShould be able to tamper block 2: %s", failed, err)
		}

		b, _ := c.Append("b")
		e, _ := c.Append("e")
		if !b.Valid || !e.Valid {
			t.Fatalf("\t%s\tShould append valid blocks after the tamper.", failed)
		}

		before := c.Blocks()

		if err := c.Tamper(e.ID, "evil"); err != nil {
			t.Fatalf("\t%s\tShould be able to tamper block %d: %s", failed, e.ID, err)
		}

		after := c.Blocks()
		for i := range before[:len(before)-1] {
			if after[i].Valid != before[i].Valid {
				t.Fatalf("\t%s\tShould keep the validity of block %d, got %t.", failed, after[i].ID, after[i].Valid)
			}
		}
		t.Logf("\t%s\tShould keep the validity of every block before the tampered one.", success)

		if after[len(after)-1].Valid {
			t.Fatalf("\t%s\tShould mark the tampered block invalid.", failed)
		}
		t.Logf("\t%s\tShould mark the tampered block invalid.", success)
	}
}

func Test_Revalidate(t *testing.T) {
	c := newChain(t, "G")
	c.Append("a")
	c.Append("b")
	c.Append("c")

	if err := c.Revalidate(99); !errors.Is(err, explainer.ErrNotFound) {
		t.Fatalf("Should get ErrNotFound for an unknown start, got %v", err)
	}

	if err := c.Revalidate(1); err != nil {
		t.Fatalf("Should be able to revalidate from genesis: %s", err)
	}

	for _, b := range c.Blocks() {
		if !b.Valid {
			t.Fatalf("Should keep an intact chain valid, block %d is not.", b.ID)
		}
	}
}

func Test_TamperAlwaysInvalid(t *testing.T) {
	c := newChain(t, "")
	b, _ := c.Append("same")

	if err := c.Tamper(b.ID, "same"); err != nil {
		t.Fatalf("Should be able to tamper with identical data: %s", err)
	}

	got, _ := c.Block(b.ID)
	if got.Digest != b.Digest {
		t.Fatal("Should reseal to the same digest with identical data.")
	}

	if got.Valid {
		t.Fatal("Should mark a tampered block invalid even when the digest did not change.")
	}
}

func Test_Errors(t *testing.T) {
	c := newChain(t, "")
	c.Append("one")
	before := c.Blocks()

	if err := c.Tamper(99, "data"); !errors.Is(err, explainer.ErrNotFound) {
		t.Fatalf("Should get ErrNotFound, got %v", err)
	}

	if err := c.Tamper(2, ""); !errors.Is(err, explainer.ErrInvalidInput) {
		t.Fatalf("Should get ErrInvalidInput for empty payload, got %v", err)
	}

	if _, err := c.Append(""); !errors.Is(err, explainer.ErrInvalidInput) {
		t.Fatalf("Should get ErrInvalidInput for empty append, got %v", err)
	}

	if _, err := c.Block(0); !errors.Is(err, explainer.ErrNotFound) {
		t.Fatalf("Should get ErrNotFound for lookup, got %v", err)
	}

	after := c.Blocks()
	if fmt.Sprint(before) != fmt.Sprint(after) {
		t.Fatal("Should not mutate the chain on failure.")
	}
}

func Test_UnavailableDigest(t *testing.T) {
	_, err := chain.New(chain.Config{Digester: digest.NewPrimitive("missing", nil)})
	if !errors.Is(err, digest.ErrUnavailable) {
		t.Fatalf("Should surface ErrUnavailable, got %v", err)
	}
}

func Test_Reset(t *testing.T) {
	c := newChain(t, "")
	c.Append("one")
	c.Append("two")
	c.Tamper(2, "evil")

	if err := c.Reset(); err != nil {
		t.Fatalf("Should be able to reset: %s", err)
	}

	if c.Len() != 1 {
		t.Fatalf("Should hold only the genesis block, got %d", c.Len())
	}

	g := c.Latest()
	if g.ID != 1 || !g.Valid || g.Payload != chain.DefaultGenesisPayload {
		t.Fatalf("Should restart with a valid genesis block, got %+v", g)
	}
}

// failAfter allows a number of digests and then reports the primitive as
// unavailable.
type failAfter struct {
	n int
}

func (f *failAfter) Algorithm() string { return "failing" }

func (f *failAfter) Digest(input string) (string, error) {
	if f.n <= 0 {
		return "", digest.ErrUnavailable
	}
	f.n--
	return digest.Hash(input), nil
}

func Test_ResetFailure(t *testing.T) {
	c, err := chain.New(chain.Config{
		Digester: &failAfter{n: 2},
		Now:      clock(),
	})
	if err != nil {
		t.Fatalf("Should be able to construct a chain: %s", err)
	}

	if _, err := c.Append("one"); err != nil {
		t.Fatalf("Should be able to append: %s", err)
	}

	before := c.Blocks()

	if err := c.Reset(); !errors.Is(err, digest.ErrUnavailable) {
		t.Fatalf("Should surface ErrUnavailable, got %v", err)
	}

	if fmt.Sprint(c.Blocks()) != fmt.Sprint(before) {
		t.Fatalf("Should leave the chain untouched, got %d blocks", c.Len())
	}

	if got := c.Latest(); got.Payload != "one" {
		t.Fatalf("Should still report the latest block, got %+v", got)
	}
}

func Test_DefaultPayload(t *testing.T) {
	exp := map[int]string{
		0:  "Tx A, B, C",
		1:  "Tx B, C, D",
		24: "Tx Y, Z, A",
	}

	for n, want := range exp {
		if got := chain.DefaultPayload(n); got != want {
			t.Fatalf("n %d: got %q, exp %q", n, got, want)
		}
	}
}
