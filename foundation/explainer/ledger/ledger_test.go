package ledger_test

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/ardanlabs/chainlab/foundation/explainer/ledger"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Add(t *testing.T) {
	var signed []string
	sign := func(msg string) (string, error) {
		signed = append(signed, msg)
		return "SIG_test", nil
	}

	l := ledger.New(rand.New(rand.NewPCG(1, 2)), sign)

	t.Log("Given the need to add demo transfers.")
	{
		t.Logf("\tTest 0:\tWhen adding 50 transfers to a seeded ledger.")
		{
			if l.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould start with the 2 seed transfers, got %d.", failed, l.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould start with the 2 seed transfers.", success)

			for range 50 {
				tx, err := l.Add()
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to add a transfer: %s", failed, err)
				}

				if tx.From == tx.To {
					t.Fatalf("\t%s\tTest 0:\tShould use two different parties, got %s.", failed, tx)
				}

				amount, err := strconv.ParseFloat(tx.Amount, 64)
				if err != nil || amount < 0.1 || amount > 5.1 {
					t.Fatalf("\t%s\tTest 0:\tShould get an amount between 0.10 and 5.10, got %s.", failed, tx.Amount)
				}

				if tx.Signature != "SIG_test" {
					t.Fatalf("\t%s\tTest 0:\tShould sign the transfer.", failed)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould add valid signed transfers.", success)

			txs := l.Copy()
			for i, tx := range txs {
				if tx.ID != i+1 {
					t.Fatalf("\t%s\tTest 0:\tShould number transfers in order, got %d at %d.", failed, tx.ID, i)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould number transfers in order.", success)

			if signed[0] != ledger.Message(txs[2]) {
				t.Fatalf("\t%s\tTest 0:\tShould sign the canonical message, got %q.", failed, signed[0])
			}
			t.Logf("\t%s\tTest 0:\tShould sign the canonical message.", success)
		}
	}

	l.Reset()
	if l.Count() != 2 {
		t.Fatalf("Should reset to the seed transfers, got %d", l.Count())
	}
}

func Test_SignFailure(t *testing.T) {
	sign := func(string) (string, error) {
		return "", errors.New("no keys")
	}

	l := ledger.New(nil, sign)
	if _, err := l.Add(); err == nil {
		t.Fatal("Should surface the signing error.")
	}

	if l.Count() != 2 {
		t.Fatal("Should not add a transfer that could not be signed.")
	}
}
