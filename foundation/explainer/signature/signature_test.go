package signature_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardanlabs/chainlab/foundation/explainer"
	"github.com/ardanlabs/chainlab/foundation/explainer/digest"
	"github.com/ardanlabs/chainlab/foundation/explainer/signature"
)

const secret = "PRIV_0f1e2d3c4b5a69788796a5b4c3d2e1f0"

// =============================================================================

func Test_Signing(t *testing.T) {
	d := digest.Default()
	msg := "Alice pays Bob 1 BTC"

	sig, err := signature.Sign(d, msg, secret)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	exp := "SIG_" + digest.Hash(msg + secret)[:40]
	if sig != exp {
		t.Logf("got: %s", sig)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should get back the tagged truncated digest.")
	}

	ok, err := signature.Verify(d, msg, secret, sig)
	if err != nil {
		t.Fatalf("Should be able to verify: %s", err)
	}

	if !ok {
		t.Fatalf("Should verify the signature for the original message.")
	}
}

func Test_Tampered(t *testing.T) {
	d := digest.Default()
	msg := "Alice pays Bob 1 BTC"

	sig, err := signature.Sign(d, msg, secret)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	altered := []string{
		"Alice pays Bob 2 BTC",
		"alice pays Bob 1 BTC",
		"Alice pays Bob 1 BTC ",
		"Alice pays Bob 1 BT",
	}

	for _, m := range altered {
		ok, err := signature.Verify(d, m, secret, sig)
		if err != nil {
			t.Fatalf("Should be able to verify %q: %s", m, err)
		}

		if ok {
			t.Fatalf("Should not verify the altered message %q.", m)
		}
	}

	ok, _ := signature.Verify(d, msg, "PRIV_other", sig)
	if ok {
		t.Fatal("Should not verify with a different secret.")
	}
}

func Test_InvalidInput(t *testing.T) {
	d := digest.Default()

	if _, err := signature.Sign(d, "", secret); !errors.Is(err, explainer.ErrInvalidInput) {
		t.Fatalf("Should get ErrInvalidInput for an empty message, got %v", err)
	}

	if _, err := signature.Sign(d, "msg", ""); !errors.Is(err, explainer.ErrInvalidInput) {
		t.Fatalf("Should get ErrInvalidInput for an empty secret, got %v", err)
	}
}

func Test_GenerateKeys(t *testing.T) {
	k1 := signature.GenerateKeys()
	k2 := signature.GenerateKeys()

	for _, k := range []signature.KeyPair{k1, k2} {
		if !strings.HasPrefix(k.Private, "PRIV_") || len(k.Private) != 37 {
			t.Fatalf("Should get a tagged 32 character private key, got %s", k.Private)
		}

		if !strings.HasPrefix(k.Public, "PUB_") || len(k.Public) != 36 {
			t.Fatalf("Should get a tagged 32 character public key, got %s", k.Public)
		}
	}

	if k1.Private == k2.Private {
		t.Fatal("Should get different keys each time.")
	}
}

func Test_Short(t *testing.T) {
	if got := signature.Short("SIG_3045abcdefa7b2"); got != "3045...a7b2" {
		t.Fatalf("got %s", got)
	}
}
