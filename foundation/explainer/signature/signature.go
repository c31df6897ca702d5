// Package signature provides the toy signing scheme used to explain digital
// signatures. It is not asymmetric: the "signature" is a tagged truncation of
// the digest of the message and a secret, and verification recomputes it.
package signature

import (
	"fmt"
	"strings"

	"github.com/ardanlabs/chainlab/foundation/explainer"
	"github.com/ardanlabs/chainlab/foundation/explainer/digest"
	"github.com/google/uuid"
)

// Prefixes that tag the toy values so they are easy to tell apart.
const (
	SignaturePrefix  = "SIG_"
	PrivateKeyPrefix = "PRIV_"
	PublicKeyPrefix  = "PUB_"
)

// signatureLength is the number of digest characters kept in a signature.
const signatureLength = 40

// =============================================================================

// KeyPair represents a toy private and public key. The two values have no
// mathematical relationship to each other.
type KeyPair struct {
	Private string `json:"private"`
	Public  string `json:"public"`
}

// GenerateKeys returns a new toy key pair made of random hex strings.
func GenerateKeys() KeyPair {
	return KeyPair{
		Private: PrivateKeyPrefix + randomHex(),
		Public:  PublicKeyPrefix + randomHex(),
	}
}

// randomHex returns 32 random hex characters.
func randomHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// =============================================================================

// Sign produces the signature for a message using the secret.
func Sign(d digest.Digester, message string, secret string) (string, error) {
	if message == "" {
		return "", fmt.Errorf("message is required: %w", explainer.ErrInvalidInput)
	}

	if secret == "" {
		return "", fmt.Errorf("secret is required: %w", explainer.ErrInvalidInput)
	}

	hash, err := d.Digest(message + secret)
	if err != nil {
		return "", err
	}

	return SignaturePrefix + hash[:signatureLength], nil
}

// Verify recomputes the signature for the message and secret and compares it
// to the one provided. Any change to the message produces a mismatch.
func Verify(d digest.Digester, message string, secret string, sig string) (bool, error) {
	exp, err := Sign(d, message, secret)
	if err != nil {
		return false, err
	}

	return exp == sig, nil
}

// Short returns an abbreviated form of a signature for display, like
// "3045...a7b2".
func Short(sig string) string {
	s := strings.TrimPrefix(sig, SignaturePrefix)
	if len(s) <= 8 {
		return s
	}

	return s[:4] + "..." + s[len(s)-4:]
}
