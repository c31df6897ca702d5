// Package digest provides the fixed length hexadecimal digest that every
// other explainer package builds on. The primitive itself is supplied by the
// standard library or go-ethereum and is treated as a black box.
package digest

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Set of supported digest algorithms.
const (
	SHA256    = "sha256"
	Keccak256 = "keccak256"
)

// Size is the number of hex characters in a digest (256 bits).
const Size = 64

// ErrUnavailable is returned when the digest primitive can't be used.
var ErrUnavailable = errors.New("digest primitive unavailable")

// =============================================================================

// Digester represents the behavior required to produce a digest for
// an arbitrary input string.
type Digester interface {
	Algorithm() string
	Digest(input string) (string, error)
}

// Primitive adapts a raw hashing function into a Digester.
type Primitive struct {
	name string
	fn   func(data []byte) []byte
}

// NewPrimitive constructs a Digester from a hashing function that must
// return 32 bytes. A nil function represents a host without the primitive.
func NewPrimitive(name string, fn func(data []byte) []byte) Primitive {
	return Primitive{
		name: name,
		fn:   fn,
	}
}

// Algorithm returns the name of the underlying primitive.
func (p Primitive) Algorithm() string {
	return p.name
}

// Digest returns the lowercase hex digest for the input.
func (p Primitive) Digest(input string) (string, error) {
	if p.fn == nil {
		return "", fmt.Errorf("%s: %w", p.name, ErrUnavailable)
	}

	sum := p.fn([]byte(input))
	if len(sum)*2 != Size {
		return "", fmt.Errorf("%s: produced %d bytes: %w", p.name, len(sum), ErrUnavailable)
	}

	return strings.TrimPrefix(hexutil.Encode(sum), "0x"), nil
}

// =============================================================================

// New returns the Digester for the specified algorithm.
func New(algorithm string) (Digester, error) {
	switch strings.ToLower(algorithm) {
	case SHA256:
		return NewPrimitive(SHA256, func(data []byte) []byte {
			sum := sha256.Sum256(data)
			return sum[:]
		}), nil

	case Keccak256:
		return NewPrimitive(Keccak256, func(data []byte) []byte {
			return crypto.Keccak256(data)
		}), nil
	}

	return nil, fmt.Errorf("algorithm %q: %w", algorithm, ErrUnavailable)
}

// Default returns the sha256 Digester.
func Default() Digester {
	d, _ := New(SHA256)
	return d
}

// Hash is a convenience function for computing a sha256 digest.
func Hash(input string) string {
	h, _ := Default().Digest(input)
	return h
}

// IsDigest reports whether the string is a well formed digest.
func IsDigest(s string) bool {
	if len(s) != Size || strings.ToLower(s) != s {
		return false
	}

	_, err := hexutil.Decode("0x" + s)
	return err == nil
}
