// Package explainer contains the error kinds shared by the packages that
// implement the blockchain explainer: digests, proof of work, chain
// validation and toy signatures.
package explainer

import "errors"

// Set of error kinds surfaced to callers.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
