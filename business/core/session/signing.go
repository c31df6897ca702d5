package session

import (
	"fmt"

	"github.com/ardanlabs/chainlab/foundation/explainer"
	"github.com/ardanlabs/chainlab/foundation/explainer/ledger"
	"github.com/ardanlabs/chainlab/foundation/explainer/signature"
)

// Signed is the last message signed in a session.
type Signed struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// Verification is the outcome of checking a message against the stored
// signature. Edited is only set when an edited copy of the message was
// checked.
type Verification struct {
	Message   string `json:"message"`
	Edited    string `json:"edited,omitempty"`
	Signature string `json:"signature"`
	Valid     bool   `json:"valid"`
}

// =============================================================================

// GenerateKeys replaces the session's toy key pair. Anything signed with the
// previous keys is forgotten.
func (s *Session) GenerateKeys() signature.KeyPair {
	s.mu.Lock()
	s.touch()

	s.keys = signature.GenerateKeys()
	s.signed = nil
	s.verified = nil
	keys := s.keys
	snap := s.snapshot()
	s.mu.Unlock()

	s.cfg.EvHandler("session: GenerateKeys: id[%s]: public[%s]", s.id, keys.Public)
	s.changed(snap)

	return keys
}

// Sign signs the message with the session's private key.
func (s *Session) Sign(message string) (Signed, error) {
	s.mu.Lock()
	s.touch()

	if s.keys.Private == "" {
		s.mu.Unlock()
		return Signed{}, fmt.Errorf("generate keys before signing: %w", explainer.ErrInvalidInput)
	}

	sig, err := signature.Sign(s.cfg.Digester, message, s.keys.Private)
	if err != nil {
		s.mu.Unlock()
		return Signed{}, err
	}

	s.signed = &Signed{
		Message:   message,
		Signature: sig,
	}
	s.verified = nil
	signed := *s.signed
	snap := s.snapshot()
	s.mu.Unlock()

	s.cfg.EvHandler("session: Sign: id[%s]: sig[%s]", s.id, sig)
	s.changed(snap)

	return signed, nil
}

// Verify checks the signed message against its signature.
func (s *Session) Verify() (Verification, error) {
	return s.verify("")
}

// VerifyTampered checks an edited copy of the signed message against the
// original signature.
func (s *Session) VerifyTampered(edited string) (Verification, error) {
	if edited == "" {
		return Verification{}, fmt.Errorf("edited message is required: %w", explainer.ErrInvalidInput)
	}

	return s.verify(edited)
}

func (s *Session) verify(edited string) (Verification, error) {
	s.mu.Lock()
	s.touch()

	if s.signed == nil {
		s.mu.Unlock()
		return Verification{}, fmt.Errorf("sign a message before verifying: %w", explainer.ErrInvalidInput)
	}

	message := s.signed.Message
	if edited != "" {
		message = edited
	}

	valid, err := signature.Verify(s.cfg.Digester, message, s.keys.Private, s.signed.Signature)
	if err != nil {
		s.mu.Unlock()
		return Verification{}, err
	}

	s.verified = &Verification{
		Message:   s.signed.Message,
		Edited:    edited,
		Signature: s.signed.Signature,
		Valid:     valid,
	}
	v := *s.verified
	snap := s.snapshot()
	s.mu.Unlock()

	s.cfg.EvHandler("session: Verify: id[%s]: edited[%t]: valid[%t]", s.id, edited != "", valid)
	s.changed(snap)

	return v, nil
}

// =============================================================================

// AddTransaction appends a random signed transfer to the demo ledger.
func (s *Session) AddTransaction() (ledger.Tx, error) {
	s.mu.Lock()
	s.touch()

	tx, err := s.ledger.Add()
	if err != nil {
		s.mu.Unlock()
		return ledger.Tx{}, err
	}

	snap := s.snapshot()
	s.mu.Unlock()

	s.cfg.EvHandler("session: AddTransaction: id[%s]: tx[%s]", s.id, tx)
	s.changed(snap)

	return tx, nil
}

// ResetLedger restores the seed transfers.
func (s *Session) ResetLedger() []ledger.Tx {
	s.mu.Lock()
	s.touch()

	s.ledger.Reset()
	snap := s.snapshot()
	s.mu.Unlock()

	s.cfg.EvHandler("session: ResetLedger: id[%s]", s.id)
	s.changed(snap)

	return snap.Ledger
}
