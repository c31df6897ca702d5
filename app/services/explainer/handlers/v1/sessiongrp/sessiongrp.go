// Package sessiongrp maintains the group of handlers that drive explainer
// sessions: hashing, mining, chain tampering, signatures and the ledger.
package sessiongrp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/chainlab/business/core/session"
	"github.com/ardanlabs/chainlab/business/sys/validate"
	"github.com/ardanlabs/chainlab/business/web/errs"
	"github.com/ardanlabs/chainlab/foundation/events"
	"github.com/ardanlabs/chainlab/foundation/explainer/chain"
	"github.com/ardanlabs/chainlab/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of session endpoints.
type Handlers struct {
	Log      *zap.SugaredLogger
	Sessions *session.Manager
	WS       websocket.Upgrader
	Evts     *events.Events
}

// Digest computes the digest of arbitrary text.
func (h Handlers) Digest(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req digestRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	hash, err := h.Sessions.Digest(req.Input)
	if err != nil {
		return errs.FromExplainer(err)
	}

	resp := digestResponse{
		Algorithm: h.Sessions.Algorithm(),
		Input:     req.Input,
		Digest:    hash,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// Create starts a new session.
func (h Handlers) Create(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.Sessions.Create()
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	return web.Respond(ctx, w, s.Snapshot(), http.StatusCreated)
}

// Query returns the current snapshot of a session.
func (h Handlers) Query(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.session(r)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, s.Snapshot(), http.StatusOK)
}

// Delete ends a session.
func (h Handlers) Delete(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	if err := h.Sessions.Delete(id); err != nil {
		return errs.FromExplainer(err)
	}

	h.Evts.Close(id)

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}

// Events handles a web socket to provide session snapshots to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	s, err := h.session(r)
	if err != nil {
		return err
	}

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(s.ID(), v.TraceID)
	defer h.Evts.Release(s.ID(), v.TraceID)

	// Send the current state so the client can render before any change.
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return err
	}
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		return nil
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

// StartMining begins a proof of work search for the session.
func (h Handlers) StartMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.session(r)
	if err != nil {
		return err
	}

	var req mineRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	mining, err := s.StartMining(req.Payload, req.Difficulty)
	if err != nil {
		return errs.FromExplainer(err)
	}

	return web.Respond(ctx, w, mining, http.StatusAccepted)
}

// StopMining ends the search in progress.
func (h Handlers) StopMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.session(r)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, s.StopMining(), http.StatusOK)
}

// Mining returns the mining progress.
func (h Handlers) Mining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.session(r)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, s.Mining(), http.StatusOK)
}

// =============================================================================

// Chain returns the blocks along with a full integrity check.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.session(r)
	if err != nil {
		return err
	}

	return h.respondChain(ctx, w, s, http.StatusOK)
}

// Block returns a single block.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.session(r)
	if err != nil {
		return err
	}

	id, err := blockID(r)
	if err != nil {
		return err
	}

	blk, err := s.Block(id)
	if err != nil {
		return errs.FromExplainer(err)
	}

	return web.Respond(ctx, w, blk, http.StatusOK)
}

// AppendBlock adds a block to the chain. When no payload is provided the
// next demo payload is used.
func (h Handlers) AppendBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.session(r)
	if err != nil {
		return err
	}

	var req blockRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	var blk chain.Block
	switch req.Payload {
	case "":
		blk, err = s.AppendDemoBlock()
	default:
		blk, err = s.AppendBlock(req.Payload)
	}
	if err != nil {
		return errs.FromExplainer(err)
	}

	return web.Respond(ctx, w, blk, http.StatusCreated)
}

// TamperBlock replaces the payload of a block.
func (h Handlers) TamperBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.session(r)
	if err != nil {
		return err
	}

	id, err := blockID(r)
	if err != nil {
		return err
	}

	var req tamperRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	if _, err := s.TamperBlock(id, req.Payload); err != nil {
		return errs.FromExplainer(err)
	}

	return h.respondChain(ctx, w, s, http.StatusOK)
}

// ResetChain starts the chain again from a genesis block.
func (h Handlers) ResetChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.session(r)
	if err != nil {
		return err
	}

	if _, err := s.ResetChain(); err != nil {
		return fmt.Errorf("reset chain: %w", err)
	}

	return h.respondChain(ctx, w, s, http.StatusOK)
}

// =============================================================================

// GenerateKeys creates a new toy key pair for the session.
func (h Handlers) GenerateKeys(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.session(r)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, s.GenerateKeys(), http.StatusCreated)
}

// Sign signs a message with the session's key.
func (h Handlers) Sign(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.session(r)
	if err != nil {
		return err
	}

	var req messageRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	signed, err := s.Sign(req.Message)
	if err != nil {
		return errs.FromExplainer(err)
	}

	return web.Respond(ctx, w, signed, http.StatusOK)
}

// Verify checks the signed message against its signature.
func (h Handlers) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.session(r)
	if err != nil {
		return err
	}

	v, err := s.Verify()
	if err != nil {
		return errs.FromExplainer(err)
	}

	return web.Respond(ctx, w, v, http.StatusOK)
}

// VerifyTampered checks an edited message against the original signature.
func (h Handlers) VerifyTampered(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.session(r)
	if err != nil {
		return err
	}

	var req messageRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	v, err := s.VerifyTampered(req.Message)
	if err != nil {
		return errs.FromExplainer(err)
	}

	return web.Respond(ctx, w, v, http.StatusOK)
}

// =============================================================================

// AddTransaction adds a random signed transfer to the ledger.
func (h Handlers) AddTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.session(r)
	if err != nil {
		return err
	}

	tx, err := s.AddTransaction()
	if err != nil {
		return fmt.Errorf("add transaction: %w", err)
	}

	return web.Respond(ctx, w, tx, http.StatusCreated)
}

// ResetLedger restores the seed transfers.
func (h Handlers) ResetLedger(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := h.session(r)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, s.ResetLedger(), http.StatusOK)
}

// =============================================================================

// session locates the session named in the route.
func (h Handlers) session(r *http.Request) (*session.Session, error) {
	s, err := h.Sessions.Retrieve(web.Param(r, "id"))
	if err != nil {
		return nil, errs.FromExplainer(err)
	}

	return s, nil
}

// respondChain writes the chain along with its integrity report.
func (h Handlers) respondChain(ctx context.Context, w http.ResponseWriter, s *session.Session, status int) error {
	issues, err := s.VerifyChain()
	if err != nil {
		return fmt.Errorf("verify chain: %w", err)
	}

	resp := chainResponse{
		Blocks: s.Chain(),
		Issues: issues,
		Intact: len(issues) == 0,
		Mining: s.Mining().Status,
	}

	return web.Respond(ctx, w, resp, status)
}

// blockID parses the block id from the route.
func blockID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(web.Param(r, "block"), 10, 64)
	if err != nil {
		return 0, errs.NewTrusted(fmt.Errorf("invalid block id %q", web.Param(r, "block")), http.StatusBadRequest)
	}

	return id, nil
}

// decode reads and validates the request body.
func decode(r *http.Request, val any) error {
	if err := web.Decode(r, val); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(val); err != nil {
		return err
	}

	return nil
}
