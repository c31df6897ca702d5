package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/chainlab/app/services/explainer/handlers"
	"github.com/ardanlabs/chainlab/business/core/session"
	"github.com/ardanlabs/chainlab/business/web/errs"
	"github.com/ardanlabs/chainlab/foundation/events"
	"github.com/ardanlabs/chainlab/foundation/explainer/chain"
	"github.com/ardanlabs/chainlab/foundation/explainer/digest"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

type api struct {
	t   *testing.T
	mux http.Handler
}

func newAPI(t *testing.T) *api {
	sessions := session.NewManager(session.Config{
		BatchSize: 50,
	})
	t.Cleanup(sessions.Shutdown)

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:   make(chan os.Signal, 1),
		Log:        zap.NewNop().Sugar(),
		Sessions:   sessions,
		Evts:       events.New(),
		CorsOrigin: "*",
	})

	return &api{t: t, mux: mux}
}

func (a *api) call(method string, path string, body string, status int, resp any) {
	a.t.Helper()

	r := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	a.mux.ServeHTTP(w, r)

	if w.Code != status {
		a.t.Fatalf("\t%s\t%s %s: Should receive status %d, got %d: %s", failed, method, path, status, w.Code, w.Body.String())
	}

	if resp != nil {
		if err := json.NewDecoder(w.Body).Decode(resp); err != nil {
			a.t.Fatalf("\t%s\t%s %s: Should be able to decode the response: %s", failed, method, path, err)
		}
	}
}

// =============================================================================

func Test_Digest(t *testing.T) {
	a := newAPI(t)

	var resp struct {
		Algorithm string `json:"algorithm"`
		Digest    string `json:"digest"`
	}
	a.call(http.MethodPost, "/v1/digest", `{"input":"Hello"}`, http.StatusOK, &resp)

	if resp.Digest != digest.Hash("Hello") || resp.Algorithm != digest.SHA256 {
		t.Fatalf("Should get the sha256 digest, got %+v", resp)
	}

	var er errs.Response
	a.call(http.MethodPost, "/v1/digest", `{"input":""}`, http.StatusBadRequest, &er)
	if _, exists := er.Fields["input"]; !exists {
		t.Fatalf("Should report the input field, got %+v", er)
	}

	a.call(http.MethodPost, "/v1/digest", `{"bad":1}`, http.StatusBadRequest, nil)
}

func Test_ChainFlow(t *testing.T) {
	a := newAPI(t)

	t.Log("Given the need to tamper with a chain over the api.")
	{
		var snap session.Snapshot
		a.call(http.MethodPost, "/v1/sessions", "", http.StatusCreated, &snap)
		if snap.ID == "" || len(snap.Chain) != 1 {
			t.Fatalf("\t%s\tShould create a session with a genesis block, got %+v", failed, snap)
		}
		t.Logf("\t%s\tShould create a session with a genesis block.", success)

		base := "/v1/sessions/" + snap.ID

		var blk chain.Block
		a.call(http.MethodPost, base+"/chain/blocks", "", http.StatusCreated, &blk)
		if blk.ID != 2 || blk.Payload != "Tx B, C, D" {
			t.Fatalf("\t%s\tShould append a demo block, got %+v", failed, blk)
		}

		a.call(http.MethodPost, base+"/chain/blocks", `{"payload":"Alice pays Bob"}`, http.StatusCreated, &blk)
		if blk.ID != 3 || blk.Payload != "Alice pays Bob" {
			t.Fatalf("\t%s\tShould append the payload, got %+v", failed, blk)
		}
		t.Logf("\t%s\tShould append blocks.", success)

		var resp struct {
			Blocks []chain.Block `json:"blocks"`
			Intact bool          `json:"intact"`
		}
		a.call(http.MethodPost, base+"/chain/blocks/2/tamper", `{"payload":"evil"}`, http.StatusOK, &resp)
		if resp.Intact || resp.Blocks[0].Valid != true || resp.Blocks[1].Valid || resp.Blocks[2].Valid {
			t.Fatalf("\t%s\tShould invalidate the tampered block and after, got %+v", failed, resp)
		}
		t.Logf("\t%s\tShould invalidate the tampered block and after.", success)

		a.call(http.MethodPost, base+"/chain/blocks/9/tamper", `{"payload":"evil"}`, http.StatusNotFound, nil)
		a.call(http.MethodPost, base+"/chain/blocks/abc/tamper", `{"payload":"evil"}`, http.StatusBadRequest, nil)
		a.call(http.MethodPost, base+"/chain/blocks/2/tamper", `{}`, http.StatusBadRequest, nil)
		a.call(http.MethodGet, base+"/chain/blocks/3", "", http.StatusOK, &blk)
		t.Logf("\t%s\tShould report bad requests.", success)

		a.call(http.MethodPost, base+"/chain/reset", "", http.StatusOK, &resp)
		if len(resp.Blocks) != 1 || !resp.Intact {
			t.Fatalf("\t%s\tShould reset the chain, got %+v", failed, resp)
		}
		t.Logf("\t%s\tShould reset the chain.", success)

		a.call(http.MethodDelete, base, "", http.StatusNoContent, nil)
		a.call(http.MethodGet, base, "", http.StatusNotFound, nil)
		t.Logf("\t%s\tShould delete the session.", success)
	}
}

func Test_MiningFlow(t *testing.T) {
	a := newAPI(t)

	var snap session.Snapshot
	a.call(http.MethodPost, "/v1/sessions", "", http.StatusCreated, &snap)
	base := "/v1/sessions/" + snap.ID

	a.call(http.MethodPost, base+"/mining/start", `{"payload":"","difficulty":1}`, http.StatusBadRequest, nil)
	a.call(http.MethodPost, base+"/mining/start", `{"payload":"data","difficulty":99}`, http.StatusBadRequest, nil)

	var m session.Mining
	a.call(http.MethodPost, base+"/mining/start", `{"payload":"Hello, Blockchain!","difficulty":1}`, http.StatusAccepted, &m)
	if m.Status != session.StatusRunning {
		t.Fatalf("Should start mining, got %+v", m)
	}

	deadline := time.Now().Add(10 * time.Second)
	for m.Status != session.StatusSolved && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
		a.call(http.MethodGet, base+"/mining", "", http.StatusOK, &m)
	}

	if m.Result == nil || !strings.HasPrefix(m.Result.Digest, "0") {
		t.Fatalf("Should solve the puzzle, got %+v", m)
	}
}

func Test_SignatureFlow(t *testing.T) {
	a := newAPI(t)

	var snap session.Snapshot
	a.call(http.MethodPost, "/v1/sessions", "", http.StatusCreated, &snap)
	base := "/v1/sessions/" + snap.ID

	a.call(http.MethodPost, base+"/signature/sign", `{"message":"hi"}`, http.StatusBadRequest, nil)
	a.call(http.MethodPost, base+"/keys", "", http.StatusCreated, nil)
	a.call(http.MethodPost, base+"/signature/sign", `{"message":"hi"}`, http.StatusOK, nil)

	var v session.Verification
	a.call(http.MethodPost, base+"/signature/verify", "", http.StatusOK, &v)
	if !v.Valid {
		t.Fatal("Should verify the original message.")
	}

	a.call(http.MethodPost, base+"/signature/tamper", `{"message":"ho"}`, http.StatusOK, &v)
	if v.Valid {
		t.Fatal("Should reject the tampered message.")
	}

	var txs []map[string]any
	a.call(http.MethodPost, base+"/ledger/tx", "", http.StatusCreated, nil)
	a.call(http.MethodPost, base+"/ledger/reset", "", http.StatusOK, &txs)
	if len(txs) != 2 {
		t.Fatalf("Should reset the ledger, got %d", len(txs))
	}
}

func Test_Viewer(t *testing.T) {
	a := newAPI(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	a.mux.ServeHTTP(w, r)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/events") {
		t.Fatalf("Should serve the viewer page, got %d", w.Code)
	}
}
