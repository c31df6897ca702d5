package sessiongrp

import (
	"net/http"

	"github.com/ardanlabs/chainlab/business/core/session"
	"github.com/ardanlabs/chainlab/foundation/events"
	"github.com/ardanlabs/chainlab/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log      *zap.SugaredLogger
	Sessions *session.Manager
	Evts     *events.Events
}

// Routes binds all the version 1 session routes.
func Routes(app *web.App, cfg Config) {
	hdl := Handlers{
		Log:      cfg.Log,
		Sessions: cfg.Sessions,
		WS: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		Evts: cfg.Evts,
	}

	const version = "v1"

	app.Handle(http.MethodPost, version, "/digest", hdl.Digest)

	app.Handle(http.MethodPost, version, "/sessions", hdl.Create)
	app.Handle(http.MethodGet, version, "/sessions/:id", hdl.Query)
	app.Handle(http.MethodDelete, version, "/sessions/:id", hdl.Delete)
	app.Handle(http.MethodGet, version, "/sessions/:id/events", hdl.Events)

	app.Handle(http.MethodGet, version, "/sessions/:id/mining", hdl.Mining)
	app.Handle(http.MethodPost, version, "/sessions/:id/mining/start", hdl.StartMining)
	app.Handle(http.MethodPost, version, "/sessions/:id/mining/stop", hdl.StopMining)

	app.Handle(http.MethodGet, version, "/sessions/:id/chain", hdl.Chain)
	app.Handle(http.MethodPost, version, "/sessions/:id/chain/blocks", hdl.AppendBlock)
	app.Handle(http.MethodGet, version, "/sessions/:id/chain/blocks/:block", hdl.Block)
	app.Handle(http.MethodPost, version, "/sessions/:id/chain/blocks/:block/tamper", hdl.TamperBlock)
	app.Handle(http.MethodPost, version, "/sessions/:id/chain/reset", hdl.ResetChain)

	app.Handle(http.MethodPost, version, "/sessions/:id/keys", hdl.GenerateKeys)
	app.Handle(http.MethodPost, version, "/sessions/:id/signature/sign", hdl.Sign)
	app.Handle(http.MethodPost, version, "/sessions/:id/signature/verify", hdl.Verify)
	app.Handle(http.MethodPost, version, "/sessions/:id/signature/tamper", hdl.VerifyTampered)

	app.Handle(http.MethodPost, version, "/sessions/:id/ledger/tx", hdl.AddTransaction)
	app.Handle(http.MethodPost, version, "/sessions/:id/ledger/reset", hdl.ResetLedger)
}
