// Package viewgrp serves the page that renders session snapshots.
package viewgrp

import (
	"context"
	_ "embed"
	"net/http"

	"github.com/ardanlabs/chainlab/foundation/web"
)

//go:embed assets/index.html
var index []byte

// Index writes the viewer page. The page creates a session and renders
// every snapshot it receives over the session's event stream.
func Index(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := web.SetStatusCode(ctx, http.StatusOK); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	_, err := w.Write(index)
	return err
}
