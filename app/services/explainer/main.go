package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/chainlab/app/services/explainer/handlers"
	"github.com/ardanlabs/chainlab/business/core/session"
	"github.com/ardanlabs/chainlab/foundation/events"
	"github.com/ardanlabs/chainlab/foundation/explainer/digest"
	"github.com/ardanlabs/chainlab/foundation/logger"
	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("EXPLAINER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			APIHost         string        `conf:"default:0.0.0.0:8080"`
			CorsOrigin      string        `conf:"default:*"`
		}
		Explainer struct {
			DigestAlgorithm string        `conf:"default:sha256"`
			BatchSize       int           `conf:"default:1000"`
			Throttle        time.Duration `conf:"default:10ms"`
			MaxDifficulty   int           `conf:"default:8"`
			GenesisPayload  string        `conf:"default:Genesis Block"`
			SessionTTL      time.Duration `conf:"default:30m"`
			PruneInterval   time.Duration `conf:"default:1m"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "blockchain explainer",
		},
	}

	const prefix = "CHAINLAB"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Explainer Support

	dg, err := digest.New(cfg.Explainer.DigestAlgorithm)
	if err != nil {
		return fmt.Errorf("selecting digest algorithm: %w", err)
	}

	// Every session change is published to the session's topic so any
	// websocket watching that session can render it.
	evts := events.New()
	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...), "traceid", "00000000-0000-0000-0000-000000000000")
	}
	onChange := func(snap session.Snapshot) {
		data, err := json.Marshal(snap)
		if err != nil {
			log.Errorw("snapshot", "session", snap.ID, "ERROR", err)
			return
		}
		evts.Send(snap.ID, string(data))
	}

	sessions := session.NewManager(session.Config{
		Digester:       dg,
		BatchSize:      cfg.Explainer.BatchSize,
		Throttle:       cfg.Explainer.Throttle,
		MaxDifficulty:  cfg.Explainer.MaxDifficulty,
		GenesisPayload: cfg.Explainer.GenesisPayload,
		EvHandler:      ev,
		OnChange:       onChange,
	})
	defer sessions.Shutdown()

	// Sessions left idle are dropped along with their event topics.
	pruneDone := make(chan struct{})
	defer close(pruneDone)

	go func() {
		ticker := time.NewTicker(cfg.Explainer.PruneInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				for _, id := range sessions.Prune(cfg.Explainer.SessionTTL) {
					evts.Close(id)
				}
			case <-pruneDone:
				return
			}
		}
	}()

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log, sessions)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing V1 API support")

	apiMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:   shutdown,
		Log:        log,
		Sessions:   sessions,
		Evts:       evts,
		CorsOrigin: cfg.Web.CorsOrigin,
	})

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      apiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
