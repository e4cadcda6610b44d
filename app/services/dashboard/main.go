package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/ledgerview/app/services/dashboard/handlers"
	"github.com/ardanlabs/ledgerview/business/core/ledger"
	"github.com/ardanlabs/ledgerview/foundation/events"
	"github.com/ardanlabs/ledgerview/foundation/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("DASHBOARD")
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
			UIHost          string        `conf:"default:0.0.0.0:3000"`
			DebugHost       string        `conf:"default:0.0.0.0:4000"`
		}
		Ledger struct {
			APIURL  string        `conf:"default:http://localhost:8080"`
			Timeout time.Duration `conf:"default:0s"`
		}
		View struct {
			TimeZone string `conf:"default:Local"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "ledger dashboard",
		},
	}

	// Values from a .env file in the working directory are loaded into the
	// environment first. Variables already set are not overridden.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env file: %w", err)
	}

	const prefix = "DASHBOARD"
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
	// Ledger Support

	loc, err := time.LoadLocation(cfg.View.TimeZone)
	if err != nil {
		return fmt.Errorf("loading time zone: %w", err)
	}

	// The ledger client is the only way into the ledger service. The base
	// url is resolved once here and handed to everything that needs it.
	ldg := ledger.New(log, cfg.Ledger.APIURL, ledger.WithTimeout(cfg.Ledger.Timeout))

	// Open dashboards are told to refresh through these events.
	evts := events.New()

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, ldg)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Start UI Service

	log.Infow("startup", "status", "initializing UI support", "ledger", cfg.Ledger.APIURL)

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Construct the mux for the UI calls.
	uiMux, err := handlers.UIMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Ledger:   ldg,
		Loc:      loc,
		Evts:     evts,
	})
	if err != nil {
		return fmt.Errorf("constructing ui mux: %w", err)
	}

	// Construct a server to service the requests against the mux.
	ui := http.Server{
		Addr:         cfg.Web.UIHost,
		Handler:      uiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// Start the service listening for requests.
	go func() {
		log.Infow("startup", "status", "ui router started", "host", ui.Addr)
		serverErrors <- ui.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := ui.Shutdown(ctx); err != nil {
			ui.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
