// Package handlers contains the full set of handler functions and routes
// supported by the dashboard.
package handlers

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/ardanlabs/ledgerview/app/services/dashboard/handlers/dashgrp"
	"github.com/ardanlabs/ledgerview/app/services/dashboard/handlers/debug/checkgrp"
	"github.com/ardanlabs/ledgerview/business/core/ledger"
	"github.com/ardanlabs/ledgerview/business/sys/metrics"
	"github.com/ardanlabs/ledgerview/business/web/mid"
	"github.com/ardanlabs/ledgerview/foundation/events"
	"github.com/ardanlabs/ledgerview/foundation/web"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	Ledger   *ledger.Client
	Loc      *time.Location
	Evts     *events.Events
}

// UIMux constructs an http.Handler with all application routes defined.
func UIMux(cfg MuxConfig) (*web.App, error) {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Panics(),
	)

	dgh, err := dashgrp.New(cfg.Log, cfg.Ledger, cfg.Loc, cfg.Evts)
	if err != nil {
		return nil, fmt.Errorf("loading dashboard: %w", err)
	}

	// Register the pages for the website.
	app.Handle(http.MethodGet, "", "/", dgh.Index)
	app.Handle(http.MethodPost, "", "/transactions", dgh.Submit)

	// Accept CORS 'OPTIONS' preflight requests for the api routes.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "v1", "/*", h, mid.Cors("*"))

	// Register the api routes.
	app.Handle(http.MethodGet, "v1", "/chain", dgh.Chain, mid.Cors("*"))
	app.Handle(http.MethodGet, "v1", "/events", dgh.Events)

	return app, nil
}

// DebugStandardLibraryMux registers all the debug routes from the standard library
// into a new mux bypassing the use of the DefaultServerMux. Using the
// DefaultServerMux would be a security risk since a dependency could inject a
// handler into our service without us knowing it.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Register all the standard library debug endpoints.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugMux registers all the debug standard library routes and then custom
// debug application routes for the service. This bypassing the use of the
// DefaultServerMux. Using the DefaultServerMux would be a security risk since
// a dependency could inject a handler into our service without us knowing it.
func DebugMux(build string, log *zap.SugaredLogger, ldg *ledger.Client) http.Handler {
	mux := DebugStandardLibraryMux()

	// Register debug check endpoints.
	cgh := checkgrp.Handlers{
		Build:  build,
		Log:    log,
		Ledger: ldg,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	// Register the prometheus collectors.
	mux.Handle("/metrics", metrics.Handler())

	return mux
}
