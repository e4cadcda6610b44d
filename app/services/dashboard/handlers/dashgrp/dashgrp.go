// Package dashgrp maintains the group of handlers for the ledger dashboard.
package dashgrp

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/ardanlabs/ledgerview/business/core/chainview"
	"github.com/ardanlabs/ledgerview/business/core/ledger"
	"github.com/ardanlabs/ledgerview/business/core/submitter"
	"github.com/ardanlabs/ledgerview/business/sys/metrics"
	"github.com/ardanlabs/ledgerview/business/web/errs"
	"github.com/ardanlabs/ledgerview/foundation/events"
	"github.com/ardanlabs/ledgerview/foundation/validate"
	"github.com/ardanlabs/ledgerview/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// RefreshEvent is sent to every open dashboard after a block was added.
const RefreshEvent = "refresh"

// errLedger is what clients see for any ledger failure. Unreachable, bad
// status and malformed data are not told apart.
var errLedger = errors.New("failed to reach the ledger service")

//go:embed templates/*.html
var templates embed.FS

// Handlers manages the set of dashboard endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Ledger *ledger.Client
	Loc    *time.Location
	Evts   *events.Events
	WS     websocket.Upgrader

	tmpl *template.Template
}

// New constructs the dashboard handlers with their page templates loaded.
func New(log *zap.SugaredLogger, ldg *ledger.Client, loc *time.Location, evts *events.Events) (*Handlers, error) {
	tmpl, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	h := Handlers{
		Log:    log,
		Ledger: ldg,
		Loc:    loc,
		Evts:   evts,
		WS: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		tmpl: tmpl,
	}

	return &h, nil
}

// Index fetches the chain and renders the dashboard page.
func (h *Handlers) Index(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	bc, err := h.Ledger.FetchChain(ctx)
	if err != nil {
		return h.ledgerFailure(ctx, "fetch chain", err)
	}

	view := chainview.Render(bc, h.Loc)
	sub := submitter.New(h.Log, h.Ledger, nil)

	return h.render(ctx, w, newPage(&view, sub, false), http.StatusOK)
}

// Submit forwards the posted transaction to the ledger service. On success
// the browser is sent back to the index so the chain is fetched again. On
// failure the form is rendered with the values that were entered.
func (h *Handlers) Submit(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	values, err := web.Form(r, "sender", "recipient", "amount")
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	sub := submitter.New(h.Log, h.Ledger, h.refresh)
	sub.SetDraft(submitter.Draft{
		Sender:    values["sender"],
		Recipient: values["recipient"],
		Amount:    values["amount"],
	})

	if err := sub.Submit(ctx); err != nil {
		if validate.IsFieldErrors(err) {
			return err
		}

		// The failure is answered here, so mid.Metrics never sees it.
		metrics.AddErrors()

		h.Log.Errorw("submit", "traceid", web.GetTraceID(ctx), "ERROR", err)
		return h.render(ctx, w, newPage(nil, sub, true), http.StatusBadGateway)
	}

	return web.Redirect(ctx, w, r, "/", http.StatusSeeOther)
}

// Chain fetches the chain and responds with the rendered view.
func (h *Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	bc, err := h.Ledger.FetchChain(ctx)
	if err != nil {
		return h.ledgerFailure(ctx, "fetch chain", err)
	}

	return web.Respond(ctx, w, chainview.Render(bc, h.Loc), http.StatusOK)
}

// Events handles a web socket that tells the dashboard when to refresh.
func (h *Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// Clear the deadlines the http server placed on the connection.
	c.NetConn().SetDeadline(time.Time{})

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// The read side only exists to notice the browser going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, open := <-ch:
			if !open {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-closed:
			return nil
		}
	}
}

// =============================================================================

// refresh tells every open dashboard a new block exists. The submitting
// browser itself is redirected to the index.
func (h *Handlers) refresh(ctx context.Context) error {
	sent := h.Evts.Send(RefreshEvent)
	h.Log.Infow("refresh", "traceid", web.GetTraceID(ctx), "dashboards", sent)

	return nil
}

func (h *Handlers) ledgerFailure(ctx context.Context, op string, err error) error {
	h.Log.Errorw(op, "traceid", web.GetTraceID(ctx), "ERROR", err)
	return errs.NewTrusted(errLedger, http.StatusBadGateway)
}

func (h *Handlers) render(ctx context.Context, w http.ResponseWriter, p page, statusCode int) error {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "index", p); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}

	return web.RespondHTML(ctx, w, buf.Bytes(), statusCode)
}
