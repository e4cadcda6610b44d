// Package mid contains the set of middleware functions.
package mid

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"strings"

	"github.com/ardanlabs/ledgerview/business/web/errs"
	"github.com/ardanlabs/ledgerview/foundation/validate"
	"github.com/ardanlabs/ledgerview/foundation/web"
	"go.uber.org/zap"
)

// failurePage is shown to browsers when a request fails. Every failure
// collapses into the same generic page.
var failurePage = template.Must(template.New("failure").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Something went wrong</title></head>
<body>
<h1>Something went wrong</h1>
<p>{{.Error}}</p>
<p><a href="/">Try again</a></p>
</body>
</html>
`))

// Errors handles errors coming out of the call chain. It detects normal
// application errors which are used to respond to the client in a uniform way.
// Unexpected errors (status >= 500) are logged. Browsers get an HTML page,
// everything else gets JSON.
func Errors(log *zap.SugaredLogger) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// If the context is missing this value, request the service
			// to be shutdown gracefully.
			v, err := web.GetValues(ctx)
			if err != nil {
				return web.NewShutdownError("web value missing from context")
			}

			// Run the next handler and catch any propagated error.
			if err := handler(ctx, w, r); err != nil {

				// Log the error.
				log.Errorw("ERROR", "traceid", v.TraceID, "ERROR", err)

				// Build out the error response.
				var er errs.Response
				var status int
				switch {
				case validate.IsFieldErrors(err):
					fieldErrors := validate.GetFieldErrors(err)
					er = errs.Response{
						Error:  "data validation error",
						Fields: fieldErrors.Fields(),
					}
					status = http.StatusBadRequest

				case errs.IsTrusted(err):
					trsErr := errs.GetTrusted(err)
					er = errs.Response{
						Error: trsErr.Error(),
					}
					status = trsErr.Status

				default:
					er = errs.Response{
						Error: http.StatusText(http.StatusInternalServerError),
					}
					status = http.StatusInternalServerError
				}

				// Respond with the error back to the client.
				if err := respondError(ctx, w, r, er, status); err != nil {
					return err
				}

				// If we receive the shutdown err we need to return it
				// back to the base handler to shut down the service.
				if web.IsShutdown(err) {
					return err
				}
			}

			// The error has been handled so we can stop propagating it.
			return nil
		}

		return h
	}

	return m
}

// respondError writes the error response in the format the client asked for.
func respondError(ctx context.Context, w http.ResponseWriter, r *http.Request, er errs.Response, status int) error {
	if !strings.Contains(r.Header.Get("Accept"), "text/html") {
		return web.Respond(ctx, w, er, status)
	}

	var buf bytes.Buffer
	if err := failurePage.Execute(&buf, er); err != nil {
		return err
	}

	return web.RespondHTML(ctx, w, buf.Bytes(), status)
}
