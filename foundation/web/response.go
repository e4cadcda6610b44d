package web

import (
	"context"
	"encoding/json"
	"net/http"
)

// Respond converts a Go value to JSON and sends it to the client.
func Respond(ctx context.Context, w http.ResponseWriter, data any, statusCode int) error {

	// Set the status code for the request logger middleware.
	if err := SetStatusCode(ctx, statusCode); err != nil {
		return err
	}

	// If there is nothing to marshal then set status code and return.
	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	// Convert the response value to JSON.
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	// Set the content type and headers once we know marshaling has succeeded.
	w.Header().Set("Content-Type", "application/json")

	// Write the status code to the response.
	w.WriteHeader(statusCode)

	// Send the result back to the client.
	if _, err := w.Write(jsonData); err != nil {
		return err
	}

	return nil
}

// RespondHTML sends an already rendered HTML document to the client. Pages
// reflect live ledger state so they are never cached.
func RespondHTML(ctx context.Context, w http.ResponseWriter, page []byte, statusCode int) error {
	if err := SetStatusCode(ctx, statusCode); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)

	if _, err := w.Write(page); err != nil {
		return err
	}

	return nil
}

// Redirect sends the client to the specified location.
func Redirect(ctx context.Context, w http.ResponseWriter, r *http.Request, location string, statusCode int) error {
	if err := SetStatusCode(ctx, statusCode); err != nil {
		return err
	}

	http.Redirect(w, r, location, statusCode)
	return nil
}
