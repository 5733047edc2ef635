package web

import (
	"encoding/json"
	stderrors "errors"
	"log"
	"net/http"

	"github.com/ayothedoc/funnel/internal/errors"
)

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError maps an error to the `{error: message}` shape the client
// expects. For 5xx errors the detail is logged and the caller-supplied
// fallback message is returned instead, so internals are never leaked.
func renderError(w http.ResponseWriter, err error, fallback string) {
	var fErr *errors.FunnelError
	if !stderrors.As(err, &fErr) {
		fErr = errors.NewInternal(err)
	}

	if fErr.Status >= 500 {
		log.Printf("request failed: %v", err)
		renderJSON(w, fErr.Status, map[string]any{"error": fallback})
		return
	}
	renderJSON(w, fErr.Status, map[string]any{"error": fErr.Message})
}
