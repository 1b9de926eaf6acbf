// Package handlers render provides HTTP response and HTMX utilities.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"spoadmin/domain/contracts"
	"spoadmin/domain/jsonedit"
	"spoadmin/domain/records"
	"spoadmin/interfaces/web/templates/components/ui"
	"spoadmin/logging"
)

// RenderResponse renders Templ components to HTTP responses.
func RenderResponse(ctx context.Context, w http.ResponseWriter, r *http.Request, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(ctx, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// IsHTMXRequest checks if the request came from HTMX.
func IsHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// WantsJSON reports whether the client asked for a JSON response.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Default().Error("Failed to encode JSON response", "error", err)
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var parseErr *jsonedit.ParseError
	switch {
	case errors.Is(err, records.ErrInvalidArgument), errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.Is(err, records.ErrRecordNotFound), errors.Is(err, records.ErrFieldNotFound),
		errors.Is(err, contracts.ErrCommitRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, records.ErrCommitInProgress):
		return http.StatusConflict
	case errors.Is(err, records.ErrRemoteFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// writeError reports err in the format the client asked for. HTMX requests get an error
// toast with a 200 so htmx performs the swap.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if WantsJSON(r) {
		writeJSON(w, status, errorResponse{Error: err.Error(), Status: status})
		return
	}
	if IsHTMXRequest(r) {
		w.Header().Set("HX-Retarget", "#toasts")
		w.Header().Set("HX-Reswap", "afterbegin")
		RenderResponse(r.Context(), w, r, ui.ToastNotification(err.Error(), "error"))
		return
	}
	http.Error(w, err.Error(), status)
}
