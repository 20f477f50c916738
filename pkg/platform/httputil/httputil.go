// Package httputil holds the JSON response helpers shared by HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "domainlens/pkg/domain-errors"
)

// ErrorResponse is the envelope for every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into a status and ErrorResponse. Errors without a
// domain code are reported as internal errors and their text is not exposed.
func WriteError(w http.ResponseWriter, err error) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  string(dErrors.CodeInternal),
		})
		return
	}

	resp := ErrorResponse{
		Error: de.Message,
		Code:  string(de.Code),
	}
	if de.Err != nil {
		resp.Details = de.Err.Error()
	}
	WriteJSON(w, dErrors.ToHTTPStatus(de.Code), resp)
}
