package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-merchant-auth/core"
)

type errorBody struct {
	Message  string `json:"message"`
	TextCode string `json:"text_code"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// writeError renders service failures with the category to status mapping the
// core package defines. Errors that never passed through the service mapper
// collapse to a generic 500 so raw store or cipher detail stays out of the
// response.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorBody{
		Message:  "An unexpected error occurred",
		TextCode: core.AuthErrorInternal,
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		status = rich.Code
		if status == 0 {
			status = core.AuthHTTPStatus(rich.Category)
		}
		if msg := strings.TrimSpace(rich.Message); msg != "" && status != http.StatusInternalServerError {
			body.Message = msg
		}
		if code := strings.TrimSpace(rich.TextCode); code != "" {
			body.TextCode = code
		}
	}

	writeJSON(w, status, errorEnvelope{Error: body})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
