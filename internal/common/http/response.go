package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	apperrors "erate-tracker/internal/common/errors"
)

const maxBodyBytes = 1 << 20

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as a StandardError body. Cooldown errors also get a
// Retry-After header.
func WriteError(w http.ResponseWriter, err error) {
	stdErr := apperrors.Normalize(err)
	if secs, ok := stdErr.Metadata["retryAfterSeconds"].(int); ok {
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	WriteJSON(w, apperrors.HTTPStatus(stdErr.Code), stdErr)
}

// DecodeJSON reads a JSON request body into v. An empty body leaves v as is.
func DecodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("read body: %v", err))
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("malformed JSON body: %v", err))
	}
	return nil
}
