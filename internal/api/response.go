package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"shop-api/internal/models"
)

const maxBodyBytes = 1 << 20

// Client-facing error messages.
const (
	msgUserNotFound       = "User not found"
	msgProductNotFound    = "Product not found"
	msgInvalidCredentials = "Invalid credentials"
	msgUserIDRequired     = "userId required in body"
	msgInvalidJSON        = "Invalid JSON in request body"
	msgBodyTooLarge       = "Request body too large"
	msgPersistFailed      = "Failed to persist data"
	msgInternal           = "Internal Server Error"
	msgTooManyRequests    = "Too many requests"
	msgRouteNotFound      = "Not found"
)

var (
	errInvalidJSON  = errors.New("invalid json body")
	errBodyTooLarge = errors.New("body too large")
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("JSON encode error", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}

// readObject decodes the body as a JSON object. An empty body reads as {}.
func readObject(w http.ResponseWriter, r *http.Request) (models.Record, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, errInvalidJSON
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return models.Record{}, nil
	}

	var body models.Record
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		return nil, errInvalidJSON
	}
	return body, nil
}

func writeBodyError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return
	}
	writeError(w, http.StatusBadRequest, msgInvalidJSON)
}
