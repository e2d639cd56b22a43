package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// fallbackErrorBody is the canned envelope served when a response value
// cannot be marshaled. It mirrors models.Error("Internal server error").
const fallbackErrorBody = `{"status":"error","message":"Internal server error"}`

// writeJSON marshals v and writes it with the given status code. Marshaling
// happens before any header is written so an encoding failure can still
// degrade to a 500 with a valid JSON body.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("Server.writeJSON: failed to marshal response", "error", err)
		statusCode = http.StatusInternalServerError
		body = []byte(fallbackErrorBody)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		slog.Error("Server.writeJSON: failed to write response", "error", err)
	}
}
