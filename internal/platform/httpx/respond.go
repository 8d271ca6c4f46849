// Package httpx provides JSON response utilities shared by all API handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// envelope is the wire shape every endpoint responds with.
type envelope struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK merges extra fields into an {ok:true} envelope.
func OK(w http.ResponseWriter, status int, extra map[string]any) {
	payload := map[string]any{"ok": true}
	for k, v := range extra {
		payload[k] = v
	}
	JSON(w, status, payload)
}

// Fail sends an {ok:false, msg} envelope.
func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, envelope{OK: false, Msg: msg})
}

// DecodeJSON decodes the JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
