package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// instanceID identifies this server process. Clients compare it against the
// token recorded by their previous session and wipe stale cached credentials
// on mismatch.
var instanceID = uuid.New().String()

// SetInstanceID overrides the generated instance id (tests only).
func SetInstanceID(id string) {
	instanceID = id
}

// SessionResponse is the GET /api/session body.
type SessionResponse struct {
	InstanceID string `json:"instance_id"`
}

// SessionHandler handles GET /api/session.
func SessionHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(SessionResponse{InstanceID: instanceID})
}
