package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/promptalchemy/promptalchemy/internal/envfile"
	apperrors "github.com/promptalchemy/promptalchemy/internal/errors"
	"github.com/promptalchemy/promptalchemy/internal/metrics"
	"github.com/promptalchemy/promptalchemy/internal/studio"
)

// envFilePath is where credentials are persisted server-side. Injected from
// the server package at startup.
var envFilePath string

// SetEnvFilePath sets the dotenv path used by the key handlers.
func SetEnvFilePath(path string) {
	envFilePath = path
}

// KeyResponse is the GET /api/keys body. An empty api_key means no credential
// is available for the provider; that is a normal answer, never an error.
type KeyResponse struct {
	APIKey string `json:"api_key"`
}

// KeyStatusResponse is the POST /api/keys body.
type KeyStatusResponse struct {
	Status string `json:"status"`
}

// LoadKeyHandler handles GET /api/keys?provider=. It consults only the env
// file; an unknown provider or a missing entry yields an empty key.
func LoadKeyHandler(w http.ResponseWriter, r *http.Request) {
	provider, ok := studio.ParseProvider(r.URL.Query().Get("provider"))
	if !ok {
		writeKeyResponse(w, "")
		return
	}

	env, err := envfile.Read(envFilePath)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "Unable to read credential store"))
		return
	}

	// Only the primary env name is served back; process-env fallbacks stay
	// server-side for generation.
	value := strings.TrimSpace(env[provider.EnvKey()])
	metrics.RecordKeyRead(string(provider), value != "")
	writeKeyResponse(w, value)
}

// UpdateKeyHandler handles POST /api/keys with a form-encoded provider and
// api_key. An unknown provider or empty key is acknowledged without
// persisting, matching the fire-and-forget contract of the client's debounced
// writes.
func UpdateKeyHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Malformed form body"))
		return
	}

	provider, ok := studio.ParseProvider(r.PostFormValue("provider"))
	apiKey := strings.TrimSpace(r.PostFormValue("api_key"))

	if ok && apiKey != "" {
		if err := envfile.Update(envFilePath, provider.EnvKey(), apiKey); err != nil {
			metrics.RecordKeyWrite(string(provider), false)
			respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "Unable to persist credential"))
			return
		}
		metrics.RecordKeyWrite(string(provider), true)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(KeyStatusResponse{Status: "ok"})
}

func writeKeyResponse(w http.ResponseWriter, key string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(KeyResponse{APIKey: key})
}
