package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/promptalchemy/promptalchemy/internal/errors"

	"github.com/promptalchemy/promptalchemy/internal/catalog"
)

// CheckpointsResponse is the GET /api/catalog/checkpoints body: the resolved
// family plus its preselected checkpoint.
type CheckpointsResponse struct {
	Family     catalog.Family     `json:"family"`
	Checkpoint catalog.Checkpoint `json:"checkpoint"`
}

// CatalogHandler handles GET /api/catalog: the full model inventory plus the
// default selections a fresh composer starts from.
func CatalogHandler(w http.ResponseWriter, r *http.Request) {
	c, err := catalog.Load()
	if err != nil {
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "Model catalog unavailable"))
		return
	}

	defaultFamily := c.DefaultFamily()
	response := struct {
		*catalog.Catalog
		DefaultFamily     catalog.Family     `json:"default_family"`
		DefaultCheckpoint catalog.Checkpoint `json:"default_checkpoint"`
	}{
		Catalog:           c,
		DefaultFamily:     defaultFamily,
		DefaultCheckpoint: defaultFamily.Checkpoint(""),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// CheckpointsHandler handles GET /api/catalog/checkpoints?family_id=. It is
// the partial-refresh collaborator for the family selector: an unknown family
// id falls back to the first family rather than erroring.
func CheckpointsHandler(w http.ResponseWriter, r *http.Request) {
	c, err := catalog.Load()
	if err != nil {
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "Model catalog unavailable"))
		return
	}

	family, ok := c.Family(r.URL.Query().Get("family_id"))
	if !ok {
		family = c.DefaultFamily()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(CheckpointsResponse{
		Family:     family,
		Checkpoint: family.Checkpoint(""),
	})
}
