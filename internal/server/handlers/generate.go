package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/promptalchemy/promptalchemy/internal/errors"

	"github.com/promptalchemy/promptalchemy/internal/catalog"
	"github.com/promptalchemy/promptalchemy/internal/envfile"
	"github.com/promptalchemy/promptalchemy/internal/metrics"
	"github.com/promptalchemy/promptalchemy/internal/promptgen"
	"github.com/promptalchemy/promptalchemy/internal/studio"
)

// maxGenerateBody bounds the multipart body: 6 images plus form fields.
const maxGenerateBody = 64 << 20

// generatorFactory builds the provider driver. Injected for tests.
var generatorFactory func(studio.Provider, string) (promptgen.Generator, error) = promptgen.ForProvider

// SetGeneratorFactory overrides the provider driver factory (tests only).
func SetGeneratorFactory(factory func(studio.Provider, string) (promptgen.Generator, error)) {
	if factory == nil {
		generatorFactory = promptgen.ForProvider
		return
	}
	generatorFactory = factory
}

// GenerateResponse is the successful POST /generate body.
type GenerateResponse struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt"`
	ModelFamily    string `json:"modelFamily"`
	Checkpoint     string `json:"checkpoint"`
}

// GenerateHandler handles POST /generate. Validation runs in a fixed order:
// at least one image, a known model family (the checkpoint falls back to the
// family's first), then a resolvable API key. Only then is the provider
// called.
func GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxGenerateBody); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Malformed multipart body"))
		return
	}

	images, err := readImages(r)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Unable to read uploaded images"))
		return
	}
	if len(images) == 0 {
		respondWithError(w, r, apperrors.NewValidationError("Please upload at least one reference image."))
		return
	}

	c, err := catalog.Load()
	if err != nil {
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "Model catalog unavailable"))
		return
	}

	family, ok := c.Family(r.FormValue("model_family_id"))
	if !ok {
		respondWithError(w, r, apperrors.NewValidationError("Invalid model configuration."))
		return
	}
	checkpoint := family.Checkpoint(r.FormValue("checkpoint_id"))

	provider, ok := studio.ParseProvider(r.FormValue("provider"))
	if !ok {
		provider = studio.ProviderGemini
	}

	key, err := envfile.Resolve(provider, r.FormValue("api_key"), envFilePath)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "Unable to read credential store"))
		return
	}
	if key == "" {
		respondWithError(w, r, apperrors.NewValidationError(
			fmt.Sprintf("API Key is missing. Please enter your %s API Key.", provider.Label())))
		return
	}

	creativity := 0.5
	if raw := r.FormValue("creativity_level"); raw != "" {
		if parsed, parseErr := strconv.ParseFloat(raw, 64); parseErr == nil {
			creativity = parsed
		}
	}

	genReq := promptgen.Request{
		Family:            family,
		Checkpoint:        checkpoint,
		FocusAspects:      r.Form["focus_aspects"],
		CreativityLevel:   creativity,
		AdditionalContext: r.FormValue("additional_context"),
		Upscaler:          r.FormValue("auxiliary_upscaler"),
		FaceFixer:         r.FormValue("auxiliary_face_fixer"),
		ControlModel:      r.FormValue("auxiliary_control_model"),
		Images:            images,
	}

	generator, err := generatorFactory(provider, key)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Unsupported provider selected."))
		return
	}

	start := time.Now()
	result, err := generator.Generate(r.Context(), genReq)
	metrics.RecordGeneration(string(provider), family.ID, err == nil, time.Since(start), len(images))
	if err != nil {
		respondWithError(w, r, apperrors.WrapExternalService(r.Context(), err,
			"Failed to generate prompt. Please try again."))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(GenerateResponse{
		Prompt:         result.Prompt,
		NegativePrompt: result.NegativePrompt,
		ModelFamily:    family.Label,
		Checkpoint:     checkpoint.Label,
	})
}

func readImages(r *http.Request) ([]promptgen.Image, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	parts := r.MultipartForm.File["images"]
	images := make([]promptgen.Image, 0, len(parts))
	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, promptgen.Image{
			Data:      data,
			MediaType: part.Header.Get("Content-Type"),
		})
	}
	return images, nil
}
