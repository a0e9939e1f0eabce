// Package promptgen turns reference images plus composer configuration into a
// diffusion prompt by delegating to a vision-capable chat model. One driver
// per provider; all drivers share the instruction builder and the JSON result
// contract.
package promptgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/promptalchemy/promptalchemy/internal/catalog"
	"github.com/promptalchemy/promptalchemy/internal/studio"
)

// Per-provider vision models.
const (
	GeminiModel = "gemini-2.5-flash"
	OpenAIModel = "gpt-4o-mini"
	GrokModel   = "grok-2-vision-latest"
)

const fallbackPrompt = "Failed to generate prompt."

// Image is one uploaded reference image payload.
type Image struct {
	Data      []byte
	MediaType string
}

// Request is the full composer configuration for one generation.
type Request struct {
	Family            catalog.Family
	Checkpoint        catalog.Checkpoint
	FocusAspects      []string
	CreativityLevel   float64
	AdditionalContext string
	Upscaler          string
	FaceFixer         string
	ControlModel      string
	Images            []Image
}

// Result is the generated prompt pair.
type Result struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt"`
}

// Generator produces a prompt pair from a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Temperature maps the creativity slider in [0,1] onto the model temperature
// range [0.2, 0.8].
func Temperature(creativity float64) float64 {
	return 0.2 + creativity*0.6
}

// EnsureNegativePrompt applies the per-family negative prompt policy: the
// z_image family requires a fixed negative prompt, everything else passes
// through with empty as the default.
func EnsureNegativePrompt(familyID, provided string) string {
	if familyID == "z_image" {
		if provided != "" {
			return provided
		}
		return "blurry ugly bad"
	}
	return provided
}

// ForProvider returns the generator for a provider, configured with apiKey.
func ForProvider(p studio.Provider, apiKey string) (Generator, error) {
	switch p {
	case studio.ProviderGemini:
		return NewGeminiClient(apiKey), nil
	case studio.ProviderOpenAI:
		return NewCompatClient(p, "https://api.openai.com/v1", OpenAIModel, apiKey), nil
	case studio.ProviderGrok:
		return NewCompatClient(p, "https://api.x.ai/v1", GrokModel, apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", p)
	}
}

// buildInstruction assembles the system instruction sent alongside the
// reference images.
func buildInstruction(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert AI Prompt Engineer.\n")
	fmt.Fprintf(&b, "Analyze the provided reference images and generate a SINGLE prompt that would recreate a similar output using '%s' (Checkpoint: %s).\n\n",
		req.Family.Label, req.Checkpoint.Label)
	fmt.Fprintf(&b, "Target Model Architecture: %s\n", req.Family.Architecture)
	fmt.Fprintf(&b, "Model Type: %s\n", req.Family.Type)

	if len(req.FocusAspects) > 0 {
		fmt.Fprintf(&b, "Focus Areas: pay special attention to %s.\n", strings.Join(req.FocusAspects, ", "))
	} else {
		b.WriteString("Focus Areas: capture the overall vibe and subject of the images.\n")
	}

	context := req.AdditionalContext
	if context == "" {
		context = "None provided"
	}
	fmt.Fprintf(&b, "User Context/Notes: %s\n", context)

	var aux []string
	if req.ControlModel != "" {
		aux = append(aux, "a control model (describe pose and structure clearly)")
	}
	if req.Upscaler != "" {
		aux = append(aux, "an upscaler (emphasize fine texture detail)")
	}
	if req.FaceFixer != "" {
		aux = append(aux, "a face-fixing stage (keep facial identity consistent)")
	}
	if len(aux) > 0 {
		fmt.Fprintf(&b, "Auxiliary models in use: %s.\n", strings.Join(aux, "; "))
	}

	if req.Family.ID == "z_image" {
		b.WriteString("The negative prompt MUST be exactly \"blurry ugly bad\".\n")
	}

	b.WriteString("\nReturn only valid JSON:\n")
	b.WriteString("{\n  \"prompt\": \"THE GENERATED PROMPT STRING\",\n  \"negativePrompt\": \"THE NEGATIVE PROMPT STRING (OR EMPTY)\"\n}")

	return b.String()
}

// parseResult decodes a model's JSON reply and applies the negative prompt
// policy. Models occasionally fence their JSON; fences are stripped first.
func parseResult(familyID, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var r Result
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, fmt.Errorf("decode model reply: %w", err)
	}
	if r.Prompt == "" {
		r.Prompt = fallbackPrompt
	}
	r.NegativePrompt = EnsureNegativePrompt(familyID, r.NegativePrompt)
	return &r, nil
}

func mediaTypeOrDefault(mediaType string) string {
	if mediaType == "" {
		return "image/png"
	}
	return mediaType
}
