package promptgen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/promptalchemy/promptalchemy/internal/studio"
)

// CompatClient implements the OpenAI and Grok drivers, which share the
// chat-completions API shape and differ only in base URL and model.
type CompatClient struct {
	Provider   studio.Provider
	BaseURL    string
	Model      string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewCompatClient returns a client with defaults applied.
func NewCompatClient(provider studio.Provider, baseURL, model, apiKey string) *CompatClient {
	return &CompatClient{
		Provider: provider,
		BaseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Model:    model,
		APIKey:   strings.TrimSpace(apiKey),
	}
}

type compatContentPart struct {
	Type     string           `json:"type"`
	Text     string           `json:"text,omitempty"`
	ImageURL *compatImagePart `json:"image_url,omitempty"`
}

type compatImagePart struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type compatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type compatRequest struct {
	Model          string          `json:"model"`
	Messages       []compatMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type compatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends a chat completion request carrying the images as data URLs.
func (c *CompatClient) Generate(ctx context.Context, req Request) (*Result, error) {
	if c == nil {
		return nil, fmt.Errorf("%s client not configured", c.Provider)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}

	userContent := make([]compatContentPart, 0, len(req.Images)+1)
	for _, img := range req.Images {
		encoded := base64.StdEncoding.EncodeToString(img.Data)
		userContent = append(userContent, compatContentPart{
			Type: "image_url",
			ImageURL: &compatImagePart{
				URL:    fmt.Sprintf("data:%s;base64,%s", mediaTypeOrDefault(img.MediaType), encoded),
				Detail: "high",
			},
		})
	}
	userContent = append(userContent, compatContentPart{
		Type: "text",
		Text: "Follow the system instructions and return the JSON object.",
	})

	payload := compatRequest{
		Model: c.Model,
		Messages: []compatMessage{
			{Role: "system", Content: buildInstruction(req)},
			{Role: "user", Content: userContent},
		},
		Temperature: Temperature(req.CreativityLevel),
	}
	payload.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := withTimeout(ctx, c.Timeout)
	if cancel != nil {
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s api returned %d: %s", c.Provider, resp.StatusCode,
			strings.TrimSpace(string(respBody)))
	}

	var parsed compatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("no response from %s model", c.Provider)
	}

	return parseResult(req.Family.ID, parsed.Choices[0].Message.Content)
}
