// Package backend is the studio's typed client for the Prompt Alchemy HTTP
// service. Credential reads and writes are deliberately forgiving: any
// failure collapses to "no credential" or is swallowed, per the studio's
// best-effort persistence model.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/promptalchemy/promptalchemy/internal/studio"
)

const defaultTimeout = 60 * time.Second

// Client talks to the Prompt Alchemy backend.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewClient returns a client with defaults applied.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Timeout: defaultTimeout,
	}
}

type keyResponse struct {
	APIKey string `json:"api_key"`
}

type sessionResponse struct {
	InstanceID string `json:"instance_id"`
}

// GenerateRequest carries the composer configuration for one generation.
type GenerateRequest struct {
	Provider          studio.Provider
	APIKey            string
	ModelFamilyID     string
	CheckpointID      string
	FocusAspects      []string
	CreativityLevel   float64
	AdditionalContext string
	Upscaler          string
	FaceFixer         string
	ControlModel      string
}

// GenerateResult is the backend's successful generation payload.
type GenerateResult struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt"`
	ModelFamily    string `json:"modelFamily"`
	Checkpoint     string `json:"checkpoint"`
}

type generateError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// FetchKey reads the environment-seeded credential for a provider. An absent
// key, a non-2xx response, and a transport error all mean "no credential".
func (c *Client) FetchKey(ctx context.Context, provider studio.Provider) (string, error) {
	endpoint := c.BaseURL + "/api/keys?provider=" + url.QueryEscape(string(provider))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("key read returned %d", resp.StatusCode)
	}

	var parsed keyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return strings.TrimSpace(parsed.APIKey), nil
}

// PushKey persists a credential server-side. Fire-and-forget: the response
// body is not inspected beyond the status code.
func (c *Client) PushKey(ctx context.Context, provider studio.Provider, key string) error {
	form := url.Values{}
	form.Set("provider", string(provider))
	form.Set("api_key", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/keys",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("key write returned %d", resp.StatusCode)
	}

	return nil
}

// SessionToken fetches the backend's per-process instance id, the token
// SessionGuard compares against the locally recorded one.
func (c *Client) SessionToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/session", nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("session read returned %d", resp.StatusCode)
	}

	var parsed sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(parsed.InstanceID) == "" {
		return "", fmt.Errorf("session response missing instance id")
	}

	return parsed.InstanceID, nil
}

// Generate submits the composer configuration plus the stash files, in stash
// order, as one multipart request.
func (c *Client) Generate(ctx context.Context, genReq GenerateRequest, files []studio.File) (*GenerateResult, error) {
	body, contentType, err := buildGenerateBody(genReq, files)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/generate", body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var parsed generateError
		if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.Error.Message != "" {
			return nil, fmt.Errorf("generate failed: %s", parsed.Error.Message)
		}
		return nil, fmt.Errorf("generate returned %d", resp.StatusCode)
	}

	var result GenerateResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}

func buildGenerateBody(genReq GenerateRequest, files []studio.File) (io.Reader, string, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		err := writeGenerateParts(writer, genReq, files)
		if closeErr := writer.Close(); err == nil {
			err = closeErr
		}
		pw.CloseWithError(err) // nolint:errcheck // pipe close error surfaces on read
	}()

	return pr, writer.FormDataContentType(), nil
}

func writeGenerateParts(writer *multipart.Writer, genReq GenerateRequest, files []studio.File) error {
	fields := map[string]string{
		"provider":           string(genReq.Provider),
		"api_key":            genReq.APIKey,
		"model_family_id":    genReq.ModelFamilyID,
		"checkpoint_id":      genReq.CheckpointID,
		"creativity_level":   strconv.FormatFloat(genReq.CreativityLevel, 'f', -1, 64),
		"additional_context": genReq.AdditionalContext,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return err
		}
	}
	for _, aspect := range genReq.FocusAspects {
		if err := writer.WriteField("focus_aspects", aspect); err != nil {
			return err
		}
	}
	optional := map[string]string{
		"auxiliary_upscaler":      genReq.Upscaler,
		"auxiliary_face_fixer":    genReq.FaceFixer,
		"auxiliary_control_model": genReq.ControlModel,
	}
	for name, value := range optional {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return err
		}
	}

	for _, f := range files {
		part, err := writer.CreateFormFile("images", f.Name)
		if err != nil {
			return err
		}
		src, err := os.Open(f.Path)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, src)
		_ = src.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	if c.Timeout > 0 {
		return &http.Client{Timeout: c.Timeout}
	}
	return http.DefaultClient
}
