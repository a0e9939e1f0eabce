package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/promptalchemy/promptalchemy/internal/promptgen"
	"github.com/promptalchemy/promptalchemy/internal/studio"
)

type stubGenerator struct {
	result  *promptgen.Result
	err     error
	lastReq promptgen.Request
}

func (s *stubGenerator) Generate(_ context.Context, req promptgen.Request) (*promptgen.Result, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func useStubGenerator(t *testing.T, stub *stubGenerator) {
	t.Helper()
	SetGeneratorFactory(func(studio.Provider, string) (promptgen.Generator, error) {
		return stub, nil
	})
	t.Cleanup(func() { SetGeneratorFactory(nil) })
}

type generateForm struct {
	fields map[string]string
	images int
}

func postGenerate(t *testing.T, form generateForm) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range form.fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	for i := 0; i < form.images; i++ {
		part, err := writer.CreateFormFile("images", "ref.png")
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := part.Write([]byte("fake-image-bytes")); err != nil {
			t.Fatalf("failed to write file part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/generate", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	GenerateHandler(rec, req)
	return rec
}

func decodeErrorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Error.Message
}

func TestGenerateHandler(t *testing.T) {
	validFields := func() map[string]string {
		return map[string]string{
			"provider":         "gemini",
			"api_key":          "sk-test",
			"model_family_id":  "sdxl",
			"checkpoint_id":    "sdxl_base",
			"creativity_level": "0.5",
		}
	}

	t.Run("RequiresAtLeastOneImage", func(t *testing.T) {
		useTempEnvFile(t, "")
		useStubGenerator(t, &stubGenerator{result: &promptgen.Result{Prompt: "p"}})

		rec := postGenerate(t, generateForm{fields: validFields(), images: 0})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if msg := decodeErrorMessage(t, rec); msg != "Please upload at least one reference image." {
			t.Fatalf("unexpected message: %q", msg)
		}
	})

	t.Run("RejectsUnknownFamily", func(t *testing.T) {
		useTempEnvFile(t, "")
		useStubGenerator(t, &stubGenerator{result: &promptgen.Result{Prompt: "p"}})

		fields := validFields()
		fields["model_family_id"] = "missing"
		rec := postGenerate(t, generateForm{fields: fields, images: 1})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if msg := decodeErrorMessage(t, rec); msg != "Invalid model configuration." {
			t.Fatalf("unexpected message: %q", msg)
		}
	})

	t.Run("RequiresResolvableKey", func(t *testing.T) {
		useTempEnvFile(t, "")
		useStubGenerator(t, &stubGenerator{result: &promptgen.Result{Prompt: "p"}})

		fields := validFields()
		fields["api_key"] = ""
		fields["provider"] = "openai"
		rec := postGenerate(t, generateForm{fields: fields, images: 1})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if msg := decodeErrorMessage(t, rec); msg != "API Key is missing. Please enter your OpenAI API Key." {
			t.Fatalf("unexpected message: %q", msg)
		}
	})

	t.Run("UnknownCheckpointFallsBackToFirst", func(t *testing.T) {
		useTempEnvFile(t, "")
		stub := &stubGenerator{result: &promptgen.Result{Prompt: "p", NegativePrompt: "n"}}
		useStubGenerator(t, stub)

		fields := validFields()
		fields["checkpoint_id"] = "not-a-checkpoint"
		rec := postGenerate(t, generateForm{fields: fields, images: 1})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.lastReq.Checkpoint.ID != "sdxl_base" {
			t.Fatalf("expected fallback checkpoint sdxl_base, got %q", stub.lastReq.Checkpoint.ID)
		}
	})

	t.Run("SuccessCarriesLabels", func(t *testing.T) {
		useTempEnvFile(t, "")
		stub := &stubGenerator{result: &promptgen.Result{Prompt: "a castle", NegativePrompt: "blurry"}}
		useStubGenerator(t, stub)

		rec := postGenerate(t, generateForm{fields: validFields(), images: 2})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp GenerateResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Prompt != "a castle" || resp.NegativePrompt != "blurry" {
			t.Fatalf("unexpected prompt pair: %+v", resp)
		}
		if resp.ModelFamily != "SDXL 1.0 Family" || resp.Checkpoint != "SDXL 1.0 Base" {
			t.Fatalf("unexpected labels: %+v", resp)
		}
		if len(stub.lastReq.Images) != 2 {
			t.Fatalf("expected 2 images forwarded, got %d", len(stub.lastReq.Images))
		}
	})

	t.Run("EnvFileKeySatisfiesResolution", func(t *testing.T) {
		useTempEnvFile(t, "GEMINI_API_KEY=from-env-file\n")
		stub := &stubGenerator{result: &promptgen.Result{Prompt: "p"}}
		useStubGenerator(t, stub)

		fields := validFields()
		fields["api_key"] = ""
		rec := postGenerate(t, generateForm{fields: fields, images: 1})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
