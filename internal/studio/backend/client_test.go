package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/promptalchemy/promptalchemy/internal/studio"
)

func TestClientFetchKey(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsKeyForProvider", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, "/api/keys", r.URL.Path)
			require.Equal(t, "openai", r.URL.Query().Get("provider"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"api_key": "sk-from-env"}`))
		}))
		defer srv.Close()

		key, err := NewClient(srv.URL).FetchKey(ctx, studio.ProviderOpenAI)
		require.NoError(t, err)
		require.Equal(t, "sk-from-env", key)
	})

	t.Run("AbsentKeyIsEmptyNotError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"api_key": ""}`))
		}))
		defer srv.Close()

		key, err := NewClient(srv.URL).FetchKey(ctx, studio.ProviderGemini)
		require.NoError(t, err)
		require.Empty(t, key)
	})

	t.Run("ServerErrorSurfaces", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).FetchKey(ctx, studio.ProviderGrok)
		require.Error(t, err)
	})
}

func TestClientPushKey(t *testing.T) {
	ctx := context.Background()

	t.Run("PostsFormEncodedPair", func(t *testing.T) {
		var gotProvider, gotKey string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/api/keys", r.URL.Path)
			require.NoError(t, r.ParseForm())
			gotProvider = r.PostFormValue("provider")
			gotKey = r.PostFormValue("api_key")
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		err := NewClient(srv.URL).PushKey(ctx, studio.ProviderGrok, "grok-key")
		require.NoError(t, err)
		require.Equal(t, "grok", gotProvider)
		require.Equal(t, "grok-key", gotKey)
	})

	t.Run("RejectionSurfacesAsError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		err := NewClient(srv.URL).PushKey(ctx, studio.ProviderOpenAI, "sk-x")
		require.Error(t, err)
	})
}

func TestClientSessionToken(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsInstanceID", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/session", r.URL.Path)
			_, _ = w.Write([]byte(`{"instance_id": "uuid-1234"}`))
		}))
		defer srv.Close()

		token, err := NewClient(srv.URL).SessionToken(ctx)
		require.NoError(t, err)
		require.Equal(t, "uuid-1234", token)
	})

	t.Run("MissingIDIsAnError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).SessionToken(ctx)
		require.Error(t, err)
	})
}

func TestClientGenerate(t *testing.T) {
	ctx := context.Background()

	writeImage := func(t *testing.T, dir, name, content string) studio.File {
		t.Helper()
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		return studio.File{Name: name, MediaType: "image/png", Path: path}
	}

	t.Run("SendsFieldsAndFilesInOrder", func(t *testing.T) {
		dir := t.TempDir()
		files := []studio.File{
			writeImage(t, dir, "first.png", "payload-one"),
			writeImage(t, dir, "second.png", "payload-two"),
		}

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/generate", r.URL.Path)
			require.NoError(t, r.ParseMultipartForm(32<<20))

			require.Equal(t, "gemini", r.FormValue("provider"))
			require.Equal(t, "sk-key", r.FormValue("api_key"))
			require.Equal(t, "sdxl", r.FormValue("model_family_id"))
			require.Equal(t, "sdxl_base", r.FormValue("checkpoint_id"))
			require.Equal(t, "0.5", r.FormValue("creativity_level"))
			require.Equal(t, []string{"lighting", "mood"}, r.MultipartForm.Value["focus_aspects"])
			require.Equal(t, "4x-ultrasharp", r.FormValue("auxiliary_upscaler"))
			require.Empty(t, r.MultipartForm.Value["auxiliary_face_fixer"])

			parts := r.MultipartForm.File["images"]
			require.Len(t, parts, 2)
			require.Equal(t, "first.png", parts[0].Filename)
			require.Equal(t, "second.png", parts[1].Filename)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"prompt": "a castle at dusk",
				"negativePrompt": "blurry",
				"modelFamily": "SDXL",
				"checkpoint": "SDXL Base"
			}`))
		}))
		defer srv.Close()

		result, err := NewClient(srv.URL).Generate(ctx, GenerateRequest{
			Provider:        studio.ProviderGemini,
			APIKey:          "sk-key",
			ModelFamilyID:   "sdxl",
			CheckpointID:    "sdxl_base",
			FocusAspects:    []string{"lighting", "mood"},
			CreativityLevel: 0.5,
			Upscaler:        "4x-ultrasharp",
		}, files)
		require.NoError(t, err)
		require.Equal(t, "a castle at dusk", result.Prompt)
		require.Equal(t, "blurry", result.NegativePrompt)
		require.Equal(t, "SDXL", result.ModelFamily)
		require.Equal(t, "SDXL Base", result.Checkpoint)
	})

	t.Run("BackendErrorMessagePropagates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"message": "Please upload at least one image."}}`))
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).Generate(ctx, GenerateRequest{Provider: studio.ProviderOpenAI}, nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "Please upload at least one image.")
	})

	t.Run("MissingFileFailsTheRequest", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// The body read errors before parsing completes; reply anyway.
			_ = r.Body.Close()
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).Generate(ctx, GenerateRequest{Provider: studio.ProviderOpenAI},
			[]studio.File{{Name: "ghost.png", MediaType: "image/png", Path: filepath.Join(t.TempDir(), "ghost.png")}})
		require.Error(t, err)
	})
}
