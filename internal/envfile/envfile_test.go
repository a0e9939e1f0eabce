package envfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/promptalchemy/promptalchemy/internal/studio"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestRead(t *testing.T) {
	t.Run("MissingFileIsEmpty", func(t *testing.T) {
		env, err := Read(filepath.Join(t.TempDir(), ".env"))
		require.NoError(t, err)
		require.Empty(t, env)
	})

	t.Run("SkipsCommentsAndMalformedLines", func(t *testing.T) {
		path := writeEnv(t, "# header\n\nGEMINI_API_KEY=abc\nnot a pair\n  OPENAI_API_KEY = spaced \n")

		env, err := Read(path)
		require.NoError(t, err)
		require.Equal(t, map[string]string{
			"GEMINI_API_KEY": "abc",
			"OPENAI_API_KEY": "spaced",
		}, env)
	})

	t.Run("ValueKeepsEmbeddedEquals", func(t *testing.T) {
		path := writeEnv(t, "TOKEN=abc=def==\n")

		env, err := Read(path)
		require.NoError(t, err)
		require.Equal(t, "abc=def==", env["TOKEN"])
	})
}

func TestUpdate(t *testing.T) {
	t.Run("RewritesExistingLineInPlace", func(t *testing.T) {
		path := writeEnv(t, "# keys\nGEMINI_API_KEY=old\nOPENAI_API_KEY=keep\n")

		require.NoError(t, Update(path, "GEMINI_API_KEY", "new"))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "# keys\nGEMINI_API_KEY=new\nOPENAI_API_KEY=keep\n", string(raw))
	})

	t.Run("AppendsAfterBlankSeparator", func(t *testing.T) {
		path := writeEnv(t, "OPENAI_API_KEY=keep\n")

		require.NoError(t, Update(path, "GROK_API_KEY", "grk"))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "OPENAI_API_KEY=keep\n\nGROK_API_KEY=grk\n", string(raw))
	})

	t.Run("CreatesMissingFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")

		require.NoError(t, Update(path, "GEMINI_API_KEY", "abc"))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "GEMINI_API_KEY=abc\n", string(raw))
	})

	t.Run("PreservesCommentsAndBlanks", func(t *testing.T) {
		path := writeEnv(t, "# section one\n\nA=1\n# section two\nB=2\n")

		require.NoError(t, Update(path, "B", "22"))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "# section one\n\nA=1\n# section two\nB=22\n", string(raw))
	})
}

func TestResolve(t *testing.T) {
	t.Run("ProvidedKeyWins", func(t *testing.T) {
		path := writeEnv(t, "GEMINI_API_KEY=from-file\n")

		key, err := Resolve(studio.ProviderGemini, "explicit", path)
		require.NoError(t, err)
		require.Equal(t, "explicit", key)
	})

	t.Run("FallsBackToEnvFile", func(t *testing.T) {
		path := writeEnv(t, "OPENAI_API_KEY=from-file\n")

		key, err := Resolve(studio.ProviderOpenAI, "", path)
		require.NoError(t, err)
		require.Equal(t, "from-file", key)
	})

	t.Run("ProcessEnvOverridesFile", func(t *testing.T) {
		path := writeEnv(t, "GROK_API_KEY=from-file\n")
		t.Setenv("GROK_API_KEY", "from-process")

		key, err := Resolve(studio.ProviderGrok, "", path)
		require.NoError(t, err)
		require.Equal(t, "from-process", key)
	})

	t.Run("SecondaryNameServesAsFallback", func(t *testing.T) {
		path := writeEnv(t, "XAI_API_KEY=xai-key\n")

		key, err := Resolve(studio.ProviderGrok, "", path)
		require.NoError(t, err)
		require.Equal(t, "xai-key", key)
	})

	t.Run("NothingResolvesToEmpty", func(t *testing.T) {
		key, err := Resolve(studio.ProviderGemini, "", filepath.Join(t.TempDir(), ".env"))
		require.NoError(t, err)
		require.Empty(t, key)
	})
}
