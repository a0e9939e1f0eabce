// Package envfile reads and updates the dotenv file backing server-side
// credential persistence. Updates are line-preserving: comments, blank lines,
// and unrelated entries keep their positions.
package envfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/promptalchemy/promptalchemy/internal/studio"
)

// Read parses the dotenv file at path into a key-value map. A missing file is
// an empty map, not an error. Blank lines, comments, and lines without '=' are
// skipped; keys and values are trimmed.
func Read(path string) (map[string]string, error) {
	env := make(map[string]string)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return env, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}

	for _, line := range strings.Split(string(raw), "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") || !strings.Contains(stripped, "=") {
			continue
		}
		key, value, _ := strings.Cut(stripped, "=")
		env[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return env, nil
}

// Update sets key=value in the file at path, rewriting the matching line in
// place when the key exists and appending otherwise. All other lines are kept
// verbatim. The file is created if missing.
func Update(path, key, value string) error {
	var lines []string
	raw, err := os.ReadFile(path)
	if err == nil {
		lines = strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
		if len(lines) == 1 && lines[0] == "" {
			lines = nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read env file: %w", err)
	}

	updated := false
	out := make([]string, 0, len(lines)+2)
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") || !strings.Contains(stripped, "=") {
			out = append(out, line)
			continue
		}
		existingKey, _, _ := strings.Cut(stripped, "=")
		if strings.TrimSpace(existingKey) == key {
			out = append(out, key+"="+value)
			updated = true
		} else {
			out = append(out, line)
		}
	}

	if !updated {
		if len(out) > 0 && out[len(out)-1] != "" {
			out = append(out, "")
		}
		out = append(out, key+"="+value)
	}

	// #nosec G306 -- dotenv files are conventionally user-writable
	if err := os.WriteFile(path, []byte(strings.Join(out, "\n")+"\n"), 0644); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	return nil
}

// Lookup returns the first non-empty value among a provider's environment key
// names. Process environment variables override env-file entries of the same
// name.
func Lookup(env map[string]string, provider studio.Provider) string {
	merged := make(map[string]string, len(env))
	for k, v := range env {
		merged[k] = v
	}
	for _, entry := range os.Environ() {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			merged[k] = v
		}
	}

	for _, name := range provider.EnvKeys() {
		if value := merged[name]; value != "" {
			return value
		}
	}
	return ""
}

// Resolve picks the credential to use for a request: an explicitly provided
// key wins, otherwise the provider's environment keys are consulted via the
// env file at path and the process environment.
func Resolve(provider studio.Provider, providedKey, path string) (string, error) {
	if providedKey != "" {
		return providedKey, nil
	}
	env, err := Read(path)
	if err != nil {
		return "", err
	}
	return Lookup(env, provider), nil
}
