// Package studio implements the client-side state layer of the Prompt Alchemy
// composer: session freshness, per-provider credential caching with masked
// display, the bounded reference-image stash, and the small stateless UI
// bindings. Components are page-lifetime scoped: construct once, pass the
// instance to every handler that needs it.
package studio

// Provider identifies a prompt-generation backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderGrok   Provider = "grok"
)

// Local cache key names. These are the only keys the studio writes to its
// persistent cache, and the exact set SessionGuard wipes on a stale session.
const (
	sessionTokenKey     = "promptalchemy.session"
	selectedProviderKey = "promptalchemy.provider"
	credentialKeyPrefix = "promptalchemy.key."
)

var providerLabels = map[Provider]string{
	ProviderGemini: "Gemini",
	ProviderOpenAI: "OpenAI",
	ProviderGrok:   "Grok",
}

// providerEnvKeys maps providers to their environment key names, primary
// first. Fallback names mirror what the upstream SDKs read.
var providerEnvKeys = map[Provider][]string{
	ProviderGemini: {"GEMINI_API_KEY", "API_KEY"},
	ProviderOpenAI: {"OPENAI_API_KEY"},
	ProviderGrok:   {"GROK_API_KEY", "XAI_API_KEY"},
}

// Providers returns the fixed provider set in display order.
func Providers() []Provider {
	return []Provider{ProviderGemini, ProviderOpenAI, ProviderGrok}
}

// ParseProvider validates a raw provider identifier.
func ParseProvider(raw string) (Provider, bool) {
	p := Provider(raw)
	if _, ok := providerLabels[p]; ok {
		return p, true
	}
	return "", false
}

// Valid reports whether the provider belongs to the fixed set.
func (p Provider) Valid() bool {
	_, ok := providerLabels[p]
	return ok
}

// Label returns the human-readable provider name.
func (p Provider) Label() string {
	if label, ok := providerLabels[p]; ok {
		return label
	}
	return string(p)
}

// EnvKey returns the primary environment variable name for the provider's
// credential, or "" for an unknown provider.
func (p Provider) EnvKey() string {
	keys := providerEnvKeys[p]
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}

// EnvKeys returns all environment variable names checked when resolving the
// provider's credential, primary first.
func (p Provider) EnvKeys() []string {
	keys := providerEnvKeys[p]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// CredentialKey returns the local cache key holding the provider's credential.
func CredentialKey(p Provider) string {
	return credentialKeyPrefix + string(p)
}
