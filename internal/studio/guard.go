package studio

import (
	"context"

	"github.com/promptalchemy/promptalchemy/internal/studio/localstore"
)

// EnsureFreshSession compares currentToken against the token recorded by the
// previous session. On mismatch (or first run) it wipes every provider
// credential entry plus the remembered provider selection, then records
// currentToken. On match it is a no-op. It touches only the local cache —
// no network — and must run exactly once, before any KeyStore hydration.
func EnsureFreshSession(ctx context.Context, store localstore.KV, currentToken string) {
	last, ok, err := store.Get(ctx, sessionTokenKey)
	if err == nil && ok && last == currentToken {
		return
	}

	for _, p := range Providers() {
		_ = store.Delete(ctx, CredentialKey(p))
	}
	_ = store.Delete(ctx, selectedProviderKey)
	_ = store.Set(ctx, sessionTokenKey, currentToken)
}
