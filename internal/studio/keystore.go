package studio

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/promptalchemy/promptalchemy/internal/studio/localstore"
)

// DefaultWriteDelay is the quiet period before an edited credential is pushed
// to the backend.
const DefaultWriteDelay = 400 * time.Millisecond

// Display is the state of the credential input field: its visible content and
// whether that content is a masked projection rather than plaintext.
type Display struct {
	Value  string
	Masked bool
}

// BackendClient is the remote side of credential sync. FetchKey returning an
// empty string means "no environment-seeded credential"; both it and PushKey
// are best-effort from the KeyStore's perspective.
type BackendClient interface {
	FetchKey(ctx context.Context, provider Provider) (string, error)
	PushKey(ctx context.Context, provider Provider, key string) error
}

type pendingWrite struct {
	provider Provider
	value    string
}

// KeyStore keeps per-provider credentials consistent across three tiers: the
// in-memory cache, the persistent local cache, and (debounced, best-effort)
// the backend. It also owns the masked display projection for the active
// provider. One instance per page load; never torn down.
type KeyStore struct {
	mu      sync.Mutex
	ctx     context.Context
	store   localstore.KV
	backend BackendClient

	active  Provider
	cache   map[Provider]string
	display Display

	writes  *debouncer
	pending *pendingWrite

	onDisplay func(Display)
}

// NewKeyStore constructs a KeyStore bound to the page-lifetime ctx. The ctx
// scopes every storage and network call the store makes on its own behalf.
func NewKeyStore(ctx context.Context, store localstore.KV, backend BackendClient) *KeyStore {
	if ctx == nil {
		ctx = context.Background()
	}
	return &KeyStore{
		ctx:     ctx,
		store:   store,
		backend: backend,
		cache:   make(map[Provider]string),
		writes:  newDebouncer(DefaultWriteDelay),
	}
}

// SetWriteDelay overrides the debounce delay for remote writes.
func (k *KeyStore) SetWriteDelay(delay time.Duration) {
	k.writes.setDelay(delay)
}

// SetDisplayListener registers a sink notified on every display change.
func (k *KeyStore) SetDisplayListener(fn func(Display)) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.onDisplay = fn
}

// Display returns the current display field state.
func (k *KeyStore) Display() Display {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.display
}

// ActiveProvider returns the currently selected provider.
func (k *KeyStore) ActiveProvider() Provider {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.active
}

// CachedKey returns the in-memory credential for a provider, if any.
func (k *KeyStore) CachedKey(p Provider) (string, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	value, ok := k.cache[p]
	return value, ok
}

// SelectProvider makes p the active provider and resolves its display value:
// a local cache hit is adopted (masked), otherwise the field is cleared and
// environment hydration is kicked off in the background.
func (k *KeyStore) SelectProvider(p Provider) {
	k.mu.Lock()
	k.active = p
	_ = k.store.Set(k.ctx, selectedProviderKey, string(p))

	if value, ok, err := k.store.Get(k.ctx, CredentialKey(p)); err == nil && ok && value != "" {
		k.cache[p] = value
		k.setDisplayLocked(Display{Value: MaskKey(value), Masked: true})
		k.mu.Unlock()
		return
	}

	k.setDisplayLocked(Display{})
	k.mu.Unlock()

	go k.HydrateFromEnvironment(p)
}

// HydrateFromEnvironment asks the backend for an environment-seeded credential
// and, on a non-empty result, caches it exactly as a user-entered value would
// be cached — but never schedules a remote write-back, since the value already
// originated server-side. Failures and empty results leave state unchanged.
func (k *KeyStore) HydrateFromEnvironment(p Provider) {
	value, err := k.backend.FetchKey(k.ctx, p)
	if err != nil || strings.TrimSpace(value) == "" {
		return
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.cache[p] = value
	_ = k.store.Set(k.ctx, CredentialKey(p), value)

	// Only the active provider's credential is projected into the field.
	if k.active == p {
		k.setDisplayLocked(Display{Value: MaskKey(value), Masked: true})
	}
}

// OnDisplayFocus clears a masked field so the next keystroke edits plaintext.
// The real value is never pre-filled; an untouched field is re-masked on blur.
func (k *KeyStore) OnDisplayFocus() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.display.Masked {
		k.setDisplayLocked(Display{})
	}
}

// OnDisplayBlur restores the masked projection when the field was left empty
// but a cached credential exists for the active provider.
func (k *KeyStore) OnDisplayBlur() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.display.Value != "" {
		return
	}
	if cached, ok := k.cache[k.active]; ok && cached != "" {
		k.setDisplayLocked(Display{Value: MaskKey(cached), Masked: true})
	}
}

// OnDisplayInput records an edit to the active provider's credential. An empty
// value revokes the credential from both caches. A non-empty value is cached
// synchronously — so a reload within the session keeps it even if the network
// write never fires — and a debounced remote write is (re)scheduled.
func (k *KeyStore) OnDisplayInput(value string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.setDisplayLocked(Display{Value: value, Masked: false})

	if value == "" {
		delete(k.cache, k.active)
		_ = k.store.Delete(k.ctx, CredentialKey(k.active))
		return
	}

	k.cache[k.active] = value
	_ = k.store.Set(k.ctx, CredentialKey(k.active), value)

	// The (provider, value) pair is captured now; if the active provider
	// changes before the timer fires, the write still carries this pair.
	// Last write wins per scheduled edit, not cancel-on-provider-switch.
	k.pending = &pendingWrite{provider: k.active, value: value}
	k.writes.schedule(k.firePendingWrite)
}

// Flush sends any pending remote write immediately instead of waiting out the
// debounce delay.
func (k *KeyStore) Flush() {
	k.writes.cancel()
	k.firePendingWrite()
}

func (k *KeyStore) firePendingWrite() {
	k.mu.Lock()
	write := k.pending
	k.pending = nil
	k.mu.Unlock()

	if write == nil {
		return
	}

	// Best-effort: failures are swallowed, the local cache stays
	// authoritative for the session.
	_ = k.backend.PushKey(k.ctx, write.provider, write.value)
}

func (k *KeyStore) setDisplayLocked(d Display) {
	k.display = d
	if k.onDisplay != nil {
		k.onDisplay(d)
	}
}
