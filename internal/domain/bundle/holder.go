package bundle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// defaultRetireDelay is how long a replaced bundle stays open for requests
// that snapshotted it before the swap.
const defaultRetireDelay = 30 * time.Second

// HolderOption configures a Holder.
type HolderOption func(*Holder)

// WithLoadOptions passes options to every Load the holder performs.
func WithLoadOptions(opts ...LoadOption) HolderOption {
	return func(h *Holder) {
		h.loadOpts = append(h.loadOpts, opts...)
	}
}

// WithRetireDelay sets how long replaced bundles stay open.
func WithRetireDelay(d time.Duration) HolderOption {
	return func(h *Holder) {
		if d >= 0 {
			h.retireDelay = d
		}
	}
}

// Holder publishes the current bundle. A nil current bundle is the degraded
// state. Readers never block.
type Holder struct {
	path        string
	loadOpts    []LoadOption
	retireDelay time.Duration

	current atomic.Pointer[Bundle]
	// reloadMu serializes loads; readers never take it
	reloadMu sync.Mutex
}

// NewHolder creates an empty holder for the artifact at path.
func NewHolder(path string, opts ...HolderOption) *Holder {
	h := &Holder{path: path, retireDelay: defaultRetireDelay}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Path returns the artifact path.
func (h *Holder) Path() string { return h.path }

// Current returns the published bundle, or nil when degraded.
func (h *Holder) Current() *Bundle { return h.current.Load() }

// Store publishes b and retires the previous bundle.
func (h *Holder) Store(b *Bundle) {
	prev := h.current.Swap(b)
	h.retire(prev)
}

// Reload loads the artifact again. On success the new bundle replaces the
// current one; on failure the current bundle, if any, stays in place.
func (h *Holder) Reload(ctx context.Context) (*Bundle, error) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	b, err := Load(ctx, h.path, h.loadOpts...)
	if err != nil {
		return nil, err
	}
	h.Store(b)
	return b, nil
}

// Close drops the current bundle and releases it immediately.
func (h *Holder) Close() error {
	prev := h.current.Swap(nil)
	return prev.Close()
}

func (h *Holder) retire(b *Bundle) {
	if b == nil || b == h.current.Load() {
		return
	}
	if h.retireDelay == 0 {
		_ = b.Close()
		return
	}
	time.AfterFunc(h.retireDelay, func() { _ = b.Close() })
}
