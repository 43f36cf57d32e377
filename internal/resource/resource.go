// Package resource manages playable audio resources: in-memory audio
// payloads addressable through minted local URLs, valid until released.
package resource

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bookvoice/audiobook-gateway/internal/observability"
)

// Playable is an in-memory audio payload plus its minted local address.
// The bytes are owned by the conversion workflow; playback holds this by
// reference and never copies them.
type Playable struct {
	Address string
	data    []byte
}

// Bytes returns the audio payload. Callers must treat it as read-only.
func (p *Playable) Bytes() []byte {
	return p.data
}

// Registry mints local addresses for audio payloads and resolves them until
// release. Releasing promptly matters: an unreleased resource pins its bytes
// for the process lifetime.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Playable
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Playable)}
}

// Mount registers audio bytes under a freshly minted address
func (r *Registry) Mount(data []byte) *Playable {
	p := &Playable{
		Address: "/audio/" + uuid.New().String(),
		data:    data,
	}

	r.mu.Lock()
	r.entries[p.Address] = p
	r.mu.Unlock()

	observability.RecordResourceMounted()

	return p
}

// Resolve returns the resource mounted at address, if still valid
func (r *Registry) Resolve(address string) (*Playable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.entries[address]
	return p, ok
}

// Release invalidates a resource's address and drops the registry's hold on
// its bytes. Releasing an unknown or already-released address is a no-op.
func (r *Registry) Release(p *Playable) {
	if p == nil {
		return
	}

	r.mu.Lock()
	_, present := r.entries[p.Address]
	delete(r.entries, p.Address)
	r.mu.Unlock()

	if present {
		observability.RecordResourceReleased()
	}
}

// Len returns the number of mounted resources
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
