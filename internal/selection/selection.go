// Package selection holds the user's current conversion choices: the
// accepted document, the narrator voice, and the engine variant.
package selection

import (
	"sync"

	"github.com/bookvoice/audiobook-gateway/internal/document"
)

// Engine is the narration technology variant requested from the converter.
// Its only effect is which submission endpoint the workflow targets.
type Engine string

const (
	// EngineBasic is the free default voice engine
	EngineBasic Engine = "basic"
	// EngineHumanLike is the premium voice engine
	EngineHumanLike Engine = "human-like"
)

// ParseEngine maps a wire value to an Engine, defaulting to EngineBasic
// for anything unrecognized.
func ParseEngine(s string) Engine {
	if Engine(s) == EngineHumanLike {
		return EngineHumanLike
	}
	return EngineBasic
}

// Snapshot is a point-in-time copy of the current selection
type Snapshot struct {
	Document *document.Handle
	VoiceID  string
	Engine   Engine
}

// Store holds the current selection. It has no side effects and no I/O;
// the workflow layers the error-dismiss rule on top of it.
type Store struct {
	mu       sync.RWMutex
	document *document.Handle
	voiceID  string
	engine   Engine
}

// NewStore creates a store with the initial selection: nothing chosen,
// engine at its default.
func NewStore() *Store {
	return &Store{engine: EngineBasic}
}

// SetDocument replaces the current document. Passing nil clears it.
func (s *Store) SetDocument(h *document.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.document = h
}

// SetVoice replaces the current voice id. Passing "" clears it.
func (s *Store) SetVoice(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceID = id
}

// SetEngine replaces the engine variant
func (s *Store) SetEngine(e Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine = e
}

// Reset restores the initial selection
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.document = nil
	s.voiceID = ""
	s.engine = EngineBasic
}

// Complete reports whether both a document and a voice are chosen. The full
// readiness predicate also requires the workflow to not be processing; that
// half lives on the workflow, which owns its own state.
func (s *Store) Complete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.document != nil && s.voiceID != ""
}

// Snapshot returns a copy of the current selection
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Document: s.document,
		VoiceID:  s.voiceID,
		Engine:   s.engine,
	}
}
