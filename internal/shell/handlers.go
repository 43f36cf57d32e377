package shell

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bookvoice/audiobook-gateway/internal/config"
	"github.com/bookvoice/audiobook-gateway/internal/document"
	"github.com/bookvoice/audiobook-gateway/internal/observability"
	"github.com/bookvoice/audiobook-gateway/internal/playback"
	"github.com/bookvoice/audiobook-gateway/internal/resource"
	"github.com/bookvoice/audiobook-gateway/internal/selection"
)

// Manager owns the live sessions and the shared resource registry, and
// exposes the HTTP surface the rendering layer drives.
type Manager struct {
	cfg      *config.Config
	registry *resource.Registry

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		cfg:      cfg,
		registry: resource.NewRegistry(),
		sessions: make(map[string]*Session),
	}
}

// Registry exposes the shared resource registry (used by readiness checks
// and tests).
func (m *Manager) Registry() *resource.Registry {
	return m.registry
}

// CreateSession starts a new conversion session
func (m *Manager) CreateSession() *Session {
	s := newSession(m.cfg, m.registry)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s
}

// Get returns a session by id
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// CloseSession tears down a session and forgets it
func (m *Manager) CloseSession(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.close()
	}
	return ok
}

// Register attaches the API routes to a mux
func (m *Manager) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/session", m.handleCreateSession)
	mux.HandleFunc("DELETE /api/session/{id}", m.handleDeleteSession)
	mux.HandleFunc("GET /api/session/{id}/state", m.withSession(m.handleState))
	mux.HandleFunc("POST /api/session/{id}/document", m.withSession(m.handleDocument))
	mux.HandleFunc("POST /api/session/{id}/document/clear", m.withSession(m.handleDocumentClear))
	mux.HandleFunc("POST /api/session/{id}/voice", m.withSession(m.handleVoice))
	mux.HandleFunc("POST /api/session/{id}/engine", m.withSession(m.handleEngine))
	mux.HandleFunc("POST /api/session/{id}/convert", m.withSession(m.handleConvert))
	mux.HandleFunc("POST /api/session/{id}/reset", m.withSession(m.handleReset))
	mux.HandleFunc("POST /api/session/{id}/playback", m.withSession(m.handlePlayback))
	mux.HandleFunc("GET /ws/session/{id}", m.withSession(m.handleWS))
	mux.HandleFunc("GET /audio/{id}", m.handleAudio)
	mux.HandleFunc("GET /audio/{id}/download", m.handleDownload)
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *Session)

// withSession resolves the {id} path segment to a live session
func (m *Manager) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := m.Get(r.PathValue("id"))
		if !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h(w, r, s)
	}
}

func encodeViewModel(vm ViewModel) ([]byte, error) {
	return json.Marshal(vm)
}

func writeViewModel(w http.ResponseWriter, s *Session) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(buildViewModel(s))
}

func (m *Manager) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	s := m.CreateSession()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(buildViewModel(s))
}

func (m *Manager) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !m.CloseSession(r.PathValue("id")) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (m *Manager) handleState(w http.ResponseWriter, r *http.Request, s *Session) {
	writeViewModel(w, s)
}

// handleDocument is the picker boundary. A candidate that is not a PDF is
// silently ignored: 204, no state change, no error banner. The workflow's
// own guard is the only user-visible rejection.
func (m *Manager) handleDocument(w http.ResponseWriter, r *http.Request, s *Session) {
	r.Body = http.MaxBytesReader(w, r.Body, m.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(m.cfg.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid multipart request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	handle, ok := document.Accept(header.Filename, header.Header.Get("Content-Type"), content)
	if !ok {
		s.logger.Debug().Str("name", header.Filename).Msg("Ignoring non-PDF candidate")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.workflow.SetDocument(handle)
	s.logger.Info().Str("name", handle.Name).Int64("size_bytes", handle.SizeBytes).Msg("Document accepted")
	writeViewModel(w, s)
}

func (m *Manager) handleDocumentClear(w http.ResponseWriter, r *http.Request, s *Session) {
	s.workflow.SetDocument(nil)
	writeViewModel(w, s)
}

func (m *Manager) handleVoice(w http.ResponseWriter, r *http.Request, s *Session) {
	var req struct {
		VoiceID string `json:"voiceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.workflow.SetVoice(req.VoiceID)
	writeViewModel(w, s)
}

func (m *Manager) handleEngine(w http.ResponseWriter, r *http.Request, s *Session) {
	var req struct {
		Engine string `json:"engine"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.workflow.SetEngine(selection.ParseEngine(req.Engine))
	writeViewModel(w, s)
}

// handleConvert kicks off a submission. The submission itself runs outside
// the request: the response reports the processing (or error) state and
// subscribers watch the outcome arrive.
func (m *Manager) handleConvert(w http.ResponseWriter, r *http.Request, s *Session) {
	ch := s.subscribe()
	defer s.unsubscribe(ch)

	go s.workflow.Submit()

	// Wait for the first transition so the response reflects the
	// submission (processing, or an immediate guard error) rather than
	// the pre-submit state. The outcome itself arrives over the ws.
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
	case <-r.Context().Done():
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(buildViewModel(s))
}

func (m *Manager) handleReset(w http.ResponseWriter, r *http.Request, s *Session) {
	s.workflow.Reset()
	writeViewModel(w, s)
}

type playbackRequest struct {
	Command string  `json:"command,omitempty"`
	Value   float64 `json:"value,omitempty"`
	Event   string  `json:"event,omitempty"`
	Seconds float64 `json:"seconds,omitempty"`
}

// handlePlayback applies a playback command or injects a transport event
// reported by the remote renderer's media element.
func (m *Manager) handlePlayback(w http.ResponseWriter, r *http.Request, s *Session) {
	var req playbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	switch {
	case req.Event != "":
		s.controller.HandleEvent(playback.Event{
			Kind:    playback.EventKind(req.Event),
			Seconds: req.Seconds,
		})
	case req.Command == "toggle":
		s.controller.TogglePlayPause()
	case req.Command == "seek":
		s.controller.SeekToFraction(req.Value)
	case req.Command == "volume":
		s.controller.SetVolume(req.Value)
	case req.Command == "skip":
		s.controller.Skip(req.Value)
	case req.Command == "skip_back":
		s.controller.Skip(-m.cfg.SkipSeconds)
	case req.Command == "skip_forward":
		s.controller.Skip(m.cfg.SkipSeconds)
	default:
		http.Error(w, "unknown playback command", http.StatusBadRequest)
		return
	}

	s.broadcast()
	writeViewModel(w, s)
}

// handleAudio serves a mounted resource's bytes at its minted address.
// Released addresses 404.
func (m *Manager) handleAudio(w http.ResponseWriter, r *http.Request) {
	p, ok := m.registry.Resolve("/audio/" + r.PathValue("id"))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(p.Bytes())
}

// handleDownload serves the bytes as an attachment under the derived name
func (m *Manager) handleDownload(w http.ResponseWriter, r *http.Request) {
	p, ok := m.registry.Resolve("/audio/" + r.PathValue("id"))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "audiobook"
	}
	name = playback.DownloadName(name)

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Write(p.Bytes())
	observability.RecordDownload()
}
