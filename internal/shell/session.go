package shell

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bookvoice/audiobook-gateway/internal/config"
	"github.com/bookvoice/audiobook-gateway/internal/conversion"
	"github.com/bookvoice/audiobook-gateway/internal/observability"
	"github.com/bookvoice/audiobook-gateway/internal/playback"
	"github.com/bookvoice/audiobook-gateway/internal/resource"
	"github.com/bookvoice/audiobook-gateway/internal/selection"
)

// Session holds the state of a single conversion session: the workflow, the
// playback controller, and the subscribers watching its view model.
type Session struct {
	ID        string
	createdAt time.Time

	workflow   *conversion.Workflow
	controller *playback.Controller
	logger     zerolog.Logger

	mu          sync.Mutex
	subscribers map[chan []byte]struct{}
}

// newSession wires a fresh workflow and controller against the shared
// registry. The controller mounts and unmounts resources as the workflow
// moves in and out of success.
func newSession(cfg *config.Config, registry *resource.Registry) *Session {
	id := uuid.New().String()
	logger := observability.WithSession(id)

	store := selection.NewStore()
	client := conversion.NewClient(cfg.ConverterBaseURL, 0)
	timeout := time.Duration(cfg.ConverterTimeoutSeconds) * time.Second
	workflow := conversion.NewWorkflow(store, client, registry, timeout, logger)
	controller := playback.NewController(playback.NopTransport{}, logger)

	s := &Session{
		ID:          id,
		createdAt:   time.Now(),
		workflow:    workflow,
		controller:  controller,
		logger:      logger,
		subscribers: make(map[chan []byte]struct{}),
	}

	workflow.SetOnChange(s.onStateChange)
	observability.RecordSessionStart()
	logger.Info().Msg("Session created")

	return s
}

// onStateChange runs after every workflow transition: it keeps the playback
// controller in sync with the workflow's resource, then pushes the fresh
// view model to subscribers.
func (s *Session) onStateChange() {
	st := s.workflow.State()

	switch {
	case st.Phase == conversion.PhaseSuccess && st.Resource != nil:
		if s.controller.Resource() != st.Resource {
			s.controller.Mount(st.Resource)
		}
	default:
		if s.controller.Resource() != nil {
			s.controller.Unmount()
		}
	}

	s.broadcast()
}

// subscribe registers a view-model channel. The channel is buffered; a slow
// subscriber misses intermediate states, never blocks the session.
func (s *Session) subscribe() chan []byte {
	ch := make(chan []byte, 8)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Session) unsubscribe(ch chan []byte) {
	s.mu.Lock()
	delete(s.subscribers, ch)
	s.mu.Unlock()
}

// broadcast pushes the current view model to every subscriber
func (s *Session) broadcast() {
	payload, err := encodeViewModel(buildViewModel(s))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode view model")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- payload:
		default:
			// Subscriber is not keeping up; it will catch up on the
			// next push since every payload is a full view model.
		}
	}
}

// close tears the session down: the workflow releases its resource and any
// in-flight submission is canceled.
func (s *Session) close() {
	s.workflow.Reset()
	s.controller.Unmount()

	s.mu.Lock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()

	observability.RecordSessionEnd()
	s.logger.Info().Msg("Session closed")
}
