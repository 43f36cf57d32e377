package conversion

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bookvoice/audiobook-gateway/internal/document"
	"github.com/bookvoice/audiobook-gateway/internal/observability"
	"github.com/bookvoice/audiobook-gateway/internal/resource"
	"github.com/bookvoice/audiobook-gateway/internal/selection"
)

// Phase is the workflow's current state. Exactly one is active at a time.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseProcessing Phase = "processing"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

// User-facing messages
const (
	msgIncompleteSelection = "Please select a PDF file and voice"
	msgUnexpectedError     = "An unexpected error occurred"
)

// State is a snapshot of the workflow
type State struct {
	Phase        Phase
	ErrorMessage string
	Resource     *resource.Playable
}

// Workflow is the conversion state machine. It owns the selection store,
// applies the error-dismiss rule when the selection changes, and owns the
// playable resource produced by a successful submission.
//
// All mutation is serialized behind one mutex via the session lock pattern:
// the single suspension point (the POST) runs outside the lock and its
// result is applied under it, keyed by job id so a stale completion of a
// superseded submission is discarded.
type Workflow struct {
	store    *selection.Store
	client   *Client
	registry *resource.Registry
	logger   zerolog.Logger

	mu       sync.Mutex
	phase    Phase
	errMsg   string
	resrc    *resource.Playable
	jobID    string
	cancel   context.CancelFunc
	timeout  time.Duration
	onChange func()
}

// NewWorkflow creates an idle workflow bound to a selection store, a
// converter client, and the resource registry that will hold its output.
func NewWorkflow(
	store *selection.Store,
	client *Client,
	registry *resource.Registry,
	timeout time.Duration,
	logger zerolog.Logger,
) *Workflow {
	return &Workflow{
		store:    store,
		client:   client,
		registry: registry,
		logger:   logger,
		phase:    PhaseIdle,
		timeout:  timeout,
	}
}

// SetOnChange registers a hook invoked after every state transition,
// outside the workflow lock. Used by the shell to push fresh view models.
func (w *Workflow) SetOnChange(fn func()) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

func (w *Workflow) notify() {
	w.mu.Lock()
	fn := w.onChange
	w.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// SetDocument replaces the selected document. A selection change implicitly
// dismisses a stale error: the workflow returns to idle first.
func (w *Workflow) SetDocument(h *document.Handle) {
	w.mu.Lock()
	if w.phase == PhaseError {
		w.phase = PhaseIdle
		w.errMsg = ""
	}
	w.store.SetDocument(h)
	w.mu.Unlock()
	w.notify()
}

// SetVoice replaces the selected voice, with the same error-dismiss rule
// as SetDocument.
func (w *Workflow) SetVoice(id string) {
	w.mu.Lock()
	if w.phase == PhaseError {
		w.phase = PhaseIdle
		w.errMsg = ""
	}
	w.store.SetVoice(id)
	w.mu.Unlock()
	w.notify()
}

// SetEngine replaces the engine variant. Unlike document and voice changes
// it does not dismiss an error: picking an engine does not resolve whatever
// the error complained about.
func (w *Workflow) SetEngine(e selection.Engine) {
	w.mu.Lock()
	w.store.SetEngine(e)
	w.mu.Unlock()
	w.notify()
}

// IsReady reports whether a submission can be attempted: document and voice
// both chosen and no submission in flight.
func (w *Workflow) IsReady() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Complete() && w.phase != PhaseProcessing
}

// State returns a snapshot of the workflow
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		Phase:        w.phase,
		ErrorMessage: w.errMsg,
		Resource:     w.resrc,
	}
}

// Selection returns a snapshot of the underlying selection
func (w *Workflow) Selection() selection.Snapshot {
	return w.store.Snapshot()
}

// Submit runs one conversion attempt. It is only actionable from the idle
// and error states; a missing document or voice fails the local guard and
// lands in the error state without any network call. The call blocks until
// the submission resolves; callers wanting fire-and-forget run it in a
// goroutine and observe the transitions.
func (w *Workflow) Submit() {
	w.mu.Lock()

	if w.phase == PhaseProcessing || w.phase == PhaseSuccess {
		phase := w.phase
		w.mu.Unlock()
		w.logger.Debug().Str("phase", string(phase)).Msg("Submit ignored in current phase")
		return
	}

	sel := w.store.Snapshot()

	// Local guard: reject incomplete selections before touching the
	// network. The PDF re-check backs up the picker boundary.
	if sel.Document == nil || sel.VoiceID == "" || !sel.Document.IsPDF() {
		w.phase = PhaseError
		w.errMsg = msgIncompleteSelection
		w.mu.Unlock()

		observability.RecordConversion(string(sel.Engine), "rejected", time.Now())
		w.logger.Warn().Msg("Submission rejected: incomplete selection")
		w.notify()
		return
	}

	// A new submission supersedes whatever resource is still mounted.
	if w.resrc != nil {
		w.registry.Release(w.resrc)
		w.resrc = nil
	}

	jobID := uuid.New().String()
	var ctx context.Context
	var cancel context.CancelFunc
	if w.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), w.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	w.jobID = jobID
	w.cancel = cancel
	w.phase = PhaseProcessing
	w.errMsg = ""
	w.mu.Unlock()
	w.notify()

	started := time.Now()
	log := w.logger.With().
		Str("job_id", jobID).
		Str("engine", string(sel.Engine)).
		Str("document", sel.Document.Name).
		Int64("size_bytes", sel.Document.SizeBytes).
		Logger()
	log.Info().Str("endpoint", EndpointFor(sel.Engine)).Msg("Submitting document for conversion")

	audio, err := w.client.Submit(ctx, sel.Document, sel.VoiceID, sel.Engine)
	cancel()

	w.mu.Lock()

	// A reset during the flight already moved the machine on; this
	// result belongs to a dead job and is discarded.
	if w.jobID != jobID {
		w.mu.Unlock()
		log.Info().Msg("Discarding result of superseded submission")
		observability.RecordConversion(string(sel.Engine), "canceled", started)
		return
	}
	w.cancel = nil

	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = msgUnexpectedError
		}
		w.phase = PhaseError
		w.errMsg = msg
		w.mu.Unlock()

		log.Error().Err(err).Msg("Conversion failed")
		observability.RecordConversion(string(sel.Engine), "error", started)
		observability.RecordError("submission", "conversion")
		w.notify()
		return
	}

	w.resrc = w.registry.Mount(audio)
	w.phase = PhaseSuccess
	w.errMsg = ""
	address := w.resrc.Address
	w.mu.Unlock()

	log.Info().Int("audio_bytes", len(audio)).Str("address", address).Msg("Conversion succeeded")
	observability.RecordConversion(string(sel.Engine), "success", started)
	observability.RecordAudioBytes(len(audio))
	w.notify()
}

// Reset returns the workflow to idle: selection cleared, engine back to its
// default, and the held resource released. A reset during processing cancels
// the in-flight request; its eventual result is discarded.
func (w *Workflow) Reset() {
	w.mu.Lock()

	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	// Invalidate any in-flight job so its completion is ignored.
	w.jobID = ""

	if w.resrc != nil {
		w.registry.Release(w.resrc)
		w.resrc = nil
	}

	w.store.Reset()
	w.phase = PhaseIdle
	w.errMsg = ""
	w.mu.Unlock()

	w.logger.Info().Msg("Workflow reset")
	w.notify()
}
