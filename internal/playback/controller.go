package playback

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bookvoice/audiobook-gateway/internal/observability"
	"github.com/bookvoice/audiobook-gateway/internal/resource"
)

// State is a snapshot of the controller's transport state
type State struct {
	IsPlaying bool    `json:"isPlaying"`
	Position  float64 `json:"positionSeconds"`
	Duration  float64 `json:"durationSeconds"`
	Volume    float64 `json:"volume"`

	// Err carries a transport load failure. The reference swallowed these
	// silently; it is surfaced here but rendering it is the shell's choice.
	Err string `json:"error,omitempty"`
}

// Controller wraps exactly one playable resource at a time. Every command
// and transport event is a single atomic state update behind one mutex, so
// overlapping writes resolve by arrival order (last writer wins).
type Controller struct {
	transport Transport
	logger    zerolog.Logger

	mu        sync.Mutex
	res       *resource.Playable
	isPlaying bool
	position  float64
	duration  float64
	volume    float64
	loadErr   error
}

// NewController creates a controller bound to a transport, with volume at
// full and nothing mounted.
func NewController(transport Transport, logger zerolog.Logger) *Controller {
	return &Controller{
		transport: transport,
		logger:    logger,
		volume:    1,
	}
}

// Mount binds the controller to a resource, replacing any previous binding
// and zeroing transport state. A transport load failure is recorded on the
// state rather than returned up as a crash; duration then simply stays zero
// and playback commands no-op, matching the reference's degraded mode.
func (c *Controller) Mount(res *resource.Playable) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.res = res
	c.isPlaying = false
	c.position = 0
	c.duration = 0
	c.loadErr = nil

	if res == nil {
		return
	}

	if err := c.transport.Load(res); err != nil {
		c.loadErr = fmt.Errorf("playback load failed: %w", err)
		c.logger.Error().Err(err).Str("address", res.Address).Msg("Transport failed to load resource")
		observability.RecordError("load", "playback")
	}
}

// Unmount drops the current resource and resets transport state
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.res == nil {
		return
	}

	if err := c.transport.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("Transport close failed")
	}

	c.res = nil
	c.isPlaying = false
	c.position = 0
	c.duration = 0
	c.loadErr = nil
}

// Resource returns the currently mounted resource, if any
func (c *Controller) Resource() *resource.Playable {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.res
}

// TogglePlayPause flips the playing flag and issues the matching transport
// command. There is deliberately no zero-duration guard: the flag flips even
// when the transport has nothing to play, preserving the reference quirk.
func (c *Controller) TogglePlayPause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.isPlaying {
		err = c.transport.Pause()
	} else {
		err = c.transport.Play()
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("Transport play/pause failed")
	}

	c.isPlaying = !c.isPlaying
	observability.RecordPlaybackCommand("toggle")
}

// SeekToFraction moves the playhead to a fraction of the duration. The
// fraction is clamped to [0, 1] before the position is computed.
func (c *Controller) SeekToFraction(f float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f = clamp(f, 0, 1)
	c.position = f * c.duration

	if err := c.transport.SetPosition(c.position); err != nil {
		c.logger.Warn().Err(err).Msg("Transport seek failed")
	}
	observability.RecordPlaybackCommand("seek")
}

// SetVolume assigns the volume, clamped to [0, 1], and propagates it to the
// transport immediately.
func (c *Controller) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.volume = clamp(v, 0, 1)

	if err := c.transport.SetVolume(c.volume); err != nil {
		c.logger.Warn().Err(err).Msg("Transport volume change failed")
	}
	observability.RecordPlaybackCommand("volume")
}

// Skip moves the playhead by delta seconds, clamped to [0, duration].
// The skip controls use ±10 seconds.
func (c *Controller) Skip(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.position = clamp(c.position+delta, 0, c.duration)

	if err := c.transport.SetPosition(c.position); err != nil {
		c.logger.Warn().Err(err).Msg("Transport skip failed")
	}
	observability.RecordPlaybackCommand("skip")
}

// HandleEvent applies a transport event. These are the only mutators of
// position and duration besides SeekToFraction and Skip.
func (c *Controller) HandleEvent(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Kind {
	case EventTimeUpdated:
		pos := ev.Seconds
		if pos < 0 || math.IsNaN(pos) {
			pos = 0
		}
		if c.duration > 0 && pos > c.duration {
			pos = c.duration
		}
		c.position = pos
	case EventDurationKnown:
		d := ev.Seconds
		if d < 0 || math.IsNaN(d) {
			d = 0
		}
		c.duration = d
		if c.position > c.duration {
			c.position = c.duration
		}
	case EventEnded:
		c.isPlaying = false
	default:
		c.logger.Debug().Str("kind", string(ev.Kind)).Msg("Ignoring unknown playback event")
	}
}

// State returns a snapshot of the transport state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		IsPlaying: c.isPlaying,
		Position:  c.position,
		Duration:  c.duration,
		Volume:    c.volume,
	}
	if c.loadErr != nil {
		st.Err = c.loadErr.Error()
	}
	return st
}

// DownloadName derives the suggested download filename from the source
// document's name: a trailing ".pdf" becomes ".mp3", anything else is used
// unmodified. The unmodified fallback mirrors the reference even though it
// leaves extensionless names without an audio extension.
func DownloadName(suggested string) string {
	if strings.HasSuffix(suggested, ".pdf") {
		return strings.TrimSuffix(suggested, ".pdf") + ".mp3"
	}
	return suggested
}

// FormatClock renders seconds as "M:SS" with unbounded minutes. Unset or
// nonsensical inputs (negative, NaN) render as the 0:00 placeholder.
func FormatClock(t float64) string {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}

	minutes := int(t) / 60
	seconds := int(t) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
