// Package playback drives a single mounted audio resource: transport state,
// seek/skip/volume, download naming, and the clock display format.
package playback

import "github.com/bookvoice/audiobook-gateway/internal/resource"

// Transport is the host environment's media playback primitive. The
// controller issues commands to it and consumes the events it fires; it
// never assumes a particular backend.
type Transport interface {
	// Load binds the transport to a resource's audio bytes
	Load(p *resource.Playable) error

	// Play starts or resumes playback
	Play() error

	// Pause halts playback, keeping position
	Pause() error

	// SetPosition moves the playhead, in seconds
	SetPosition(seconds float64) error

	// SetVolume sets the output volume in [0, 1]
	SetVolume(v float64) error

	// Close releases the transport's hold on the resource
	Close() error
}

// EventKind identifies a transport-driven playback event
type EventKind string

const (
	// EventTimeUpdated carries the current playhead position
	EventTimeUpdated EventKind = "time_updated"
	// EventDurationKnown fires once the media metadata is loaded
	EventDurationKnown EventKind = "duration_known"
	// EventEnded fires when playback reaches the end of the resource
	EventEnded EventKind = "ended"
)

// Event is an inbound message from the transport. Events and user commands
// are applied one at a time; when they race, event-queue arrival order wins.
type Event struct {
	Kind    EventKind
	Seconds float64
}

// NopTransport is the stand-in transport used when the actual media engine
// lives on the other side of the API: commands succeed without effect and
// the remote renderer reports events back through the controller.
type NopTransport struct{}

func (NopTransport) Load(*resource.Playable) error { return nil }
func (NopTransport) Play() error                   { return nil }
func (NopTransport) Pause() error                  { return nil }
func (NopTransport) SetPosition(float64) error     { return nil }
func (NopTransport) SetVolume(float64) error       { return nil }
func (NopTransport) Close() error                  { return nil }
