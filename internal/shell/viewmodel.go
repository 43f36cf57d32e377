// Package shell is the presentation surface of the gateway: an HTTP API the
// rendering layer drives, plus a websocket stream of view models so the
// renderer is a pure function of state.
package shell

import (
	"github.com/bookvoice/audiobook-gateway/internal/catalog"
	"github.com/bookvoice/audiobook-gateway/internal/conversion"
	"github.com/bookvoice/audiobook-gateway/internal/playback"
)

// DocumentView describes the accepted document for display
type DocumentView struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"sizeBytes"`
}

// PlayerView is the player portion of the view model, present only in the
// success state.
type PlayerView struct {
	Address       string  `json:"address"`
	DownloadName  string  `json:"downloadName"`
	IsPlaying     bool    `json:"isPlaying"`
	Position      float64 `json:"positionSeconds"`
	Duration      float64 `json:"durationSeconds"`
	PositionClock string  `json:"positionClock"`
	DurationClock string  `json:"durationClock"`
	Volume        float64 `json:"volume"`
	Error         string  `json:"error,omitempty"`
}

// Visible lists which surfaces the renderer should show. Exactly the
// surfaces implied by the workflow phase are on.
type Visible struct {
	UploadSurface bool `json:"uploadSurface"`
	Pickers       bool `json:"pickers"`
	Spinner       bool `json:"spinner"`
	ErrorBanner   bool `json:"errorBanner"`
	Player        bool `json:"player"`
	SuccessBanner bool `json:"successBanner"`
}

// ViewModel is the full render state pushed to clients. It is derived from
// session state and never mutated by the renderer.
type ViewModel struct {
	SessionID    string          `json:"sessionId"`
	Phase        string          `json:"phase"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	Document     *DocumentView   `json:"document,omitempty"`
	VoiceID      string          `json:"voiceId,omitempty"`
	Engine       string          `json:"engine"`
	Voices       []catalog.Voice `json:"voices"`
	CanConvert   bool            `json:"canConvert"`
	Show         Visible         `json:"show"`
	Player       *PlayerView     `json:"player,omitempty"`
}

// buildViewModel derives the render state for a session
func buildViewModel(s *Session) ViewModel {
	wfState := s.workflow.State()
	sel := s.workflow.Selection()

	vm := ViewModel{
		SessionID:    s.ID,
		Phase:        string(wfState.Phase),
		ErrorMessage: wfState.ErrorMessage,
		VoiceID:      sel.VoiceID,
		Engine:       string(sel.Engine),
		Voices:       catalog.List(),
		CanConvert:   s.workflow.IsReady(),
	}

	if sel.Document != nil {
		vm.Document = &DocumentView{
			Name:      sel.Document.Name,
			SizeBytes: sel.Document.SizeBytes,
		}
	}

	switch wfState.Phase {
	case conversion.PhaseProcessing:
		vm.Show = Visible{Spinner: true}
	case conversion.PhaseSuccess:
		vm.Show = Visible{Player: true, SuccessBanner: true}
	case conversion.PhaseError:
		vm.Show = Visible{UploadSurface: true, Pickers: true, ErrorBanner: true}
	default:
		vm.Show = Visible{UploadSurface: true, Pickers: true}
	}

	if wfState.Phase == conversion.PhaseSuccess && wfState.Resource != nil {
		pb := s.controller.State()

		name := "audiobook"
		if sel.Document != nil {
			name = sel.Document.Name
		}

		vm.Player = &PlayerView{
			Address:       wfState.Resource.Address,
			DownloadName:  playback.DownloadName(name),
			IsPlaying:     pb.IsPlaying,
			Position:      pb.Position,
			Duration:      pb.Duration,
			PositionClock: playback.FormatClock(pb.Position),
			DurationClock: playback.FormatClock(pb.Duration),
			Volume:        pb.Volume,
			Error:         pb.Err,
		}
	}

	return vm
}
