package selection

import (
	"testing"

	"github.com/bookvoice/audiobook-gateway/internal/document"
)

func testDoc() *document.Handle {
	return document.NewHandle("book.pdf", document.PDFMIMEType, []byte("%PDF-1.4"))
}

func TestStore_InitialState(t *testing.T) {
	s := NewStore()

	snap := s.Snapshot()
	if snap.Document != nil {
		t.Error("Expected no document initially")
	}
	if snap.VoiceID != "" {
		t.Error("Expected no voice initially")
	}
	if snap.Engine != EngineBasic {
		t.Errorf("Expected default engine 'basic', got '%s'", snap.Engine)
	}
	if s.Complete() {
		t.Error("Expected incomplete selection initially")
	}
}

func TestStore_CompleteRequiresBoth(t *testing.T) {
	s := NewStore()

	s.SetDocument(testDoc())
	if s.Complete() {
		t.Error("Document alone must not be complete")
	}

	s.SetVoice("EXAVITQu4vr4xnSDxMaL")
	if !s.Complete() {
		t.Error("Document + voice must be complete")
	}

	s.SetDocument(nil)
	if s.Complete() {
		t.Error("Clearing document must make selection incomplete")
	}
}

func TestStore_Reset(t *testing.T) {
	s := NewStore()
	s.SetDocument(testDoc())
	s.SetVoice("EXAVITQu4vr4xnSDxMaL")
	s.SetEngine(EngineHumanLike)

	s.Reset()

	snap := s.Snapshot()
	if snap.Document != nil || snap.VoiceID != "" {
		t.Error("Reset must clear document and voice")
	}
	if snap.Engine != EngineBasic {
		t.Errorf("Reset must restore engine to basic, got '%s'", snap.Engine)
	}
}

func TestParseEngine(t *testing.T) {
	if ParseEngine("human-like") != EngineHumanLike {
		t.Error("Expected 'human-like' to parse to EngineHumanLike")
	}
	if ParseEngine("basic") != EngineBasic {
		t.Error("Expected 'basic' to parse to EngineBasic")
	}
	if ParseEngine("something-else") != EngineBasic {
		t.Error("Expected unknown value to default to EngineBasic")
	}
}
