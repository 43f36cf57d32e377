package document

import "testing"

func TestAccept_PDF(t *testing.T) {
	h, ok := Accept("book.pdf", "application/pdf", []byte("%PDF-1.4 data"))
	if !ok {
		t.Fatal("Expected PDF to be accepted")
	}

	if h.Name != "book.pdf" {
		t.Errorf("Expected name 'book.pdf', got '%s'", h.Name)
	}
	if h.SizeBytes != int64(len("%PDF-1.4 data")) {
		t.Errorf("Expected size %d, got %d", len("%PDF-1.4 data"), h.SizeBytes)
	}
	if !h.IsPDF() {
		t.Error("Expected accepted handle to report IsPDF")
	}
}

func TestAccept_RejectsOtherTypes(t *testing.T) {
	cases := []struct {
		name string
		mime string
	}{
		{"notes.txt", "text/plain"},
		{"image.png", "image/png"},
		{"book.epub", "application/epub+zip"},
	}

	for _, tc := range cases {
		if _, ok := Accept(tc.name, tc.mime, []byte("data")); ok {
			t.Errorf("Expected %s (%s) to be silently ignored", tc.name, tc.mime)
		}
	}
}

func TestAccept_SniffsWhenTypeMissing(t *testing.T) {
	h, ok := Accept("book.pdf", "", []byte("%PDF-1.7 content"))
	if !ok {
		t.Fatal("Expected sniffed PDF to be accepted")
	}
	if h.MIMEType != PDFMIMEType {
		t.Errorf("Expected MIME '%s', got '%s'", PDFMIMEType, h.MIMEType)
	}

	if _, ok := Accept("notes.txt", "", []byte("plain text content")); ok {
		t.Error("Expected sniffed non-PDF to be ignored")
	}
}

func TestHandle_IsPDF_Nil(t *testing.T) {
	var h *Handle
	if h.IsPDF() {
		t.Error("nil handle must not report IsPDF")
	}
}
