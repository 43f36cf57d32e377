// Package document defines the accepted-document handle and the picker
// boundary that admits PDF uploads into a session.
package document

import (
	"net/http"
	"strings"
)

// PDFMIMEType is the only MIME type the picker boundary admits
const PDFMIMEType = "application/pdf"

// Handle is an accepted document: its content plus the metadata the rest of
// the system needs. Once accepted the bytes are owned by the selection that
// holds the handle.
type Handle struct {
	Name      string
	SizeBytes int64
	MIMEType  string

	content []byte
}

// NewHandle wraps raw content in a Handle without any acceptance check.
// Used by tests and by Accept once a candidate passes the boundary.
func NewHandle(name, mimeType string, content []byte) *Handle {
	return &Handle{
		Name:      name,
		SizeBytes: int64(len(content)),
		MIMEType:  mimeType,
		content:   content,
	}
}

// Content returns the document bytes. Callers must treat them as read-only.
func (h *Handle) Content() []byte {
	return h.content
}

// IsPDF reports whether the handle still satisfies the acceptance rule.
// The workflow re-checks this before submission as a defensive measure.
func (h *Handle) IsPDF() bool {
	return h != nil && h.MIMEType == PDFMIMEType
}

// Accept is the picker boundary. A candidate is admitted only when its
// reported MIME type is exactly application/pdf; anything else is silently
// ignored (ok=false, no error). Rejection feedback is the workflow's job,
// and only for emptiness.
//
// When the reported type is missing, the content is sniffed so that a
// drag-and-drop source that omits the type still works for real PDFs.
func Accept(name, reportedMIME string, content []byte) (*Handle, bool) {
	mimeType := strings.TrimSpace(reportedMIME)
	if mimeType == "" {
		mimeType = sniff(content)
	}

	if mimeType != PDFMIMEType {
		return nil, false
	}

	return NewHandle(name, PDFMIMEType, content), true
}

// sniff detects a PDF from content. http.DetectContentType does not know
// the PDF magic, so check the header directly before falling back to it.
func sniff(content []byte) string {
	if len(content) >= 5 && string(content[:5]) == "%PDF-" {
		return PDFMIMEType
	}
	return http.DetectContentType(content)
}
