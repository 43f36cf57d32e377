// Package conversion implements the document-to-audiobook conversion
// workflow: the submission protocol against the remote converter and the
// state machine that drives it.
package conversion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/bookvoice/audiobook-gateway/internal/document"
	"github.com/bookvoice/audiobook-gateway/internal/resilience"
	"github.com/bookvoice/audiobook-gateway/internal/selection"
)

// Converter endpoints, selected by engine variant. This mapping is the only
// effect the engine choice has.
const (
	endpointBasic     = "/upload-google"
	endpointHumanLike = "/upload"
)

// Multipart field names fixed by the converter's contract
const (
	formFieldFile  = "file"
	formFieldVoice = "voice_id"
)

// EndpointFor returns the converter path for an engine variant
func EndpointFor(e selection.Engine) string {
	if e == selection.EngineHumanLike {
		return endpointHumanLike
	}
	return endpointBasic
}

// SubmissionError is a non-success HTTP response from the converter. Its
// message carries the status's human-readable phrase.
type SubmissionError struct {
	StatusCode int
	StatusText string
}

func (e *SubmissionError) Error() string {
	return "Upload failed: " + e.StatusText
}

// Client submits documents to the remote conversion service
type Client struct {
	httpClient *http.Client
	baseURL    string
	retry      resilience.Policy
}

// NewClient creates a converter client. A zero timeout means requests are
// bounded only by their context, which preserves the reference behavior of
// letting large conversions run as long as they need.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		retry:      resilience.DefaultPolicy(),
	}
}

// Submit performs one multipart POST with the document bytes and the voice
// id. Transient transport faults are retried; any HTTP status from the
// converter, success or not, is final. On success it returns the full
// response body, which is the playable audio.
func (c *Client) Submit(
	ctx context.Context,
	doc *document.Handle,
	voiceID string,
	engine selection.Engine,
) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(formFieldFile, doc.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(doc.Content()); err != nil {
		return nil, fmt.Errorf("failed to write document data: %w", err)
	}

	if err := writer.WriteField(formFieldVoice, voiceID); err != nil {
		return nil, fmt.Errorf("failed to write voice field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	url := c.baseURL + EndpointFor(engine)
	body := buf.Bytes()
	contentType := writer.FormDataContentType()

	var audio []byte
	err = c.retry.Do(ctx, func() error {
		// The body reader is consumed per attempt, so each one gets
		// a fresh reader over the same bytes.
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to reach converter at %s: %w", c.baseURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			statusText := http.StatusText(resp.StatusCode)
			if statusText == "" {
				statusText = resp.Status
			}
			return &SubmissionError{
				StatusCode: resp.StatusCode,
				StatusText: statusText,
			}
		}

		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read audio response: %w", err)
		}
		return nil
	}, resilience.IsTransientNetworkError)
	if err != nil {
		return nil, err
	}

	return audio, nil
}
