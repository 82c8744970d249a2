// Package pdfextract calls an external text-extraction service for PDF
// uploads.
package pdfextract

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"bootlang/services/agent-api/internal/domain/document"
)

// Client extracts PDF text through the extractor service's /extract
// endpoint. The service receives the raw bytes and returns plain text.
type Client struct {
	http *resty.Client
	url  string
	log  zerolog.Logger
}

var _ document.TextExtractor = (*Client)(nil)

type extractResponse struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
	Error string `json:"error,omitempty"`
}

// New creates a PDF extraction client against the given base URL.
func New(baseURL string, log zerolog.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	return &Client{
		http: http,
		url:  baseURL,
		log:  log.With().Str("component", "pdfextract").Logger(),
	}
}

// ExtractPDF posts the PDF bytes and returns the extracted text.
func (c *Client) ExtractPDF(ctx context.Context, data []byte) (string, error) {
	var out extractResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", "document.pdf", bytes.NewReader(data)).
		SetResult(&out).
		Post("/extract")
	if err != nil {
		return "", fmt.Errorf("call pdf extractor: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("pdf extractor returned %d", resp.StatusCode())
	}
	if out.Error != "" {
		return "", fmt.Errorf("pdf extractor: %s", out.Error)
	}

	c.log.Debug().Int("pages", out.Pages).Int("bytes", len(data)).Msg("pdf text extracted")
	return out.Text, nil
}
