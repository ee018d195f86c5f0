// File: internal/infra/adapters/encoder/http_encoder.go
package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"gatepass/internal/domain"
	"gatepass/internal/domain/ports/adapter"
)

var _ adapter.Encoder = (*HTTPEncoder)(nil)

// HTTPEncoder renders scannable images through an external encoding service.
// The service takes a JSON body with the payload and style and answers with
// the raw image bytes; the image format is the service's choice and opaque
// to us.
type HTTPEncoder struct {
	endpoint string
	client   *http.Client
}

func NewHTTPEncoder(endpoint string) (*HTTPEncoder, error) {
	if endpoint == "" {
		return nil, errors.New("encoder endpoint empty")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid encoder endpoint: %w", err)
	}
	return &HTTPEncoder{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (e *HTTPEncoder) Name() string { return "http" }

type renderRequest struct {
	Payload    string `json:"payload"`
	Foreground string `json:"foreground,omitempty"`
	Background string `json:"background,omitempty"`
	Size       int    `json:"size,omitempty"`
}

func (e *HTTPEncoder) Render(ctx context.Context, payload string, style adapter.EncodeStyle) ([]byte, error) {
	body, err := json.Marshal(renderRequest{
		Payload:    payload,
		Foreground: style.Foreground,
		Background: style.Background,
		Size:       style.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncodingFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncodingFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncodingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: encoder returned status %d", domain.ErrEncodingFailed, resp.StatusCode)
	}
	img, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncodingFailed, err)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("%w: empty response", domain.ErrEncodingFailed)
	}
	return img, nil
}
