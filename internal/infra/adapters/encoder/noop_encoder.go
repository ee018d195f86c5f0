package encoder

import (
	"context"

	"gatepass/internal/domain/ports/adapter"
)

var _ adapter.Encoder = (*NoopEncoder)(nil)

// NoopEncoder is a trivial encoder for dev and tests: it returns the payload
// bytes themselves instead of a rendered image.
type NoopEncoder struct{}

func NewNoopEncoder() *NoopEncoder {
	return &NoopEncoder{}
}

func (e *NoopEncoder) Name() string { return "noop" }

func (e *NoopEncoder) Render(ctx context.Context, payload string, style adapter.EncodeStyle) ([]byte, error) {
	return []byte(payload), nil
}
