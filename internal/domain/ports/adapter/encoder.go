package adapter

import "context"

// EncodeStyle carries the rendering knobs a caller may tune. Zero values
// mean "encoder defaults".
type EncodeStyle struct {
	Foreground string // hex color, e.g. "#000000"
	Background string // hex color, e.g. "#ffffff"
	Size       int    // square edge in pixels
}

// Encoder is the hex port for the external scannable-image renderer.
// Core supplies an opaque payload string (a scan URL or a raw code) and
// receives image bytes back; the image format is the encoder's business.
type Encoder interface {
	Name() string

	// Render converts payload into a scannable image.
	// Failures wrap domain.ErrEncodingFailed.
	Render(ctx context.Context, payload string, style EncodeStyle) ([]byte, error)
}
