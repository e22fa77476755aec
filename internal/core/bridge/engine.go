// Package bridge is the boundary to the foreign parsing engine. The
// engine is injected at construction and treated as opaque: it detects
// content types and turns raw bytes into a text stream plus metadata.
package bridge

import (
	"context"
	"io"

	"github.com/textsift/textsift/internal/core"
)

// StreamHandle is one attached parse session on the engine side. Reads
// deliver decoded text bytes; Close releases the engine-side resources
// and must be called on every exit path.
type StreamHandle interface {
	io.ReadCloser
	// Metadata is available as soon as the handle exists.
	Metadata() core.Metadata
}

// Engine is the foreign parsing engine contract. Implementations report
// failures through EngineError so the backend layer can map them onto the
// extraction error taxonomy.
type Engine interface {
	// Detect returns a MIME hint for a filename, falling back to the
	// generic type when it cannot tell.
	Detect(name string) string

	// ParseToString extracts at most maxLen bytes of text in one call.
	ParseToString(ctx context.Context, r io.Reader, mime string, maxLen int) (string, core.Metadata, error)

	// ParseStream attaches a streaming parse session. The caller owns
	// the returned handle.
	ParseStream(ctx context.Context, r io.Reader, mime string) (StreamHandle, error)
}

// EngineStatus is the engine's small status-code surface.
type EngineStatus int

const (
	StatusParseFailure EngineStatus = iota
	StatusIoFailure
	StatusUnsupported
)

// EngineError carries the engine's status code and sanitized message;
// raw engine internals stay on the bridge side of the boundary.
type EngineError struct {
	Status  EngineStatus
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "engine error"
}

func (e *EngineError) Unwrap() error { return e.Err }
