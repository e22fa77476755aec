// Package backend holds the uniform contract over heterogeneous
// extraction backends and the in-process native parsers. Backends are
// unaware of their siblings; fallback ordering lives entirely in the
// coordinator.
package backend

import (
	"context"
	"strconv"

	"github.com/textsift/textsift/internal/core"
	"github.com/textsift/textsift/internal/core/input"
)

// Backend turns an opened payload into text plus metadata for the formats
// it claims. Failures are reported as *core.BackendError so the
// coordinator can decide between fallback and surfacing.
type Backend interface {
	ID() core.BackendID

	// Formats lists the tags this backend claims. The bridge claims
	// everything and is registered separately.
	Formats() []core.FormatTag

	// NeedsRandomAccess reports whether the backend must see the whole
	// input at once rather than a forward-only stream.
	NeedsRandomAccess() bool

	Extract(ctx context.Context, tag core.FormatTag, in *input.Payload, cfg core.ExtractionConfig) (*core.ExtractionResult, error)
}

// Backend IDs, stable for observability.
const (
	NativePDFID    core.BackendID = "native-pdf"
	NativeHTMLID   core.BackendID = "native-html"
	NativeOfficeID core.BackendID = "native-office"
	NativeTextID   core.BackendID = "native-text"
	BridgeID       core.BackendID = "bridge"
)

// baseMetadata seeds the well-known keys every native backend supplies.
func baseMetadata(tag core.FormatTag, parser string, size int64) core.Metadata {
	m := core.Metadata{
		core.MetaContentType: tag.MIME(),
		core.MetaParser:      parser,
	}
	if size >= 0 {
		m[core.MetaFileSize] = strconv.FormatInt(size, 10)
	}
	return m
}
