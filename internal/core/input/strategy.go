// Package input decides how a document's bytes are acquired and hands
// backends a uniform payload view.
package input

import "github.com/textsift/textsift/internal/core"

// Strategy is how an input's bytes are accessed.
type Strategy int

const (
	// LoadWhole reads the entire input into memory.
	LoadWhole Strategy = iota
	// MemoryMap maps the input read-only; backends borrow the view and
	// must not retain it past the extraction call.
	MemoryMap
	// Streamed reads the input in fixed chunks, never materializing it
	// unless a backend demands random access.
	Streamed
)

func (s Strategy) String() string {
	switch s {
	case MemoryMap:
		return "mmap"
	case Streamed:
		return "streamed"
	default:
		return "load-whole"
	}
}

// Choose picks the access strategy for an input of the given size.
// mappable reports whether the input kind has a file descriptor to map;
// in-memory buffers and remote URLs do not.
func Choose(size int64, cfg core.ExtractionConfig, mappable bool) Strategy {
	if size < cfg.MemoryMapThreshold {
		return LoadWhole
	}
	if cfg.UseMemoryMap && mappable {
		return MemoryMap
	}
	return Streamed
}
