// Package registry maps classified formats to backend candidate chains.
// Registration happens once at startup; lookups after that are
// read-only, so no locking is needed on the hot path.
package registry

import (
	"github.com/textsift/textsift/internal/core"
	"github.com/textsift/textsift/internal/core/backend"
)

// Registry holds the registered backends and answers, for a given format
// and preference, which backends to try and in what order.
type Registry struct {
	byFormat map[core.FormatTag][]backend.Backend
	byID     map[core.BackendID]backend.Backend
	bridge   backend.Backend
	fallback backend.Backend
}

func New() *Registry {
	return &Registry{
		byFormat: make(map[core.FormatTag][]backend.Backend),
		byID:     make(map[core.BackendID]backend.Backend),
	}
}

// Register adds a native backend for every format it claims. Later
// registrations for the same format rank after earlier ones.
func (r *Registry) Register(b backend.Backend) {
	r.byID[b.ID()] = b
	for _, tag := range b.Formats() {
		r.byFormat[tag] = append(r.byFormat[tag], b)
	}
}

// RegisterBridge installs the bridge backend. It claims no formats of its
// own; preference ordering decides when it participates.
func (r *Registry) RegisterBridge(b backend.Backend) {
	r.byID[b.ID()] = b
	r.bridge = b
}

// RegisterFallback installs the backend used for unclassified input.
func (r *Registry) RegisterFallback(b backend.Backend) {
	r.byID[b.ID()] = b
	r.fallback = b
}

// Lookup resolves a backend by ID.
func (r *Registry) Lookup(id core.BackendID) (backend.Backend, bool) {
	b, ok := r.byID[id]
	return b, ok
}

// Candidates returns the ordered backend chain for a format under the
// given preference. An empty result means the format is unsupported.
//
// Unknown input never reaches format-specific parsers: it gets the
// fallback (which treats it as plain text) and the bridge, whose engine
// runs its own detection.
func (r *Registry) Candidates(tag core.FormatTag, pref core.ParserPreference) []backend.Backend {
	if tag == core.FormatUnknown {
		return r.unknownChain(pref)
	}

	natives := r.byFormat[tag]
	switch pref {
	case core.BridgeOnly:
		if r.bridge == nil {
			return nil
		}
		return []backend.Backend{r.bridge}
	case core.PreferBridge:
		out := make([]backend.Backend, 0, len(natives)+1)
		if r.bridge != nil {
			out = append(out, r.bridge)
		}
		return append(out, natives...)
	default: // PreferNative
		out := make([]backend.Backend, 0, len(natives)+1)
		out = append(out, natives...)
		if r.bridge != nil {
			out = append(out, r.bridge)
		}
		return out
	}
}

func (r *Registry) unknownChain(pref core.ParserPreference) []backend.Backend {
	switch pref {
	case core.BridgeOnly:
		if r.bridge == nil {
			return nil
		}
		return []backend.Backend{r.bridge}
	case core.PreferBridge:
		var out []backend.Backend
		if r.bridge != nil {
			out = append(out, r.bridge)
		}
		if r.fallback != nil {
			out = append(out, r.fallback)
		}
		return out
	default:
		var out []backend.Backend
		if r.fallback != nil {
			out = append(out, r.fallback)
		}
		if r.bridge != nil {
			out = append(out, r.bridge)
		}
		return out
	}
}
