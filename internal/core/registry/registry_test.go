package registry

import (
	"context"
	"testing"

	"github.com/textsift/textsift/internal/core"
	"github.com/textsift/textsift/internal/core/backend"
	"github.com/textsift/textsift/internal/core/input"
)

type stubBackend struct {
	id      core.BackendID
	formats []core.FormatTag
}

func (s *stubBackend) ID() core.BackendID         { return s.id }
func (s *stubBackend) Formats() []core.FormatTag  { return s.formats }
func (s *stubBackend) NeedsRandomAccess() bool    { return false }
func (s *stubBackend) Extract(ctx context.Context, tag core.FormatTag, in *input.Payload, cfg core.ExtractionConfig) (*core.ExtractionResult, error) {
	return &core.ExtractionResult{Backend: s.id}, nil
}

var _ backend.Backend = (*stubBackend)(nil)

func buildRegistry() *Registry {
	r := New()
	r.Register(&stubBackend{id: "native-pdf", formats: []core.FormatTag{core.FormatPDF}})
	r.Register(&stubBackend{id: "native-text", formats: []core.FormatTag{core.FormatPlainText, core.FormatCSV}})
	r.RegisterBridge(&stubBackend{id: "bridge"})
	r.RegisterFallback(&stubBackend{id: "native-text"})
	return r
}

func ids(bs []backend.Backend) []core.BackendID {
	out := make([]core.BackendID, len(bs))
	for i, b := range bs {
		out[i] = b.ID()
	}
	return out
}

func equalIDs(a []core.BackendID, b ...core.BackendID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCandidatesOrdering(t *testing.T) {
	r := buildRegistry()

	tests := []struct {
		name string
		tag  core.FormatTag
		pref core.ParserPreference
		want []core.BackendID
	}{
		{"native first", core.FormatPDF, core.PreferNative, []core.BackendID{"native-pdf", "bridge"}},
		{"bridge first", core.FormatPDF, core.PreferBridge, []core.BackendID{"bridge", "native-pdf"}},
		{"bridge only", core.FormatPDF, core.BridgeOnly, []core.BackendID{"bridge"}},
		{"no native claims format", core.FormatPPTX, core.PreferNative, []core.BackendID{"bridge"}},
		{"unknown prefers fallback", core.FormatUnknown, core.PreferNative, []core.BackendID{"native-text", "bridge"}},
		{"unknown prefers bridge", core.FormatUnknown, core.PreferBridge, []core.BackendID{"bridge", "native-text"}},
		{"unknown bridge only", core.FormatUnknown, core.BridgeOnly, []core.BackendID{"bridge"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(r.Candidates(tt.tag, tt.pref))
			if !equalIDs(got, tt.want...) {
				t.Errorf("candidates = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCandidatesWithoutBridge(t *testing.T) {
	r := New()
	r.Register(&stubBackend{id: "native-pdf", formats: []core.FormatTag{core.FormatPDF}})

	if got := ids(r.Candidates(core.FormatPDF, core.PreferNative)); !equalIDs(got, "native-pdf") {
		t.Errorf("candidates = %v", got)
	}
	if got := r.Candidates(core.FormatPDF, core.BridgeOnly); len(got) != 0 {
		t.Errorf("bridge-only with no bridge should be empty, got %v", ids(got))
	}
	if got := r.Candidates(core.FormatHTML, core.PreferNative); len(got) != 0 {
		t.Errorf("unclaimed format should be empty, got %v", ids(got))
	}
}

func TestLookup(t *testing.T) {
	r := buildRegistry()
	b, ok := r.Lookup("bridge")
	if !ok || b.ID() != "bridge" {
		t.Fatalf("lookup = %v, %v", b, ok)
	}
	if _, ok := r.Lookup("nope"); ok {
		t.Fatal("expected miss")
	}
}
