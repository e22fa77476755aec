package backend

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/textsift/textsift/internal/core"
	"github.com/textsift/textsift/internal/core/bridge"
	"github.com/textsift/textsift/internal/core/input"
)

type fakeEngine struct {
	text       string
	meta       core.Metadata
	attachEr   error
	detectMime string
	seenMime   string
}

type fakeEngineHandle struct {
	r      *strings.Reader
	meta   core.Metadata
	closed bool
}

func (h *fakeEngineHandle) Read(p []byte) (int, error) { return h.r.Read(p) }
func (h *fakeEngineHandle) Close() error               { h.closed = true; return nil }
func (h *fakeEngineHandle) Metadata() core.Metadata    { return h.meta }

func (e *fakeEngine) Detect(name string) string {
	if e.detectMime != "" {
		return e.detectMime
	}
	return "application/octet-stream"
}

func (e *fakeEngine) ParseToString(ctx context.Context, r io.Reader, mime string, maxLen int) (string, core.Metadata, error) {
	if e.attachEr != nil {
		return "", nil, e.attachEr
	}
	text := e.text
	if len(text) > maxLen {
		text = text[:maxLen]
	}
	return text, e.meta, nil
}

func (e *fakeEngine) ParseStream(ctx context.Context, r io.Reader, mime string) (bridge.StreamHandle, error) {
	if e.attachEr != nil {
		return nil, e.attachEr
	}
	e.seenMime = mime
	return &fakeEngineHandle{r: strings.NewReader(e.text), meta: e.meta}, nil
}

func TestBridgeBackendExtract(t *testing.T) {
	eng := &fakeEngine{
		text: "parsed by engine",
		meta: core.Metadata{"dc:title": "Report"},
	}
	b := NewBridgeBackend(eng, zap.NewNop())

	res, err := b.Extract(context.Background(), core.FormatPDF, payloadFor(t, []byte("%PDF")), core.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "parsed by engine" {
		t.Errorf("text = %q", res.Text)
	}
	if res.Metadata["dc:title"] != "Report" {
		t.Errorf("metadata = %v", res.Metadata)
	}
	if res.Backend != BridgeID {
		t.Errorf("backend = %s", res.Backend)
	}
	if res.Truncated {
		t.Error("unexpected truncation")
	}
	if eng.seenMime != core.FormatPDF.MIME() {
		t.Errorf("mime hint = %q", eng.seenMime)
	}
}

func TestBridgeBackendDetectsUnknown(t *testing.T) {
	eng := &fakeEngine{text: "detected", detectMime: "application/epub+zip"}
	b := NewBridgeBackend(eng, zap.NewNop())

	p, err := input.NewOpener().Open(context.Background(), core.BytesRef("book.epub", []byte("odd bytes")), core.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if _, err := b.Extract(context.Background(), core.FormatUnknown, p, core.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	if eng.seenMime != "application/epub+zip" {
		t.Errorf("mime hint = %q, want engine-detected type", eng.seenMime)
	}
}

func TestBridgeBackendTruncates(t *testing.T) {
	eng := &fakeEngine{text: strings.Repeat("x", 200)}
	b := NewBridgeBackend(eng, zap.NewNop())

	cfg := core.DefaultConfig().WithMaxTextLength(100)
	res, err := b.Extract(context.Background(), core.FormatPDF, payloadFor(t, []byte("%PDF")), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Text) != 100 {
		t.Errorf("len = %d, want 100", len(res.Text))
	}
	if !res.Truncated {
		t.Error("expected truncated result")
	}
}

func TestBridgeBackendErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status bridge.EngineStatus
		want   core.BackendErrorKind
	}{
		{"unsupported", bridge.StatusUnsupported, core.BackendUnsupported},
		{"io failure", bridge.StatusIoFailure, core.BackendIoFailure},
		{"parse failure", bridge.StatusParseFailure, core.BackendParseFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &fakeEngine{attachEr: &bridge.EngineError{Status: tt.status, Message: tt.name}}
			b := NewBridgeBackend(eng, zap.NewNop())

			_, err := b.Extract(context.Background(), core.FormatPDF, payloadFor(t, []byte("%PDF")), core.DefaultConfig())
			be, ok := core.AsBackendError(err)
			if !ok {
				t.Fatalf("err = %v, want backend error", err)
			}
			if be.Kind != tt.want {
				t.Errorf("kind = %v, want %v", be.Kind, tt.want)
			}
		})
	}
}

func TestBridgeBackendCancellation(t *testing.T) {
	eng := &fakeEngine{text: "never read"}
	b := NewBridgeBackend(eng, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Extract(ctx, core.FormatPDF, payloadFor(t, []byte("%PDF")), core.DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
