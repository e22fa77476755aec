package bridge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/textsift/textsift/internal/core"
)

// fakeHandle serves canned bytes in controlled chunk sizes and records
// whether it was released.
type fakeHandle struct {
	data     []byte
	pos      int
	chunkCap int // max bytes per Read; 0 means fill the caller's buffer
	readErr  error
	closed   int
}

func (f *fakeHandle) Read(p []byte) (int, error) {
	if f.pos >= len(f.data) {
		if f.readErr != nil {
			return 0, f.readErr
		}
		return 0, io.EOF
	}
	limit := len(p)
	if f.chunkCap > 0 && limit > f.chunkCap {
		limit = f.chunkCap
	}
	n := copy(p[:limit], f.data[f.pos:])
	f.pos += n
	return n, nil
}

func (f *fakeHandle) Close() error { f.closed++; return nil }

func (f *fakeHandle) Metadata() core.Metadata { return core.Metadata{"Content-Type": "text/plain"} }

func TestSessionDrainsToEndOfStream(t *testing.T) {
	h := &fakeHandle{data: []byte("the quick brown fox")}
	s := NewSession(zap.NewNop())

	text, truncated, err := s.Run(context.Background(), h, 0)
	if err != nil {
		t.Fatal(err)
	}
	if text != "the quick brown fox" {
		t.Errorf("text = %q", text)
	}
	if truncated {
		t.Error("unexpected truncation")
	}
	if h.closed != 1 {
		t.Errorf("handle closed %d times, want 1", h.closed)
	}
}

func TestSessionStopsAtMaxLength(t *testing.T) {
	h := &fakeHandle{data: bytes.Repeat([]byte("x"), 1<<20), chunkCap: 4096}
	s := NewSession(zap.NewNop())

	text, truncated, err := s.Run(context.Background(), h, 10_000)
	if err != nil {
		t.Fatal(err)
	}
	if !truncated {
		t.Fatal("expected truncated")
	}
	if len(text) != 10_000 {
		t.Errorf("accumulated %d bytes, want exactly the bound", len(text))
	}
	if h.pos >= len(h.data) {
		t.Error("session drained the whole stream instead of stopping early")
	}
	if h.closed != 1 {
		t.Errorf("handle closed %d times, want 1 (release before return)", h.closed)
	}
}

func TestSessionBoundNeverSplitsRune(t *testing.T) {
	// Three-byte runes with the bound landing mid-rune: the cut must
	// land on the preceding rune boundary, not inside one.
	h := &fakeHandle{data: bytes.Repeat([]byte("€"), 100), chunkCap: 7}
	s := NewSession(zap.NewNop())

	text, truncated, err := s.Run(context.Background(), h, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !truncated {
		t.Fatal("expected truncated")
	}
	if len(text) > 10 {
		t.Errorf("len = %d, want <= 10", len(text))
	}
	if !utf8.ValidString(text) {
		t.Errorf("text %q ends in a split rune", text)
	}
	if len(text) != 9 {
		t.Errorf("len = %d, want 9 (three whole runes)", len(text))
	}
}

func TestSessionGrowsOnSaturation(t *testing.T) {
	// Every read fills the buffer completely, so the session should
	// double its chunk size after the saturation streak.
	h := &fakeHandle{data: bytes.Repeat([]byte("y"), 1<<20)}
	s := NewSession(zap.NewNop())

	if _, _, err := s.Run(context.Background(), h, 0); err != nil {
		t.Fatal(err)
	}
	if s.ChunkSize() <= initialChunkSize {
		t.Errorf("chunk size %d did not grow beyond %d", s.ChunkSize(), initialChunkSize)
	}
	if s.ChunkSize() > maxChunkSize {
		t.Errorf("chunk size %d exceeds ceiling", s.ChunkSize())
	}
}

func TestSessionShrinksTowardSmallChunks(t *testing.T) {
	// The engine trickles 64-byte chunks; the oversized initial buffer
	// should shrink toward the observed average.
	h := &fakeHandle{data: bytes.Repeat([]byte("z"), 64*100), chunkCap: 64}
	s := NewSession(zap.NewNop())

	if _, _, err := s.Run(context.Background(), h, 0); err != nil {
		t.Fatal(err)
	}
	if s.ChunkSize() >= initialChunkSize {
		t.Errorf("chunk size %d did not shrink below %d", s.ChunkSize(), initialChunkSize)
	}
	if s.ChunkSize() < minChunkSize {
		t.Errorf("chunk size %d fell under floor", s.ChunkSize())
	}
}

func TestSessionReleasesHandleOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := &fakeHandle{data: bytes.Repeat([]byte("w"), 1<<16)}
	s := NewSession(zap.NewNop())

	_, _, err := s.Run(ctx, h, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if h.closed != 1 {
		t.Errorf("handle closed %d times, want 1", h.closed)
	}
}

func TestSessionReleasesHandleOnReadError(t *testing.T) {
	readErr := errors.New("engine hiccup")
	h := &fakeHandle{data: []byte("partial"), readErr: readErr}
	s := NewSession(zap.NewNop())

	_, _, err := s.Run(context.Background(), h, 0)
	if !errors.Is(err, readErr) {
		t.Fatalf("err = %v, want wrapped read error", err)
	}
	if h.closed != 1 {
		t.Errorf("handle closed %d times, want 1", h.closed)
	}
}

func TestSessionIsReusableAcrossRuns(t *testing.T) {
	s := NewSession(zap.NewNop())
	for i := 0; i < 3; i++ {
		h := &fakeHandle{data: []byte("run")}
		text, _, err := s.Run(context.Background(), h, 0)
		if err != nil {
			t.Fatal(err)
		}
		if text != "run" {
			t.Errorf("run %d: text = %q", i, text)
		}
	}
}
