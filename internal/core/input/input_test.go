package input

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/textsift/textsift/internal/core"
)

func testConfig() core.ExtractionConfig {
	cfg := core.DefaultConfig()
	cfg.MemoryMapThreshold = 1 << 20
	return cfg
}

func TestChoose(t *testing.T) {
	testCases := []struct {
		name     string
		size     int64
		useMmap  bool
		mappable bool
		want     Strategy
	}{
		{"SmallFile", 512, true, true, LoadWhole},
		{"LargeMappable", 2 << 20, true, true, MemoryMap},
		{"LargeMmapDisabled", 2 << 20, false, true, Streamed},
		{"LargeNotMappable", 2 << 20, true, false, Streamed},
		{"ExactlyThreshold", 1 << 20, true, true, MemoryMap},
		{"JustUnderThreshold", (1 << 20) - 1, false, false, LoadWhole},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.UseMemoryMap = tc.useMmap
			if got := Choose(tc.size, cfg, tc.mappable); got != tc.want {
				t.Errorf("Choose(%d) = %s, want %s", tc.size, got, tc.want)
			}
		})
	}
}

func writeTemp(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.bin")
	data := bytes.Repeat([]byte("abcdefgh"), size/8+1)[:size]
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenFileLoadWhole(t *testing.T) {
	path := writeTemp(t, 1024)
	p, err := NewOpener().Open(context.Background(), core.FileRef(path), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if p.Strategy() != LoadWhole {
		t.Errorf("strategy = %s, want load-whole", p.Strategy())
	}
	data, err := p.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 1024 {
		t.Errorf("len = %d, want 1024", len(data))
	}
}

func TestOpenFileMemoryMap(t *testing.T) {
	path := writeTemp(t, 2<<20)
	p, err := NewOpener().Open(context.Background(), core.FileRef(path), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if p.Strategy() != MemoryMap {
		t.Fatalf("strategy = %s, want mmap", p.Strategy())
	}
	data, err := p.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(data)) != p.Size() {
		t.Errorf("mapped view len %d, size %d", len(data), p.Size())
	}
	if err := p.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestOpenFileStreamedWhenMmapDisabled(t *testing.T) {
	path := writeTemp(t, 2<<20)
	cfg := testConfig()
	cfg.UseMemoryMap = false

	p, err := NewOpener().Open(context.Background(), core.FileRef(path), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if p.Strategy() != Streamed {
		t.Fatalf("strategy = %s, want streamed", p.Strategy())
	}

	// Prefix peeks without consuming.
	prefix, err := p.Prefix(8)
	if err != nil {
		t.Fatal(err)
	}
	if string(prefix) != "abcdefgh" {
		t.Errorf("prefix = %q", prefix)
	}

	data, err := io.ReadAll(p.Reader())
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 2<<20 {
		t.Errorf("streamed %d bytes, want %d", len(data), 2<<20)
	}
	if string(data[:8]) != "abcdefgh" {
		t.Error("prefix peek consumed stream bytes")
	}
}

func TestEnsureReusable(t *testing.T) {
	path := writeTemp(t, 2<<20)
	cfg := testConfig()
	cfg.UseMemoryMap = false

	p, err := NewOpener().Open(context.Background(), core.FileRef(path), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if p.Reusable() {
		t.Fatal("streamed payload should not start reusable")
	}
	if err := p.EnsureReusable(); err != nil {
		t.Fatal(err)
	}
	if !p.Reusable() {
		t.Fatal("payload still not reusable after EnsureReusable")
	}

	// Two full reads both see the complete input.
	for i := 0; i < 2; i++ {
		data, err := io.ReadAll(p.Reader())
		if err != nil {
			t.Fatal(err)
		}
		if len(data) != 2<<20 {
			t.Fatalf("read %d: got %d bytes", i, len(data))
		}
	}
}

func TestOpenBytesRef(t *testing.T) {
	p, err := NewOpener().Open(context.Background(), core.BytesRef("x", []byte("hello")), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	data, _ := p.Bytes()
	if string(data) != "hello" {
		t.Errorf("got %q", data)
	}
	if !p.Reusable() {
		t.Error("bytes payload should be reusable")
	}
}

func TestOpenURLUnknownScheme(t *testing.T) {
	_, err := NewOpener().Open(context.Background(), core.URLRef("gopher://host/doc"), testConfig())
	if err == nil {
		t.Fatal("expected error for unregistered scheme")
	}
}
