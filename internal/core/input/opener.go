package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/textsift/textsift/internal/core"
)

// Fetcher resolves a remote URL to its body. Implementations exist for
// http(s) (built in) and s3 (internal/objectstore). Size is -1 when the
// remote end does not report one.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (body io.ReadCloser, size int64, err error)
}

// Opener turns DocumentRefs into Payloads, applying the access-strategy
// policy per input kind.
type Opener struct {
	fetchers map[string]Fetcher
}

func NewOpener() *Opener {
	o := &Opener{fetchers: make(map[string]Fetcher)}
	hf := &httpFetcher{client: http.DefaultClient}
	o.fetchers["http"] = hf
	o.fetchers["https"] = hf
	return o
}

// RegisterFetcher installs a fetcher for a URL scheme, replacing any
// previous registration.
func (o *Opener) RegisterFetcher(scheme string, f Fetcher) {
	o.fetchers[scheme] = f
}

// Open acquires ref's bytes under the strategy Choose picks for its size
// and kind. The caller owns the returned payload and must Close it.
func (o *Opener) Open(ctx context.Context, ref core.DocumentRef, cfg core.ExtractionConfig) (*Payload, error) {
	p, err := o.open(ctx, ref, cfg)
	if err != nil {
		return nil, err
	}
	p.name = ref.Name()
	return p, nil
}

func (o *Opener) open(ctx context.Context, ref core.DocumentRef, cfg core.ExtractionConfig) (*Payload, error) {
	switch ref.Kind() {
	case core.RefBytes:
		// Already in memory; no acquisition decision left to make.
		return &Payload{strategy: LoadWhole, data: ref.Data(), size: int64(len(ref.Data()))}, nil
	case core.RefPath:
		return o.openFile(ref.Path(), cfg)
	case core.RefURL:
		return o.openURL(ctx, ref.URL(), cfg)
	default:
		return nil, fmt.Errorf("unknown ref kind %d", ref.Kind())
	}
}

func (o *Opener) openFile(path string, cfg core.ExtractionConfig) (*Payload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	size := info.Size()

	switch Choose(size, cfg, true) {
	case LoadWhole:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return &Payload{strategy: LoadWhole, data: data, size: size}, nil

	case MemoryMap:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		m, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			// Mapping can fail on exotic filesystems; fall back to
			// streaming rather than surfacing an error.
			return streamedFile(f, size, cfg), nil
		}
		return &Payload{strategy: MemoryMap, mm: m, file: f, size: size}, nil

	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return streamedFile(f, size, cfg), nil
	}
}

func streamedFile(f *os.File, size int64, cfg core.ExtractionConfig) *Payload {
	return &Payload{
		strategy: Streamed,
		file:     f,
		br:       bufio.NewReaderSize(f, cfg.ChunkSize),
		size:     size,
	}
}

func (o *Opener) openURL(ctx context.Context, rawURL string, cfg core.ExtractionConfig) (*Payload, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %s: %w", rawURL, err)
	}
	f, ok := o.fetchers[u.Scheme]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for scheme %q", u.Scheme)
	}

	body, size, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	// A remote body has no descriptor to map: small responses load whole,
	// everything else streams in cfg-sized chunks.
	if size >= 0 && Choose(size, cfg, false) == LoadWhole {
		defer body.Close()
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rawURL, err)
		}
		return &Payload{strategy: LoadWhole, data: data, size: int64(len(data))}, nil
	}

	return &Payload{
		strategy: Streamed,
		br:       bufio.NewReaderSize(body, cfg.ChunkSize),
		body:     body,
		size:     size,
	}, nil
}

type httpFetcher struct {
	client *http.Client
}

func (h *httpFetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, resp.ContentLength, nil
}
