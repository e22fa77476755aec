package input

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// Payload is one opened document input. It owns whatever resource backs
// it (mapped region, open file, remote body) and must be closed by the
// coordinator once the extraction attempt chain finishes.
type Payload struct {
	strategy Strategy
	size     int64
	name     string

	data []byte        // LoadWhole, or a materialized stream
	mm   mmap.MMap     // MemoryMap view, nil otherwise
	file *os.File      // backing file for mmap or file streaming
	br   *bufio.Reader // Streamed
	body io.Closer     // remote body to close, nil otherwise
}

func (p *Payload) Strategy() Strategy { return p.strategy }

// Name is the best available filename for the input, "" when unknown.
func (p *Payload) Name() string { return p.name }

// Size is the input size in bytes, -1 when unknown (chunked remote body).
func (p *Payload) Size() int64 { return p.size }

// Bytes returns the whole input. For streamed payloads this materializes
// the remainder in memory, which backends requiring random access force.
func (p *Payload) Bytes() ([]byte, error) {
	switch {
	case p.mm != nil:
		return p.mm, nil
	case p.data != nil:
		return p.data, nil
	case p.br != nil:
		data, err := io.ReadAll(p.br)
		if err != nil {
			return nil, fmt.Errorf("materialize stream: %w", err)
		}
		p.data = data
		p.size = int64(len(data))
		p.br = nil
		p.closeBody()
		return p.data, nil
	default:
		return nil, fmt.Errorf("payload has no data source")
	}
}

// Reader returns a reader positioned at the start of the input. For
// in-memory and mapped payloads every call yields a fresh reader, so a
// failed backend attempt never poisons the next candidate. A live stream
// is forward-only; EnsureReusable converts it when retries are possible.
func (p *Payload) Reader() io.Reader {
	switch {
	case p.mm != nil:
		return bytes.NewReader(p.mm)
	case p.data != nil:
		return bytes.NewReader(p.data)
	case p.br != nil:
		return p.br
	default:
		return bytes.NewReader(nil)
	}
}

// Reusable reports whether Reader can be called more than once.
func (p *Payload) Reusable() bool { return p.br == nil }

// EnsureReusable materializes a forward-only stream so multiple backend
// candidates can each start from offset zero.
func (p *Payload) EnsureReusable() error {
	if p.Reusable() {
		return nil
	}
	_, err := p.Bytes()
	return err
}

// Prefix returns up to n leading bytes without consuming the input.
func (p *Payload) Prefix(n int) ([]byte, error) {
	switch {
	case p.mm != nil:
		if len(p.mm) < n {
			n = len(p.mm)
		}
		return p.mm[:n], nil
	case p.data != nil:
		if len(p.data) < n {
			n = len(p.data)
		}
		return p.data[:n], nil
	case p.br != nil:
		prefix, err := p.br.Peek(n)
		if err != nil && len(prefix) == 0 && err != io.EOF {
			return nil, err
		}
		return prefix, nil
	default:
		return nil, nil
	}
}

// Close releases whatever backs the payload. Safe to call more than once.
func (p *Payload) Close() error {
	var first error
	if p.mm != nil {
		if err := p.mm.Unmap(); err != nil && first == nil {
			first = err
		}
		p.mm = nil
	}
	if p.file != nil {
		if err := p.file.Close(); err != nil && first == nil {
			first = err
		}
		p.file = nil
	}
	p.closeBody()
	p.br = nil
	return first
}

func (p *Payload) closeBody() {
	if p.body != nil {
		p.body.Close()
		p.body = nil
	}
}
