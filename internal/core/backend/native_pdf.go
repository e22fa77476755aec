package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/textsift/textsift/internal/core"
	"github.com/textsift/textsift/internal/core/input"
)

// PDFBackend extracts PDF text in-process with ledongthuc/pdf.
type PDFBackend struct {
	logger *zap.Logger
}

var _ Backend = (*PDFBackend)(nil)

func NewPDFBackend(logger *zap.Logger) *PDFBackend {
	return &PDFBackend{logger: logger}
}

func (b *PDFBackend) ID() core.BackendID { return NativePDFID }

func (b *PDFBackend) Formats() []core.FormatTag { return []core.FormatTag{core.FormatPDF} }

// The PDF cross-reference table lives at the end of the file.
func (b *PDFBackend) NeedsRandomAccess() bool { return true }

func (b *PDFBackend) Extract(ctx context.Context, tag core.FormatTag, in *input.Payload, cfg core.ExtractionConfig) (res *core.ExtractionResult, err error) {
	if tag != core.FormatPDF {
		return nil, core.Unsupported(b.ID(), tag)
	}
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}

	data, berr := in.Bytes()
	if berr != nil {
		return nil, core.IoFailure(b.ID(), berr)
	}

	// The pdf package panics on some malformed files instead of
	// returning an error; contain that as a parse failure.
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("pdf parser panic", zap.Any("cause", r))
			res = nil
			err = core.ParseFailure(b.ID(), fmt.Errorf("pdf parser panic: %v", r))
		}
	}()

	reader, perr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if perr != nil {
		return nil, core.ParseFailure(b.ID(), perr)
	}

	plain, perr := reader.GetPlainText()
	if perr != nil {
		return nil, core.ParseFailure(b.ID(), perr)
	}
	content, perr := io.ReadAll(plain)
	if perr != nil {
		return nil, core.ParseFailure(b.ID(), perr)
	}

	meta := baseMetadata(tag, "native-pdf", int64(len(data)))
	meta[core.MetaPages] = strconv.Itoa(reader.NumPage())

	return &core.ExtractionResult{
		Text:     strings.TrimSpace(string(content)),
		Metadata: meta,
		Backend:  b.ID(),
	}, nil
}
