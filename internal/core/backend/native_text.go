package backend

import (
	"context"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/textsift/textsift/internal/core"
	"github.com/textsift/textsift/internal/core/input"
	"github.com/textsift/textsift/internal/core/textutil"
)

// TextBackend handles the text-shaped formats: plain text, CSV and XML.
// It also serves as the generic fallback for unclassified input, where it
// behaves like the plain-text path.
type TextBackend struct{}

var _ Backend = (*TextBackend)(nil)

func NewTextBackend() *TextBackend { return &TextBackend{} }

func (b *TextBackend) ID() core.BackendID { return NativeTextID }

func (b *TextBackend) Formats() []core.FormatTag {
	return []core.FormatTag{core.FormatPlainText, core.FormatCSV, core.FormatXML}
}

func (b *TextBackend) NeedsRandomAccess() bool { return false }

func (b *TextBackend) Extract(ctx context.Context, tag core.FormatTag, in *input.Payload, cfg core.ExtractionConfig) (*core.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		text string
		err  error
	)
	switch tag {
	case core.FormatCSV:
		text, err = csvText(in.Reader())
	case core.FormatXML:
		text, err = xmlText(in.Reader())
	case core.FormatPlainText, core.FormatUnknown:
		text, err = plainText(in.Reader(), cfg.CharsetOverride)
	default:
		return nil, core.Unsupported(b.ID(), tag)
	}
	if err != nil {
		return nil, core.ParseFailure(b.ID(), err)
	}

	meta := baseMetadata(tag, "native-text", in.Size())
	if tag == core.FormatUnknown {
		meta[core.MetaContentType] = core.FormatPlainText.MIME()
	}

	return &core.ExtractionResult{
		Text:     strings.TrimSpace(text),
		Metadata: meta,
		Backend:  b.ID(),
	}, nil
}

// plainText decodes the input to UTF-8. With a charset override the label
// is honored; otherwise the bytes pass through with invalid sequences
// replaced.
func plainText(r io.Reader, charsetLabel string) (string, error) {
	if charsetLabel != "" {
		decoded, err := charset.NewReaderLabel(charsetLabel, r)
		if err != nil {
			return "", fmt.Errorf("charset %q: %w", charsetLabel, err)
		}
		r = decoded
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return textutil.EnsureUTF8(string(data)), nil
}

// csvText renders rows as lines with cells separated by single spaces,
// matching how sheet-shaped content reads elsewhere.
func csvText(r io.Reader) (string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var sb strings.Builder
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read csv: %w", err)
		}
		sb.WriteString(strings.Join(record, " "))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// xmlText accumulates character data across the whole document.
func xmlText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode xml: %w", err)
		}
		if cd, ok := tok.(xml.CharData); ok {
			trimmed := strings.TrimSpace(string(cd))
			if trimmed != "" {
				sb.WriteString(trimmed)
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String(), nil
}
