package backend

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/textsift/textsift/internal/core"
	"github.com/textsift/textsift/internal/core/input"
	"github.com/textsift/textsift/internal/core/textutil"
)

// HTMLBackend extracts visible text from HTML documents with goquery.
type HTMLBackend struct{}

var _ Backend = (*HTMLBackend)(nil)

func NewHTMLBackend() *HTMLBackend { return &HTMLBackend{} }

func (b *HTMLBackend) ID() core.BackendID { return NativeHTMLID }

func (b *HTMLBackend) Formats() []core.FormatTag { return []core.FormatTag{core.FormatHTML} }

func (b *HTMLBackend) NeedsRandomAccess() bool { return false }

func (b *HTMLBackend) Extract(ctx context.Context, tag core.FormatTag, in *input.Payload, cfg core.ExtractionConfig) (*core.ExtractionResult, error) {
	if tag != core.FormatHTML {
		return nil, core.Unsupported(b.ID(), tag)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(in.Reader())
	if err != nil {
		return nil, core.ParseFailure(b.ID(), err)
	}

	doc.Find("script, style, noscript").Remove()

	meta := baseMetadata(tag, "native-html", in.Size())
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		meta[core.MetaTitle] = title
	}

	body := doc.Find("body")
	var text string
	if body.Length() > 0 {
		text = body.Text()
	} else {
		text = doc.Text()
	}

	return &core.ExtractionResult{
		Text:     textutil.NormalizeWhitespace(text),
		Metadata: meta,
		Backend:  b.ID(),
	}, nil
}
