package backend

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/textsift/textsift/internal/core"
	"github.com/textsift/textsift/internal/core/input"
)

// OfficeBackend extracts text from OOXML containers (DOCX, XLSX, PPTX) by
// reading the archive members directly, no office library involved.
type OfficeBackend struct{}

var _ Backend = (*OfficeBackend)(nil)

func NewOfficeBackend() *OfficeBackend { return &OfficeBackend{} }

func (b *OfficeBackend) ID() core.BackendID { return NativeOfficeID }

func (b *OfficeBackend) Formats() []core.FormatTag {
	return []core.FormatTag{core.FormatDOCX, core.FormatXLSX, core.FormatPPTX}
}

// ZIP central directory sits at the end of the archive.
func (b *OfficeBackend) NeedsRandomAccess() bool { return true }

func (b *OfficeBackend) Extract(ctx context.Context, tag core.FormatTag, in *input.Payload, cfg core.ExtractionConfig) (*core.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := in.Bytes()
	if err != nil {
		return nil, core.IoFailure(b.ID(), err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, core.ParseFailure(b.ID(), fmt.Errorf("open container: %w", err))
	}

	var text string
	switch tag {
	case core.FormatDOCX:
		text, err = docxText(zr)
	case core.FormatXLSX:
		text, err = xlsxText(zr)
	case core.FormatPPTX:
		text, err = pptxText(zr)
	default:
		return nil, core.Unsupported(b.ID(), tag)
	}
	if err != nil {
		return nil, core.ParseFailure(b.ID(), err)
	}

	return &core.ExtractionResult{
		Text:     strings.TrimSpace(text),
		Metadata: baseMetadata(tag, "native-office", int64(len(data))),
		Backend:  b.ID(),
	}, nil
}

func zipMember(zr *zip.Reader, name string) (*zip.File, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%s not found in container", name)
}

// docxText walks word/document.xml collecting run text, with paragraph
// ends and explicit breaks mapped to newlines and tabs preserved.
func docxText(zr *zip.Reader) (string, error) {
	f, err := zipMember(zr, "word/document.xml")
	if err != nil {
		return "", err
	}
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var sb strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

// xlsxText pulls the shared-string table, which carries the workbook's
// text cells; one line per string.
func xlsxText(zr *zip.Reader) (string, error) {
	f, err := zipMember(zr, "xl/sharedStrings.xml")
	if err != nil {
		return "", err
	}
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var sb strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false
	wrote := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode sharedStrings.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "si":
				if wrote {
					sb.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
				wrote = true
			}
		}
	}
	return sb.String(), nil
}

// pptxText collects run text from every slide, in slide order.
func pptxText(zr *zip.Reader) (string, error) {
	var slides []*zip.File
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f)
		}
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("no slides found in container")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].Name < slides[j].Name })

	var sb strings.Builder
	for _, f := range slides {
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		if err := slideText(rc, &sb); err != nil {
			rc.Close()
			return "", err
		}
		rc.Close()
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func slideText(r io.Reader, sb *strings.Builder) error {
	dec := xml.NewDecoder(r)
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode slide: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
				sb.WriteByte(' ')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
}
