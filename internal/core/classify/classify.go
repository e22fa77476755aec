// Package classify resolves a DocumentRef to a FormatTag without touching
// any extraction backend. Classification never fails: anything it cannot
// resolve is FormatUnknown.
package classify

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/textsift/textsift/internal/core"
)

// prefixSize is how many leading bytes the magic probe reads. Content
// probing never reads more than this plus the ZIP directory walk.
const prefixSize = 16

var extensionTable = map[string]core.FormatTag{
	".pdf":  core.FormatPDF,
	".docx": core.FormatDOCX,
	".xlsx": core.FormatXLSX,
	".pptx": core.FormatPPTX,
	".html": core.FormatHTML,
	".htm":  core.FormatHTML,
	".xml":  core.FormatXML,
	".csv":  core.FormatCSV,
	".txt":  core.FormatPlainText,
	".md":   core.FormatPlainText,
	".rst":  core.FormatPlainText,
	".json": core.FormatPlainText,
	".log":  core.FormatPlainText,
}

// Classify identifies the format of ref. Priority: caller override, then
// filename extension, then magic bytes, then a UTF-8 text probe. For URL
// refs only the extension is available before fetching; callers holding
// fetched bytes should fall through to FromBytes.
func Classify(ref core.DocumentRef) core.FormatTag {
	if hint := ref.FormatHint(); hint != core.FormatUnknown {
		return hint
	}

	if tag, ok := byExtension(ref.Name()); ok {
		return tag
	}

	switch ref.Kind() {
	case core.RefBytes:
		return byContent(head(ref.Data()), bytesZipProbe(ref.Data()))
	case core.RefPath:
		return classifyFile(ref.Path())
	default:
		return core.FormatUnknown
	}
}

func head(data []byte) []byte {
	if len(data) > prefixSize {
		return data[:prefixSize]
	}
	return data
}

// FromBytes classifies a named buffer: extension first, then content.
// Used by the coordinator to re-classify remote refs once fetched.
func FromBytes(name string, data []byte) core.FormatTag {
	if tag, ok := byExtension(name); ok {
		return tag
	}
	return byContent(head(data), bytesZipProbe(data))
}

func byExtension(name string) (core.FormatTag, bool) {
	if name == "" {
		return core.FormatUnknown, false
	}
	tag, ok := extensionTable[strings.ToLower(filepath.Ext(name))]
	return tag, ok
}

func classifyFile(path string) core.FormatTag {
	f, err := os.Open(path)
	if err != nil {
		return core.FormatUnknown
	}
	defer f.Close()

	prefix := make([]byte, prefixSize)
	n, err := io.ReadFull(f, prefix)
	if err != nil && err != io.ErrUnexpectedEOF {
		return core.FormatUnknown
	}
	return byContent(prefix[:n], fileZipProbe(f))
}

// zipProbe disambiguates an OOXML container once the prefix alone has
// identified PK\x03\x04. It returns FormatUnknown when the archive cannot
// be opened or carries none of the known package roots.
type zipProbe func() core.FormatTag

func bytesZipProbe(data []byte) zipProbe {
	return func() core.FormatTag {
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return core.FormatUnknown
		}
		return officeFormat(zr)
	}
}

func fileZipProbe(f *os.File) zipProbe {
	return func() core.FormatTag {
		info, err := f.Stat()
		if err != nil {
			return core.FormatUnknown
		}
		zr, err := zip.NewReader(f, info.Size())
		if err != nil {
			return core.FormatUnknown
		}
		return officeFormat(zr)
	}
}

// officeFormat keys off the package root directory inside the archive:
// word/ for DOCX, xl/ for XLSX, ppt/ for PPTX.
func officeFormat(zr *zip.Reader) core.FormatTag {
	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return core.FormatDOCX
		case strings.HasPrefix(f.Name, "xl/"):
			return core.FormatXLSX
		case strings.HasPrefix(f.Name, "ppt/"):
			return core.FormatPPTX
		}
	}
	return core.FormatUnknown
}

func byContent(prefix []byte, probe zipProbe) core.FormatTag {
	if len(prefix) >= 4 {
		switch {
		case bytes.HasPrefix(prefix, []byte("%PDF")):
			return core.FormatPDF
		case bytes.HasPrefix(prefix, []byte("PK\x03\x04")):
			return probe()
		case bytes.HasPrefix(prefix, []byte("<?xm")):
			return core.FormatXML
		case prefix[0] == '<' && looksLikeHTML(prefix):
			return core.FormatHTML
		}
	}
	return textOrUnknown(prefix)
}

func looksLikeHTML(prefix []byte) bool {
	lower := strings.ToLower(string(prefix))
	return strings.Contains(lower, "html") || strings.Contains(lower, "!doctype")
}

// textOrUnknown classifies a prefix as plain text when it is valid UTF-8
// with no binary indicators. A multi-byte rune straddling the prefix
// boundary is tolerated by trimming the incomplete tail.
func textOrUnknown(prefix []byte) core.FormatTag {
	if len(prefix) == 0 {
		return core.FormatUnknown
	}

	end := len(prefix)
	for end > 0 && end > len(prefix)-utf8.UTFMax && !utf8.RuneStart(prefix[end-1]) {
		end--
	}
	if end > 0 && prefix[end-1] >= 0xC0 {
		end-- // lone leading byte of a truncated rune
	}

	head := prefix[:end]
	if !utf8.Valid(head) {
		return core.FormatUnknown
	}
	for _, b := range head {
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			return core.FormatUnknown
		}
	}
	return core.FormatPlainText
}
