package core

// FormatTag is the classified document format. It is derived per
// extraction and never persisted.
type FormatTag int

const (
	FormatUnknown FormatTag = iota
	FormatPDF
	FormatDOCX
	FormatXLSX
	FormatPPTX
	FormatHTML
	FormatXML
	FormatCSV
	FormatPlainText
)

var formatNames = map[FormatTag]string{
	FormatUnknown:   "unknown",
	FormatPDF:       "pdf",
	FormatDOCX:      "docx",
	FormatXLSX:      "xlsx",
	FormatPPTX:      "pptx",
	FormatHTML:      "html",
	FormatXML:       "xml",
	FormatCSV:       "csv",
	FormatPlainText: "text",
}

func (t FormatTag) String() string {
	if n, ok := formatNames[t]; ok {
		return n
	}
	return "unknown"
}

// MIME returns the canonical content type for a tag, used both as the
// hint handed to the bridge engine and as the Content-Type metadata value
// for native backends.
func (t FormatTag) MIME() string {
	switch t {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPPTX:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case FormatHTML:
		return "text/html"
	case FormatXML:
		return "application/xml"
	case FormatCSV:
		return "text/csv"
	case FormatPlainText:
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// BackendID names the backend that produced a result. Observability only;
// no behavior keys off it.
type BackendID string

// Metadata maps normalized metadata keys to values. Keys are unique;
// insertion order carries no meaning.
type Metadata map[string]string

// Well-known metadata keys every backend fills in when it can.
const (
	MetaContentType = "Content-Type"
	MetaFileSize    = "File-Size"
	MetaParser      = "Parser"
	MetaTitle       = "Title"
	MetaPages       = "Pages"
)

// Clone returns a shallow copy, safe to hand across goroutines.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ExtractionResult is the normalized outcome of one successful extraction.
type ExtractionResult struct {
	Text      string
	Metadata  Metadata
	Backend   BackendID
	Truncated bool
}
