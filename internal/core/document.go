package core

import (
	"net/url"
	"path"
	"path/filepath"
)

// RefKind tells where a document's bytes live.
type RefKind int

const (
	RefPath RefKind = iota
	RefBytes
	RefURL
)

// DocumentRef identifies a single extraction target: a local path, an
// in-memory buffer, or a remote URL. It is immutable once constructed;
// the coordinator only reads it.
type DocumentRef struct {
	kind       RefKind
	path       string
	data       []byte
	url        string
	name       string
	formatHint FormatTag
}

// FileRef refers to a document on the local filesystem.
func FileRef(path string) DocumentRef {
	return DocumentRef{kind: RefPath, path: path}
}

// BytesRef refers to a document already held in memory. name is optional
// and only used for extension-based classification; pass "" when unknown.
func BytesRef(name string, data []byte) DocumentRef {
	return DocumentRef{kind: RefBytes, data: data, name: name}
}

// URLRef refers to a remote document (http, https or s3 scheme).
func URLRef(rawURL string) DocumentRef {
	return DocumentRef{kind: RefURL, url: rawURL}
}

// WithFormat returns a copy carrying a caller-supplied format override,
// skipping classification for this ref.
func (r DocumentRef) WithFormat(tag FormatTag) DocumentRef {
	r.formatHint = tag
	return r
}

func (r DocumentRef) Kind() RefKind { return r.kind }

func (r DocumentRef) Path() string { return r.path }

// Data returns the in-memory buffer for RefBytes refs. Callers must treat
// the returned slice as read-only.
func (r DocumentRef) Data() []byte { return r.data }

func (r DocumentRef) URL() string { return r.url }

// FormatHint reports the caller override, FormatUnknown when absent.
func (r DocumentRef) FormatHint() FormatTag { return r.formatHint }

// Name returns the best available filename for this ref: the path base,
// the supplied buffer name, or the last URL path segment.
func (r DocumentRef) Name() string {
	switch r.kind {
	case RefPath:
		return filepath.Base(r.path)
	case RefBytes:
		return r.name
	case RefURL:
		if u, err := url.Parse(r.url); err == nil {
			return path.Base(u.Path)
		}
	}
	return ""
}

// String is used in logs and error messages.
func (r DocumentRef) String() string {
	switch r.kind {
	case RefPath:
		return r.path
	case RefURL:
		return r.url
	default:
		if r.name != "" {
			return r.name
		}
		return "<bytes>"
	}
}
