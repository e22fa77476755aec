package core

import (
	"errors"
	"fmt"
	"strings"
)

// BackendErrorKind classifies a single backend attempt's failure.
type BackendErrorKind int

const (
	// BackendUnsupported means this backend cannot handle the resolved
	// format; the coordinator moves on to the next candidate.
	BackendUnsupported BackendErrorKind = iota
	// BackendParseFailure means the input was handled but parsing failed.
	// Recoverable: another backend may still succeed.
	BackendParseFailure
	// BackendIoFailure is fatal; no sibling backend can recover from
	// missing or unreadable input.
	BackendIoFailure
)

func (k BackendErrorKind) String() string {
	switch k {
	case BackendUnsupported:
		return "unsupported"
	case BackendParseFailure:
		return "parse failure"
	case BackendIoFailure:
		return "io failure"
	default:
		return "unknown"
	}
}

// BackendError is the typed result of one failed backend attempt.
type BackendError struct {
	Kind    BackendErrorKind
	Backend BackendID
	Err     error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend %s: %s: %v", e.Backend, e.Kind, e.Err)
	}
	return fmt.Sprintf("backend %s: %s", e.Backend, e.Kind)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Unsupported reports that a backend does not claim the given format.
func Unsupported(id BackendID, tag FormatTag) *BackendError {
	return &BackendError{
		Kind:    BackendUnsupported,
		Backend: id,
		Err:     fmt.Errorf("format %s not supported", tag),
	}
}

// ParseFailure wraps a recoverable parse error from a backend.
func ParseFailure(id BackendID, err error) *BackendError {
	return &BackendError{Kind: BackendParseFailure, Backend: id, Err: err}
}

// IoFailure wraps a fatal input error from a backend.
func IoFailure(id BackendID, err error) *BackendError {
	return &BackendError{Kind: BackendIoFailure, Backend: id, Err: err}
}

// AsBackendError unwraps err into a *BackendError when possible.
func AsBackendError(err error) (*BackendError, bool) {
	var be *BackendError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// ExtractionErrorKind classifies a whole-document failure.
type ExtractionErrorKind int

const (
	// ErrUnsupportedFormat means no registered backend claims the
	// classified format.
	ErrUnsupportedFormat ExtractionErrorKind = iota
	// ErrNoBackendSucceeded means every candidate was attempted and the
	// last one failed.
	ErrNoBackendSucceeded
	// ErrCancelled means the caller's deadline or cancellation fired.
	ErrCancelled
)

func (k ExtractionErrorKind) String() string {
	switch k {
	case ErrUnsupportedFormat:
		return "unsupported format"
	case ErrNoBackendSucceeded:
		return "no backend succeeded"
	case ErrCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ExtractionError is what a failed single-document extraction surfaces to
// the caller: the classified format and the backends attempted, with the
// last per-backend error underneath.
type ExtractionError struct {
	Kind      ExtractionErrorKind
	Format    FormatTag
	Attempted []BackendID
	Err       error
}

func (e *ExtractionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "extraction failed (%s): format=%s", e.Kind, e.Format)
	if len(e.Attempted) > 0 {
		names := make([]string, len(e.Attempted))
		for i, id := range e.Attempted {
			names[i] = string(id)
		}
		fmt.Fprintf(&b, " attempted=[%s]", strings.Join(names, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// IsCancelled reports whether err is a cancellation outcome.
func IsCancelled(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee) && ee.Kind == ErrCancelled
}
