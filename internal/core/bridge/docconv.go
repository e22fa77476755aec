package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"code.sajari.com/docconv"
	"go.uber.org/zap"

	"github.com/textsift/textsift/internal/core"
)

// DocconvEngine adapts code.sajari.com/docconv to the Engine contract.
type DocconvEngine struct {
	logger *zap.Logger
}

var _ Engine = (*DocconvEngine)(nil)

func NewDocconvEngine(logger *zap.Logger) *DocconvEngine {
	return &DocconvEngine{logger: logger}
}

func (e *DocconvEngine) Detect(name string) string {
	if name == "" {
		return "application/octet-stream"
	}
	return docconv.MimeTypeByExtension(name)
}

func (e *DocconvEngine) ParseToString(ctx context.Context, r io.Reader, mime string, maxLen int) (string, core.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	res, err := e.convert(r, mime)
	if err != nil {
		return "", nil, err
	}
	body := res.Body
	if maxLen > 0 && len(body) > maxLen {
		body = body[:maxLen]
	}
	return body, toMetadata(res.Meta), nil
}

func (e *DocconvEngine) ParseStream(ctx context.Context, r io.Reader, mime string) (StreamHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := e.convert(r, mime)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("engine parse complete",
		zap.String("mime", mime),
		zap.Int("text_bytes", len(res.Body)),
		zap.Uint32("msecs", res.MSecs))
	return &docconvHandle{
		r:    strings.NewReader(res.Body),
		meta: toMetadata(res.Meta),
	}, nil
}

func (e *DocconvEngine) convert(r io.Reader, mime string) (*docconv.Response, error) {
	res, err := docconv.Convert(r, mime, false)
	if err != nil {
		return nil, classifyEngineError(err)
	}
	if res.Error != "" {
		return nil, &EngineError{Status: StatusParseFailure, Message: res.Error}
	}
	return res, nil
}

// classifyEngineError maps docconv failures onto the engine's status
// surface, keeping only a sanitized message.
func classifyEngineError(err error) *EngineError {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unknown content type"),
		strings.Contains(msg, "unsupported content type"):
		return &EngineError{Status: StatusUnsupported, Message: fmt.Sprintf("engine: %s", msg), Err: err}
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission),
		errors.Is(err, io.ErrUnexpectedEOF):
		return &EngineError{Status: StatusIoFailure, Message: fmt.Sprintf("engine: %s", msg), Err: err}
	default:
		return &EngineError{Status: StatusParseFailure, Message: fmt.Sprintf("engine: %s", msg), Err: err}
	}
}

func toMetadata(meta map[string]string) core.Metadata {
	out := make(core.Metadata, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

type docconvHandle struct {
	r    *strings.Reader
	meta core.Metadata
}

func (h *docconvHandle) Read(p []byte) (int, error) { return h.r.Read(p) }

func (h *docconvHandle) Close() error { return nil }

func (h *docconvHandle) Metadata() core.Metadata { return h.meta }
