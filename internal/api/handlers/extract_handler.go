package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/textsift/textsift/internal/core"
	"github.com/textsift/textsift/internal/core/batch"
	"github.com/textsift/textsift/internal/core/coordinator"
)

const maxUploadBytes = 64 << 20 // 64 MB

type ExtractHandler struct {
	coord   *coordinator.Coordinator
	sched   *batch.Scheduler
	baseCfg core.ExtractionConfig
	logger  *zap.Logger
}

func NewExtractHandler(coord *coordinator.Coordinator, sched *batch.Scheduler, baseCfg core.ExtractionConfig, logger *zap.Logger) *ExtractHandler {
	return &ExtractHandler{coord: coord, sched: sched, baseCfg: baseCfg, logger: logger}
}

// extractRequest is the JSON body for URL-based extraction and the
// per-document shape in batch requests.
type extractRequest struct {
	URL  string `json:"url,omitempty"`
	Path string `json:"path,omitempty"`
	// Optional per-request overrides; zero values mean "service default".
	MaxTextLength       int    `json:"max_text_length,omitempty"`
	CharsetOverride     string `json:"charset,omitempty"`
	NormalizeWhitespace bool   `json:"normalize_whitespace,omitempty"`
}

type batchRequest struct {
	Documents []extractRequest `json:"documents"`
	Workers   int              `json:"workers,omitempty"`
}

type extractResponse struct {
	Text      string        `json:"text"`
	Metadata  core.Metadata `json:"metadata"`
	Backend   string        `json:"backend_used"`
	Truncated bool          `json:"truncated"`
}

type batchItemResponse struct {
	Ref    string           `json:"ref"`
	Result *extractResponse `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Extract handles POST /api/extract: either a multipart upload under the
// "file" field or a JSON body naming a url or server-local path.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")

	var (
		ref core.DocumentRef
		cfg core.ExtractionConfig
		err error
	)
	switch {
	case strings.HasPrefix(ct, "multipart/form-data"):
		ref, cfg, err = h.refFromUpload(r)
	default:
		ref, cfg, err = h.refFromJSON(r)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.coord.Extract(r.Context(), ref, cfg)
	if err != nil {
		h.logger.Warn("extraction failed",
			zap.String("ref", ref.String()),
			zap.Error(err))
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(res))
}

// ExtractBatch handles POST /api/extract/batch. Every document gets its
// own result or error slot; a failed document never fails the request.
func (h *ExtractHandler) ExtractBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("documents list is empty"))
		return
	}

	refs := make([]core.DocumentRef, len(req.Documents))
	for i, d := range req.Documents {
		ref, err := d.ref()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("document %d: %w", i, err))
			return
		}
		refs[i] = ref
	}

	cfg := h.baseCfg
	if req.Workers > 0 {
		cfg = cfg.WithParallel(true, req.Workers)
	}

	jobID := uuid.NewString()
	h.logger.Info("batch extraction started",
		zap.String("job_id", jobID),
		zap.Int("documents", len(refs)))

	items := h.sched.ExtractMany(r.Context(), refs, cfg)

	out := make([]batchItemResponse, len(items))
	failed := 0
	for i, item := range items {
		out[i].Ref = item.Ref.String()
		if item.Err != nil {
			out[i].Error = item.Err.Error()
			failed++
			continue
		}
		out[i].Result = toResponse(item.Result)
	}

	h.logger.Info("batch extraction finished",
		zap.String("job_id", jobID),
		zap.Int("succeeded", len(items)-failed),
		zap.Int("failed", failed))

	writeJSON(w, http.StatusOK, map[string]any{
		"job_id": jobID,
		"items":  out,
	})
}

func (h *ExtractHandler) refFromUpload(r *http.Request) (core.DocumentRef, core.ExtractionConfig, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return core.DocumentRef{}, h.baseCfg, fmt.Errorf("parse upload: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return core.DocumentRef{}, h.baseCfg, errors.New("missing file field")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return core.DocumentRef{}, h.baseCfg, fmt.Errorf("read upload: %w", err)
	}

	// Strip any client-supplied path components.
	name := filepath.Base(header.Filename)

	// The same overrides the JSON body accepts arrive as form fields
	// alongside the file.
	req := extractRequest{CharsetOverride: r.FormValue("charset")}
	if v := r.FormValue("max_text_length"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return core.DocumentRef{}, h.baseCfg, fmt.Errorf("max_text_length: %w", err)
		}
		req.MaxTextLength = n
	}
	if v := r.FormValue("normalize_whitespace"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return core.DocumentRef{}, h.baseCfg, fmt.Errorf("normalize_whitespace: %w", err)
		}
		req.NormalizeWhitespace = b
	}

	return core.BytesRef(name, data), req.apply(h.baseCfg), nil
}

func (h *ExtractHandler) refFromJSON(r *http.Request) (core.DocumentRef, core.ExtractionConfig, error) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.DocumentRef{}, h.baseCfg, fmt.Errorf("decode request: %w", err)
	}
	ref, err := req.ref()
	if err != nil {
		return core.DocumentRef{}, h.baseCfg, err
	}
	return ref, req.apply(h.baseCfg), nil
}

func (req extractRequest) ref() (core.DocumentRef, error) {
	switch {
	case req.URL != "" && req.Path != "":
		return core.DocumentRef{}, errors.New("url and path are mutually exclusive")
	case req.URL != "":
		return core.URLRef(req.URL), nil
	case req.Path != "":
		return core.FileRef(req.Path), nil
	default:
		return core.DocumentRef{}, errors.New("one of url or path is required")
	}
}

func (req extractRequest) apply(cfg core.ExtractionConfig) core.ExtractionConfig {
	if req.MaxTextLength > 0 {
		cfg = cfg.WithMaxTextLength(req.MaxTextLength)
	}
	if req.CharsetOverride != "" {
		cfg = cfg.WithCharsetOverride(req.CharsetOverride)
	}
	if req.NormalizeWhitespace {
		cfg = cfg.WithNormalizeWhitespace(true)
	}
	return cfg
}

func toResponse(res *core.ExtractionResult) *extractResponse {
	return &extractResponse{
		Text:      res.Text,
		Metadata:  res.Metadata,
		Backend:   string(res.Backend),
		Truncated: res.Truncated,
	}
}

func statusFor(err error) int {
	var ee *core.ExtractionError
	if errors.As(err, &ee) {
		switch ee.Kind {
		case core.ErrUnsupportedFormat:
			return http.StatusUnsupportedMediaType
		case core.ErrCancelled:
			return http.StatusRequestTimeout
		}
	}
	return http.StatusUnprocessableEntity
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
