// Package coordinator drives a single document extraction end to end:
// classify, acquire input, walk the backend candidate chain, normalize
// the result. Fallback policy lives here and nowhere else.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/textsift/textsift/internal/core"
	"github.com/textsift/textsift/internal/core/backend"
	"github.com/textsift/textsift/internal/core/classify"
	"github.com/textsift/textsift/internal/core/input"
	"github.com/textsift/textsift/internal/core/registry"
	"github.com/textsift/textsift/internal/core/textutil"
)

// contentProbeSize bounds how much of a streamed remote body is peeked
// when the filename alone could not classify it.
const contentProbeSize = 512

type Coordinator struct {
	registry *registry.Registry
	opener   *input.Opener
	logger   *zap.Logger
}

func New(reg *registry.Registry, opener *input.Opener, logger *zap.Logger) *Coordinator {
	return &Coordinator{registry: reg, opener: opener, logger: logger}
}

// Extract runs one document through the pipeline. Failures surface as
// *core.ExtractionError; acquisition errors before any backend ran are
// returned as plain wrapped errors.
func (c *Coordinator) Extract(ctx context.Context, ref core.DocumentRef, cfg core.ExtractionConfig) (*core.ExtractionResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg = cfg.Sanitized()

	if err := ctx.Err(); err != nil {
		return nil, cancelled(core.FormatUnknown, nil, err)
	}

	tag := classify.Classify(ref)

	p, err := c.opener.Open(ctx, ref, cfg)
	if err != nil {
		if isCtxErr(err) {
			return nil, cancelled(tag, nil, err)
		}
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer p.Close()

	// A remote ref with no telling extension classifies as unknown before
	// the fetch; once bytes are in hand, take a second look.
	if tag == core.FormatUnknown {
		tag = c.reclassify(ref, p)
	}

	candidates := c.registry.Candidates(tag, cfg.ParserPreference)
	if len(candidates) == 0 {
		return nil, &core.ExtractionError{Kind: core.ErrUnsupportedFormat, Format: tag}
	}

	// With more than one candidate a failed attempt must not consume the
	// input, and a random-access backend needs the whole input anyway, so
	// forward-only streams are materialized up front in either case.
	if !p.Reusable() && (len(candidates) > 1 || needsRandomAccess(candidates)) {
		if err := p.EnsureReusable(); err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
	}

	res, err := c.attempt(ctx, tag, candidates, p, cfg)
	if err != nil {
		return nil, err
	}
	return c.finish(res, tag, p.Size(), cfg), nil
}

func needsRandomAccess(candidates []backend.Backend) bool {
	for _, b := range candidates {
		if b.NeedsRandomAccess() {
			return true
		}
	}
	return false
}

func (c *Coordinator) reclassify(ref core.DocumentRef, p *input.Payload) core.FormatTag {
	if p.Reusable() {
		if data, err := p.Bytes(); err == nil {
			return classify.FromBytes(ref.Name(), data)
		}
		return core.FormatUnknown
	}
	prefix, err := p.Prefix(contentProbeSize)
	if err != nil {
		return core.FormatUnknown
	}
	return classify.FromBytes(ref.Name(), prefix)
}

// attempt walks the candidate chain. Unsupported and parse failures move
// on to the next backend; io failures and cancellation stop immediately.
func (c *Coordinator) attempt(ctx context.Context, tag core.FormatTag, candidates []backend.Backend, p *input.Payload, cfg core.ExtractionConfig) (*core.ExtractionResult, error) {
	var (
		attempted []core.BackendID
		lastErr   error
	)
	for _, b := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(tag, attempted, err)
		}

		res, err := b.Extract(ctx, tag, p, cfg)
		if err == nil {
			return res, nil
		}
		attempted = append(attempted, b.ID())
		lastErr = err

		if isCtxErr(err) {
			return nil, cancelled(tag, attempted, err)
		}
		be, ok := core.AsBackendError(err)
		if !ok || be.Kind == core.BackendIoFailure {
			break
		}

		c.logger.Warn("backend attempt failed, trying next candidate",
			zap.String("backend", string(b.ID())),
			zap.String("format", tag.String()),
			zap.String("kind", be.Kind.String()),
			zap.Error(be.Err))
	}

	return nil, &core.ExtractionError{
		Kind:      core.ErrNoBackendSucceeded,
		Format:    tag,
		Attempted: attempted,
		Err:       lastErr,
	}
}

// finish normalizes the backend's raw result: metadata keys lose foreign
// prefixes, values become valid UTF-8, well-known keys get filled in, and
// the text bound is enforced once, here, for every backend.
func (c *Coordinator) finish(res *core.ExtractionResult, tag core.FormatTag, size int64, cfg core.ExtractionConfig) *core.ExtractionResult {
	res.Metadata = normalizeMetadata(res.Metadata, tag, size)

	if cfg.NormalizeWhitespace {
		res.Text = textutil.NormalizeWhitespace(res.Text)
	}
	res.Text = textutil.EnsureUTF8(res.Text)

	if text, cut := textutil.Truncate(res.Text, cfg.MaxTextLength, cfg.WordBoundaryTruncation); cut {
		res.Text = text
		res.Truncated = true
	}
	return res
}

// enginePrefixes are metadata namespace prefixes the bridge engine leaks;
// keys keep their local name.
var enginePrefixes = []string{"X-TIKA:", "X-Parsed-By:"}

func normalizeMetadata(meta core.Metadata, tag core.FormatTag, size int64) core.Metadata {
	out := make(core.Metadata, len(meta)+3)
	for k, v := range meta {
		for _, prefix := range enginePrefixes {
			if strings.HasPrefix(k, prefix) {
				k = strings.TrimPrefix(k, prefix)
				break
			}
		}
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		// First writer wins so a normalized key cannot clobber an
		// already-present canonical one.
		if _, exists := out[k]; !exists {
			out[k] = textutil.EnsureUTF8(v)
		}
	}
	if _, ok := out[core.MetaContentType]; !ok {
		out[core.MetaContentType] = tag.MIME()
	}
	if _, ok := out[core.MetaFileSize]; !ok && size >= 0 {
		out[core.MetaFileSize] = strconv.FormatInt(size, 10)
	}
	return out
}

func cancelled(tag core.FormatTag, attempted []core.BackendID, err error) error {
	return &core.ExtractionError{Kind: core.ErrCancelled, Format: tag, Attempted: attempted, Err: err}
}

func isCtxErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
