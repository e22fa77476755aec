package backend

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/textsift/textsift/internal/core"
	"github.com/textsift/textsift/internal/core/bridge"
	"github.com/textsift/textsift/internal/core/input"
)

// BridgeBackend delegates extraction to the foreign parsing engine and
// drains the result through an adaptive stream session. The engine is
// injected at construction; one BridgeBackend instance is used by one
// worker at a time, so its session is never shared.
type BridgeBackend struct {
	engine bridge.Engine
	logger *zap.Logger
}

var _ Backend = (*BridgeBackend)(nil)

func NewBridgeBackend(engine bridge.Engine, logger *zap.Logger) *BridgeBackend {
	return &BridgeBackend{engine: engine, logger: logger}
}

func (b *BridgeBackend) ID() core.BackendID { return BridgeID }

// Formats: the engine is a generalist; routing decides when it runs.
func (b *BridgeBackend) Formats() []core.FormatTag { return nil }

func (b *BridgeBackend) NeedsRandomAccess() bool { return false }

func (b *BridgeBackend) Extract(ctx context.Context, tag core.FormatTag, in *input.Payload, cfg core.ExtractionConfig) (*core.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mime := tag.MIME()
	if tag == core.FormatUnknown && in.Name() != "" {
		// Unclassified input: let the engine's own detection pick the
		// parser instead of handing it the generic type.
		mime = b.engine.Detect(in.Name())
	}

	handle, err := b.engine.ParseStream(ctx, in.Reader(), mime)
	if err != nil {
		return nil, b.mapError(err)
	}
	meta := handle.Metadata().Clone()

	session := bridge.NewSession(b.logger)
	text, truncated, err := session.Run(ctx, handle, cfg.MaxTextLength)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, b.mapError(err)
	}

	b.logger.Debug("bridge extraction complete",
		zap.String("format", tag.String()),
		zap.Int("text_bytes", len(text)),
		zap.Bool("truncated", truncated),
		zap.Int("chunk_size", session.ChunkSize()),
		zap.Int("high_water", session.HighWater()))

	return &core.ExtractionResult{
		Text:      text,
		Metadata:  meta,
		Backend:   b.ID(),
		Truncated: truncated,
	}, nil
}

// mapError folds the engine's status surface into the backend taxonomy.
func (b *BridgeBackend) mapError(err error) error {
	var ee *bridge.EngineError
	if errors.As(err, &ee) {
		switch ee.Status {
		case bridge.StatusUnsupported:
			return &core.BackendError{Kind: core.BackendUnsupported, Backend: b.ID(), Err: ee}
		case bridge.StatusIoFailure:
			return core.IoFailure(b.ID(), ee)
		default:
			return core.ParseFailure(b.ID(), ee)
		}
	}
	return core.ParseFailure(b.ID(), err)
}
