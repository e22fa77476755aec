// Package batch fans a set of documents out over the extraction pipeline
// and collects per-document outcomes in input order.
package batch

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/textsift/textsift/internal/core"
	"github.com/textsift/textsift/internal/core/coordinator"
)

// Item is one document's outcome. Exactly one of Result and Err is set.
type Item struct {
	Ref    core.DocumentRef
	Result *core.ExtractionResult
	Err    error
}

type Scheduler struct {
	coord  *coordinator.Coordinator
	logger *zap.Logger
}

func NewScheduler(coord *coordinator.Coordinator, logger *zap.Logger) *Scheduler {
	return &Scheduler{coord: coord, logger: logger}
}

// ExtractMany runs every ref through the pipeline and returns one Item
// per ref, in the same order. A failed document never cancels its
// siblings; only ctx cancellation stops the batch, and then the not-yet-
// started documents report cancellation too.
func (s *Scheduler) ExtractMany(ctx context.Context, refs []core.DocumentRef, cfg core.ExtractionConfig) []Item {
	items := make([]Item, len(refs))
	for i, ref := range refs {
		items[i].Ref = ref
	}
	if len(refs) == 0 {
		return items
	}

	if !cfg.EnableParallel || len(refs) == 1 {
		for i, ref := range refs {
			items[i].Result, items[i].Err = s.extractOne(ctx, ref, cfg)
		}
		return items
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// A plain group, not WithContext: sibling isolation means a failing
	// document must not tear down the rest of the batch.
	var g errgroup.Group
	g.SetLimit(workers)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			items[i].Result, items[i].Err = s.extractOne(ctx, ref, cfg)
			return nil
		})
	}
	g.Wait()
	return items
}

// extractOne isolates a single document, including any panic a parser
// throws on hostile input.
func (s *Scheduler) extractOne(ctx context.Context, ref core.DocumentRef, cfg core.ExtractionConfig) (res *core.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("extraction panicked",
				zap.String("ref", ref.String()),
				zap.Any("panic", r))
			res = nil
			err = fmt.Errorf("extraction panicked: %v", r)
		}
	}()
	return s.coord.Extract(ctx, ref, cfg)
}
