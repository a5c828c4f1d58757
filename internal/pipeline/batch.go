package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/warcscan/internal/aggregate"
	"github.com/nao1215/warcscan/internal/model"
	"github.com/nao1215/warcscan/internal/sampler"
	"github.com/nao1215/warcscan/internal/warc"
)

// DefaultConcurrency is the number of archives analyzed at once in batch
// mode.
const DefaultConcurrency = 4

// SourceFactory opens the record source of one archive.
type SourceFactory func(path string) (model.RecordSource, error)

// BatchProcessor analyzes several archives concurrently, one shard per
// archive, and merges the shards into a single report.
//
// Shard i uses seed base+i, and shards are merged in archive order once all
// of them finished, so the report depends only on the seed and the input,
// never on scheduling. The sample cap applies per archive.
type BatchProcessor struct {
	runner      *Runner
	open        SourceFactory
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of archives analyzed at once.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithSourceFactory replaces how archives are opened.
func WithSourceFactory(open SourceFactory) BatchOption {
	return func(b *BatchProcessor) {
		b.open = open
	}
}

// NewBatchProcessor creates a BatchProcessor whose shards are configured
// like runner.
func NewBatchProcessor(runner *Runner, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		runner:      runner,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	if bp.open == nil {
		bp.open = func(path string) (model.RecordSource, error) {
			return warc.NewMultiSource([]string{path}, warc.WithReaderLogger(bp.logger)), nil
		}
	}

	return bp
}

// Process analyzes the archives at paths and returns the merged report.
// An unreadable archive fails the whole batch.
func (bp *BatchProcessor) Process(ctx context.Context, paths []string) (*model.Report, error) {
	base := bp.runner.Seed()
	report := model.NewReport(base, append([]string(nil), paths...))

	bp.logger.Info("starting batch processing",
		"run_id", report.RunID,
		"archives", len(paths),
		"concurrency", bp.concurrency,
		"seed", base,
	)

	startTime := time.Now()

	// Pre-allocated so that results keep archive order.
	shards := make([]*shard, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			bp.logger.Info("analyzing archive",
				"archive", path,
				"index", i+1,
				"total", len(paths),
			)

			src, err := bp.open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			if c, ok := src.(io.Closer); ok {
				defer c.Close() //nolint:errcheck // read-only archive
			}

			s, err := bp.runner.runShard(ctx, src, base+uint64(i))
			if err != nil {
				return fmt.Errorf("failed to analyze %s: %w", path, err)
			}
			shards[i] = s

			bp.logger.Info("archive complete",
				"archive", path,
				"records", s.aggregator.RecordsSeen(),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := mergeShards(base, shards)
	merged.fill(report)
	report.FinishedAt = time.Now()

	bp.logger.Info("batch processing complete",
		"archives", len(paths),
		"records", report.RecordsSeen,
		"elapsed", time.Since(startTime),
	)
	return report, nil
}

// mergeShards combines shards in index order.
func mergeShards(seed uint64, shards []*shard) *shard {
	merged := &shard{aggregator: aggregate.New()}
	sets := make([]*sampler.Set, 0, len(shards))
	for _, s := range shards {
		merged.aggregator.Merge(s.aggregator)
		sets = append(sets, s.examples)
	}
	merged.examples = sampler.MergeSets(seed, sets...)
	return merged
}
