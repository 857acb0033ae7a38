package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/de-tools/report-export/pkg/export"
	"github.com/de-tools/report-export/pkg/models/domain"
	"github.com/de-tools/report-export/pkg/sink"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 3

// Runner exports one report into several formats and delivers each
// artifact to a sink.
type Runner struct {
	producer export.Producer
	sink     sink.Sink
	configs  []domain.RenderConfiguration
	done     chan struct{}
	progress chan RunnerProgress
	config   RunnerConfig
}

type RunnerConfig struct {
	Concurrency int
}

type RunnerProgress struct {
	Completed int
	Total     int
	Format    domain.Format
	Location  string
	Elapsed   time.Duration
}

func NewRunner(producer export.Producer, target sink.Sink, configs []domain.RenderConfiguration, config RunnerConfig) *Runner {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	return &Runner{
		producer: producer,
		sink:     target,
		configs:  configs,
		done:     make(chan struct{}),
		progress: make(chan RunnerProgress, len(configs)),
		config:   config,
	}
}

func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Progress receives one update per delivered artifact. It is closed when
// Run returns.
func (r *Runner) Progress() <-chan RunnerProgress {
	return r.progress
}

// Run produces every configured format. Locations are returned in the
// order of the configurations. The first failure cancels the remaining
// exports.
func (r *Runner) Run(ctx context.Context, report *domain.TabularReport) ([]string, error) {
	defer close(r.done)
	defer close(r.progress)

	logger := zerolog.Ctx(ctx)
	locations := make([]string, len(r.configs))

	var (
		mu        sync.Mutex
		completed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)

	for i, cfg := range r.configs {
		g.Go(func() error {
			start := time.Now()

			artifact, err := r.producer.Produce(gctx, report, cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", cfg.Format, err)
			}
			location, err := r.sink.Deliver(gctx, artifact)
			if err != nil {
				return fmt.Errorf("%s: %w", cfg.Format, err)
			}
			locations[i] = location

			mu.Lock()
			defer mu.Unlock()
			completed++
			r.progress <- RunnerProgress{
				Completed: completed,
				Total:     len(r.configs),
				Format:    cfg.Format,
				Location:  location,
				Elapsed:   time.Since(start),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("batch export failed")
		return nil, err
	}

	logger.Debug().Int("artifacts", len(locations)).Msg("batch export finished")
	return locations, nil
}
