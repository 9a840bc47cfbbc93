// Package pipeline drives a linking run: it walks the catalog in chart
// order, resolves every entry against the movie database, and reports how
// the run went.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"doubanlink/internal/catalog"
	"doubanlink/internal/progress"
	"doubanlink/internal/resolve"
)

// Clock abstracts time.Now so tests can pin timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator mints run identifiers.
type IDGenerator interface {
	NewRawID() (uuid.UUID, error)
}

// Resolver links one catalog entry to a movie ID.
type Resolver interface {
	Resolve(ctx context.Context, q resolve.Query) (resolve.Match, error)
}

// Config governs the driver.
type Config struct {
	// EntryDelay spaces successive entry lookups to stay inside the
	// provider's rate limits.
	EntryDelay time.Duration
}

// Report summarizes a finished run.
type Report struct {
	Total   int
	Matched int
	// Failed counts entries whose lookups errored; they are also listed
	// in Unmatched so the miss file stays complete.
	Failed    int
	Unmatched []string
	Elapsed   time.Duration
}

// MatchRate returns the matched share in percent.
func (r Report) MatchRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Matched) / float64(r.Total) * 100
}

// Driver runs the linking stage over a catalog.
type Driver struct {
	cfg      Config
	resolver Resolver
	emitter  progress.Emitter
	clock    Clock
	ids      IDGenerator
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewDriver wires a driver. emitter may be nil when nobody listens.
func NewDriver(cfg Config, resolver Resolver, emitter progress.Emitter, clock Clock, ids IDGenerator, logger *zap.Logger) *Driver {
	var limiter *rate.Limiter
	if cfg.EntryDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.EntryDelay), 1)
	}
	return &Driver{
		cfg:      cfg,
		resolver: resolver,
		emitter:  emitter,
		clock:    clock,
		ids:      ids,
		limiter:  limiter,
		logger:   logger,
	}
}

// Run resolves every movie in order and returns a copy of the catalog with
// linked IDs filled in. A lookup that errors is logged, counted as failed,
// and recorded as a miss; the run keeps going. Only pacing interruption or
// a canceled context abort the run.
func (d *Driver) Run(ctx context.Context, movies []catalog.Movie) ([]catalog.Movie, Report, error) {
	if len(movies) == 0 {
		return nil, Report{}, errors.New("empty catalog")
	}

	rawID, err := d.ids.NewRawID()
	if err != nil {
		return nil, Report{}, fmt.Errorf("mint run id: %w", err)
	}
	runID := progress.UUIDToBytes(rawID)
	start := d.clock.Now()

	d.logger.Info("linking run started",
		zap.String("run_id", rawID.String()),
		zap.Int("movies", len(movies)),
	)
	d.emit(progress.Event{RunID: runID, TS: start, Stage: progress.StageRunStarted, Total: len(movies)})

	linked := append([]catalog.Movie(nil), movies...)
	report := Report{Total: len(movies)}
	for i := range linked {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return nil, Report{}, fmt.Errorf("entry pacing: %w", err)
			}
		}
		movie := &linked[i]
		report = d.resolveEntry(ctx, runID, movie, report)
		if ctx.Err() != nil {
			return nil, Report{}, fmt.Errorf("linking run aborted: %w", ctx.Err())
		}
	}

	report.Elapsed = d.clock.Now().Sub(start)
	d.logger.Info("linking run finished",
		zap.String("run_id", rawID.String()),
		zap.Int("matched", report.Matched),
		zap.Int("failed", report.Failed),
		zap.Int("total", report.Total),
		zap.Duration("elapsed", report.Elapsed),
	)
	d.emit(progress.Event{
		RunID:   runID,
		TS:      d.clock.Now(),
		Stage:   progress.StageRunFinished,
		Total:   report.Total,
		Matched: report.Matched,
		Elapsed: report.Elapsed,
	})
	return linked, report, nil
}

func (d *Driver) resolveEntry(ctx context.Context, runID [16]byte, movie *catalog.Movie, report Report) Report {
	match, err := d.resolver.Resolve(ctx, resolve.Query{
		NativeTitle:  movie.TitleCN,
		ForeignTitle: movie.TitleEN,
		Year:         movie.Year,
	})

	evt := progress.Event{
		RunID: runID,
		TS:    d.clock.Now(),
		Stage: progress.StageEntryResolved,
		Rank:  movie.Rank,
		Title: movie.TitleCN,
	}
	switch {
	case err != nil:
		report.Failed++
		report.Unmatched = append(report.Unmatched, movie.Describe())
		evt.Outcome = progress.OutcomeFailed
		evt.Note = err.Error()
		d.logger.Warn("entry lookup failed",
			zap.Int("rank", movie.Rank),
			zap.String("title", movie.TitleCN),
			zap.Error(err),
		)
	case match.Matched:
		movie.TMDBID = match.ID
		report.Matched++
		evt.Outcome = progress.OutcomeMatched
		evt.Tier = match.Tier.String()
		evt.TMDBID = match.ID
		d.logger.Info("entry matched",
			zap.Int("rank", movie.Rank),
			zap.String("title", movie.TitleCN),
			zap.Int64("tmdb_id", match.ID),
			zap.String("tier", match.Tier.String()),
		)
	default:
		report.Unmatched = append(report.Unmatched, movie.Describe())
		evt.Outcome = progress.OutcomeUnmatched
		d.logger.Info("entry unmatched",
			zap.Int("rank", movie.Rank),
			zap.String("title", movie.TitleCN),
		)
	}
	d.emit(evt)
	return report
}

func (d *Driver) emit(evt progress.Event) {
	if d.emitter == nil {
		return
	}
	d.emitter.Emit(evt)
}
