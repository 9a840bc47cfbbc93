// Package sinks holds progress.Sink implementations.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"doubanlink/internal/progress"
)

// LogSink emits structured logs for progress streams. It is the default
// sink; a linking run is short enough that a log line per entry is cheap.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs the event using structured fields.
func (s *LogSink) Consume(_ context.Context, evt progress.Event) error {
	switch evt.Stage {
	case progress.StageRunStarted:
		s.logger.Info("run started",
			zap.String("run_id", evt.RunUUID().String()),
			zap.Int("total", evt.Total),
		)
	case progress.StageRunFinished:
		s.logger.Info("run finished",
			zap.String("run_id", evt.RunUUID().String()),
			zap.Int("total", evt.Total),
			zap.Int("matched", evt.Matched),
			zap.Duration("elapsed", evt.Elapsed),
		)
	default:
		fields := []zap.Field{
			zap.String("run_id", evt.RunUUID().String()),
			zap.Int("rank", evt.Rank),
			zap.String("title", evt.Title),
			zap.String("outcome", string(evt.Outcome)),
		}
		if evt.Tier != "" {
			fields = append(fields, zap.String("tier", evt.Tier))
		}
		if evt.TMDBID != 0 {
			fields = append(fields, zap.Int64("tmdb_id", evt.TMDBID))
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		s.logger.Info("entry resolved", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
