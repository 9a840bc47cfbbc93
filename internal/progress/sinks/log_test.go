package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"doubanlink/internal/progress"
)

func TestLogSinkFieldsPerStage(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))
	runID := progress.UUIDToBytes(uuid.New())
	now := time.Now().UTC()

	require.NoError(t, sink.Consume(context.Background(), progress.Event{
		RunID: runID, TS: now, Stage: progress.StageRunStarted, Total: 250,
	}))
	require.NoError(t, sink.Consume(context.Background(), progress.Event{
		RunID: runID, TS: now, Stage: progress.StageEntryResolved,
		Rank: 2, Title: "霸王别姬", Outcome: progress.OutcomeMatched,
		Tier: "exact_title_year", TMDBID: 10997,
	}))
	require.NoError(t, sink.Consume(context.Background(), progress.Event{
		RunID: runID, TS: now, Stage: progress.StageRunFinished,
		Total: 250, Matched: 248, Elapsed: time.Minute,
	}))

	entries := logs.All()
	require.Len(t, entries, 3)
	require.Equal(t, "run started", entries[0].Message)
	require.Equal(t, "entry resolved", entries[1].Message)
	require.Equal(t, "run finished", entries[2].Message)

	fields := entries[1].ContextMap()
	require.Equal(t, "霸王别姬", fields["title"])
	require.Equal(t, "matched", fields["outcome"])
	require.Equal(t, int64(10997), fields["tmdb_id"])
}

func TestLogSinkSkipsEmptyMatchFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))

	require.NoError(t, sink.Consume(context.Background(), progress.Event{
		RunID: progress.UUIDToBytes(uuid.New()), TS: time.Now(),
		Stage: progress.StageEntryResolved,
		Rank:  9, Title: "某片", Outcome: progress.OutcomeUnmatched,
	}))

	fields := logs.All()[0].ContextMap()
	require.NotContains(t, fields, "tier")
	require.NotContains(t, fields, "tmdb_id")
	require.NotContains(t, fields, "note")
}

func TestNewLogSinkNilLogger(t *testing.T) {
	t.Parallel()

	sink := NewLogSink(nil)
	require.NoError(t, sink.Consume(context.Background(), progress.Event{Stage: progress.StageRunStarted}))
	require.NoError(t, sink.Close(context.Background()))
}
