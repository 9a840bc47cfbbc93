package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"doubanlink/internal/resolve"
)

func TestCandidateLoggerTopThree(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	obs := NewCandidateLogger(zap.New(core))

	candidates := []resolve.Candidate{
		{ID: 1, Title: "一"},
		{ID: 2, Title: "二"},
		{ID: 3, Title: "三"},
		{ID: 4, Title: "四"},
		{ID: 5, Title: "五"},
	}
	obs.ObserveCandidates(resolve.Query{NativeTitle: "某片"}, candidates)

	entries := logs.All()
	require.Len(t, entries, 3)
	first := entries[0].ContextMap()
	require.Equal(t, "某片", first["query"])
	require.Equal(t, int64(1), first["position"])
	require.Equal(t, "一", first["title"])
}

func TestCandidateLoggerEmpty(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	obs := NewCandidateLogger(zap.New(core))

	obs.ObserveCandidates(resolve.Query{NativeTitle: "某片"}, nil)
	require.Empty(t, logs.All())
}

func TestNewCandidateLoggerNilLogger(t *testing.T) {
	t.Parallel()

	obs := NewCandidateLogger(nil)
	obs.ObserveCandidates(resolve.Query{}, []resolve.Candidate{{ID: 1}})
}
