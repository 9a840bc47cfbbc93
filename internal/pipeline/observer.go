package pipeline

import (
	"go.uber.org/zap"

	"doubanlink/internal/resolve"
)

// candidateLogLimit bounds per-query diagnostics; the first few results are
// what a human checks when a match looks wrong.
const candidateLogLimit = 3

// CandidateLogger logs the leading candidates the resolver saw for a
// query. It implements resolve.Observer.
type CandidateLogger struct {
	logger *zap.Logger
}

// NewCandidateLogger builds an observer on the given logger.
func NewCandidateLogger(logger *zap.Logger) *CandidateLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CandidateLogger{logger: logger}
}

// ObserveCandidates writes one debug line per leading candidate.
func (l *CandidateLogger) ObserveCandidates(q resolve.Query, candidates []resolve.Candidate) {
	limit := len(candidates)
	if limit > candidateLogLimit {
		limit = candidateLogLimit
	}
	for i := 0; i < limit; i++ {
		c := candidates[i]
		l.logger.Debug("candidate",
			zap.String("query", q.NativeTitle),
			zap.Int("position", i+1),
			zap.Int64("id", c.ID),
			zap.String("title", c.Title),
			zap.String("original_title", c.OriginalTitle),
			zap.String("year", c.ReleaseYear),
		)
	}
}
