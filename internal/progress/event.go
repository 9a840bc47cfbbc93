// Package progress defines the event stream emitted while a linking run
// works through the catalog.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStarted    Stage = "RUN_STARTED"
	StageEntryResolved Stage = "ENTRY_RESOLVED"
	StageRunFinished   Stage = "RUN_FINISHED"
)

// Outcome classifies how a single catalog entry fared.
type Outcome string

// Supported entry outcomes.
const (
	OutcomeMatched   Outcome = "matched"
	OutcomeUnmatched Outcome = "unmatched"
	OutcomeFailed    Outcome = "failed"
)

// Event captures one milestone of a linking run.
type Event struct {
	// RunID uniquely identifies a run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// Rank and Title identify the catalog entry for entry events.
	Rank  int
	Title string
	// Outcome says whether the entry matched; entry events only.
	Outcome Outcome
	// Tier names the match tier for matched entries.
	Tier string
	// TMDBID carries the linked ID for matched entries.
	TMDBID int64
	// Note lets emitters attach low-volume context (e.g. error text).
	Note string
	// Total, Matched and Elapsed summarize the run on RUN_FINISHED.
	Total   int
	Matched int
	Elapsed time.Duration
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStarted, StageRunFinished:
	case StageEntryResolved:
		if e.Title == "" {
			return errors.New("entry event requires a title")
		}
		if e.Outcome == "" {
			return errors.New("entry event requires an outcome")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID for display.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
