package sinks

import (
	"context"
	"sync"

	"doubanlink/internal/progress"
)

// MemorySink retains events in memory. It backs tests and ad-hoc
// inspection of a finished run.
type MemorySink struct {
	mu     sync.Mutex
	events []progress.Event
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Consume appends the event.
func (s *MemorySink) Consume(_ context.Context, evt progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *MemorySink) Close(context.Context) error {
	return nil
}

// Events returns a copy of everything consumed so far.
func (s *MemorySink) Events() []progress.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]progress.Event(nil), s.events...)
}
