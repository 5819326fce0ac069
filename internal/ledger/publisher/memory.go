package publisher

import (
	"context"
	"sync"

	"chariledger/internal/ledger"
)

// MemorySink collects envelopes in memory. Tests and embedded callers
// use it to assert on exactly what a call emitted.
type MemorySink struct {
	mu        sync.Mutex
	envelopes []ledger.Envelope
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Publish(_ context.Context, env ledger.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envelopes = append(s.envelopes, env)
	return nil
}

// Envelopes returns a snapshot of everything published so far.
func (s *MemorySink) Envelopes() []ledger.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.Envelope, len(s.envelopes))
	copy(out, s.envelopes)
	return out
}
