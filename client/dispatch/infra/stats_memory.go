package infra

import (
	"context"
	"sync"

	"matrix-client/client/dispatch/domain"
)

type Counters struct {
	Submitted int64
	Started   int64
	Succeeded int64
	Failed    int64
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu    sync.Mutex
	total Counters

	maxQueued   int
	maxInFlight int
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Phase {
	case domain.PhaseSubmitted:
		s.total.Submitted++
	case domain.PhaseStarted:
		s.total.Started++
	case domain.PhaseDone:
		if ev.Failed {
			s.total.Failed++
		} else {
			s.total.Succeeded++
		}
	}

	if ev.Queued > s.maxQueued {
		s.maxQueued = ev.Queued
	}
	if ev.InFlight > s.maxInFlight {
		s.maxInFlight = ev.InFlight
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// MaxQueued devolve o pico observado da fila.
func (s *MemoryStatsStore) MaxQueued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxQueued
}

// MaxInFlight devolve o pico observado de Tasks em voo.
func (s *MemoryStatsStore) MaxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}
