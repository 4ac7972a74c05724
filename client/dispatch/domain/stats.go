package domain

import (
	"context"
	"time"
)

// Phase identifica o momento do ciclo de vida de uma Task observado.
type Phase string

const (
	PhaseSubmitted Phase = "submitted"
	PhaseStarted   Phase = "started"
	PhaseDone      Phase = "done"
)

// StatsEvent representa um evento do ciclo de vida do despacho.
//
// Ele é propositalmente agnóstico de transporte: o dispatcher não sabe se a
// Task era HTTP, gRPC ou outra coisa.
type StatsEvent struct {
	Phase Phase

	// Failed só é significativo em PhaseDone.
	Failed bool

	// Medições no instante do evento, para gauges.
	Queued   int
	InFlight int

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do despacho.
//
// Implementações podem armazenar em Redis, memória, etc.
// O dispatcher trata erro como best-effort (não derruba a Task).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
