package infra

import (
	"context"

	"matrix-client/client/dispatch/domain"
)

// chanPool é o semáforo do orçamento de concorrência: cada Task em voo
// ocupa uma vaga do channel.
type chanPool struct {
	sem chan struct{}
}

// NewChanPool cria o pool com capacidade `max` (vagas simultâneas).
func NewChanPool(max int) domain.SlotPool {
	if max < 1 {
		max = 1
	}
	return &chanPool{sem: make(chan struct{}, max)}
}

func (p *chanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}

// Len devolve quantas vagas estão ocupadas agora (introspecção; aparece em
// dispatch.Snapshot como SlotsBusy).
func (p *chanPool) Len() int { return len(p.sem) }

// Cap devolve a capacidade total do pool.
func (p *chanPool) Cap() int { return cap(p.sem) }
