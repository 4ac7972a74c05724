package application

import (
	"context"
	"time"

	"matrix-client/client/dispatch/domain"
)

// Admitter concentra a regra de elegibilidade de início de uma Task:
// vaga de concorrência E vaga na janela de rate, nessa ordem.
//
// Ele não sabe nada sobre a fila nem sobre o transporte, apenas decide
// quando o próximo início pode acontecer. Deve ser chamado por um único
// scheduler por vez: é isso que torna a checagem dupla atômica.
type Admitter struct {
	Pool  domain.SlotPool
	Pacer domain.StartPacer
}

// Admit bloqueia até a Task poder iniciar agora, ou até o ctx encerrar.
//   - Pool nil: concorrência ilimitada.
//   - Pacer nil: sem limite de rate.
//
// Retorna (release, ok). Se ok=false, nada foi adquirido e nenhum início
// foi registrado na janela. Se ok=true, release deve ser chamado exatamente
// uma vez ao término da Task.
func (a Admitter) Admit(ctx context.Context) (func(), bool) {
	release := func() {}

	if a.Pool != nil {
		r, ok := a.Pool.Acquire(ctx)
		if !ok {
			return nil, false
		}
		release = r
	}

	if a.Pacer == nil {
		return release, true
	}

	for {
		ok, wait := a.Pacer.Reserve(time.Now())
		if ok {
			return release, true
		}
		// segura a vaga de concorrência enquanto espera a janela:
		// no instante do início as duas condições valem juntas.
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			release()
			return nil, false
		case <-t.C:
		}
	}
}
