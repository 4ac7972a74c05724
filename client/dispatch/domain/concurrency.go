package domain

import "context"

// SlotPool representa o orçamento de concorrência: um recurso com capacidade
// finita de Tasks simultâneas em voo.
//
// A semântica é: Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar.
// Ao adquirir, retorna uma função de release que deve ser chamada exatamente
// uma vez, quando a Task terminar (sucesso ou falha).
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
