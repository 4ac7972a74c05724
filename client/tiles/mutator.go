package tiles

import (
	"context"

	"matrix-client/client/dispatch"
	"matrix-client/client/dispatch/domain"
)

// Mutator é o helper dos call sites de mutação (reprocessar, deletar,
// atualizar label): emite a chamada pela fila de despacho e, somente no
// sucesso, invalida os tiles que referenciam as entidades alteradas.
//
// Ele não sabe nada sobre o payload da mutação, apenas orquestra
// fila → invalidação.
type Mutator struct {
	Queue *dispatch.Dispatcher
	Cache Cache
}

// Apply roda a mutação e devolve o resultado dela, as chaves de tile
// derrubadas e o erro — o da própria mutação, intacto, ou o da invalidação.
//   - Queue nil: a mutação roda inline (sem governo de rate).
//   - Cache nil ou changed vazio: nada é invalidado.
//
// Uma mutação que falha não toca o cache: os tiles continuam válidos.
func (m Mutator) Apply(ctx context.Context, op domain.Task, changed ...string) (any, []Key, error) {
	var (
		v   any
		err error
	)
	if m.Queue != nil {
		v, err = m.Queue.Do(ctx, op)
	} else {
		v, err = op(ctx)
	}
	if err != nil {
		return nil, nil, err
	}

	if m.Cache == nil || len(changed) == 0 {
		return v, nil, nil
	}
	keys, err := m.Cache.InvalidateEntities(ctx, changed...)
	if err != nil {
		return v, nil, err
	}
	return v, keys, nil
}
