package dispatch

import (
	"context"
	"net/http"
	"time"
)

// Transport é o adapter http.RoundTripper: toda requisição feita por um
// http.Client com este transport passa pela fila. É o jeito sancionado de
// os call sites do cliente emitirem chamadas de rede — o ponto único onde o
// governo de concorrência/rate é aplicado.
type Transport struct {
	// Base é o RoundTripper real. nil usa http.DefaultTransport.
	Base http.RoundTripper
	// Queue é a fila de despacho. nil desliga o governo (passthrough).
	Queue *Dispatcher
	// AddDispatchHeaders anexa headers de debug à requisição de saída
	// (X-Dispatch-Queued, X-Dispatch-Wait-Ms). A requisição é clonada
	// antes, como exige o contrato de RoundTripper.
	AddDispatchHeaders bool
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip bloqueia até a vez da requisição na fila e repassa o resultado
// (ou erro) do transport base, intactos. Se o ctx da requisição encerrar
// antes da vez dela chegar, RoundTrip devolve o erro do ctx na hora.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Queue == nil {
		return t.base().RoundTrip(req)
	}

	enqueued := time.Now()
	out := t.Queue.Submit(req.Context(), func(ctx context.Context) (any, error) {
		r := req
		if t.AddDispatchHeaders {
			r = req.Clone(ctx)
			snap := t.Queue.Snapshot()
			r.Header.Set("X-Dispatch-Queued", formatInt(snap.Queued))
			r.Header.Set("X-Dispatch-Wait-Ms", formatInt64(time.Since(enqueued).Milliseconds()))
		}
		return t.base().RoundTrip(r)
	})

	select {
	case o := <-out:
		if o.Err != nil {
			return nil, o.Err
		}
		return o.Value.(*http.Response), nil
	case <-req.Context().Done():
		// mesmo contrato de Do: desiste da espera quando o ctx encerra.
		// A task não é retirada da fila; ela rodará com o ctx já cancelado
		// e descartará o resultado no buffer.
		return nil, req.Context().Err()
	}
}
