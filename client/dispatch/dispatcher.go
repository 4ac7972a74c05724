package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"matrix-client/client/dispatch/application"
	"matrix-client/client/dispatch/domain"
	"matrix-client/client/dispatch/infra"
)

var (
	// ErrClosed é entregue a submissões feitas depois de Close.
	ErrClosed = errors.New("dispatch: fila fechada")
	// ErrShutdown é entregue a Tasks ainda na fila quando o Shutdown expira.
	ErrShutdown = errors.New("dispatch: fila encerrada antes da task iniciar")
)

// Padrões calibrados para o limite publicado do backend (10 req/s):
// 9 inícios por segundo deixa margem de um request para efeitos de borda.
const (
	DefaultConcurrency = 50
	DefaultIntervalCap = 9
	DefaultInterval    = 1000 * time.Millisecond
)

type Options struct {
	// Concurrency é o teto de Tasks simultâneas em voo. <= 0 usa o padrão.
	Concurrency int
	// IntervalCap é o teto de inícios por janela. <= 0 usa o padrão.
	IntervalCap int
	// Interval é o tamanho da janela de rate. <= 0 usa o padrão.
	Interval time.Duration

	// Pacer substitui o pacer padrão (WindowPacer estrito com
	// IntervalCap/Interval). Útil para trocar por BucketPacer.
	Pacer domain.StartPacer
	// Pool substitui o orçamento de concorrência padrão (ChanPool).
	Pool domain.SlotPool
	// Stats, se definido, recebe eventos do ciclo de vida (best-effort).
	Stats domain.StatsStore
}

type pending struct {
	ctx  context.Context
	task domain.Task
	out  chan domain.Outcome
}

// Dispatcher é a fila de despacho. Construa uma única instância no bootstrap
// do cliente e injete-a explicitamente nos call sites — nada aqui é global.
type Dispatcher struct {
	admit application.Admitter
	pool  domain.SlotPool
	stats domain.StatsStore

	mu     sync.Mutex
	queue  []*pending
	closed bool
	wake   chan struct{}

	loopCtx    context.Context
	loopCancel context.CancelFunc
	loopDone   chan struct{}
	running    sync.WaitGroup

	inFlight  atomic.Int64
	submitted atomic.Int64
	started   atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// New cria o dispatcher e inicia o scheduler. A configuração é fixa após a
// construção.
func New(opts Options) *Dispatcher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.IntervalCap <= 0 {
		opts.IntervalCap = DefaultIntervalCap
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Pacer == nil {
		opts.Pacer = infra.NewWindowPacer(opts.IntervalCap, opts.Interval)
	}
	if opts.Pool == nil {
		opts.Pool = infra.NewChanPool(opts.Concurrency)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		admit:      application.Admitter{Pool: opts.Pool, Pacer: opts.Pacer},
		pool:       opts.Pool,
		stats:      opts.Stats,
		wake:       make(chan struct{}, 1),
		loopCtx:    ctx,
		loopCancel: cancel,
		loopDone:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Submit enfileira a Task sem bloquear e devolve o canal (buffer 1) que
// receberá o Outcome exatamente uma vez: o resultado ou o erro da própria
// Task, intactos. O ctx é repassado ao corpo da Task quando ela rodar; a
// fila em si não observa o ctx (não há retirada de Task enfileirada).
func (d *Dispatcher) Submit(ctx context.Context, task domain.Task) <-chan domain.Outcome {
	out := make(chan domain.Outcome, 1)
	p := &pending{ctx: ctx, task: task, out: out}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		out <- domain.Outcome{Err: ErrClosed}
		return out
	}
	d.queue = append(d.queue, p)
	queued := len(d.queue)
	d.mu.Unlock()

	d.submitted.Add(1)
	d.record(ctx, domain.StatsEvent{Phase: domain.PhaseSubmitted, Queued: queued})

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return out
}

// Do é a conveniência bloqueante sobre Submit. Se o ctx encerrar antes do
// Outcome chegar, Do desiste da espera (a Task não é retirada da fila; ela
// rodará com o ctx já cancelado e descartará o resultado no buffer).
func (d *Dispatcher) Do(ctx context.Context, task domain.Task) (any, error) {
	out := d.Submit(ctx, task)
	select {
	case o := <-out:
		return o.Value, o.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close fecha a fila para novas submissões. As Tasks já enfileiradas ainda
// serão despachadas normalmente.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Shutdown fecha a fila e espera o dreno: fila vazia e Tasks em voo
// terminadas. Se o ctx expirar antes, as Tasks ainda na fila recebem
// ErrShutdown (entrega exatamente-uma-vez preservada) e as em voo seguem
// rodando até terminarem sozinhas.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.Close()

	drained := make(chan struct{})
	go func() {
		<-d.loopDone
		d.running.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		d.loopCancel()
		<-d.loopDone
		return ctx.Err()
	}
}

// Snapshot são os contadores correntes da fila (introspecção).
type Snapshot struct {
	Queued   int
	InFlight int
	// SlotsBusy é a ocupação do pool de concorrência, quando o pool expõe
	// Len (pode passar de InFlight em 1: o scheduler segura a vaga da
	// próxima Task enquanto espera a janela).
	SlotsBusy int

	Submitted int64
	Started   int64
	Succeeded int64
	Failed    int64
}

type poolLen interface {
	Len() int
}

// Snapshot devolve os contadores correntes.
func (d *Dispatcher) Snapshot() Snapshot {
	d.mu.Lock()
	queued := len(d.queue)
	d.mu.Unlock()

	slotsBusy := 0
	if pl, ok := d.pool.(poolLen); ok {
		slotsBusy = pl.Len()
	}

	return Snapshot{
		Queued:    queued,
		SlotsBusy: slotsBusy,
		InFlight:  int(d.inFlight.Load()),
		Submitted: d.submitted.Load(),
		Started:   d.started.Load(),
		Succeeded: d.succeeded.Load(),
		Failed:    d.failed.Load(),
	}
}

// run é o único scheduler: tirar da fila, admitir, iniciar. Ser o único a
// chamar Admit é o que torna atômica a dupla checagem (vaga E janela).
func (d *Dispatcher) run() {
	defer close(d.loopDone)
	defer d.flushShutdown()

	for {
		p := d.next()
		if p == nil {
			return
		}

		release, ok := d.admit.Admit(d.loopCtx)
		if !ok {
			// encerramento forçado durante a espera de admissão.
			p.out <- domain.Outcome{Err: ErrShutdown}
			return
		}

		d.start(p, release)
	}
}

// next devolve a próxima Task em ordem FIFO, bloqueando quando a fila está
// vazia. Devolve nil quando não haverá mais Tasks (fila fechada e vazia, ou
// encerramento forçado).
func (d *Dispatcher) next() *pending {
	for {
		d.mu.Lock()
		if len(d.queue) > 0 {
			p := d.queue[0]
			d.queue[0] = nil
			d.queue = d.queue[1:]
			d.mu.Unlock()
			return p
		}
		closed := d.closed
		d.mu.Unlock()

		if closed {
			return nil
		}

		select {
		case <-d.wake:
		case <-d.loopCtx.Done():
			return nil
		}
	}
}

func (d *Dispatcher) start(p *pending, release func()) {
	d.started.Add(1)
	inFlight := int(d.inFlight.Add(1))
	d.record(p.ctx, domain.StatsEvent{Phase: domain.PhaseStarted, InFlight: inFlight})

	d.running.Add(1)
	go func() {
		defer d.running.Done()

		v, err := p.task(p.ctx)

		release()
		d.inFlight.Add(-1)
		if err != nil {
			d.failed.Add(1)
		} else {
			d.succeeded.Add(1)
		}
		d.record(p.ctx, domain.StatsEvent{Phase: domain.PhaseDone, Failed: err != nil})

		p.out <- domain.Outcome{Value: v, Err: err}
	}()
}

// flushShutdown entrega ErrShutdown ao que sobrou na fila após um
// encerramento forçado. Nenhuma Task é descartada em silêncio.
func (d *Dispatcher) flushShutdown() {
	d.mu.Lock()
	rest := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, p := range rest {
		p.out <- domain.Outcome{Err: ErrShutdown}
	}
}

func (d *Dispatcher) record(ctx context.Context, ev domain.StatsEvent) {
	if d.stats == nil {
		return
	}
	ev.At = time.Now()
	_ = d.stats.Record(ctx, ev)
}
