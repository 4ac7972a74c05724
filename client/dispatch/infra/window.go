package infra

import (
	"sync"
	"time"
)

// WindowPacer é um pacer de janela deslizante estrita: mantém o log dos
// inícios dentro da janela corrente e só admite um novo início quando há
// menos de `cap` inícios em qualquer janela de `interval` terminando agora.
//
// É a implementação padrão do dispatcher: um contador de janela fixa pode
// admitir até 2×cap numa janela que cruza a virada, e com cap=9 contra um
// limite rígido de 10/s no backend isso é exatamente o incidente que esta
// camada existe para evitar.
type WindowPacer struct {
	mu       sync.Mutex
	cap      int
	interval time.Duration
	starts   []time.Time
}

// NewWindowPacer cria um pacer que admite até `capacity` inícios por janela
// deslizante de `interval`. Valores não positivos sobem para o mínimo
// utilizável (1 início, 1ms) — Reserve pressupõe cap >= 1 e janela > 0.
func NewWindowPacer(capacity int, interval time.Duration) *WindowPacer {
	if capacity < 1 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &WindowPacer{cap: capacity, interval: interval}
}

func (p *WindowPacer) Cap() int                { return p.cap }
func (p *WindowPacer) Interval() time.Duration { return p.interval }

// Reserve implementa domain.StartPacer.
func (p *WindowPacer) Reserve(now time.Time) (bool, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prune(now)

	if len(p.starts) < p.cap {
		p.starts = append(p.starts, now)
		return true, 0
	}

	// a vaga mais próxima abre quando o início mais antigo sair da janela.
	wait := p.starts[0].Add(p.interval).Sub(now)
	if wait <= 0 {
		// relógio andou entre prune e aqui; trate como vaga imediata no
		// próximo Reserve.
		wait = time.Millisecond
	}
	return false, wait
}

// InWindow devolve quantos inícios estão na janela corrente (introspecção).
func (p *WindowPacer) InWindow(now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prune(now)
	return len(p.starts)
}

func (p *WindowPacer) prune(now time.Time) {
	cutoff := now.Add(-p.interval)
	i := 0
	for i < len(p.starts) && !p.starts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return
	}
	// copia para não segurar o array antigo crescendo sem limite.
	p.starts = append(p.starts[:0], p.starts[i:]...)
}
