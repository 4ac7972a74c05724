package infra

import (
	"time"

	"golang.org/x/time/rate"
)

// BucketPacer é a alternativa token-bucket (x/time/rate) ao WindowPacer.
//
// Com burst=1 (padrão) os inícios ficam espaçados uniformemente em
// interval/capacity e o teto por janela deslizante também é respeitado.
// Com burst>1 o pacer tolera rajadas, mas uma janela que cruza a recarga
// pode conter até burst inícios a mais — use apenas com folga em relação
// ao limite rígido do backend.
type BucketPacer struct {
	lim *rate.Limiter
}

type BucketOption func(*bucketConfig)

type bucketConfig struct {
	burst int
}

// WithBurst permite rajadas de até `n` inícios imediatos.
func WithBurst(n int) BucketOption {
	return func(c *bucketConfig) { c.burst = n }
}

// NewBucketPacer cria um pacer com vazão média de `capacity` inícios por
// `interval`. Valores não positivos (capacity, interval ou burst) sobem para
// o mínimo utilizável de 1.
func NewBucketPacer(capacity int, interval time.Duration, opts ...BucketOption) *BucketPacer {
	cfg := bucketConfig{burst: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if capacity < 1 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Millisecond
	}
	if cfg.burst < 1 {
		cfg.burst = 1
	}

	every := interval / time.Duration(capacity)
	return &BucketPacer{lim: rate.NewLimiter(rate.Every(every), cfg.burst)}
}

// Reserve implementa domain.StartPacer.
func (p *BucketPacer) Reserve(now time.Time) (bool, time.Duration) {
	r := p.lim.ReserveN(now, 1)
	if !r.OK() {
		// ReserveN só falha com n > burst; o construtor garante burst >= 1.
		return false, time.Second
	}
	wait := r.DelayFrom(now)
	if wait == 0 {
		return true, 0
	}
	r.CancelAt(now)
	return false, wait
}
