package infra

import (
	"testing"
	"time"
)

func TestBucketPacer_SpacesStartsEvenly(t *testing.T) {
	// 2 inícios por 100ms => um token a cada 50ms, burst 1.
	p := NewBucketPacer(2, 100*time.Millisecond)
	base := time.Now()

	ok, _ := p.Reserve(base)
	if !ok {
		t.Fatalf("expected first reserve to be granted")
	}

	ok, wait := p.Reserve(base.Add(10 * time.Millisecond))
	if ok {
		t.Fatalf("expected second immediate reserve to be denied (burst=1)")
	}
	if wait != 40*time.Millisecond {
		t.Fatalf("expected wait=40ms until the next token, got %s", wait)
	}

	if ok, _ := p.Reserve(base.Add(50 * time.Millisecond)); !ok {
		t.Fatalf("expected reserve after the token refill")
	}
}

func TestBucketPacer_WithBurstAllowsRush(t *testing.T) {
	p := NewBucketPacer(2, 100*time.Millisecond, WithBurst(2))
	base := time.Now()

	for i := 0; i < 2; i++ {
		if ok, _ := p.Reserve(base); !ok {
			t.Fatalf("expected burst reserve %d to be granted", i)
		}
	}
	if ok, _ := p.Reserve(base); ok {
		t.Fatalf("expected denial after the burst is spent")
	}
}

func TestBucketPacer_ClampsNonPositiveConfig(t *testing.T) {
	// sem clamp isto dividiria por zero no construtor.
	p := NewBucketPacer(0, 0, WithBurst(0))

	if ok, _ := p.Reserve(time.Now()); !ok {
		t.Fatalf("expected the clamped pacer to grant a start")
	}
}

func TestBucketPacer_DenialDoesNotConsumeToken(t *testing.T) {
	p := NewBucketPacer(1, 100*time.Millisecond)
	base := time.Now()

	p.Reserve(base)
	// negações repetidas não podem empurrar a próxima vaga para frente.
	p.Reserve(base.Add(10 * time.Millisecond))
	p.Reserve(base.Add(20 * time.Millisecond))

	if ok, _ := p.Reserve(base.Add(100 * time.Millisecond)); !ok {
		t.Fatalf("expected reserve exactly one interval after the first start")
	}
}
