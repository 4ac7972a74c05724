package dispatch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type failingRoundTripper struct {
	err error
}

func (f failingRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, f.err
}

func TestTransport_RoutesThroughQueue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "celula")
	}))
	defer srv.Close()

	q := New(Options{Concurrency: 4, Pacer: openPacer{}})
	defer q.Close()

	client := &http.Client{Transport: &Transport{Queue: q}}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if string(body) != "celula" {
		t.Fatalf("expected upstream body, got %q", body)
	}
	if snap := q.Snapshot(); snap.Started != 1 || snap.Succeeded != 1 {
		t.Fatalf("expected the request to go through the queue, snapshot=%+v", snap)
	}
}

func TestTransport_AddsDispatchHeadersOnClone(t *testing.T) {
	headers := make(chan [2]string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- [2]string{
			r.Header.Get("X-Dispatch-Queued"),
			r.Header.Get("X-Dispatch-Wait-Ms"),
		}
	}))
	defer srv.Close()

	q := New(Options{Concurrency: 4, Pacer: openPacer{}})
	defer q.Close()

	client := &http.Client{Transport: &Transport{Queue: q, AddDispatchHeaders: true}}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = resp.Body.Close()

	got := <-headers
	if got[0] == "" || got[1] == "" {
		t.Fatalf("expected dispatch headers, got queued=%q wait=%q", got[0], got[1])
	}
	// a requisição original não pode ser mutada (contrato de RoundTripper).
	if req.Header.Get("X-Dispatch-Queued") != "" {
		t.Fatalf("original request was mutated")
	}
}

func TestTransport_PassesBaseErrorVerbatim(t *testing.T) {
	q := New(Options{Concurrency: 2, Pacer: openPacer{}})
	defer q.Close()

	sentinel := errors.New("conexão recusada")
	client := &http.Client{Transport: &Transport{
		Base:  failingRoundTripper{err: sentinel},
		Queue: q,
	}}

	_, err := client.Get("http://matriz.invalid/")
	if err == nil {
		t.Fatalf("expected error")
	}
	// http.Client embrulha em *url.Error; o erro da base tem de estar na cadeia.
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected the base error in the chain, got %v", err)
	}
}

func TestTransport_HonorsRequestContextWhileQueued(t *testing.T) {
	// janela de 1 início por hora: a primeira requisição gasta a vaga e a
	// segunda fica presa na fila.
	q := New(Options{Concurrency: 2, IntervalCap: 1, Interval: time.Hour})
	defer q.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	_ = q.Submit(context.Background(), func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	})
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatalf("timeout waiting the blocker to start")
	}
	defer close(release)

	tr := &Transport{
		Queue: q,
		Base:  failingRoundTripper{err: errors.New("não deve rodar")},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://matriz.invalid/", nil)

	done := make(chan error, 1)
	go func() {
		_, err := tr.RoundTrip(req)
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected the request context error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("RoundTrip stayed blocked after the request context expired")
	}
}

func TestTransport_NilQueueIsPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	client := &http.Client{Transport: &Transport{}, Timeout: 2 * time.Second}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
