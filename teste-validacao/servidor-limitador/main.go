package main

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Servidor de validação: simula o backend com limite rígido de 10 req/s
// (janela fixa). Aponte o loadgen para cá; com a fila na frente, nenhuma
// resposta 429 deve aparecer.
func main() {
	const limite = 10

	var (
		mu     sync.Mutex
		inicio time.Time
		conta  int
	)

	http.HandleFunc("/celulas", func(w http.ResponseWriter, r *http.Request) {
		agora := time.Now()

		mu.Lock()
		if agora.Sub(inicio) >= time.Second {
			inicio = agora
			conta = 0
		}
		conta++
		c := conta
		mu.Unlock()

		if c > limite {
			fmt.Printf("Log: estourou o limite (%d na janela), devolvendo 429\n", c)
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintln(w, "rate limit exceeded")
			return
		}
		fmt.Fprintln(w, "ok")
	})

	fmt.Println("Servidor limitador rodando em http://localhost:8081/celulas (10 req/s)")
	err := http.ListenAndServe(":8081", nil)
	if err != nil {
		fmt.Printf("Erro ao subir o servidor: %s\n", err)
	}
}
