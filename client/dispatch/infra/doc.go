// Package infra contém implementações concretas (infraestrutura) para os
// contratos definidos no pacote domain.
//
// Exemplos:
//   - WindowPacer: janela deslizante estrita com log de inícios (padrão)
//   - BucketPacer: token bucket usando golang.org/x/time/rate
//   - ChanPool: semáforo simples para o orçamento de concorrência
package infra
