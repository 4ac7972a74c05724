package domain

import "time"

// StartPacer decide se uma Task pode *iniciar* agora, respeitando o teto de
// inícios por janela de tempo.
//
// Observação: a implementação pode ser janela deslizante estrita (log de
// timestamps) ou token-bucket conservador. A camada de infra oferece as duas;
// elas diferem na borda da janela.
type StartPacer interface {
	// Reserve tenta registrar um início em now. Se não há vaga na janela,
	// retorna ok=false e o atraso mínimo até a próxima vaga.
	//
	// Uma reserva concedida é definitiva: o chamador deve iniciar a Task.
	Reserve(now time.Time) (ok bool, wait time.Duration)
}
