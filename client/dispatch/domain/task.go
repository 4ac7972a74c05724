package domain

import "context"

// Task é a unidade de trabalho submetida ao dispatcher: na prática, uma
// chamada de API de saída. O dispatcher não interpreta valor nem erro —
// ambos são repassados intactos ao submissor.
type Task func(ctx context.Context) (any, error)

// Outcome é o resultado entregue ao submissor, exatamente uma vez.
//
// Err é o erro da própria Task, sem embrulho — exceto quando o dispatcher
// foi encerrado antes da Task iniciar (aí Err identifica o encerramento).
type Outcome struct {
	Value any
	Err   error
}
