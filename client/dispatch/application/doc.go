// Package application contém os casos de uso (regras de aplicação) para a
// admissão de Tasks: adquirir vaga no orçamento de concorrência e esperar a
// vez na janela de rate.
//
// Ele depende apenas do pacote domain e não conhece net/http nem goroutines
// do dispatcher. Ex.: Admitter.Admit(ctx) retorna (release, ok).
package application
