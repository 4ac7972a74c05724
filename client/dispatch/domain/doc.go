// Package domain define contratos e tipos de domínio para o despacho de
// requisições de saída (fila, pacing e orçamento de concorrência).
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar a política de
// despacho de detalhes de infraestrutura.
package domain
