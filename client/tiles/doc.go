// Package tiles cuida da contabilidade do grid paginado: cache de tiles
// (fatias página-a-página de uma matriz documentos × perguntas), índice
// entidade→tiles e invalidação por conjunto de entidades alteradas.
//
// É o consumidor típico do contrato da fila de despacho: os helpers de
// mutação (reprocessar, deletar, atualizar label) emitem a chamada pela fila
// e, no sucesso, derrubam do cache exatamente as páginas que referenciam as
// entidades alteradas — as demais permanecem válidas.
package tiles
