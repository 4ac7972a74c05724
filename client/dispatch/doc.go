// Package dispatch fornece o governador de requisições de saída do cliente:
// uma fila FIFO única por processo que limita o paralelismo e a taxa de
// inícios das chamadas de API, para que uma rajada de centenas de submissões
// (ex.: abrir uma matriz grande dispara centenas de fetches de células) vire
// um fluxo compatível com o limite do backend em vez de uma chuva de 429.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: caso de uso de admissão (vaga de concorrência + vez na
//     janela de rate) sem net/http
//   - infra: implementações concretas (janela deslizante, token bucket,
//     semáforo, stats), detalhes de infraestrutura
//   - dispatch (este pacote): a fila em si (Submit/Do, Close/Shutdown,
//     Snapshot) + adapter http.RoundTripper
//
// Fluxo no cliente:
//
//  1. Todo call site submete via Submit (ou usa Transport como RoundTripper)
//  2. Um único scheduler tira da fila em ordem FIFO
//  3. O scheduler só inicia a Task quando há vaga de concorrência E vez na
//     janela de rate, atomicamente
//  4. O resultado (ou erro, intacto) chega ao submissor exatamente uma vez
//
// Variáveis de ambiente do binário loadgen (cmd/loadgen) controlam o
// comportamento, como DISPATCH_CONCURRENCY, DISPATCH_INTERVAL_CAP e
// DISPATCH_INTERVAL.
package dispatch
