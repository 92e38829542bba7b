// Package ratelimit fornece os adapters HTTP (net/http) do throttling do
// gateway: rate limit por cliente e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (admissão por janela/bucket) sem net/http
//   - infra: implementações concretas (contador Redis, janela em memória,
//     token bucket, semáforo)
//   - ratelimit (este pacote): middlewares HTTP + resolução de chave/classe +
//     tradução para status/headers
//
// Fluxo no gateway:
//
//  1. Resolve (chave, classe) do cliente: subject do token (peek não
//     verificado) ou ip:<addr> + anonymous
//  2. Chama a camada application para obter a decisão
//  3. Se bloqueado, responde 429 com X-RateLimit-* e Retry-After
//  4. Se a loja compartilhada estiver fora, deixa passar (fail-open, logado)
//  5. Se permitido, chama o próximo handler
//
// O estágio roda ANTES da autenticação: cliente sem token válido também é
// throttled (por IP).
package ratelimit
