// Package auth é o estágio de autenticação/autorização do pipeline:
// extrai o bearer token, valida contra a chave pública do realm (cacheada),
// materializa a Identity no contexto e fornece os gates de papel por rota.
//
// Rotas com prefixo público pulam o estágio inteiro. Provedor de identidade
// indisponível é fail-closed (401), ao contrário do rate limit.
package auth
