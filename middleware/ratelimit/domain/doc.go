// Package domain define os contratos do rate limit do gateway:
// chave/classe do cliente, tabela de limites, contador distribuído por
// janela, limiter local e persistência de estatísticas.
package domain
