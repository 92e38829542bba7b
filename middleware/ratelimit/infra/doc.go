// Package infra contém as implementações concretas dos contratos de domain:
// contador de janela fixa no Redis (com create+expire atômico via script),
// contador em memória, token-bucket local (x/time/rate), semáforo de
// concorrência e stores de estatísticas.
package infra
