// Package application contém os casos de uso do rate limit (decisão de
// admissão por janela compartilhada ou token-bucket local) sem net/http.
package application
