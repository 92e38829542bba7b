package requestlog

import (
	"context"
	"time"
)

// Info é o estado por request compartilhado entre os estágios do pipeline.
// Criado na entrada, mutado pelos estágios na ordem (auth preenche UserID) e
// descartado quando a resposta sai. Nunca cruza requests.
type Info struct {
	ID       string
	Start    time.Time
	ClientIP string

	// UserID é preenchido pelo estágio de auth após verificação do token.
	// Vazio até lá; usado só para log.
	UserID string
}

type ctxKey struct{}

func WithInfo(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// FromContext devolve o Info do request, ou nil fora do pipeline.
func FromContext(ctx context.Context) *Info {
	info, _ := ctx.Value(ctxKey{}).(*Info)
	return info
}

// RequestID devolve o ID do request corrente, ou "" fora do pipeline.
func RequestID(ctx context.Context) string {
	if info := FromContext(ctx); info != nil {
		return info.ID
	}
	return ""
}
