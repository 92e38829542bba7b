package auth

import "context"

// Identity é o resultado de uma verificação de token bem-sucedida.
// Imutável depois de construída; vive só durante o request.
type Identity struct {
	Subject string
	Roles   []string
	Scopes  []string
	// Claims guarda o payload bruto do token para os handlers que precisam
	// de claims fora do conjunto tipado.
	Claims map[string]any
}

// HasAnyRole informa se a identidade possui ao menos um dos papéis.
func (id Identity) HasAnyRole(roles ...string) bool {
	for _, want := range roles {
		for _, have := range id.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext devolve a identidade autenticada do request, se houver.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
