package auth

import (
	"strings"

	"github.com/go-jose/go-jose/v3/jwt"
)

// tokenClaims é o formato tipado dos claims que o gateway consome.
// O provedor (Keycloak) coloca os papéis em realm_access.roles e os escopos
// numa string separada por espaço.
type tokenClaims struct {
	jwt.Claims
	RealmAccess realmAccess `json:"realm_access"`
	Scope       string      `json:"scope"`
}

type realmAccess struct {
	Roles []string `json:"roles"`
}

func (c tokenClaims) identity(raw map[string]any) Identity {
	return Identity{
		Subject: c.Subject,
		Roles:   c.RealmAccess.Roles,
		Scopes:  strings.Fields(c.Scope),
		Claims:  raw,
	}
}
