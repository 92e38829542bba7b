package auth

import (
	"net/http"

	"retail-gateway/web"
)

// A política de autorização é explícita por rota:
//
//   - RequireAuth: qualquer identidade autenticada passa.
//   - RequireRoles: passa só quem tem interseção não vazia com os papéis
//     exigidos. Lista vazia de papéis NÃO significa "qualquer papel serve";
//     para isso existe RequireAuth.

// RequireAuth exige identidade autenticada no contexto.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			unauthorized(w, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles exige identidade com ao menos um dos papéis.
func RequireRoles(roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				unauthorized(w, "Not authenticated")
				return
			}
			if len(roles) > 0 && !identity.HasAnyRole(roles...) {
				web.Error(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
