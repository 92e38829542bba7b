package auth

import (
	"net/http"

	"github.com/go-jose/go-jose/v3/jwt"
)

// PeekSubject extrai subject e papéis do token SEM verificar assinatura.
//
// Uso exclusivo do rate limit, que roda antes da verificação e só precisa de
// uma chave estável por cliente. Nunca use o resultado para autorização:
// qualquer um pode forjar esses claims.
func PeekSubject(r *http.Request) (subject string, roles []string, ok bool) {
	rawToken, ok := bearerToken(r)
	if !ok {
		return "", nil, false
	}

	tok, err := jwt.ParseSigned(rawToken)
	if err != nil {
		return "", nil, false
	}

	var claims tokenClaims
	if err := tok.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return "", nil, false
	}
	if claims.Subject == "" {
		return "", nil, false
	}
	return claims.Subject, claims.RealmAccess.Roles, true
}
