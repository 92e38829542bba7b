package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"retail-gateway/middleware/requestlog"
	"retail-gateway/web"
)

type Options struct {
	Verifier Verifier
	// PublicPrefixes dispensam verificação e autorização por completo.
	PublicPrefixes []string
	Logger         *slog.Logger
}

// Middleware autentica o bearer token e injeta a Identity no contexto.
// Falha sempre vira 401 com WWW-Authenticate: Bearer; a distinção entre
// credencial ruim e provedor fora do ar aparece só no log (fail-closed:
// segurança não tem fail-open).
func Middleware(opts Options) func(next http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range opts.PublicPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			rawToken, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "Not authenticated")
				return
			}

			identity, err := opts.Verifier.Verify(r.Context(), rawToken)
			if err != nil {
				switch {
				case errors.Is(err, ErrProviderUnavailable):
					logger.Error("identity provider unreachable",
						"request_id", requestlog.RequestID(r.Context()),
						"path", r.URL.Path,
						"error", err)
				case errors.Is(err, ErrMalformed):
					logger.Warn("malformed bearer token",
						"request_id", requestlog.RequestID(r.Context()),
						"error", err)
				default:
					logger.Warn("token verification failed",
						"request_id", requestlog.RequestID(r.Context()),
						"error", err)
				}
				unauthorized(w, "Could not validate credentials")
				return
			}

			if info := requestlog.FromContext(r.Context()); info != nil {
				info.UserID = identity.Subject
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// bearerToken extrai o token do header Authorization (forma "Bearer <tok>").
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	web.Error(w, http.StatusUnauthorized, detail)
}
