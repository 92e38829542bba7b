package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"
)

// Taxonomia de erros do estágio de auth. O middleware responde 401 para os
// três, mas ErrProviderUnavailable é logado à parte: indica problema de
// infraestrutura, não credencial ruim.
var (
	ErrMalformed           = errors.New("malformed authorization credentials")
	ErrInvalidToken        = errors.New("invalid token")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// Verifier valida um bearer token e extrai a identidade.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (Identity, error)
}

// KeycloakVerifier valida tokens contra a chave pública do realm, obtida em
// <ServerURL>/realms/<Realm> e cacheada por KeyTTL.
type KeycloakVerifier struct {
	ServerURL string
	Realm     string
	// Audience esperada do token; vazio desliga a checagem de audience.
	Audience string

	HTTPClient *http.Client
	KeyTTL     time.Duration
	Logger     *slog.Logger

	mu        sync.Mutex
	key       *rsa.PublicKey
	fetchedAt time.Time
}

func NewKeycloakVerifier(serverURL, realm, audience string, client *http.Client, logger *slog.Logger) *KeycloakVerifier {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KeycloakVerifier{
		ServerURL:  serverURL,
		Realm:      realm,
		Audience:   audience,
		HTTPClient: client,
		KeyTTL:     15 * time.Minute,
		Logger:     logger,
	}
}

// Verify confere assinatura, expiração e audience, e constrói a Identity.
func (v *KeycloakVerifier) Verify(ctx context.Context, rawToken string) (Identity, error) {
	tok, err := jwt.ParseSigned(rawToken)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	key, err := v.publicKey(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	var claims tokenClaims
	var raw map[string]any
	if err := tok.Claims(key, &claims, &raw); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	expected := jwt.Expected{Time: time.Now()}
	if v.Audience != "" {
		expected.Audience = jwt.Audience{v.Audience}
	}
	if err := claims.Validate(expected); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return claims.identity(raw), nil
}

// realmDocument é o subconjunto relevante da resposta do endpoint do realm.
type realmDocument struct {
	PublicKey string `json:"public_key"`
}

// publicKey devolve a chave cacheada ou busca uma nova. Se a busca falhar e
// houver chave antiga, ela continua valendo (melhor validar com chave velha
// do que derrubar auth por instabilidade do provedor).
func (v *KeycloakVerifier) publicKey(ctx context.Context) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ttl := v.KeyTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if v.key != nil && time.Since(v.fetchedAt) < ttl {
		return v.key, nil
	}

	key, err := v.fetchKey(ctx)
	if err != nil {
		if v.key != nil {
			v.Logger.Warn("public key refresh failed, reusing cached key", "error", err)
			return v.key, nil
		}
		return nil, err
	}

	v.key = key
	v.fetchedAt = time.Now()
	return key, nil
}

func (v *KeycloakVerifier) fetchKey(ctx context.Context) (*rsa.PublicKey, error) {
	url := fmt.Sprintf("%s/realms/%s", v.ServerURL, v.Realm)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("realm endpoint returned status %d", resp.StatusCode)
	}

	var doc realmDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding realm document: %w", err)
	}
	if doc.PublicKey == "" {
		return nil, errors.New("realm document has no public_key")
	}

	return parsePublicKey(doc.PublicKey)
}

// parsePublicKey decodifica a chave do realm (DER em base64, sem cabeçalho
// PEM, como o Keycloak publica).
func parsePublicKey(encoded string) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}

	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("realm public key is not RSA")
	}
	return rsaPub, nil
}
