package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeekSubject_ExtractsWithoutVerification(t *testing.T) {
	// assinado com chave que o gateway nunca viu: peek não valida assinatura
	key := newTestKey(t)
	raw := signToken(t, key, signOptions{
		subject: "user-42",
		roles:   []string{"service"},
		expiry:  time.Now().Add(time.Hour),
	})

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.Header.Set("Authorization", "Bearer "+raw)

	subject, roles, ok := PeekSubject(r)
	assert.True(t, ok)
	assert.Equal(t, "user-42", subject)
	assert.Equal(t, []string{"service"}, roles)
}

func TestPeekSubject_FailsClosedOnGarbage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.Header.Set("Authorization", "Bearer not-a-jwt")

	_, _, ok := PeekSubject(r)
	assert.False(t, ok)

	// sem header nenhum
	r2 := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	_, _, ok = PeekSubject(r2)
	assert.False(t, ok)
}
