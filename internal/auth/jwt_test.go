package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/teamkb-be/internal/access"
	"github.com/isdelr/teamkb-be/internal/models"
)

var alice = models.User{ID: "u-1", Username: "alice"}

func TestGenerateAndValidate(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	token, err := issuer.Generate(alice)
	require.NoError(t, err)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = NewIssuer("other", time.Hour).Validate(token)
	assert.Error(t, err)
}

func TestValidateExpired(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.Generate(alice)
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Hour).Validate(token)
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	token, err := issuer.Generate(alice)
	require.NoError(t, err)

	var seen access.Caller
	handler := issuer.Authenticate()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CallerFrom(r.Context())
	}))

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		want    access.Caller
	}{
		{"no token", func(*http.Request) {}, access.Anonymous()},
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			access.Caller{UserID: "u-1", Username: "alice"}},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: token}) },
			access.Caller{UserID: "u-1", Username: "alice"}},
		{"invalid token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, access.Anonymous()},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) }, access.Anonymous()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = access.Caller{UserID: "unset"}
			req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
			tt.prepare(req)
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestWithCaller(t *testing.T) {
	ctx := WithCaller(httptest.NewRequest(http.MethodGet, "/", nil).Context(), access.Caller{UserID: "u-2", Username: "bob"})
	assert.Equal(t, access.Caller{UserID: "u-2", Username: "bob"}, CallerFrom(ctx))
}
