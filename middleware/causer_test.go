package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject, causerType, impersonator string) string {
	t.Helper()

	claims := CauserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		CauserType:   causerType,
		Impersonator: impersonator,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestCauserMiddleware_Handler(t *testing.T) {
	expired := func(t *testing.T) string {
		claims := CauserClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "42",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return signed
	}

	tests := []struct {
		name       string
		secret     string
		setupReq   func(t *testing.T, r *http.Request)
		wantCauser *Causer
	}{
		{
			name:   "bearer token",
			secret: testSecret,
			setupReq: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "42", "admin", ""))
			},
			wantCauser: &Causer{ID: "42", Type: "admin"},
		},
		{
			name:   "default causer type and impersonator",
			secret: testSecret,
			setupReq: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "42", "", "7"))
			},
			wantCauser: &Causer{ID: "42", Type: "user", Impersonator: "7"},
		},
		{
			name:   "cookie token",
			secret: testSecret,
			setupReq: func(t *testing.T, r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "auth_token", Value: signToken(t, testSecret, "5", "", "")})
			},
			wantCauser: &Causer{ID: "5", Type: "user"},
		},
		{
			name:     "no token",
			secret:   testSecret,
			setupReq: func(t *testing.T, r *http.Request) {},
		},
		{
			name:   "wrong secret",
			secret: testSecret,
			setupReq: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, "other", "42", "", ""))
			},
		},
		{
			name:   "expired token",
			secret: testSecret,
			setupReq: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+expired(t))
			},
		},
		{
			name:   "malformed header",
			secret: testSecret,
			setupReq: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
			},
		},
		{
			name:   "parsing disabled without secret",
			secret: "",
			setupReq: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "42", "", ""))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewCauserMiddleware(tt.secret, "user", zap.NewNop())

			var got *Causer
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got = GetCauserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setupReq(t, req)
			w := httptest.NewRecorder()

			mw.Handler(next).ServeHTTP(w, req)

			assert.True(t, called, "the request must never be blocked")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantCauser, got)
		})
	}
}

func TestCauserMiddleware_RejectsOtherAlgorithms(t *testing.T) {
	mw := NewCauserMiddleware(testSecret, "user", zap.NewNop())

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, CauserClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "42"},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	var got *Causer
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetCauserFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	mw.Handler(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.Nil(t, got)
}
