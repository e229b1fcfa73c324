package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// authTokenCookieName is the cookie checked when no Authorization header is sent
const authTokenCookieName = "auth_token"

// CauserClaims are the JWT claims read by CauserMiddleware. The subject is the causer id.
type CauserClaims struct {
	jwt.RegisteredClaims
	CauserType   string `json:"causer_type,omitempty"`
	Impersonator string `json:"impersonator,omitempty"`
}

// CauserMiddleware resolves the causer of a request from an HS256 bearer token.
// It never rejects a request: without a valid token the causer stays unknown.
type CauserMiddleware struct {
	secret      []byte
	defaultType string
	logger      *zap.Logger
}

// NewCauserMiddleware creates a new CauserMiddleware. An empty secret disables token parsing.
func NewCauserMiddleware(secret, defaultType string, logger *zap.Logger) *CauserMiddleware {
	return &CauserMiddleware{
		secret:      []byte(secret),
		defaultType: defaultType,
		logger:      logger,
	}
}

// Handler stores the causer of the request in its context
func (m *CauserMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(m.secret) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		causer, err := m.parse(token)
		if err != nil {
			m.logger.Debug("ignoring invalid causer token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCauser(r.Context(), causer)))
	})
}

func (m *CauserMiddleware) parse(token string) (*Causer, error) {
	claims := &CauserClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	causerType := claims.CauserType
	if causerType == "" {
		causerType = m.defaultType
	}

	return &Causer{
		ID:           claims.Subject,
		Type:         causerType,
		Impersonator: claims.Impersonator,
	}, nil
}

// extractToken extracts the JWT from the Authorization header ("Bearer TOKEN") or
// the auth_token cookie. The header takes precedence when both are present.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(authTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
