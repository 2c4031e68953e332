package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"mulakhat/interview/internal/models"
)

// Identity is the authenticated caller, extracted from the bearer token.
// Identity verification itself lives in the user service; this package only
// validates the signed claims it issued.
type Identity struct {
	UserID string
	Role   models.Role
}

type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

// FromContext returns the identity stored by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// ParseToken validates an HS256 token and returns the embedded identity.
func ParseToken(tokenStr string, secret []byte) (Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.UserID, Role: models.Role(claims.Role)}, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// identity in the request context. A token may also arrive as ?token= for
// websocket upgrades, where setting headers is awkward for browser clients.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := ""
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				tokenStr = strings.TrimPrefix(h, "Bearer ")
			} else if q := r.URL.Query().Get("token"); q != "" {
				tokenStr = q
			}
			if tokenStr == "" {
				http.Error(w, `{"code":"unauthorized","message":"missing token"}`, http.StatusUnauthorized)
				return
			}
			id, err := ParseToken(tokenStr, secret)
			if err != nil || id.UserID == "" {
				http.Error(w, `{"code":"unauthorized","message":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
