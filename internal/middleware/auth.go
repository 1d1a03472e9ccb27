package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/curator/console/pkg/auth"
)

type contextKey string

const (
	OperatorIDKey contextKey = "operatorID"
	NicknameKey   contextKey = "nickname"
)

// AuthMiddleware validates session tokens and adds operator info to context.
// The token travels as a bearer header or, for browser sessions, a cookie.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, `{"error":"Authorization required"}`, http.StatusUnauthorized)
				return
			}

			claims, err := auth.ValidateSessionToken(token, secret)
			if err != nil {
				switch err {
				case auth.ErrExpiredToken:
					http.Error(w, `{"error":"Session expired"}`, http.StatusUnauthorized)
				default:
					http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				}
				return
			}

			ctx := context.WithValue(r.Context(), OperatorIDKey, claims.OperatorID)
			ctx = context.WithValue(ctx, NicknameKey, claims.Nickname)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthMiddleware adds operator info to context if a token is present,
// but doesn't require it
func OptionalAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ValidateSessionToken(token, secret)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), OperatorIDKey, claims.OperatorID)
			ctx = context.WithValue(ctx, NicknameKey, claims.Nickname)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if cookie, err := r.Cookie("console_session"); err == nil {
		return cookie.Value
	}
	return ""
}

// GetOperatorID extracts the operator id from context
func GetOperatorID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(OperatorIDKey).(string)
	return id, ok
}

// GetNickname extracts the operator nickname from context
func GetNickname(ctx context.Context) (string, bool) {
	nickname, ok := ctx.Value(NicknameKey).(string)
	return nickname, ok
}

// RequireAuth is a helper that returns an error if no operator is
// authenticated
func RequireAuth(ctx context.Context) (string, error) {
	id, ok := GetOperatorID(ctx)
	if !ok {
		return "", auth.ErrInvalidToken
	}
	return id, nil
}
