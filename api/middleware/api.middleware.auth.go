// FilePath: api/middleware/api.middleware.auth.go
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sensormagics/telemetry-hub/internal/errors"
)

type contextKey string

const (
	// ContextUser holds the authenticated user subject.
	ContextUser contextKey = "user"
	// ContextDevice holds the authenticated device subject.
	ContextDevice contextKey = "device"
)

// JWTConfig carries the signing secrets. Devices and users authenticate with
// separate keys so a leaked device credential cannot read the query API.
type JWTConfig struct {
	UserSecret   string
	DeviceSecret string
}

type JWTMiddleware struct {
	config JWTConfig
}

func NewJWTMiddleware(config JWTConfig) *JWTMiddleware {
	return &JWTMiddleware{config: config}
}

// AuthenticateUser validates a user bearer token and adds the subject to the
// request context.
func (m *JWTMiddleware) AuthenticateUser(next http.Handler) http.Handler {
	return m.authenticate(next, m.config.UserSecret, ContextUser)
}

// AuthenticateDevice validates a device bearer token. The subject claim is
// the device ID; the ingest handlers read it from the request context, so a
// device can only ever submit readings as itself.
func (m *JWTMiddleware) AuthenticateDevice(next http.Handler) http.Handler {
	return m.authenticate(next, m.config.DeviceSecret, ContextDevice)
}

func (m *JWTMiddleware) authenticate(next http.Handler, secret string, key contextKey) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractToken(r)
		if tokenString == "" {
			handleError(w, errors.NewAuthError("no token provided", nil))
			return
		}

		subject, err := parseSubject(tokenString, secret)
		if err != nil {
			handleError(w, errors.NewAuthError("invalid token", err))
			return
		}

		ctx := context.WithValue(r.Context(), key, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseSubject verifies the token signature and returns its subject claim.
func parseSubject(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token carries no subject")
	}
	return subject, nil
}

// Subject returns the authenticated principal stored under key, if any.
func Subject(ctx context.Context, key contextKey) string {
	subject, _ := ctx.Value(key).(string)
	return subject
}

func extractToken(r *http.Request) string {
	bearer := r.Header.Get("Authorization")
	if len(bearer) > 7 && strings.ToUpper(bearer[0:6]) == "BEARER" {
		return bearer[7:]
	}
	return ""
}

func handleError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
}
