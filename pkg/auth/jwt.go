// Package auth verifies operator bearer tokens and carries the resulting actor
// through the request context. Tokens are issued elsewhere.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "fieldsched/pkg/errors"
	httputil "fieldsched/pkg/http"
	"fieldsched/pkg/logger"
)

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	issuer string
	log    *logger.Logger
}

func NewVerifier(secret, issuer string, log *logger.Logger) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, log: log}
}

// Parse validates a signed token and returns the actor it names.
func (v *Verifier) Parse(tokenString string) (*Actor, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("invalid token: missing subject")
	}

	return &Actor{ID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// Sign issues a token for actor. Used by tooling and tests.
func (v *Verifier) Sign(actor Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: actor.Email,
		Role:  actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Middleware rejects requests without a valid bearer token and stores the
// actor in the request context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			_ = httputil.WriteError(w, apperrors.Unauthorized("Missing Authorization header"))
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid Authorization header"))
			return
		}

		actor, err := v.Parse(strings.TrimSpace(tokenString))
		if err != nil {
			v.log.Debug("Rejected bearer token", "path", r.URL.Path, "error", err)
			_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}
