package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/square/go-jose.v2/jwt"
)

type contextKey string

const principalKey contextKey = "principal"

// TokenValidator reads the calling principal from a bearer token. The principal is the
// "sub" claim, or "oid" when there is no subject. With an empty secret the signature
// is not checked.
type TokenValidator struct {
	logger *zap.Logger
	secret []byte
}

func NewTokenValidator(logger *zap.Logger, secret string) TokenValidator {
	if secret == "" {
		logger.Warn("no auth secret configured, token signatures are not verified")
	}
	return TokenValidator{logger: logger, secret: []byte(secret)}
}

func (t TokenValidator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if !strings.HasPrefix(token, "Bearer ") {
			t.authError(w, errors.New("missing bearer token"))
			return
		}

		principal, err := t.principal(strings.TrimPrefix(token, "Bearer "))
		if err != nil {
			t.authError(w, errors.New("auth token validation: "+err.Error()))
			return
		}

		newCtx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(newCtx))
	})
}

// PrincipalFromContext returns the principal stored by Authenticate.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	principal, ok := ctx.Value(principalKey).(string)
	return principal, ok && principal != ""
}

func (t TokenValidator) authError(w http.ResponseWriter, err error) {
	t.logger.Warn(err.Error())
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(err.Error()))
}

func (t TokenValidator) principal(tokenString string) (string, error) {
	token, err := jwt.ParseSigned(tokenString)
	if err != nil {
		return "", errors.New("failed to parse the auth token: " + err.Error())
	}

	var registered jwt.Claims
	var claims map[string]interface{}
	if len(t.secret) == 0 {
		err = token.UnsafeClaimsWithoutVerification(&registered, &claims)
	} else {
		err = token.Claims(t.secret, &registered, &claims)
	}
	if err != nil {
		return "", err
	}

	if err := registered.ValidateWithLeeway(jwt.Expected{Time: time.Now()}, jwt.DefaultLeeway); err != nil {
		return "", err
	}

	if registered.Subject != "" {
		return registered.Subject, nil
	}
	if oid, ok := claims["oid"].(string); ok && oid != "" {
		return oid, nil
	}
	return "", errors.New("token has no subject")
}
