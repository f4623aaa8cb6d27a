package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/unseen32online/UNSEEN.IL/pkg/errors"
	"github.com/unseen32online/UNSEEN.IL/pkg/httputil"
)

type contextKeyType string

const roleKey contextKeyType = "role"

// RoleOperator is the role granted to holders of the operator token.
const RoleOperator = "operator"

// ErrInvalidToken is returned by a TokenValidator that rejects a token.
var ErrInvalidToken = errors.New("invalid token")

// TokenValidator validates a bearer token and returns the caller's role.
type TokenValidator func(token string) (role string, err error)

// StaticToken accepts exactly one shared secret and grants role. An empty
// secret rejects every token so a missing config never opens the API.
func StaticToken(secret, role string) TokenValidator {
	return func(token string) (string, error) {
		if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return "", ErrInvalidToken
		}
		return role, nil
	}
}

// BearerAuth requires an `Authorization: Bearer <token>` header accepted by
// validate and stores the resulting role in the request context.
func BearerAuth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("missing or malformed authorization header"), nil)
				return
			}

			role, err := validate(token)
			if err != nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid or expired token"), nil)
				return
			}

			ctx := context.WithValue(r.Context(), roleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RoleFromContext returns the role stored by BearerAuth, or "".
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}
