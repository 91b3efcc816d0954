package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/gustavofullstack/udia-reviews-v2/pkg/errors"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/httputil"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/logger"
)

type contextKeyType string

const (
	userIDKey      contextKeyType = "user_id"
	roleKey        contextKeyType = "role"
	displayNameKey contextKeyType = "display_name"
)

// Claims is the identity carried by a request.
type Claims struct {
	UserID      string
	DisplayName string
	Role        string
}

// TokenValidator turns a bearer token into Claims.
type TokenValidator func(token string) (*Claims, error)

var errMissingSubject = errors.New("token has no user_id or sub claim")

// HMACValidator validates HS256/384/512 tokens signed with secret. The user
// id comes from the user_id claim, falling back to sub.
func HMACValidator(secret []byte) TokenValidator {
	return func(raw string) (*Claims, error) {
		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		}, jwt.WithExpirationRequired())
		if err != nil {
			return nil, err
		}
		mc, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return nil, jwt.ErrTokenInvalidClaims
		}

		c := &Claims{}
		c.UserID, _ = mc["user_id"].(string)
		if c.UserID == "" {
			c.UserID, _ = mc["sub"].(string)
		}
		if c.UserID == "" {
			return nil, errMissingSubject
		}
		c.DisplayName, _ = mc["name"].(string)
		c.Role, _ = mc["role"].(string)
		return c, nil
	}
}

// Authenticate attaches the caller's identity to the context without ever
// requiring one: anonymous requests pass through so handlers decide. A bearer
// token that fails validation is rejected with 401. Without a token, the
// X-User-ID / X-User-Name / X-User-Role headers set by the gateway are
// trusted when trustGateway is true.
func Authenticate(validate TokenValidator, trustGateway bool, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var claims *Claims

			if header := r.Header.Get("Authorization"); header != "" && validate != nil {
				scheme, token, ok := strings.Cut(header, " ")
				if !ok || !strings.EqualFold(scheme, "bearer") {
					httputil.WriteError(w, r, apperrors.Unauthorized("invalid authorization header format"), l)
					return
				}
				c, err := validate(token)
				if err != nil {
					l.WarnContext(r.Context(), "invalid bearer token",
						slog.String("path", r.URL.Path),
						slog.String("error", err.Error()),
					)
					httputil.WriteError(w, r, apperrors.Unauthorized("invalid or expired token"), l)
					return
				}
				claims = c
			} else if trustGateway && r.Header.Get("X-User-ID") != "" {
				claims = &Claims{
					UserID:      r.Header.Get("X-User-ID"),
					DisplayName: r.Header.Get("X-User-Name"),
					Role:        r.Header.Get("X-User-Role"),
				}
			}

			if claims != nil {
				r = r.WithContext(WithClaims(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	ctx = context.WithValue(ctx, userIDKey, c.UserID)
	ctx = context.WithValue(ctx, roleKey, c.Role)
	ctx = context.WithValue(ctx, displayNameKey, c.DisplayName)
	return logger.WithUserID(ctx, c.UserID)
}

// RequireRole rejects callers whose role is not in roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
				return
			}
			if _, ok := allowed[RoleFromContext(r.Context())]; !ok {
				httputil.WriteError(w, r, apperrors.Forbidden("insufficient permissions"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

func DisplayNameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(displayNameKey).(string)
	return name
}
