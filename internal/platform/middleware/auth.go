package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "givepool/pkg/domain"
	"givepool/pkg/requestcontext"
)

// Claims carries the identity a validated token asserts.
type Claims struct {
	AccountID id.AccountID
	Roles     []string
}

// TokenValidator defines the interface for validating bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// HMACValidator validates HS256 tokens signed with a shared key.
// The subject claim must be the caller's account UUID; an optional
// "roles" claim lists role names asserted by the issuer.
type HMACValidator struct {
	signingKey []byte
}

func NewHMACValidator(signingKey string) *HMACValidator {
	return &HMACValidator{signingKey: []byte(signingKey)}
}

func (v *HMACValidator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", token.Claims)
	}

	subject, err := mapClaims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("subject claim: %w", err)
	}
	account, err := uuid.Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("subject is not an account id: %w", err)
	}

	claims := &Claims{AccountID: id.AccountID(account)}
	if raw, ok := mapClaims["roles"].([]any); ok {
		for _, entry := range raw {
			if role, ok := entry.(string); ok {
				claims.Roles = append(claims.Roles, role)
			}
		}
	}
	return claims, nil
}

// RequireAuth rejects requests without a valid bearer token and injects the
// authenticated account into the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithAccountID(ctx, claims.AccountID)
			if len(claims.Roles) > 0 {
				ctx = requestcontext.WithRoles(ctx, claims.Roles)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":"unauthorized","error_description":%q}`, description)
}
