package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/repository"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// AdminContextKey is the key used to store the admin object in the request context.
	AdminContextKey ContextKey = "admin"
)

// AdminFromContext returns the admin stored by AuthMiddleware.
func AdminFromContext(ctx context.Context) (*models.Admin, bool) {
	admin, ok := ctx.Value(AdminContextKey).(*models.Admin)
	return admin, ok && admin != nil
}

// parseToken verifies an HS256 token and returns the admin ID in its subject.
func parseToken(tokenString string, secret []byte) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid admin ID in token subject %q", claims.Subject)
	}
	return uint(id), nil
}

// AuthMiddleware creates a middleware handler for JWT authentication.
// It verifies the token and, if valid, fetches the admin and adds them to the request context.
func AuthMiddleware(adminRepo repository.AdminRepository, secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authorization header format must be Bearer {token}")
			return
		}

		adminID, err := parseToken(parts[1], secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid token signature")
				return
			}
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid token: "+err.Error())
			return
		}

		admin, err := adminRepo.GetByID(r.Context(), adminID)
		if err != nil {
			// deleted after the token was issued
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Admin not found")
			return
		}

		ctx := context.WithValue(r.Context(), AdminContextKey, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireGlobalPermission is a middleware that checks if the authenticated admin has
// a specific global permission. It should be used after AuthMiddleware.
func RequireGlobalPermission(requiredPermission string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, ok := AdminFromContext(r.Context())
		if !ok {
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Admin not found in context")
			return
		}

		if !admin.HasGlobalPermission(requiredPermission) {
			WriteAPIError(w, http.StatusForbidden, "forbidden", fmt.Sprintf("Forbidden: requires global permission '%s'", requiredPermission))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAnyGlobalPermission is a middleware that checks if the authenticated admin has
// at least one of the specified global permissions. It should be used after AuthMiddleware.
func RequireAnyGlobalPermission(permissions []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, ok := AdminFromContext(r.Context())
		if !ok {
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Admin not found in context")
			return
		}

		for _, p := range permissions {
			if admin.HasGlobalPermission(p) {
				next.ServeHTTP(w, r)
				return
			}
		}
		WriteAPIError(w, http.StatusForbidden, "forbidden",
			fmt.Sprintf("Forbidden: requires at least one of the following global permissions: %s", strings.Join(permissions, ", ")))
	})
}

// Guard adapts the permission middlewares for chi's With.
func Guard(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireGlobalPermission(permission, next)
	}
}

func GuardAny(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireAnyGlobalPermission(permissions, next)
	}
}
