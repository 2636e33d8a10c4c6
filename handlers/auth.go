package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/repository"
)

const tokenIssuer = "eventmealsbackend"

type AuthHandler struct {
	AdminRepo repository.AdminRepository
	Secret    []byte
	Expiry    time.Duration
	Logger    *zap.Logger
}

func NewAuthHandler(adminRepo repository.AdminRepository, secret []byte, expiry time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{AdminRepo: adminRepo, Secret: secret, Expiry: expiry, Logger: logger}
}

type LoginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	Admin     models.Admin `json:"admin"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// issueToken signs an HS256 token whose subject is the admin ID.
func issueToken(adminID uint, secret []byte, now time.Time, expiry time.Duration) (string, time.Time, error) {
	expiresAt := now.Add(expiry)
	claims := &jwt.RegisteredClaims{
		Subject:   fmt.Sprint(adminID),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	admin, err := h.AdminRepo.GetByUsername(r.Context(), strings.TrimSpace(payload.Username))
	if err != nil || !admin.CheckPassword(payload.Password) {
		WriteAPIError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
		return
	}

	token, expiresAt, err := issueToken(admin.ID, h.Secret, time.Now(), h.Expiry)
	if err != nil {
		h.Logger.Error("Failed to sign token", zap.Uint("admin_id", admin.ID), zap.Error(err))
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to generate token")
		return
	}

	h.Logger.Info("Admin logged in", zap.String("username", admin.Username))
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Admin: *admin, ExpiresAt: expiresAt})
}

// CurrentAdmin returns the authenticated admin. It should be protected by AuthMiddleware.
func (h *AuthHandler) CurrentAdmin(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Could not retrieve admin from context")
		return
	}
	writeJSON(w, http.StatusOK, admin)
}
