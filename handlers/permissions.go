package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/camden-git/eventmealsbackend/apperrors"
	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/permissions"
	"github.com/camden-git/eventmealsbackend/repository"
)

// PermissionsHandler serves the permission catalog and manages admin accounts.
type PermissionsHandler struct {
	Admins repository.AdminRepository
	Logger *zap.Logger
}

func NewPermissionsHandler(admins repository.AdminRepository, logger *zap.Logger) *PermissionsHandler {
	return &PermissionsHandler{Admins: admins, Logger: logger}
}

type AdminCreatePayload struct {
	Username    string   `json:"username" validate:"required"`
	Password    string   `json:"password" validate:"required,min=8"`
	DisplayName string   `json:"display_name"`
	Permissions []string `json:"permissions"`
}

type AdminPermissionsPayload struct {
	Permissions []string `json:"permissions"`
}

// ListDefinedPermissions serves the statically defined permission groups and their permissions.
func (h *PermissionsHandler) ListDefinedPermissions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, permissions.DefinedPermissionGroups)
}

// ListDefinedPermissionKeys serves just the keys of all defined permissions.
func (h *PermissionsHandler) ListDefinedPermissionKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, permissions.GetAllPermissionKeys())
}

func (h *PermissionsHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.Admins.List(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if admins == nil {
		admins = []models.Admin{}
	}
	writeJSON(w, http.StatusOK, admins)
}

func (h *PermissionsHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var payload AdminCreatePayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	keys, err := permissionKeys(payload.Permissions)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	username := strings.TrimSpace(payload.Username)
	if _, err := h.Admins.GetByUsername(r.Context(), username); err == nil {
		WriteAPIError(w, http.StatusConflict, "conflict", "Username is already taken")
		return
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		writeError(w, h.Logger, err)
		return
	}

	admin := &models.Admin{Username: username, DisplayName: strings.TrimSpace(payload.DisplayName), GlobalPermissions: keys}
	if err := admin.SetPassword(payload.Password); err != nil {
		writeError(w, h.Logger, fmt.Errorf("failed to hash password: %w", err))
		return
	}
	if err := h.Admins.Create(r.Context(), admin); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	h.Logger.Info("Admin created", zap.String("username", admin.Username), zap.Strings("permissions", keys))
	writeJSON(w, http.StatusCreated, admin)
}

// UpdateAdminPermissions replaces the admin's permission set.
func (h *PermissionsHandler) UpdateAdminPermissions(w http.ResponseWriter, r *http.Request) {
	adminID, err := idParam(r, "admin_id")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	var payload AdminPermissionsPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	keys, err := permissionKeys(payload.Permissions)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	if current, ok := AdminFromContext(r.Context()); ok && current.ID == adminID && !containsKey(keys, permissions.AdminManage) {
		writeError(w, h.Logger, apperrors.Invalid("permissions", "cannot remove admin.manage from yourself"))
		return
	}

	if err := h.Admins.UpdatePermissions(r.Context(), adminID, keys); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	admin, err := h.Admins.GetByID(r.Context(), adminID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

// permissionKeys rejects unknown keys and returns the set sorted without duplicates.
func permissionKeys(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	keys := []string{}
	for _, k := range raw {
		k = strings.TrimSpace(k)
		if !permissions.IsValidPermissionKey(k) {
			return nil, apperrors.Invalid("permissions", fmt.Sprintf("unknown permission %q", k))
		}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
