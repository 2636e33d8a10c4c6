package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/permissions"
	"github.com/camden-git/eventmealsbackend/repository"
)

var errSetupCompleted = errors.New("setup already completed")

type SetupHandler struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewSetupHandler(db *gorm.DB, logger *zap.Logger) *SetupHandler {
	return &SetupHandler{DB: db, Logger: logger}
}

type FirstAdminPayload struct {
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name"`
}

// CreateFirstAdmin creates the initial administrator holding every permission.
// It only works while no admin exists.
func (h *SetupHandler) CreateFirstAdmin(w http.ResponseWriter, r *http.Request) {
	var payload FirstAdminPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	var created *models.Admin
	txErr := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		admins := repository.NewGormAdminRepository(tx)
		count, err := admins.Count(r.Context())
		if err != nil {
			return fmt.Errorf("failed to count existing admins in transaction: %w", err)
		}
		if count > 0 {
			return errSetupCompleted
		}

		admin := &models.Admin{
			Username:          strings.TrimSpace(payload.Username),
			DisplayName:       strings.TrimSpace(payload.DisplayName),
			GlobalPermissions: permissions.GetAllPermissionKeys(),
		}
		if err := admin.SetPassword(payload.Password); err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		if err := admins.Create(r.Context(), admin); err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		created = admin
		return nil
	})

	if txErr != nil {
		if errors.Is(txErr, errSetupCompleted) {
			WriteAPIError(w, http.StatusForbidden, "setup_completed", "Setup has already been completed.")
			return
		}
		writeError(w, h.Logger, txErr)
		return
	}

	h.Logger.Info("Created initial admin", zap.String("username", created.Username))
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Initial admin user created successfully. Please log in."})
}
