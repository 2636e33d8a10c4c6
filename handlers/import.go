package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/apperrors"
	"github.com/camden-git/eventmealsbackend/importer"
)

const maxImportFileSize = 10 << 20

// ImportHandler loads the registration CSV exports into the registry.
type ImportHandler struct {
	DB      *gorm.DB
	Lookups LookupInvalidator
	Now     func() time.Time
	Logger  *zap.Logger
}

type ImportResponse struct {
	Delegates int `json:"delegates"`
	importer.Result
}

// ImportEventData expects a multipart form with lunch_csv and other_csv files
// and an optional reset_users flag that empties the registry first.
func (h *ImportHandler) ImportEventData(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxImportFileSize)
	if err := r.ParseMultipartForm(maxImportFileSize); err != nil {
		writeError(w, h.Logger, apperrors.Invalid("", "Invalid multipart form: "+err.Error()))
		return
	}

	lunch, _, err := r.FormFile("lunch_csv")
	if err != nil {
		writeError(w, h.Logger, apperrors.Invalid("", "lunch_csv file is required"))
		return
	}
	defer lunch.Close()
	other, _, err := r.FormFile("other_csv")
	if err != nil {
		writeError(w, h.Logger, apperrors.Invalid("", "other_csv file is required"))
		return
	}
	defer other.Close()

	reset := false
	if raw := r.FormValue("reset_users"); raw != "" {
		reset, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, h.Logger, apperrors.Invalid("", "reset_users must be a boolean"))
			return
		}
	}

	delegates, err := importer.ParseEventRows(lunch, other)
	if err != nil {
		writeError(w, h.Logger, apperrors.Invalid("", err.Error()))
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	result, err := importer.Apply(r.Context(), h.DB, delegates, reset, now(), h.Logger)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if h.Lookups != nil {
		if err := h.Lookups.Invalidate(r.Context()); err != nil {
			h.Logger.Warn("Failed to invalidate name lookups", zap.Error(err))
		}
	}

	h.Logger.Info("Event data imported",
		zap.Int("delegates", len(delegates)),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int64("deleted", result.Deleted))
	writeJSON(w, http.StatusOK, ImportResponse{Delegates: len(delegates), Result: result})
}
