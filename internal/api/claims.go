package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// ClaimsHandler handles recovery claim endpoints.
type ClaimsHandler struct {
	DB *sql.DB
}

type createClaimRequest struct {
	ItemID            int64  `json:"item_id"`
	RecoveredLocation string `json:"recovered_location"`
	RecoveredDate     string `json:"recovered_date"`
}

// Create handles POST /api/claims. Validation happens before any store
// access: an empty location or malformed date never reaches the database.
func (h *ClaimsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ItemID <= 0 {
		jsonError(w, http.StatusBadRequest, "item id required")
		return
	}
	if req.RecoveredLocation == "" {
		jsonError(w, http.StatusBadRequest, "recovered location required")
		return
	}
	if err := model.ValidateDate(req.RecoveredDate); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	claim, err := store.RecoverItem(r.Context(), h.DB, &model.Claim{
		ItemID:            req.ItemID,
		UserEmail:         claims.Email,
		RecoveredLocation: req.RecoveredLocation,
		RecoveredDate:     req.RecoveredDate,
	})
	if errors.Is(err, store.ErrItemNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if errors.Is(err, store.ErrItemRecovered) {
		jsonError(w, http.StatusConflict, "item already recovered")
		return
	}
	if err != nil {
		slog.Error("failed to record recovery claim", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to submit claim")
		return
	}

	slog.Info("item recovered", "item_id", claim.ItemID, "email", claims.Email)
	jsonResponse(w, http.StatusCreated, claim)
}

// MyClaims handles GET /api/my/claims.
func (h *ClaimsHandler) MyClaims(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	list, err := store.ListClaimsByUser(r.Context(), h.DB, claims.Email)
	if err != nil {
		slog.Error("failed to list claims", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list claims")
		return
	}
	if list == nil {
		list = []model.Claim{}
	}
	jsonResponse(w, http.StatusOK, list)
}
