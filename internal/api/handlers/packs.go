package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"phalanx/internal/domain/models"
	"phalanx/internal/domain/services"
	"phalanx/pkg/logger"
)

// PacksHandler handles sender pack endpoints
type PacksHandler struct {
	packs  *services.SenderPackRepository
	logger *logger.Logger
}

// NewPacksHandler creates a new PacksHandler
func NewPacksHandler(packs *services.SenderPackRepository, log *logger.Logger) *PacksHandler {
	return &PacksHandler{
		packs:  packs,
		logger: log.WithComponent("packs_handler"),
	}
}

// PackStatusResponse describes the active pack
type PackStatusResponse struct {
	Loaded  bool   `json:"loaded"`
	Region  string `json:"region,omitempty"`
	Version int64  `json:"version,omitempty"`
	Entries int    `json:"entries,omitempty"`
}

// Status handles GET /api/v1/packs
func (h *PacksHandler) Status(w http.ResponseWriter, r *http.Request) {
	pack := h.packs.ActivePack()
	if pack == nil {
		writeJSON(w, http.StatusOK, PackStatusResponse{Loaded: false})
		return
	}
	writeJSON(w, http.StatusOK, PackStatusResponse{
		Loaded:  true,
		Region:  pack.Region,
		Version: pack.Version,
		Entries: len(pack.Entries),
	})
}

// LoadPackRequest is the POST /packs body
type LoadPackRequest struct {
	Region string `json:"region"`
}

// Load handles POST /api/v1/packs: loads and activates the pack for a region.
func (h *PacksHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req LoadPackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Region == "" {
		writeError(w, http.StatusBadRequest, "region is required")
		return
	}

	err := h.packs.LoadPack(r.Context(), req.Region)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrPackNotFound):
		writeError(w, http.StatusNotFound, "no pack for region "+req.Region)
		return
	default:
		var parseErr *models.PackParseError
		var verifyErr *models.PackVerificationError
		if errors.As(err, &parseErr) || errors.As(err, &verifyErr) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("region", req.Region).Msg("pack load failed")
		writeError(w, http.StatusBadGateway, "pack load failed")
		return
	}

	h.Status(w, r)
}
