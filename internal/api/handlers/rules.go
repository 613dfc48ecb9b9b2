package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"phalanx/internal/domain/models"
	"phalanx/internal/infrastructure/database/repository"
	"phalanx/pkg/logger"
)

// RulesHandler handles allow/block rule CRUD
type RulesHandler struct {
	repos  *repository.Repositories
	logger *logger.Logger
}

// NewRulesHandler creates a new RulesHandler
func NewRulesHandler(repos *repository.Repositories, log *logger.Logger) *RulesHandler {
	return &RulesHandler{
		repos:  repos,
		logger: log.WithComponent("rules_handler"),
	}
}

// CreateRuleRequest is the POST /rules body
type CreateRuleRequest struct {
	Type     models.RuleType   `json:"type"`
	Value    string            `json:"value"`
	Action   models.RuleAction `json:"action"`
	Priority int               `json:"priority"`
	Note     string            `json:"note,omitempty"`
}

// unavailable reports and handles the no-database degraded mode.
func (h *RulesHandler) unavailable(w http.ResponseWriter) bool {
	if h.repos == nil {
		writeError(w, http.StatusServiceUnavailable, "rule store unavailable")
		return true
	}
	return false
}

// List handles GET /api/v1/rules
func (h *RulesHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	rules, err := h.repos.Rules.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list rules")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}

// Get handles GET /api/v1/rules/{id}
func (h *RulesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule id")
		return
	}

	rule, err := h.repos.Rules.GetByID(r.Context(), id)
	if err == repository.ErrNotFound {
		writeError(w, http.StatusNotFound, "rule not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load rule")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// Create handles POST /api/v1/rules
func (h *RulesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Type {
	case models.RuleTypeDomain, models.RuleTypeSender, models.RuleTypePattern:
	default:
		writeError(w, http.StatusBadRequest, "type must be domain, sender, or pattern")
		return
	}
	switch req.Action {
	case models.RuleActionAllow, models.RuleActionBlock:
	default:
		writeError(w, http.StatusBadRequest, "action must be allow or block")
		return
	}
	if req.Value == "" {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}

	rule, err := h.repos.Rules.Create(r.Context(), &models.AllowBlockRule{
		Type:     req.Type,
		Value:    req.Value,
		Action:   req.Action,
		Priority: req.Priority,
		Note:     req.Note,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create rule")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

// Delete handles DELETE /api/v1/rules/{id}
func (h *RulesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule id")
		return
	}

	err = h.repos.Rules.Delete(r.Context(), id)
	if err == repository.ErrNotFound {
		writeError(w, http.StatusNotFound, "rule not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to delete rule")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
