package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"phalanx/internal/config"
	"phalanx/internal/domain/models"
	"phalanx/internal/domain/services"
	"phalanx/internal/infrastructure/database/repository"
	"phalanx/pkg/logger"
)

// MessagesHandler handles message analysis endpoints
type MessagesHandler struct {
	engine   *services.VerdictEngine
	repos    *repository.Repositories
	analysis config.AnalysisConfig
	logger   *logger.Logger
}

// NewMessagesHandler creates a new MessagesHandler
func NewMessagesHandler(engine *services.VerdictEngine, repos *repository.Repositories, analysis config.AnalysisConfig, log *logger.Logger) *MessagesHandler {
	return &MessagesHandler{
		engine:   engine,
		repos:    repos,
		analysis: analysis,
		logger:   log.WithComponent("messages_handler"),
	}
}

// AnalyzeRequest is the POST /messages/analyze body
type AnalyzeRequest struct {
	MessageID   string `json:"message_id,omitempty"`
	Sender      string `json:"sender"`
	Body        string `json:"body"`
	Sensitivity string `json:"sensitivity,omitempty"`
}

// Analyze handles POST /api/v1/messages/analyze
func (h *MessagesHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Body == "" {
		writeError(w, http.StatusBadRequest, "body is required")
		return
	}

	messageID := uuid.New()
	if req.MessageID != "" {
		parsed, err := uuid.Parse(req.MessageID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid message_id")
			return
		}
		messageID = parsed
	}

	sensitivity := models.Sensitivity(req.Sensitivity)
	if sensitivity == "" {
		sensitivity = models.Sensitivity(h.analysis.Sensitivity)
	}
	switch sensitivity {
	case models.SensitivityLow, models.SensitivityMedium, models.SensitivityHigh:
	default:
		sensitivity = models.SensitivityMedium
	}

	var rules []models.AllowBlockRule
	if h.repos != nil {
		loaded, err := h.repos.Rules.List(r.Context())
		if err != nil {
			h.logger.Warn().Err(err).Msg("failed to load rules, proceeding without overrides")
		} else {
			rules = loaded
		}
	}

	msg := models.Message{
		ID:         messageID,
		Sender:     req.Sender,
		Body:       req.Body,
		ReceivedAt: time.Now().UTC(),
	}
	verdict := h.engine.Analyze(r.Context(), msg, rules, sensitivity)

	if h.repos != nil {
		if err := h.repos.Verdicts.Upsert(r.Context(), verdict); err != nil {
			h.logger.Warn().Err(err).Str("message_id", messageID.String()).Msg("failed to persist verdict")
		}
	}

	writeJSON(w, http.StatusOK, verdict)
}

// GetVerdict handles GET /api/v1/messages/{id}/verdict
func (h *MessagesHandler) GetVerdict(w http.ResponseWriter, r *http.Request) {
	if h.repos == nil {
		writeError(w, http.StatusServiceUnavailable, "verdict history unavailable")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	verdict, err := h.repos.Verdicts.GetByMessageID(r.Context(), id)
	if err == repository.ErrNotFound {
		writeError(w, http.StatusNotFound, "verdict not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load verdict")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

// ListVerdicts handles GET /api/v1/messages/verdicts
func (h *MessagesHandler) ListVerdicts(w http.ResponseWriter, r *http.Request) {
	if h.repos == nil {
		writeError(w, http.StatusServiceUnavailable, "verdict history unavailable")
		return
	}
	verdicts, err := h.repos.Verdicts.ListRecent(r.Context(), 100)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list verdicts")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"verdicts": verdicts,
		"count":    len(verdicts),
	})
}
