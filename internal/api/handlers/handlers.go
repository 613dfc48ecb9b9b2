package handlers

import (
	"encoding/json"
	"net/http"

	"phalanx/internal/config"
	"phalanx/internal/domain/services"
	"phalanx/internal/infrastructure/cache"
	"phalanx/internal/infrastructure/database/repository"
	"phalanx/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health   *HealthHandler
	Messages *MessagesHandler
	URL      *URLHandler
	Rules    *RulesHandler
	Packs    *PacksHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Config    config.Config
	Verdicts  *services.VerdictEngine
	Expander  *services.URLExpander
	Profiler  *services.DomainProfiler
	Preview   *services.PreviewService
	Extractor *services.LinkExtractor
	Packs     *services.SenderPackRepository
	Cache     *cache.RedisCache
	Repos     *repository.Repositories
	Logger    *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Cache, deps.Repos, deps.Config.App.Version, deps.Logger),
		Messages: NewMessagesHandler(deps.Verdicts, deps.Repos, deps.Config.Analysis, deps.Logger),
		URL:      NewURLHandler(deps.Expander, deps.Profiler, deps.Preview, deps.Extractor, deps.Logger),
		Rules:    NewRulesHandler(deps.Repos, deps.Logger),
		Packs:    NewPacksHandler(deps.Packs, deps.Logger),
	}
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorResponse is the JSON body for error replies
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
