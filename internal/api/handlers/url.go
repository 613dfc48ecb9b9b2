package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"phalanx/internal/domain/models"
	"phalanx/internal/domain/services"
	"phalanx/pkg/logger"
)

// URLHandler handles standalone URL inspection endpoints
type URLHandler struct {
	expander  *services.URLExpander
	profiler  *services.DomainProfiler
	preview   *services.PreviewService
	extractor *services.LinkExtractor
	logger    *logger.Logger
}

// NewURLHandler creates a new URLHandler
func NewURLHandler(expander *services.URLExpander, profiler *services.DomainProfiler, preview *services.PreviewService, extractor *services.LinkExtractor, log *logger.Logger) *URLHandler {
	return &URLHandler{
		expander:  expander,
		profiler:  profiler,
		preview:   preview,
		extractor: extractor,
		logger:    log.WithComponent("url_handler"),
	}
}

// URLRequest is the body for url endpoints
type URLRequest struct {
	URL string `json:"url"`
}

// CheckResponse is the POST /url/check reply
type CheckResponse struct {
	Expanded *models.ExpandedURL   `json:"expanded,omitempty"`
	Profile  *models.DomainProfile `json:"profile"`
	Error    string                `json:"error,omitempty"`
}

// Check handles POST /api/v1/url/check: expand the URL and profile its final
// destination.
func (h *URLHandler) Check(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeURLRequest(w, r)
	if !ok {
		return
	}

	resp := CheckResponse{}
	target := req.URL

	expanded, err := h.expander.Expand(r.Context(), req.URL)
	if err != nil {
		var expErr *models.ExpansionError
		if errors.As(err, &expErr) && expErr.Kind == models.ExpansionInvalidURL {
			writeError(w, http.StatusBadRequest, "invalid url")
			return
		}
		// Expansion failure still allows profiling the original URL.
		resp.Error = err.Error()
	} else {
		resp.Expanded = expanded
		target = expanded.FinalURL
	}

	link, err := h.extractor.ParseLink(target)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid url")
		return
	}
	profile := h.profiler.Profile(link)
	resp.Profile = &profile

	writeJSON(w, http.StatusOK, resp)
}

// Preview handles POST /api/v1/url/preview
func (h *URLHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.preview == nil {
		writeError(w, http.StatusNotFound, "link previews are disabled")
		return
	}
	req, ok := decodeURLRequest(w, r)
	if !ok {
		return
	}

	preview, err := h.preview.Preview(r.Context(), req.URL)
	if err != nil {
		var expErr *models.ExpansionError
		if errors.As(err, &expErr) && expErr.Kind == models.ExpansionInvalidURL {
			writeError(w, http.StatusBadRequest, "invalid url")
			return
		}
		h.logger.Debug().Err(err).Str("url", req.URL).Msg("preview failed")
		writeError(w, http.StatusBadGateway, "preview fetch failed")
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func decodeURLRequest(w http.ResponseWriter, r *http.Request) (URLRequest, bool) {
	var req URLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return req, false
	}
	return req, true
}
