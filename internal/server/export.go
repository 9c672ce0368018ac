package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/tasks"
)

// ExportHandler serves the export API: health, the raw playlist listing, and
// per-playlist export downloads.
// Implements the Handler interface for registration with a Router.
type ExportHandler struct {
	service services.Service
	engine  tasks.ExportEngine
	logger  *log.Logger
}

// NewExportHandler creates an ExportHandler. A nil logger falls back to the
// shared default.
func NewExportHandler(service services.Service, engine tasks.ExportEngine, logger *log.Logger) *ExportHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ExportHandler{service: service, engine: engine, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *ExportHandler) Routes() []string {
	return []string{
		"GET /health",
		"GET /playlists",
		"GET /export/{id}",
	}
}

// ServeHTTP dispatches to the route-specific handlers.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/health":
		h.handleHealth(w, r)
	case r.URL.Path == "/playlists":
		h.handlePlaylists(w, r)
	default:
		h.handleExport(w, r)
	}
}

// handleHealth reports liveness and which upstream service is wired in
func (h *ExportHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	body, err := shared.MarshalJSON(map[string]string{"status": "ok", "service": h.service.Name()}, false)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// handlePlaylists passes one page of the upstream playlist listing through
// untouched. Offset and limit come from the query string; the service applies
// its own defaults and clamps.
func (h *ExportHandler) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	raw, err := h.service.GetPlaylistPageRaw(r.Context(), offset, limit)
	if err != nil {
		h.logger.Error("playlist listing failed", "err", err)
		http.Error(w, "Failed to fetch playlists", upstreamStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

// handleExport fetches one playlist and streams its encoded export as an
// attachment.
func (h *ExportHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Missing playlist id", http.StatusBadRequest)
		return
	}

	formatParam := r.URL.Query().Get("format")
	if formatParam == "" {
		formatParam = string(formatter.FormatJSON)
	}
	format, err := formatter.ParseFormat(formatParam)
	if err != nil {
		http.Error(w, fmt.Sprintf("Unsupported format: %s", formatParam), http.StatusBadRequest)
		return
	}

	res := h.engine.FetchPlaylist(r.Context(), id)
	if !res.OK() {
		h.logger.Error("playlist fetch failed", "id", id, "err", res.Err)
		http.Error(w, "Failed to fetch playlist", upstreamStatus(res.Err))
		return
	}

	results, err := formatter.ExportPlaylists([]*services.PlaylistExport{res.Export}, format)
	if err != nil {
		h.logger.Error("export encoding failed", "id", id, "format", format, "err", err)
		http.Error(w, "Failed to encode export", http.StatusInternalServerError)
		return
	}
	result := results[0]

	filename := fmt.Sprintf("%s.%s", shared.SanitizeFilename(result.PlaylistName), format.Ext())

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(result.Length))
	w.Write(result.Data)

	h.logger.Info("export served", "id", id, "format", format, "bytes", result.Length)
}

// upstreamStatus maps service errors to response codes: missing credentials
// surface as 401, unknown playlists as 404, anything else as a bad gateway.
func upstreamStatus(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrMissingCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrPlaylistNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
