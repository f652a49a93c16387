package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/danwib/tacwx/internal/archive"
	"github.com/danwib/tacwx/internal/bmkg"
	"github.com/danwib/tacwx/internal/briefing"
	"github.com/danwib/tacwx/internal/config"
	"github.com/danwib/tacwx/internal/export"
	"github.com/danwib/tacwx/internal/forecast"
	"github.com/danwib/tacwx/internal/report"
	"github.com/danwib/tacwx/internal/websocket"
	"github.com/danwib/tacwx/internal/wxcalc"
	"github.com/danwib/tacwx/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	forecastService *forecast.Service
	briefingService *briefing.Service // nil when briefing is disabled
	archiveStorage  *archive.Storage  // nil when the archive is disabled
	reportEngine    *report.Engine
	wsServer        *websocket.Server
	config          *config.Config
	logger          *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(forecastService *forecast.Service, briefingService *briefing.Service, archiveStorage *archive.Storage, reportEngine *report.Engine, wsServer *websocket.Server, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		forecastService: forecastService,
		briefingService: briefingService,
		archiveStorage:  archiveStorage,
		reportEngine:    reportEngine,
		wsServer:        wsServer,
		config:          cfg,
		logger:          log.Named("api-handler"),
	}
}

// regionCode resolves the region code from the request, falling back to the
// configured default. The query parameter is named after the configured ADM
// level ("adm4" by default); "region" is accepted as an alias.
func (h *Handler) regionCode(r *http.Request) string {
	if v := r.URL.Query().Get(h.config.BMKG.AdmLevel); v != "" {
		return v
	}
	if v := r.URL.Query().Get("region"); v != "" {
		return v
	}
	return h.config.Station.DefaultRegionCode
}

// statusForError maps pipeline errors to HTTP status codes
func statusForError(err error) int {
	switch bmkg.KindOf(err) {
	case bmkg.KindEmptyResult:
		return http.StatusNotFound
	case bmkg.KindNetworkError, bmkg.KindMalformedPayload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetForecast returns the processed snapshot for a region
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	regionCode := h.regionCode(r)
	if regionCode == "" {
		WriteError(w, http.StatusBadRequest, "no region code provided and no default configured")
		return
	}

	snapshot, err := h.forecastService.GetForecast(r.Context(), regionCode)
	if err != nil {
		h.logger.Error("Failed to get forecast",
			logger.String("region", regionCode),
			logger.Error(err))
		WriteError(w, statusForError(err), err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}

// RefreshForecast forces a fresh upstream fetch, bypassing the cache
func (h *Handler) RefreshForecast(w http.ResponseWriter, r *http.Request) {
	regionCode := h.regionCode(r)
	if regionCode == "" {
		WriteError(w, http.StatusBadRequest, "no region code provided and no default configured")
		return
	}

	snapshot, err := h.forecastService.RefreshNow(r.Context(), regionCode)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}

// ExportCSV returns the enriched forecast table as a CSV download
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	regionCode := h.regionCode(r)
	snapshot, err := h.forecastService.GetForecast(r.Context(), regionCode)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="forecast_%s.csv"`, regionCode))
	if err := export.CSV(w, snapshot.Records); err != nil {
		h.logger.Error("CSV export failed", logger.Error(err))
	}
}

// ExportJSON returns the enriched forecast table as a JSON download
func (h *Handler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	regionCode := h.regionCode(r)
	snapshot, err := h.forecastService.GetForecast(r.Context(), regionCode)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="forecast_%s.json"`, regionCode))
	if err := export.JSON(w, snapshot.Records); err != nil {
		h.logger.Error("JSON export failed", logger.Error(err))
	}
}

// GetReport renders the MET-report HTML for the nearest forecast slot
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	regionCode := h.regionCode(r)
	snapshot, err := h.forecastService.GetForecast(r.Context(), regionCode)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}

	current := snapshot.Current()
	if current == nil {
		WriteError(w, http.StatusNotFound, "no forecast records available for report")
		return
	}

	html, err := h.reportEngine.Render(h.config.Station.Name, regionCode, current)
	if err != nil {
		h.logger.Error("Report rendering failed", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// runwayWindsResponse is the payload of the runway winds endpoint
type runwayWindsResponse struct {
	RegionCode    string              `json:"region_code"`
	WindSpeedKt   forecast.Metric     `json:"wind_speed_kt"`
	WindDirMagDeg forecast.Metric     `json:"wind_dir_mag_deg"`
	Runways       []wxcalc.RunwayWind `json:"runways"`
}

// GetRunwayWinds resolves the current wind against every configured runway
func (h *Handler) GetRunwayWinds(w http.ResponseWriter, r *http.Request) {
	if len(h.config.Station.Runways) == 0 {
		WriteError(w, http.StatusNotFound, "no runways configured")
		return
	}

	regionCode := h.regionCode(r)
	snapshot, err := h.forecastService.GetForecast(r.Context(), regionCode)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}

	current := snapshot.Current()
	if current == nil {
		WriteError(w, http.StatusNotFound, "no forecast records available")
		return
	}

	resp := runwayWindsResponse{
		RegionCode:    regionCode,
		WindSpeedKt:   current.WindSpeedKt,
		WindDirMagDeg: current.WindDirMagDeg,
	}
	for _, rwy := range h.config.Station.Runways {
		head, cross := wxcalc.RunwayWindComponents(
			float64(current.WindSpeedKt),
			float64(current.WindDirMagDeg),
			rwy.HeadingMag,
		)
		resp.Runways = append(resp.Runways, wxcalc.RunwayWind{
			RunwayID:    rwy.ID,
			HeadwindKt:  head,
			CrosswindKt: cross,
		})
	}

	WriteJSON(w, http.StatusOK, resp)
}

// GetHistory returns recently archived rows for a region
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.archiveStorage == nil {
		WriteError(w, http.StatusServiceUnavailable, "forecast archive is disabled")
		return
	}

	regionCode := h.regionCode(r)
	limit := h.config.Storage.MaxRecordsInAPI
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			WriteError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	rows, err := h.archiveStorage.GetRecent(regionCode, limit)
	if err != nil {
		h.logger.Error("History query failed", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "failed to query archive")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"region_code": regionCode,
		"count":       len(rows),
		"records":     rows,
	})
}

// GetBriefing returns the AI-generated plain-language briefing
func (h *Handler) GetBriefing(w http.ResponseWriter, r *http.Request) {
	if h.briefingService == nil {
		WriteError(w, http.StatusServiceUnavailable, "briefing service is not enabled")
		return
	}

	regionCode := h.regionCode(r)
	snapshot, err := h.forecastService.GetForecast(r.Context(), regionCode)
	if err != nil {
		WriteError(w, statusForError(err), err.Error())
		return
	}

	current := snapshot.Current()
	if current == nil {
		WriteError(w, http.StatusNotFound, "no forecast records available to brief")
		return
	}

	b, err := h.briefingService.Generate(r.Context(), regionCode, current)
	if err != nil {
		h.logger.Error("Briefing generation failed", logger.Error(err))
		WriteError(w, http.StatusBadGateway, "briefing generation failed")
		return
	}

	WriteJSON(w, http.StatusOK, b)
}

// GetConfig returns the subset of configuration the dashboard front-end needs
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	publicConfig := map[string]any{
		"station": map[string]any{
			"name":                h.config.Station.Name,
			"default_region_code": h.config.Station.DefaultRegionCode,
			"latitude":            h.config.Station.Latitude,
			"longitude":           h.config.Station.Longitude,
			"runways":             h.config.Station.Runways,
		},
		"map": map[string]any{
			"tile_url":    h.config.Map.TileURL,
			"attribution": h.config.Map.Attribution,
		},
		"derived":          h.config.Derived,
		"archive_enabled":  h.config.Storage.ArchiveEnabled,
		"briefing_enabled": h.briefingService != nil,
	}

	WriteJSON(w, http.StatusOK, publicConfig)
}

// GetStatus reports service health and cache statistics
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
		"cache":  h.forecastService.CacheStats(),
	})
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
