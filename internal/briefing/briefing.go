// Package briefing turns the current enriched forecast into a short
// plain-language pilot briefing via the Gemini API. The feature is optional
// and disabled when no API key is configured.
package briefing

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/danwib/tacwx/internal/config"
	"github.com/danwib/tacwx/internal/forecast"
	"github.com/danwib/tacwx/pkg/logger"
)

const promptTemplate = `You are a military aviation weather briefer. Write a concise
spoken-style weather briefing (max 120 words) for the station below. Cover wind,
visibility, ceiling, flight category, and the takeoff/landing recommendation.
Do not invent values not listed.

Station: {{.StationName}} (region {{.RegionCode}})
Valid (local): {{.ValidAt}}
Temperature: {{.TempC}} C, dew point {{.DewPointC}} C, humidity {{.HumidityPct}}%
Wind: {{.WindDirDeg}} deg true at {{.WindSpeedKt}} kt
Visibility: {{.VisibilitySM}} SM
Ceiling: {{.CeilingLabel}} at {{.CeilingFt}} ft
Accumulated precipitation: {{.PrecipMM}} mm
Flight category: {{.Category}}
Takeoff: {{.Takeoff}}, Landing: {{.Landing}}
{{- if .Rationale}}
Rationale:
{{- range .Rationale}}
- {{.}}
{{- end}}
{{- end}}`

// Briefing is one generated briefing with its provenance
type Briefing struct {
	Text        string    `json:"text"`
	Model       string    `json:"model"`
	RegionCode  string    `json:"region_code"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Service generates and caches briefings
type Service struct {
	config   *config.BriefingConfig
	station  *config.StationConfig
	client   *genai.Client
	tmpl     *template.Template
	logger   *logger.Logger
	mu       sync.Mutex
	cached   *Briefing
	cacheTTL time.Duration
}

// NewService creates a briefing service. Returns an error if the template
// fails to parse or the Gemini client cannot be constructed.
func NewService(ctx context.Context, cfg *config.BriefingConfig, station *config.StationConfig, log *logger.Logger) (*Service, error) {
	promptText := promptTemplate
	if cfg.PromptPath != "" {
		data, err := os.ReadFile(cfg.PromptPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt template '%s': %w", cfg.PromptPath, err)
		}
		promptText = string(data)
	}

	tmpl, err := template.New("briefing").Parse(promptText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse briefing prompt template: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Service{
		config:   cfg,
		station:  station,
		client:   client,
		tmpl:     tmpl,
		logger:   log.Named("briefing"),
		cacheTTL: 5 * time.Minute,
	}, nil
}

// Generate produces a briefing for the given record, serving a recent cached
// briefing for the same region when available.
func (s *Service) Generate(ctx context.Context, regionCode string, rec *forecast.EnrichedRecord) (*Briefing, error) {
	if rec == nil {
		return nil, fmt.Errorf("no record to brief")
	}

	s.mu.Lock()
	if s.cached != nil && s.cached.RegionCode == regionCode && time.Since(s.cached.GeneratedAt) < s.cacheTTL {
		cached := s.cached
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	prompt, err := s.buildPrompt(regionCode, rec)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.config.TimeoutSeconds)*time.Second)
	defer cancel()

	resp, err := s.client.Models.GenerateContent(ctx, s.config.Model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned an empty briefing")
	}

	briefing := &Briefing{
		Text:        text,
		Model:       s.config.Model,
		RegionCode:  regionCode,
		GeneratedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.cached = briefing
	s.mu.Unlock()

	s.logger.Info("Briefing generated",
		logger.String("region", regionCode),
		logger.Int("length", len(text)))

	return briefing, nil
}

func (s *Service) buildPrompt(regionCode string, rec *forecast.EnrichedRecord) (string, error) {
	data := map[string]any{
		"StationName": s.station.Name,
		"RegionCode":  regionCode,
		"ValidAt":     rec.LocalTime.Format("02 Jan 2006 15:04"),
		"TempC":       metricStr(rec.TempC),
		"DewPointC":   metricStr(rec.DewPointC),
		"HumidityPct": metricStr(rec.HumidityPct),
		"WindDirDeg":  metricStr(rec.WindDirDeg),
		"WindSpeedKt": metricStr(rec.WindSpeedKt),
		"VisibilitySM": metricStr(rec.VisibilitySM),
		"CeilingLabel": rec.CeilingLabel,
		"CeilingFt":    metricStr(rec.CeilingFt),
		"PrecipMM":     metricStr(rec.PrecipMM),
		"Category":     rec.Category,
		"Takeoff":      rec.Takeoff,
		"Landing":      rec.Landing,
		"Rationale":    rec.Rationale,
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build briefing prompt: %w", err)
	}
	return buf.String(), nil
}

func metricStr(m forecast.Metric) string {
	if m.IsNaN() {
		return "unavailable"
	}
	return fmt.Sprintf("%.1f", float64(m))
}
