// Package report renders the downloadable MET-report form for a single
// forecast record.
package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"math"
	"os"
	"sync"
	"time"

	"github.com/danwib/tacwx/internal/forecast"
	"github.com/danwib/tacwx/pkg/logger"
)

//go:embed templates/metreport.html
var defaultTemplate string

// Engine handles template loading, caching, and rendering
type Engine struct {
	overridePath string
	cached       *template.Template
	cacheMutex   sync.RWMutex
	logger       *logger.Logger
}

// NewEngine creates a report engine. overridePath may be empty, in which
// case the embedded default template is used.
func NewEngine(overridePath string, log *logger.Logger) *Engine {
	return &Engine{
		overridePath: overridePath,
		logger:       log.Named("report-engine"),
	}
}

// Data is the template context for one report
type Data struct {
	StationName string
	RegionCode  string
	Province    string
	Regency     string
	GeneratedAt string
	ValidAt     string

	Temperature string
	DewPoint    string
	Humidity    string
	Wind        string
	Visibility  string
	Ceiling     string
	Weather     string
	Precip      string

	Category  string
	Takeoff   string
	Landing   string
	Rationale []string
}

// Render produces the MET-report HTML for one enriched record
func (e *Engine) Render(stationName string, regionCode string, rec *forecast.EnrichedRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("no record to render")
	}

	tmpl, err := e.getTemplate()
	if err != nil {
		return "", fmt.Errorf("failed to get template: %w", err)
	}

	data := buildData(stationName, regionCode, rec)

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	rendered := buf.String()
	e.logger.Debug("Report rendered",
		logger.String("region", regionCode),
		logger.Int("rendered_length", len(rendered)))

	return rendered, nil
}

func buildData(stationName, regionCode string, rec *forecast.EnrichedRecord) Data {
	return Data{
		StationName: stationName,
		RegionCode:  regionCode,
		Province:    rec.Province,
		Regency:     rec.Regency,
		GeneratedAt: time.Now().UTC().Format("02 Jan 2006 15:04 MST"),
		ValidAt:     timeOrDash(rec.LocalTime),

		Temperature: metricUnit(rec.TempC, 1, "°C"),
		DewPoint:    metricUnit(rec.DewPointC, 1, "°C"),
		Humidity:    metricUnit(rec.HumidityPct, 0, "%"),
		Wind:        windString(rec),
		Visibility:  visString(rec),
		Ceiling:     ceilingString(rec),
		Weather:     weatherString(rec),
		Precip:      metricUnit(rec.PrecipMM, 1, " mm"),

		Category:  rec.Category,
		Takeoff:   rec.Takeoff,
		Landing:   rec.Landing,
		Rationale: rec.Rationale,
	}
}

func metricUnit(m forecast.Metric, decimals int, unit string) string {
	if m.IsNaN() {
		return "—"
	}
	return fmt.Sprintf("%.*f%s", decimals, float64(m), unit)
}

func timeOrDash(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("02 Jan 2006 15:04")
}

func windString(rec *forecast.EnrichedRecord) string {
	if rec.WindSpeedKt.IsNaN() {
		return "—"
	}
	if rec.WindDirDeg.IsNaN() {
		return fmt.Sprintf("%.1f kt", float64(rec.WindSpeedKt))
	}
	return fmt.Sprintf("%03.0f° / %.1f kt", math.Mod(float64(rec.WindDirDeg), 360), float64(rec.WindSpeedKt))
}

func visString(rec *forecast.EnrichedRecord) string {
	if rec.VisibilityM.IsNaN() {
		if rec.VisibilityText != "" {
			return rec.VisibilityText
		}
		return "—"
	}
	return fmt.Sprintf("%.0f m (%s)", float64(rec.VisibilityM), rec.VisibilityDisplay)
}

func ceilingString(rec *forecast.EnrichedRecord) string {
	if rec.CeilingFt.IsNaN() {
		return "—"
	}
	return fmt.Sprintf("%s, est. %.0f ft", rec.CeilingLabel, float64(rec.CeilingFt))
}

func weatherString(rec *forecast.EnrichedRecord) string {
	switch {
	case rec.WeatherDescEN != "":
		return rec.WeatherDescEN
	case rec.WeatherDesc != "":
		return rec.WeatherDesc
	default:
		return "—"
	}
}

// getTemplate returns the parsed template, loading the override file on
// first use when one is configured
func (e *Engine) getTemplate() (*template.Template, error) {
	e.cacheMutex.RLock()
	if e.cached != nil {
		defer e.cacheMutex.RUnlock()
		return e.cached, nil
	}
	e.cacheMutex.RUnlock()

	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()

	if e.cached != nil {
		return e.cached, nil
	}

	content := defaultTemplate
	if e.overridePath != "" {
		data, err := os.ReadFile(e.overridePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read template file '%s': %w", e.overridePath, err)
		}
		content = string(data)
	}

	tmpl, err := template.New("metreport").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}

	e.cached = tmpl
	return tmpl, nil
}

// ReloadTemplate forces the template to be re-read on next render
func (e *Engine) ReloadTemplate() {
	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()
	e.cached = nil
	e.logger.Info("Report template cache cleared")
}
