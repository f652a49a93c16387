// Command tacwx prints the current forecast and flight conditions for a
// region on the terminal. It talks to a running server by default and can
// hit the BMKG API directly with -direct.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/danwib/tacwx/internal/bmkg"
	"github.com/danwib/tacwx/internal/config"
	"github.com/danwib/tacwx/internal/forecast"
	"github.com/danwib/tacwx/internal/wxcalc"
	"github.com/danwib/tacwx/pkg/logger"
)

var (
	labelColor   = color.New(color.FgCyan)
	valueColor   = color.New(color.FgWhite)
	sectionColor = color.New(color.FgBlue, color.Bold)

	vfrColor     = color.New(color.FgGreen, color.Bold)
	mvfrColor    = color.New(color.FgYellow, color.Bold)
	ifrColor     = color.New(color.FgRed, color.Bold)
	unknownColor = color.New(color.FgWhite, color.Bold)

	okColor      = color.New(color.FgGreen)
	cautionColor = color.New(color.FgYellow)
	noGoColor    = color.New(color.FgRed)
)

func main() {
	serverURL := flag.String("server", "http://127.0.0.1:8080", "TacWX server base URL")
	direct := flag.Bool("direct", false, "Fetch straight from the BMKG API instead of the server")
	configPath := flag.String("config", "", "Path to configuration file (used with -direct)")
	slots := flag.Int("slots", 6, "Number of forecast slots to print")
	noColor := flag.Bool("no-color", false, "Disable color output")
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	regionCode := strings.TrimSpace(flag.Arg(0))

	snapshot, err := fetchSnapshot(*direct, *serverURL, *configPath, regionCode)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	printSnapshot(snapshot, *slots)
}

func fetchSnapshot(direct bool, serverURL, configPath, regionCode string) (*forecast.Snapshot, error) {
	if direct {
		return fetchDirect(configPath, regionCode)
	}
	return fetchFromServer(serverURL, regionCode)
}

// fetchFromServer asks a running server, so the CLI sees the same cached
// snapshot the dashboard does
func fetchFromServer(serverURL, regionCode string) (*forecast.Snapshot, error) {
	reqURL := strings.TrimRight(serverURL, "/") + "/api/v1/forecast"
	if regionCode != "" {
		reqURL += "?region=" + url.QueryEscape(regionCode)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("server request failed (is the server running? try -direct): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var snapshot forecast.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode server response: %w", err)
	}
	return &snapshot, nil
}

// fetchDirect runs the full pipeline locally against the BMKG API
func fetchDirect(configPath, regionCode string) (*forecast.Snapshot, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadWithFallback(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if regionCode == "" {
		regionCode = cfg.Station.DefaultRegionCode
	}
	if regionCode == "" {
		return nil, fmt.Errorf("no region code given and no default configured")
	}

	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	if err != nil {
		return nil, err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.BMKG.RequestTimeoutSeconds+5)*time.Second)
	defer cancel()

	client := bmkg.NewClient(cfg.BMKG, log)
	resp, err := client.FetchForecast(ctx, regionCode)
	if err != nil {
		return nil, err
	}

	records, err := forecast.Flatten(resp)
	if err != nil {
		return nil, err
	}

	declination := wxcalc.MagneticVariation(cfg.Station.Latitude, cfg.Station.Longitude, cfg.Station.ElevationFeet, time.Now())
	opts := forecast.OptionsFromConfig(cfg.Derived, declination)

	return &forecast.Snapshot{
		RegionCode: regionCode,
		FetchedAt:  time.Now().UTC(),
		Records:    forecast.Enrich(records, opts),
	}, nil
}

func printSnapshot(snapshot *forecast.Snapshot, slots int) {
	current := snapshot.Current()
	if current == nil {
		fmt.Println("No forecast records available")
		return
	}

	sectionColor.Printf("Forecast for %s", snapshot.RegionCode)
	if current.Regency != "" {
		sectionColor.Printf(" (%s, %s)", current.Regency, current.Province)
	}
	fmt.Println()
	fmt.Println()

	printField("Valid (local)", timeStr(current.LocalTime))
	printField("Temperature", metricStr(current.TempC, 1, " C"))
	printField("Dew point", metricStr(current.DewPointC, 1, " C"))
	printField("Humidity", metricStr(current.HumidityPct, 0, "%"))
	printField("Wind", windStr(current))
	printField("Visibility", current.VisibilityDisplay)
	printField("Ceiling", ceilingStr(current))
	printField("Weather", weatherStr(current))
	printField("Precip (acc.)", metricStr(current.PrecipMM, 1, " mm"))
	fmt.Println()

	labelColor.Printf("%-16s", "Flight category")
	categoryColor(current.Category).Println(current.Category)
	labelColor.Printf("%-16s", "Takeoff")
	statusColor(current.Takeoff).Println(current.Takeoff)
	labelColor.Printf("%-16s", "Landing")
	statusColor(current.Landing).Println(current.Landing)
	for _, reason := range current.Rationale {
		fmt.Printf("  - %s\n", reason)
	}
	fmt.Println()

	// Upcoming slots, compact
	n := slots
	if n > len(snapshot.Records) {
		n = len(snapshot.Records)
	}
	if n > 1 {
		sectionColor.Println("Upcoming")
		for _, rec := range snapshot.Records[1:n] {
			fmt.Printf("  %s  %s  %s  %s  ",
				timeStr(rec.LocalTime),
				metricStr(rec.TempC, 0, "C"),
				windStr(&rec),
				rec.VisibilityDisplay)
			categoryColor(rec.Category).Println(rec.Category)
		}
	}
}

func printField(label, value string) {
	labelColor.Printf("%-16s", label)
	valueColor.Println(value)
}

func metricStr(m forecast.Metric, decimals int, unit string) string {
	if m.IsNaN() {
		return "N/A"
	}
	return fmt.Sprintf("%.*f%s", decimals, float64(m), unit)
}

func timeStr(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("02 Jan 15:04")
}

func windStr(rec *forecast.EnrichedRecord) string {
	if rec.WindSpeedKt.IsNaN() {
		return "N/A"
	}
	if rec.WindDirDeg.IsNaN() {
		return fmt.Sprintf("%.1f kt", float64(rec.WindSpeedKt))
	}
	return fmt.Sprintf("%03.0f/%.1fkt", float64(rec.WindDirDeg), float64(rec.WindSpeedKt))
}

func ceilingStr(rec *forecast.EnrichedRecord) string {
	if rec.CeilingFt.IsNaN() {
		return "N/A"
	}
	return fmt.Sprintf("%s, est. %.0f ft", rec.CeilingLabel, float64(rec.CeilingFt))
}

func weatherStr(rec *forecast.EnrichedRecord) string {
	if rec.WeatherDescEN != "" {
		return rec.WeatherDescEN
	}
	if rec.WeatherDesc != "" {
		return rec.WeatherDesc
	}
	return "N/A"
}

func categoryColor(category string) *color.Color {
	switch category {
	case string(wxcalc.CategoryVFR):
		return vfrColor
	case string(wxcalc.CategoryMVFR):
		return mvfrColor
	case string(wxcalc.CategoryIFR):
		return ifrColor
	default:
		return unknownColor
	}
}

func statusColor(status string) *color.Color {
	switch status {
	case string(wxcalc.StatusRecommended):
		return okColor
	case string(wxcalc.StatusCaution):
		return cautionColor
	default:
		return noGoColor
	}
}
