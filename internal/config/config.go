package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server   ServerConfig   `toml:"server"`   // HTTP server settings
	Logging  LoggingConfig  `toml:"logging"`  // Application logging settings
	BMKG     BMKGConfig     `toml:"bmkg"`     // Upstream forecast API settings
	Derived  DerivedConfig  `toml:"derived"`  // Derived meteorology thresholds
	Station  StationConfig  `toml:"station"`  // Default region and runway settings
	Storage  StorageConfig  `toml:"storage"`  // Forecast archive settings
	Briefing BriefingConfig `toml:"briefing"` // AI briefing settings
	Report   ReportConfig   `toml:"report"`   // MET report rendering settings
	Map      MapConfig      `toml:"map"`      // Map tile settings for the dashboard
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // Primary HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	AdditionalPorts    []int    `toml:"additional_ports"`      // Additional HTTP ports to listen on (useful for multiple interfaces)
	StaticFilesDir     string   `toml:"static_files_dir"`      // Directory to serve the dashboard front-end from (e.g., "www")
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// BMKGConfig contains settings for the upstream BMKG public forecast API
type BMKGConfig struct {
	BaseURL                string  `toml:"base_url"`                 // Forecast endpoint (default: https://api.bmkg.go.id/publik/prakiraan-cuaca)
	AdmLevel               string  `toml:"adm_level"`                // Query parameter name for the region code: "adm1", "adm2" or "adm4"
	RequestTimeoutSeconds  int     `toml:"request_timeout_seconds"`  // HTTP timeout for forecast requests
	MaxRetries             int     `toml:"max_retries"`              // Retry attempts on failure (0 = no retries)
	CacheTTLMinutes        int     `toml:"cache_ttl_minutes"`        // How long a fetched forecast stays fresh per region code
	RefreshIntervalMinutes int     `toml:"refresh_interval_minutes"` // Background refresh interval for the default region (0 = disabled)
	RateLimitRPS           float64 `toml:"rate_limit_rps"`           // Maximum requests per second to the upstream API
	RateLimitBurst         int     `toml:"rate_limit_burst"`         // Maximum burst size allowed by the rate limiter
	UserAgent              string  `toml:"user_agent"`               // User-Agent header sent to the upstream API
}

// DerivedConfig contains thresholds for the derived meteorology calculator.
// The flight category cutoffs vary between operations manuals, so they are
// configurable rather than baked in.
type DerivedConfig struct {
	VFRMinVisSM     float64 `toml:"vfr_min_vis_sm"`     // Minimum visibility (statute miles) for VFR
	VFRMinCeilingFt float64 `toml:"vfr_min_ceiling_ft"` // Ceiling must be strictly above this for VFR
	IFRMaxVisSM     float64 `toml:"ifr_max_vis_sm"`     // Visibility strictly below this is IFR
	IFRMaxCeilingFt float64 `toml:"ifr_max_ceiling_ft"` // Ceiling at or below this is IFR

	WindNoGoKt     float64 `toml:"wind_no_go_kt"`     // Wind at or above this grounds takeoff and landing
	WindAdvisoryKt float64 `toml:"wind_advisory_kt"`  // Wind at or above this adds an advisory note
	VisNoLandingM  float64 `toml:"vis_no_landing_m"`  // Visibility below this blocks landing
	RainCautionMM  float64 `toml:"rain_caution_mm"`   // Accumulated rain at or above this downgrades to Caution
	RainAdvisoryMM float64 `toml:"rain_advisory_mm"`  // Accumulated rain above this adds an advisory note
}

// StationConfig contains the default region and the runways the dashboard
// computes wind components for
type StationConfig struct {
	DefaultRegionCode string          `toml:"default_region_code"` // ADM4 code fetched by the background refresher (e.g., "31.71.01.1001")
	Name              string          `toml:"name"`                // Human-readable station name
	Latitude          float64         `toml:"latitude"`            // Station latitude in decimal degrees
	Longitude         float64         `toml:"longitude"`           // Station longitude in decimal degrees
	ElevationFeet     float64         `toml:"elevation_feet"`      // Station elevation above sea level in feet
	Runways           []RunwayConfig  `toml:"runways"`             // Runways to resolve wind components for
}

// RunwayConfig describes a single runway end
type RunwayConfig struct {
	ID         string  `toml:"id"`          // Runway designator (e.g., "24L")
	HeadingMag float64 `toml:"heading_mag"` // Magnetic heading of the runway in degrees
}

// StorageConfig contains forecast archive settings
type StorageConfig struct {
	ArchiveEnabled   bool   `toml:"archive_enabled"`    // Persist enriched records on every successful fetch
	SQLitePath       string `toml:"sqlite_path"`        // Path to the SQLite database file
	MaxRecordsInAPI  int    `toml:"max_records_in_api"` // Maximum archive rows returned by the history endpoint
}

// BriefingConfig contains AI briefing settings
type BriefingConfig struct {
	Enabled        bool   `toml:"enabled"`         // Enable the plain-language briefing endpoint
	APIKey         string `toml:"api_key"`         // Gemini API key (may also come from GEMINI_API_KEY)
	Model          string `toml:"model"`           // Model name (e.g., "gemini-2.0-flash")
	PromptPath     string `toml:"prompt_path"`     // Optional path to a prompt template override
	TimeoutSeconds int    `toml:"timeout_seconds"` // Request timeout for briefing generation
}

// ReportConfig contains MET report rendering settings
type ReportConfig struct {
	TemplatePath string `toml:"template_path"` // Optional path to an HTML template overriding the embedded one
}

// MapConfig contains optional map tile overrides for the dashboard front-end.
// Both values may instead be supplied via the MAP_TILE_URL and
// MAP_ATTRIBUTION environment variables.
type MapConfig struct {
	TileURL     string `toml:"tile_url"`    // Tile server URL template
	Attribution string `toml:"attribution"` // Attribution string shown on the map
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyEnvOverrides()

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // Location in configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// applyEnvOverrides fills in values that may come from the environment
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MAP_TILE_URL"); v != "" {
		c.Map.TileURL = v
	}
	if v := os.Getenv("MAP_ATTRIBUTION"); v != "" {
		c.Map.Attribution = v
	}
	if c.Briefing.APIKey == "" {
		c.Briefing.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// Validate validates the configuration and applies defaults for unset fields
func (c *Config) Validate() error {
	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	portsSeen := map[int]bool{c.Server.Port: true}
	for _, p := range c.Server.AdditionalPorts {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("invalid additional server port: %d", p)
		}
		if portsSeen[p] {
			return fmt.Errorf("duplicate port configured: %d (primary or additional)", p)
		}
		portsSeen[p] = true
	}
	if c.Server.StaticFilesDir == "" {
		c.Server.StaticFilesDir = "www"
	}

	// Logging
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be 'debug', 'info', 'warn', or 'error')", c.Logging.Level)
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	// BMKG upstream
	if c.BMKG.BaseURL == "" {
		c.BMKG.BaseURL = "https://api.bmkg.go.id/publik/prakiraan-cuaca"
	}
	if c.BMKG.AdmLevel == "" {
		c.BMKG.AdmLevel = "adm4"
	}
	if c.BMKG.AdmLevel != "adm1" && c.BMKG.AdmLevel != "adm2" && c.BMKG.AdmLevel != "adm4" {
		return fmt.Errorf("invalid adm_level: %s (must be 'adm1', 'adm2', or 'adm4')", c.BMKG.AdmLevel)
	}
	if c.BMKG.RequestTimeoutSeconds <= 0 {
		c.BMKG.RequestTimeoutSeconds = 15
	}
	if c.BMKG.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be 0 or greater")
	}
	if c.BMKG.CacheTTLMinutes <= 0 {
		c.BMKG.CacheTTLMinutes = 10
	}
	if c.BMKG.RefreshIntervalMinutes < 0 {
		return fmt.Errorf("refresh_interval_minutes must be 0 or greater")
	}
	if c.BMKG.RateLimitRPS <= 0 {
		c.BMKG.RateLimitRPS = 1.0
	}
	if c.BMKG.RateLimitBurst <= 0 {
		c.BMKG.RateLimitBurst = 3
	}
	if c.BMKG.UserAgent == "" {
		c.BMKG.UserAgent = "Mozilla/5.0 (TacWX/1.0)"
	}

	// Derived thresholds
	if c.Derived.VFRMinVisSM == 0 {
		c.Derived.VFRMinVisSM = 5.0
	}
	if c.Derived.VFRMinCeilingFt == 0 {
		c.Derived.VFRMinCeilingFt = 3000
	}
	if c.Derived.IFRMaxVisSM == 0 {
		c.Derived.IFRMaxVisSM = 3.0
	}
	if c.Derived.IFRMaxCeilingFt == 0 {
		c.Derived.IFRMaxCeilingFt = 1000
	}
	if c.Derived.IFRMaxVisSM > c.Derived.VFRMinVisSM {
		return fmt.Errorf("ifr_max_vis_sm (%.1f) must not exceed vfr_min_vis_sm (%.1f)", c.Derived.IFRMaxVisSM, c.Derived.VFRMinVisSM)
	}
	if c.Derived.IFRMaxCeilingFt > c.Derived.VFRMinCeilingFt {
		return fmt.Errorf("ifr_max_ceiling_ft (%.0f) must not exceed vfr_min_ceiling_ft (%.0f)", c.Derived.IFRMaxCeilingFt, c.Derived.VFRMinCeilingFt)
	}
	if c.Derived.WindNoGoKt == 0 {
		c.Derived.WindNoGoKt = 30
	}
	if c.Derived.WindAdvisoryKt == 0 {
		c.Derived.WindAdvisoryKt = 20
	}
	if c.Derived.VisNoLandingM == 0 {
		c.Derived.VisNoLandingM = 1000
	}
	if c.Derived.RainCautionMM == 0 {
		c.Derived.RainCautionMM = 20
	}
	if c.Derived.RainAdvisoryMM == 0 {
		c.Derived.RainAdvisoryMM = 5
	}

	// Station
	if c.Station.Latitude < -90 || c.Station.Latitude > 90 {
		return fmt.Errorf("invalid station latitude: %f", c.Station.Latitude)
	}
	if c.Station.Longitude < -180 || c.Station.Longitude > 180 {
		return fmt.Errorf("invalid station longitude: %f", c.Station.Longitude)
	}
	runwaysSeen := make(map[string]bool)
	for _, rwy := range c.Station.Runways {
		if rwy.ID == "" {
			return fmt.Errorf("runway id cannot be empty")
		}
		if runwaysSeen[rwy.ID] {
			return fmt.Errorf("duplicate runway id: %s", rwy.ID)
		}
		runwaysSeen[rwy.ID] = true
		if rwy.HeadingMag < 0 || rwy.HeadingMag >= 360 {
			return fmt.Errorf("invalid runway heading for %s: %f (must be in [0, 360))", rwy.ID, rwy.HeadingMag)
		}
	}

	// Storage
	if c.Storage.ArchiveEnabled && c.Storage.SQLitePath == "" {
		return fmt.Errorf("sqlite_path is required when archive_enabled is true")
	}
	if c.Storage.MaxRecordsInAPI <= 0 {
		c.Storage.MaxRecordsInAPI = 500
	}

	// Briefing
	if c.Briefing.Enabled {
		if c.Briefing.APIKey == "" {
			return fmt.Errorf("briefing api_key is required when briefing is enabled (set it in config or GEMINI_API_KEY)")
		}
		if c.Briefing.Model == "" {
			c.Briefing.Model = "gemini-2.0-flash"
		}
		if c.Briefing.TimeoutSeconds <= 0 {
			c.Briefing.TimeoutSeconds = 30
		}
	}

	return nil
}
