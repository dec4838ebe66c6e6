package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables consulted after the config files are merged.
const (
	EnvORSAPIKey  = "ORS_API_KEY"
	EnvAccessCode = "INTERNMAP_ACCESS_CODE"
	EnvLogLevel   = "INTERNMAP_LOG_LEVEL"
)

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a lat/lng rectangle used to bias and filter address lookups.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Contains reports whether p lies inside the rectangle (edges inclusive).
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// Config holds application configuration.
type Config struct {
	// StoreQuotaBytes caps the serialized size of the profile array.
	// Writes that would exceed it fail the same way a full browser storage quota does.
	StoreQuotaBytes int `json:"store_quota_bytes"`

	// TestMarkers are case-insensitive substrings; profiles whose first or last name
	// contains one are removed at boot.
	TestMarkers []string `json:"test_markers,omitempty"`

	// Origin is the fixed point travel times are measured from.
	Origin *Point `json:"origin,omitempty"`

	// MetroBounds biases geocoding and drops search results outside the metro area.
	MetroBounds *Bounds `json:"metro_bounds,omitempty"`

	// GeoTimeoutMS bounds every external provider call.
	GeoTimeoutMS int `json:"geo_timeout_ms"`

	// Provider endpoints. "off" disables the provider.
	NominatimURL string `json:"nominatim_url,omitempty"`
	PhotonURL    string `json:"photon_url,omitempty"`
	OSRMURL      string `json:"osrm_url,omitempty"`
	ORSURL       string `json:"ors_url,omitempty"`

	// ORSAPIKey authenticates OpenRouteService. Usually supplied via ORS_API_KEY.
	ORSAPIKey string `json:"ors_api_key,omitempty"`

	// UserAgent is sent to providers; Nominatim's usage policy requires one.
	UserAgent string `json:"user_agent,omitempty"`

	// AccessCode gates profile submission. It is a shared string, not a credential.
	// Empty disables the gate.
	AccessCode string `json:"access_code,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// AllowedPaths are extra directories CSV files may be imported from.
	// Only absolute paths are honored. ~/.internmap/imports is always allowed.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths lifts the directory restriction on imports.
	// Symlinks are still rejected.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`
	// LogFormat is text or json.
	LogFormat string `json:"log_format,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StoreQuotaBytes: 5 * 1024 * 1024,
		TestMarkers:     []string{"asdf"},
		Origin:          &Point{Lat: 47.6101, Lng: -122.2015},
		MetroBounds:     &Bounds{MinLat: 47.30, MinLng: -122.50, MaxLat: 47.90, MaxLng: -121.90},
		GeoTimeoutMS:    5000,
		NominatimURL:    "https://nominatim.openstreetmap.org",
		PhotonURL:       "https://photon.komoot.io",
		OSRMURL:         "https://router.project-osrm.org",
		ORSURL:          "https://api.openrouteservice.org",
		UserAgent:       "internmap/1.0",
		LogLevel:        "warn",
		LogFormat:       "text",
	}
}

// Load loads configuration from baseDir/config.json, then applies the environment.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	if err := LoadEnv(baseDir); err != nil {
		return nil, err
	}
	ApplyEnv(cfg)
	return cfg, nil
}

// LoadWithRepo loads configuration from both the global directory and the nearest
// deployment directory (.internmap/config.json found by walking upward from startDir).
// Deployment config takes precedence for scalar values; arrays are merged (deduplicated).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	if err := LoadEnv(globalDir); err != nil {
		return nil, err
	}

	cfg := Merge(Merge(DefaultConfig(), global), repo)
	ApplyEnv(cfg)
	return cfg, nil
}

// FindRepoConfig walks upward from startDir to find the nearest .internmap/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".internmap", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadEnv loads baseDir/.env into the process environment.
// Variables already set in the environment are not overridden. A missing file is not an error.
func LoadEnv(baseDir string) error {
	err := godotenv.Load(filepath.Join(baseDir, ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ApplyEnv overlays environment-supplied secrets onto cfg.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvORSAPIKey)); v != "" {
		cfg.ORSAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAccessCode)); v != "" {
		cfg.AccessCode = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
}

// SetupLogger builds the process logger from LogLevel and LogFormat.
// Logs go to w; stdout stays reserved for command output and the MCP stream.
func SetupLogger(cfg *Config, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("log_format: unsupported format %q, expected text or json", cfg.LogFormat)
	}
	return slog.New(handler), nil
}

// ParseLogLevel maps a level name to slog.Level. Empty means warn.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log_level: unsupported level %q", level)
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.StoreQuotaBytes = firstNonZero(overlay.StoreQuotaBytes, base.StoreQuotaBytes)
	result.GeoTimeoutMS = firstNonZero(overlay.GeoTimeoutMS, base.GeoTimeoutMS)
	result.DBMaxOpenConns = firstNonZero(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstNonZero(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	result.NominatimURL = firstNonEmpty(overlay.NominatimURL, base.NominatimURL)
	result.PhotonURL = firstNonEmpty(overlay.PhotonURL, base.PhotonURL)
	result.OSRMURL = firstNonEmpty(overlay.OSRMURL, base.OSRMURL)
	result.ORSURL = firstNonEmpty(overlay.ORSURL, base.ORSURL)
	result.ORSAPIKey = firstNonEmpty(overlay.ORSAPIKey, base.ORSAPIKey)
	result.UserAgent = firstNonEmpty(overlay.UserAgent, base.UserAgent)
	result.AccessCode = firstNonEmpty(overlay.AccessCode, base.AccessCode)
	result.LogLevel = firstNonEmpty(overlay.LogLevel, base.LogLevel)
	result.LogFormat = firstNonEmpty(overlay.LogFormat, base.LogFormat)

	result.Origin = base.Origin
	if overlay.Origin != nil {
		result.Origin = overlay.Origin
	}
	result.MetroBounds = base.MetroBounds
	if overlay.MetroBounds != nil {
		result.MetroBounds = overlay.MetroBounds
	}

	result.TestMarkers = mergeStringSlice(base.TestMarkers, overlay.TestMarkers)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	return result
}

func firstNonZero(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
