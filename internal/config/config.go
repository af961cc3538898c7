package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/joho/godotenv"

	"github.com/cesargomez89/slskdsync/internal/constants"
	"github.com/cesargomez89/slskdsync/internal/quality"
)

// ErrConfiguration wraps every validation failure.
var ErrConfiguration = errors.New("configuration validation failed")

// Need selects the credential groups a command requires.
type Need int

const (
	NeedSlskd Need = 1 << iota
	NeedSpotify
)

// Config holds all application configuration
type Config struct {
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURL  string

	SlskdAPIKey   string
	SlskdHost     string
	SlskdURLBase  string
	DownloadsDir  string
	IncompleteDir string

	MusicRoots     []string
	PathTemplate   string
	MatchBareTitle bool

	EnrichMetadata bool
	MusicBrainzURL string

	ProfileName string
	Profile     quality.Profile
	TrackLimit  int
	Pacing      time.Duration
	CacheTTL    time.Duration

	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	// Warnings are non-fatal problems found while loading.
	Warnings []string

	problems []string
}

// Load reads a .env file when present, then the environment, filling
// defaults for anything unset.
func Load() *Config {
	_ = godotenv.Load()

	c := &Config{
		SpotifyClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
		SpotifyRedirectURL:  getEnv("SPOTIFY_REDIRECT_URL", constants.DefaultRedirectURL),
		SlskdAPIKey:         getEnv("SLSKD_API_KEY", ""),
		SlskdHost:           getEnv("SLSKD_HOST", constants.DefaultSlskdHost),
		SlskdURLBase:        getEnv("SLSKD_URL_BASE", constants.DefaultSlskdURLBase),
		DownloadsDir:        expandHome(getEnv("SLSKD_DOWNLOADS_DIR", "~/.local/share/slskd/downloads")),
		IncompleteDir:       expandHome(getEnv("SLSKD_INCOMPLETE_DIR", "~/.local/share/slskd/incomplete")),
		PathTemplate:        getEnv("PATH_TEMPLATE", constants.DefaultPathTemplate),
		MusicBrainzURL:      getEnv("MUSICBRAINZ_URL", constants.DefaultMusicBrainzURL),
		ProfileName:         getEnv("QUALITY_PROFILE", constants.DefaultQuality),
		Port:                getEnv("PORT", constants.DefaultPort),
		DBPath:              getEnv("DB_PATH", constants.DefaultDBPath),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
	}

	for _, root := range filepath.SplitList(getEnv("MUSIC_ROOT", "~/Media/music")) {
		if root = strings.TrimSpace(root); root != "" {
			c.MusicRoots = append(c.MusicRoots, expandHome(root))
		}
	}

	c.TrackLimit = c.intEnv("TRACK_LIMIT", constants.DefaultTrackLimit)
	c.Pacing = c.durationEnv("PACING", constants.DefaultPacing)
	c.CacheTTL = c.durationEnv("CACHE_TTL", constants.DefaultCacheTTL)
	c.MatchBareTitle = c.boolEnv("LIBRARY_MATCH_BARE_TITLE", true)
	c.EnrichMetadata = c.boolEnv("ENRICH_METADATA", true)
	c.SetProfile(c.ProfileName)

	return c
}

// SetProfile resolves name, falling back to LOSSLESS with a warning when
// it is not a known profile.
func (c *Config) SetProfile(name string) {
	p, ok := quality.ParseProfile(name)
	if !ok {
		c.Warnings = append(c.Warnings, fmt.Sprintf("unknown QUALITY_PROFILE %q, using %s", name, p))
	}
	c.ProfileName = p.String()
	c.Profile = p
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate(needs Need) error {
	errs := append([]string(nil), c.problems...)

	if needs&NeedSlskd != 0 {
		if c.SlskdAPIKey == "" {
			errs = append(errs, "SLSKD_API_KEY is required")
		}
		if c.SlskdHost == "" {
			errs = append(errs, "SLSKD_HOST cannot be empty")
		}
		if c.DownloadsDir == "" {
			errs = append(errs, "SLSKD_DOWNLOADS_DIR cannot be empty")
		}
	}
	if needs&NeedSpotify != 0 {
		if c.SpotifyClientID == "" {
			errs = append(errs, "SPOTIFY_CLIENT_ID is required")
		}
		if c.SpotifyClientSecret == "" {
			errs = append(errs, "SPOTIFY_CLIENT_SECRET is required")
		}
		if c.SpotifyRedirectURL == "" {
			errs = append(errs, "SPOTIFY_REDIRECT_URL cannot be empty")
		}
	}

	// Validate Port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
	}

	if c.EnrichMetadata && c.MusicBrainzURL == "" {
		errs = append(errs, "MUSICBRAINZ_URL cannot be empty when ENRICH_METADATA is on")
	}
	if c.DBPath == "" {
		errs = append(errs, "DB_PATH cannot be empty")
	}
	if len(c.MusicRoots) == 0 {
		errs = append(errs, "MUSIC_ROOT cannot be empty")
	}
	if c.TrackLimit < 0 {
		errs = append(errs, fmt.Sprintf("TRACK_LIMIT cannot be negative, got: %d", c.TrackLimit))
	}
	if c.Pacing < 0 {
		errs = append(errs, fmt.Sprintf("PACING cannot be negative, got: %s", c.Pacing))
	}
	if _, err := template.New("path").Parse(c.PathTemplate); err != nil || strings.TrimSpace(c.PathTemplate) == "" {
		errs = append(errs, fmt.Sprintf("PATH_TEMPLATE is not a valid template: %q", c.PathTemplate))
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrConfiguration, strings.Join(errs, "\n  - "))
	}

	return nil
}

// MusicRoot is the first root, where new tracks are filed.
func (c *Config) MusicRoot() string {
	if len(c.MusicRoots) == 0 {
		return ""
	}
	return c.MusicRoots[0]
}

func (c *Config) intEnv(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s must be a number, got: %s", key, raw))
		return fallback
	}
	return v
}

func (c *Config) durationEnv(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s must be a duration like 2s, got: %s", key, raw))
		return fallback
	}
	return v
}

func (c *Config) boolEnv(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s must be true or false, got: %s", key, raw))
		return fallback
	}
	return v
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
