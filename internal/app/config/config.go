// Package config loads the process-level settings of the analyzer service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"company_analyzer/internal/feature/analysis/usecase"
	jwtmw "company_analyzer/internal/platform/jwt"
)

// Provider names accepted by ANALYSIS_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderRemote = "remote"
	ProviderNone   = "none"
)

// DefaultPort is used when PORT is unset.
const DefaultPort = "8080"

// Config holds the settings that choose how the service is assembled.
// Adapter packages read their own connection settings.
type Config struct {
	Port          string
	Provider      string
	JWTSecret     string
	SyncTimeout   time.Duration
	ArchiveReport bool
	RemoteSync    bool
	RemoteRender  bool
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Port:         getEnv("PORT", DefaultPort),
		Provider:     strings.ToLower(getEnv("ANALYSIS_PROVIDER", ProviderNone)),
		JWTSecret:    os.Getenv(jwtmw.EnvKeyJWTSecret),
		SyncTimeout:  usecase.DefaultSyncTimeout,
		RemoteSync:   true,
		RemoteRender: true,
	}

	switch cfg.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderRemote, ProviderNone:
	default:
		return Config{}, fmt.Errorf("unsupported ANALYSIS_PROVIDER %q", cfg.Provider)
	}

	if v := os.Getenv("SYNC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid SYNC_TIMEOUT %q", v)
		}
		cfg.SyncTimeout = d
	}

	var err error
	if cfg.ArchiveReport, err = getBool("REPORT_ARCHIVE", false); err != nil {
		return Config{}, err
	}
	if cfg.RemoteSync, err = getBool("REMOTE_SYNC", true); err != nil {
		return Config{}, err
	}
	if cfg.RemoteRender, err = getBool("REMOTE_RENDER", true); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c Config) Addr() string { return ":" + c.Port }

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, v)
	}
	return b, nil
}
