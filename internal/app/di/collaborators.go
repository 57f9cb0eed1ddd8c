package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"company_analyzer/internal/app/config"
	"company_analyzer/internal/feature/analysis/adapters/archive"
	"company_analyzer/internal/feature/analysis/adapters/gemini"
	"company_analyzer/internal/feature/analysis/adapters/openai"
	"company_analyzer/internal/feature/analysis/adapters/remote"
	"company_analyzer/internal/feature/analysis/adapters/research"
	"company_analyzer/internal/feature/analysis/adapters/website"
	"company_analyzer/internal/feature/analysis/usecase"
	"company_analyzer/internal/shared/ratelimiter"
)

// NewCollaborators assembles the external collaborators of the analysis usecase.
// Optional collaborators that cannot be reached are left out with a warning.
func NewCollaborators(ctx context.Context, cfg config.Config) (usecase.Collaborators, error) {
	c := usecase.Collaborators{SyncTimeout: cfg.SyncTimeout}

	rc, err := newRemoteClient()
	if err != nil {
		return usecase.Collaborators{}, err
	}

	switch cfg.Provider {
	case config.ProviderGemini, config.ProviderOpenAI:
		analyzer, err := NewPromptAnalyzer(ctx, cfg.Provider)
		if err != nil {
			return usecase.Collaborators{}, err
		}
		c.Provider = NewResearchProvider(analyzer)
	case config.ProviderRemote:
		if rc == nil {
			return usecase.Collaborators{}, fmt.Errorf("ANALYSIS_PROVIDER=remote: %w", remote.ErrNoBaseURL)
		}
		c.Provider = rc
	}

	if rc != nil {
		if cfg.RemoteSync {
			c.Synchronizer = rc
		}
		if cfg.RemoteRender {
			c.Renderer = rc
		}
	}

	if cfg.ArchiveReport {
		store, err := archive.New(ctx, archive.LoadConfigFromEnv())
		if err != nil {
			slog.Warn("report archive unavailable, exporting without archive", "error", err)
		} else {
			c.Archive = store
		}
	}
	return c, nil
}

// NewPromptAnalyzer creates the language model client named by provider.
func NewPromptAnalyzer(ctx context.Context, provider string) (research.PromptAnalyzer, error) {
	switch provider {
	case config.ProviderGemini:
		g, err := gemini.NewGeminiAnalyzer(ctx, gemini.LoadConfigFromEnv())
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.ProviderOpenAI:
		oc := openai.LoadConfigFromEnv()
		if oc.APIKey == "" && oc.BaseURL == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}
		return openai.NewClient(oc, nil), nil
	}
	return nil, fmt.Errorf("provider %q has no prompt analyzer", provider)
}

// NewResearchProvider wraps analyzer with rate limiting, retries and website provenance.
func NewResearchProvider(analyzer research.PromptAnalyzer) *research.Provider {
	rcfg := research.LoadConfigFromEnv()
	limiter := ratelimiter.NewRateLimiter(rcfg.RPM, rcfg.Burst)
	return research.NewProvider(analyzer, limiter, website.NewFetcher(nil), rcfg)
}

// newRemoteClient returns nil when no remote service is configured.
func newRemoteClient() (*remote.Client, error) {
	rcfg := remote.LoadConfigFromEnv()
	if rcfg.BaseURL == "" {
		return nil, nil
	}
	return remote.NewClient(rcfg, nil)
}
