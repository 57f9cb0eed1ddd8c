// Package research builds analysis records by asking a language model a fixed
// set of research prompts about a company.
package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"company_analyzer/internal/feature/analysis/adapters/website"
	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/feature/analysis/usecase"
)

// Sources is the research provenance recorded on every researched record.
var Sources = []string{
	"Web search results",
	"Company official sources",
	"Financial databases",
	"Industry reports",
}

var errEmptyResponse = errors.New("empty response")

// PromptAnalyzer answers a single prompt with model text.
type PromptAnalyzer interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}

// Limiter paces calls to the analyzer.
type Limiter interface {
	Wait(ctx context.Context) error
}

// SiteFetcher reads the company web site.
type SiteFetcher interface {
	Fetch(ctx context.Context, rawURL string) (website.Page, error)
}

// Config tunes the prompt loop.
type Config struct {
	RPM      int           // analyzer calls per minute; 0 disables limiting
	Burst    int           // calls allowed at once
	Attempts int           // tries per prompt
	Backoff  time.Duration // pause between tries
}

// DefaultConfig matches a free-tier Gemini key.
func DefaultConfig() Config {
	return Config{RPM: 60, Burst: 4, Attempts: 2, Backoff: 2 * time.Second}
}

// LoadConfigFromEnv reads RESEARCH_RPM, RESEARCH_BURST, RESEARCH_RETRIES and
// RESEARCH_BACKOFF over DefaultConfig.
func LoadConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v, err := strconv.Atoi(os.Getenv("RESEARCH_RPM")); err == nil && v >= 0 {
		cfg.RPM = v
	}
	if v, err := strconv.Atoi(os.Getenv("RESEARCH_BURST")); err == nil && v > 0 {
		cfg.Burst = v
	}
	if v, err := strconv.Atoi(os.Getenv("RESEARCH_RETRIES")); err == nil && v > 0 {
		cfg.Attempts = v
	}
	if v, err := time.ParseDuration(os.Getenv("RESEARCH_BACKOFF")); err == nil && v >= 0 {
		cfg.Backoff = v
	}
	return cfg
}

// Provider fans the research prompts out to a PromptAnalyzer and folds the
// answers into a scaffold record.
type Provider struct {
	analyzer PromptAnalyzer
	limiter  Limiter
	site     SiteFetcher
	cfg      Config
	now      func() time.Time
}

var _ usecase.Provider = (*Provider)(nil)

// NewProvider returns a Provider. limiter and site may be nil.
func NewProvider(analyzer PromptAnalyzer, limiter Limiter, site SiteFetcher, cfg Config) *Provider {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &Provider{
		analyzer: analyzer,
		limiter:  limiter,
		site:     site,
		cfg:      cfg,
		now:      time.Now,
	}
}

type answers struct {
	mu     sync.Mutex
	flat   map[promptKind]answer
	market map[string]answer
	errs   []error
}

// FetchAnalysis runs every prompt concurrently. Fields are filled only from
// usable answers; it fails only when every prompt failed.
func (p *Provider) FetchAnalysis(ctx context.Context, companyName string) (entity.AnalysisRecord, error) {
	kinds := []promptKind{promptBasic, promptFinancial, promptProducts, promptMarket}
	res := &answers{flat: make(map[promptKind]answer)}

	var g errgroup.Group
	for _, kind := range kinds {
		g.Go(func() error {
			text, err := p.ask(ctx, buildPrompt(kind, companyName))
			if err == nil {
				err = res.add(kind, text)
			}
			if err != nil {
				slog.Warn("research prompt failed", "company", companyName, "prompt", string(kind), "error", err)
				res.fail(fmt.Errorf("%s: %w", kind, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(res.errs) == len(kinds) {
		return entity.AnalysisRecord{}, fmt.Errorf("research failed for %q: %w", companyName, errors.Join(res.errs...))
	}

	r := entity.NewScaffold(companyName, p.now())
	fill(r, res.flat[promptProducts], productFields)
	fill(r, res.flat[promptBasic], basicFields)
	fill(r, res.flat[promptFinancial], financialFields)
	fillMarket(r, res.market)

	r.ResearchSources = append(r.ResearchSources, Sources...)
	p.inspectSite(ctx, &r)
	return r, nil
}

func (a *answers) add(kind promptKind, text string) error {
	if kind == promptMarket {
		m, err := decodeMarket(text)
		if err != nil {
			return err
		}
		a.mu.Lock()
		a.market = m
		a.mu.Unlock()
		return nil
	}
	ans, err := decodeAnswer(text)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.flat[kind] = ans
	a.mu.Unlock()
	return nil
}

func (a *answers) fail(err error) {
	a.mu.Lock()
	a.errs = append(a.errs, err)
	a.mu.Unlock()
}

// ask sends prompt with retries, pausing cfg.Backoff between attempts.
func (p *Provider) ask(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.Attempts; attempt++ {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}
		text, err := p.analyzer.Analyze(ctx, prompt)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				err = errEmptyResponse
			} else if _, err = extractJSON(text); err == nil {
				return text, nil
			}
		}
		lastErr = err
		if attempt == p.cfg.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.cfg.Backoff):
		}
	}
	return "", fmt.Errorf("after %d attempts: %w", p.cfg.Attempts, lastErr)
}

// fill writes usable answers into fields still holding the placeholder.
func fill(r entity.AnalysisRecord, a answer, mappings []fieldMapping) {
	for _, m := range mappings {
		v := a[m.key]
		if !usable(v) {
			continue
		}
		dst := r.CompanyInfo
		if m.section == entity.SectionProductsServices {
			dst = r.ProductsServices
		}
		if !entity.IsPlaceholder(dst[m.field]) {
			continue
		}
		dst[m.field] = v
	}
}

func fillMarket(r entity.AnalysisRecord, m map[string]answer) {
	if len(m) == 0 {
		return
	}
	byName := make(map[string]answer, len(m))
	for k, v := range m {
		byName[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for _, dim := range entity.ComparisonDimensions() {
		row, ok := byName[strings.ToLower(dim)]
		if !ok {
			continue
		}
		for key, col := range marketColumns {
			if v := row[key]; usable(v) {
				r.MarketComparison[dim][col] = v
			}
		}
	}
}

// inspectSite records the company web site as a source and uses its summary
// when no differentiation was found.
func (p *Provider) inspectSite(ctx context.Context, r *entity.AnalysisRecord) {
	url := r.CompanyInfo["Company Website"]
	if p.site == nil || entity.IsPlaceholder(url) {
		return
	}
	page, err := p.site.Fetch(ctx, url)
	if err != nil {
		slog.Warn("company website unavailable", "url", url, "error", err)
		return
	}
	label := page.Title
	if label == "" {
		label = page.SiteName
	}
	if label != "" {
		r.ResearchSources = append(r.ResearchSources, fmt.Sprintf("Company website: %s (%s)", label, page.URL))
	} else {
		r.ResearchSources = append(r.ResearchSources, "Company website: "+page.URL)
	}
	const diff = "Product / Service Differentiation"
	if entity.IsPlaceholder(r.ProductsServices[diff]) && page.Excerpt != "" {
		r.ProductsServices[diff] = page.Excerpt
	}
}
