package research_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"company_analyzer/internal/feature/analysis/adapters/research"
	"company_analyzer/internal/feature/analysis/adapters/website"
	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/shared/ratelimiter"
)

var _ research.Limiter = (*ratelimiter.RateLimiter)(nil)

var errModel = errors.New("model unavailable")

const (
	basicJSON = `{"website":"acme.example","headquarters":"Berlin, Germany","industry":"Software",
"market_region":"N/A","description":"Workflow automation for factories"}`
	financialJSON = "```json\n{\"company_size\": 1200, \"listing_status\": \"Private\"}\n```"
	productsJSON  = `{"key_products_services":["Flow","Flow Cloud"],"differentiation":"Edge-first runtime","target_customers":"B2B"}`
	marketJSON    = `{"pricing":{"industry_standard":"Per seat","target_company":"Usage based","competitor_a":"Globex: per seat","competitor_b":"unknown"},
"Invented Dimension":{"industry_standard":"x"}}`
)

// fakeAnalyzer はプロンプトの内容に応じて応答を返すPromptAnalyzerのモックです。
type fakeAnalyzer struct {
	calls   atomic.Int32
	respond func(prompt string) (string, error)
}

func (f *fakeAnalyzer) Analyze(_ context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	return f.respond(prompt)
}

func byPrompt(basic, financial, products, market string) func(string) (string, error) {
	return func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, `"company_size"`):
			return financial, nil
		case strings.Contains(prompt, `"gtm_strategy"`):
			return products, nil
		case strings.Contains(prompt, `"group_structure"`):
			return basic, nil
		default:
			return market, nil
		}
	}
}

type countingLimiter struct{ n atomic.Int32 }

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.n.Add(1)
	return ctx.Err()
}

type fakeSite struct {
	mu   sync.Mutex
	urls []string
	page website.Page
	err  error
}

func (s *fakeSite) Fetch(_ context.Context, rawURL string) (website.Page, error) {
	s.mu.Lock()
	s.urls = append(s.urls, rawURL)
	s.mu.Unlock()
	return s.page, s.err
}

func fastConfig() research.Config {
	return research.Config{Attempts: 2, Backoff: time.Millisecond}
}

func TestProvider_FetchAnalysis_FillsUsableAnswers(t *testing.T) {
	t.Parallel()

	an := &fakeAnalyzer{respond: byPrompt(basicJSON, financialJSON, productsJSON, marketJSON)}
	lim := &countingLimiter{}
	p := research.NewProvider(an, lim, nil, fastConfig())

	r, err := p.FetchAnalysis(context.Background(), "Acme Corp")
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", r.CompanyName)
	assert.Equal(t, "acme.example", r.CompanyInfo["Company Website"])
	assert.Equal(t, "Berlin, Germany", r.CompanyInfo["Location (HQ)"])
	assert.Equal(t, "Software", r.CompanyInfo["Industry"])
	assert.Equal(t, "1200", r.CompanyInfo["Company Size (Global Headcount)"])
	assert.Equal(t, "Private", r.CompanyInfo["Listed / Private / PE-Owned"])
	assert.Equal(t, entity.Placeholder, r.CompanyInfo["Market Region"], "N/A はプレースホルダーのまま")

	assert.Equal(t, "Flow, Flow Cloud", r.ProductsServices["Key Products / Services"])
	assert.Equal(t, "Edge-first runtime", r.ProductsServices["Product / Service Differentiation"], "製品回答が説明文より優先される")
	assert.Equal(t, "B2B", r.ProductsServices["Target Customers"])

	row := r.MarketComparison["Pricing"]
	assert.Equal(t, "Per seat", row[entity.ColumnIndustryStandard])
	assert.Equal(t, "Usage based", row[entity.ColumnTargetCompany])
	assert.Equal(t, "Globex: per seat", row[entity.ColumnCompetitorA])
	assert.Equal(t, entity.Placeholder, row[entity.ColumnCompetitorB])
	assert.NotContains(t, r.MarketComparison, "Invented Dimension")
	assert.Len(t, r.MarketComparison, len(entity.ComparisonDimensions()))

	assert.Equal(t, research.Sources, r.ResearchSources)
	_, err = time.Parse(entity.TimestampLayout, r.AnalysisTimestamp)
	assert.NoError(t, err)

	assert.EqualValues(t, 4, an.calls.Load())
	assert.EqualValues(t, 4, lim.n.Load())
}

func TestProvider_FetchAnalysis_DescriptionFallsBackToDifferentiation(t *testing.T) {
	t.Parallel()

	an := &fakeAnalyzer{respond: byPrompt(basicJSON, financialJSON, `{"differentiation":"n/a"}`, marketJSON)}
	p := research.NewProvider(an, nil, nil, fastConfig())

	r, err := p.FetchAnalysis(context.Background(), "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, "Workflow automation for factories", r.ProductsServices["Product / Service Differentiation"])
}

func TestProvider_FetchAnalysis_PartialFailure(t *testing.T) {
	t.Parallel()

	an := &fakeAnalyzer{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, `"group_structure"`) {
			return basicJSON, nil
		}
		return "", errModel
	}}
	p := research.NewProvider(an, nil, nil, fastConfig())

	r, err := p.FetchAnalysis(context.Background(), "Acme Corp")
	require.NoError(t, err)

	assert.Equal(t, "Software", r.CompanyInfo["Industry"])
	assert.Equal(t, entity.Placeholder, r.CompanyInfo["Company Stage"])
	assert.Equal(t, entity.Placeholder, r.MarketComparison["Pricing"][entity.ColumnTargetCompany])
	assert.EqualValues(t, 1+3*2, an.calls.Load(), "失敗したプロンプトは再試行される")
}

func TestProvider_FetchAnalysis_AllFail(t *testing.T) {
	t.Parallel()

	an := &fakeAnalyzer{respond: func(string) (string, error) { return "", errModel }}
	p := research.NewProvider(an, nil, nil, fastConfig())

	_, err := p.FetchAnalysis(context.Background(), "Acme Corp")
	require.Error(t, err)
	assert.ErrorIs(t, err, errModel)
	assert.EqualValues(t, 8, an.calls.Load())
}

func TestProvider_FetchAnalysis_RetriesUnparsableAnswer(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := map[string]int{}
	an := &fakeAnalyzer{respond: func(prompt string) (string, error) {
		mu.Lock()
		seen[prompt]++
		n := seen[prompt]
		mu.Unlock()
		if n == 1 {
			return "I could not find that.", nil
		}
		return byPrompt(basicJSON, financialJSON, productsJSON, marketJSON)(prompt)
	}}
	p := research.NewProvider(an, nil, nil, fastConfig())

	r, err := p.FetchAnalysis(context.Background(), "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, "Software", r.CompanyInfo["Industry"])
	assert.EqualValues(t, 8, an.calls.Load())
}

func TestProvider_FetchAnalysis_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	an := &fakeAnalyzer{respond: byPrompt(basicJSON, financialJSON, productsJSON, marketJSON)}
	p := research.NewProvider(an, &countingLimiter{}, nil, fastConfig())

	_, err := p.FetchAnalysis(ctx, "Acme Corp")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, an.calls.Load())
}

func TestProvider_FetchAnalysis_CompanyWebsite(t *testing.T) {
	t.Parallel()

	t.Run("fetched page is recorded as a source", func(t *testing.T) {
		t.Parallel()

		site := &fakeSite{page: website.Page{URL: "https://acme.example/", Title: "Acme Corp", Excerpt: "Automation"}}
		an := &fakeAnalyzer{respond: byPrompt(basicJSON, financialJSON, productsJSON, marketJSON)}
		p := research.NewProvider(an, nil, site, fastConfig())

		r, err := p.FetchAnalysis(context.Background(), "Acme Corp")
		require.NoError(t, err)

		assert.Equal(t, []string{"acme.example"}, site.urls)
		require.Len(t, r.ResearchSources, len(research.Sources)+1)
		assert.Equal(t, "Company website: Acme Corp (https://acme.example/)", r.ResearchSources[len(research.Sources)])
		assert.Equal(t, "Edge-first runtime", r.ProductsServices["Product / Service Differentiation"])
	})

	t.Run("excerpt fills missing differentiation", func(t *testing.T) {
		t.Parallel()

		site := &fakeSite{page: website.Page{URL: "https://acme.example/", Excerpt: "Automation for factories"}}
		an := &fakeAnalyzer{respond: byPrompt(`{"website":"acme.example"}`, "{}", "{}", "{}")}
		p := research.NewProvider(an, nil, site, fastConfig())

		r, err := p.FetchAnalysis(context.Background(), "Acme Corp")
		require.NoError(t, err)

		assert.Contains(t, r.ResearchSources, "Company website: https://acme.example/")
		assert.Equal(t, "Automation for factories", r.ProductsServices["Product / Service Differentiation"])
	})

	t.Run("fetch error is ignored", func(t *testing.T) {
		t.Parallel()

		site := &fakeSite{err: errors.New("dial tcp: timeout")}
		an := &fakeAnalyzer{respond: byPrompt(basicJSON, financialJSON, productsJSON, marketJSON)}
		p := research.NewProvider(an, nil, site, fastConfig())

		r, err := p.FetchAnalysis(context.Background(), "Acme Corp")
		require.NoError(t, err)
		assert.Equal(t, research.Sources, r.ResearchSources)
	})

	t.Run("unknown website is not fetched", func(t *testing.T) {
		t.Parallel()

		site := &fakeSite{}
		an := &fakeAnalyzer{respond: byPrompt("{}", financialJSON, productsJSON, marketJSON)}
		p := research.NewProvider(an, nil, site, fastConfig())

		_, err := p.FetchAnalysis(context.Background(), "Acme Corp")
		require.NoError(t, err)
		assert.Empty(t, site.urls)
	})
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("RESEARCH_RPM", "30")
	t.Setenv("RESEARCH_BURST", "2")
	t.Setenv("RESEARCH_RETRIES", "5")
	t.Setenv("RESEARCH_BACKOFF", "250ms")

	cfg := research.LoadConfigFromEnv()
	assert.Equal(t, research.Config{RPM: 30, Burst: 2, Attempts: 5, Backoff: 250 * time.Millisecond}, cfg)
}

func TestLoadConfigFromEnv_InvalidFallsBack(t *testing.T) {
	t.Setenv("RESEARCH_RPM", "-1")
	t.Setenv("RESEARCH_BURST", "x")
	t.Setenv("RESEARCH_RETRIES", "0")
	t.Setenv("RESEARCH_BACKOFF", "soon")

	assert.Equal(t, research.DefaultConfig(), research.LoadConfigFromEnv())
}
