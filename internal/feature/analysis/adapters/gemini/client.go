// Package gemini はGoogle Gemini APIを使用した企業調査クライアントを提供します。
package gemini

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"company_analyzer/internal/feature/analysis/adapters/research"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"
)

// Config はGeminiクライアントの設定です。
type Config struct {
	APIKey string
	Model  string
}

// LoadConfigFromEnv は GEMINI_API_KEY と GEMINI_MODEL から設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Model:  os.Getenv("GEMINI_MODEL"),
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return cfg
}

// GeminiAnalyzer はGoogle検索ツールを有効にしたGeminiでプロンプトに回答します。
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
}

// GeminiAnalyzerがPromptAnalyzerを実装していることをコンパイル時に検証します。
var _ research.PromptAnalyzer = (*GeminiAnalyzer)(nil)

// NewGeminiAnalyzer はGeminiAnalyzerの新しいインスタンスを生成します。
// APIKeyが空の場合はADCを使用し、環境変数 GOOGLE_GENAI_USE_VERTEXAI, GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION が必要です。
func NewGeminiAnalyzer(ctx context.Context, cfg Config) (*GeminiAnalyzer, error) {
	var cc *genai.ClientConfig
	if cfg.APIKey != "" {
		cc = &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &GeminiAnalyzer{client: client, model: model}, nil
}

// Analyze はプロンプトに対する回答テキストを生成します。
func (g *GeminiAnalyzer) Analyze(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), generateConfig())
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}

	return resp.Text(), nil
}

func generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
}
