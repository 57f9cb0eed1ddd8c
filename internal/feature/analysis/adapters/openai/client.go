// Package openai はOpenAI互換のChat Completions APIを使用した企業調査クライアントを提供します。
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"company_analyzer/internal/feature/analysis/adapters/research"
	apphttp "company_analyzer/internal/platform/http"
)

const (
	// DefaultModel はOPENAI_MODEL未設定時に使用するモデルです。
	DefaultModel = "gpt-4o-mini"
	// DefaultTimeout は1リクエストあたりのタイムアウトです。
	DefaultTimeout = 60 * time.Second

	maxTokens    = 2048
	systemPrompt = "You are a company research analyst. Answer with a single JSON object and nothing else. " +
		"Use \"N/A\" for anything you cannot verify."
)

// ErrEmptyResponse はAPIが回答を返さなかった場合のエラーです。
var ErrEmptyResponse = errors.New("openai returned no choices")

// Config はOpenAIクライアントの設定です。
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// LoadConfigFromEnv は OPENAI_API_KEY, OPENAI_MODEL, OPENAI_BASE_URL から設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:   os.Getenv("OPENAI_MODEL"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return cfg
}

// Client はChat CompletionsのJSONモードでプロンプトに回答します。
type Client struct {
	api   *openai.Client
	model string
}

// ClientがPromptAnalyzerを実装していることをコンパイル時に検証します。
var _ research.PromptAnalyzer = (*Client)(nil)

// NewClient はClientの新しいインスタンスを生成します。httpClientがnilの場合は既定のクライアントを使用します。
func NewClient(cfg Config, httpClient *http.Client) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient == nil {
		httpClient = apphttp.NewHTTPClient(DefaultTimeout)
	}
	oc.HTTPClient = httpClient

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{api: openai.NewClientWithConfig(oc), model: model}
}

// Analyze はプロンプトに対するJSON回答を生成します。
func (c *Client) Analyze(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	// reasoningモデルはMaxTokensを受け付けない
	if isReasoningModel(c.model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
