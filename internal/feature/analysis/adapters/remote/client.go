// Package remote はリモートの企業分析サービスに対するHTTPクライアントを提供します。
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"company_analyzer/internal/feature/analysis/domain/entity"
	"company_analyzer/internal/feature/analysis/usecase"
	apphttp "company_analyzer/internal/platform/http"
)

const (
	// DefaultTimeout はANALYSIS_SERVICE_TIMEOUT未設定時のタイムアウトです。
	DefaultTimeout = 120 * time.Second

	maxResponseBytes = 4 << 20
)

// ErrNoBaseURL はベースURLが設定されていない場合のエラーです。
var ErrNoBaseURL = errors.New("analysis service base URL is not configured")

// Config はリモートサービスの接続設定です。
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// LoadConfigFromEnv は ANALYSIS_SERVICE_URL と ANALYSIS_SERVICE_TIMEOUT から設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{
		BaseURL: strings.TrimSpace(os.Getenv("ANALYSIS_SERVICE_URL")),
		Timeout: DefaultTimeout,
	}
	if d, err := time.ParseDuration(os.Getenv("ANALYSIS_SERVICE_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	return cfg
}

// Client はリモートサービスの /analyze, /update_field, /export を呼び出します。
type Client struct {
	base *url.URL
	http *http.Client
}

var (
	_ usecase.Provider       = (*Client)(nil)
	_ usecase.Synchronizer   = (*Client)(nil)
	_ usecase.ReportRenderer = (*Client)(nil)
)

// NewClient はClientの新しいインスタンスを生成します。httpClientがnilの場合はcfg.Timeoutのクライアントを使用します。
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid analysis service URL %q", cfg.BaseURL)
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = apphttp.NewHTTPClient(timeout)
	}
	return &Client{base: u, http: httpClient}, nil
}

// StatusError はリモートサービスが2xx以外を返した場合のエラーです。
type StatusError struct {
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("analysis service %s: status %d: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("analysis service %s: status %d", e.Path, e.Code)
}

type analyzeRequest struct {
	CompanyName string `json:"company_name"`
}

type updateResponse struct {
	Success bool `json:"success"`
}

type exportRequest struct {
	AnalysisResult entity.AnalysisRecord `json:"analysis_result"`
}

type exportResponse struct {
	Report string `json:"report"`
}

// FetchAnalysis は POST /analyze で企業の分析レコードを取得します。
func (c *Client) FetchAnalysis(ctx context.Context, companyName string) (entity.AnalysisRecord, error) {
	var r entity.AnalysisRecord
	if err := c.post(ctx, "/analyze", analyzeRequest{CompanyName: companyName}, &r); err != nil {
		return entity.AnalysisRecord{}, err
	}
	return r, nil
}

// NotifyUpdate は POST /update_field で単一フィールドの更新を通知します。
func (c *Client) NotifyUpdate(ctx context.Context, update entity.FieldUpdate) error {
	var resp updateResponse
	if err := c.post(ctx, "/update_field", update, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("analysis service rejected update of %s.%s", update.Section, update.Field)
	}
	return nil
}

// RenderReport は POST /export でサーバー側のレポートを取得します。
func (c *Client) RenderReport(ctx context.Context, record entity.AnalysisRecord) (string, error) {
	var resp exportResponse
	if err := c.post(ctx, "/export", exportRequest{AnalysisResult: record}, &resp); err != nil {
		return "", err
	}
	return resp.Report, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.JoinPath(path).String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("analysis service %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		return &StatusError{Path: path, Code: resp.StatusCode, Message: e.Error}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
