// Package archive はエクスポートしたレポートをS3互換ストレージに保存します。
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"company_analyzer/internal/feature/analysis/usecase"
)

const (
	// DefaultBucket はMINIO_BUCKET未設定時のバケット名です。
	DefaultBucket = "analysis-reports"
	// ContentType は保存するレポートのContent-Typeです。
	ContentType = "text/markdown; charset=utf-8"
)

// ErrNotConfigured はエンドポイントが設定されていない場合のエラーです。
var ErrNotConfigured = errors.New("report archive is not configured")

// Config はMinIOの接続設定です。
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Enabled はアーカイブが有効かどうかを返します。
func (c Config) Enabled() bool { return c.Endpoint != "" }

// LoadConfigFromEnv は MINIO_* 環境変数から設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{
		Endpoint:  os.Getenv("MINIO_ENDPOINT"),
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		Bucket:    os.Getenv("MINIO_BUCKET"),
		Region:    os.Getenv("MINIO_REGION"),
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if v, err := strconv.ParseBool(os.Getenv("MINIO_USE_SSL")); err == nil {
		cfg.UseSSL = v
	}
	return cfg
}

// Store はMinIOバケットにレポートを保存します。
type Store struct {
	client *minio.Client
	bucket string
}

var _ usecase.ReportArchive = (*Store)(nil)

// New はMinIOに接続し、バケットが存在しなければ作成します。
func New(ctx context.Context, cfg Config) (*Store, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &Store{client: cli, bucket: cfg.Bucket}, nil
}

// Store はbodyをkeyに保存し、オブジェクトのURLを返します。
// バケットが公開されていない場合、URLの参照には署名付きURLが必要です。
func (s *Store) Store(ctx context.Context, key string, body []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return objectURL(s.client.EndpointURL().Scheme, s.client.EndpointURL().Host, s.bucket, key), nil
}

func objectURL(scheme, host, bucket, key string) string {
	return fmt.Sprintf("%s://%s/%s/%s", scheme, host, bucket, key)
}
