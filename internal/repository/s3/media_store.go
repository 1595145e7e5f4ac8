package s3

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/streamtube/backend/internal/domain/media"
	"github.com/streamtube/backend/internal/obs/retry"
)

type Config struct {
	Endpoint     string `mapstructure:"endpoint"`
	Region       string `mapstructure:"region"`
	Bucket       string `mapstructure:"bucket"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	PublicBase   string `mapstructure:"public_base"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

var _ media.Store = (*MediaStore)(nil)

// MediaStore uploads user media to an S3-compatible bucket (MinIO in dev)
// and hands back the public URL the account record stores.
type MediaStore struct {
	client *s3.Client
	cfg    Config
	log    *zap.Logger
	policy retry.Policy
}

func NewMediaStore(ctx context.Context, cfg Config, log *zap.Logger) (*MediaStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("media store: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("media store: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	if cfg.PublicBase == "" {
		cfg.PublicBase = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	return &MediaStore{
		client: client,
		cfg:    cfg,
		log:    log,
		policy: retry.DefaultMediaPolicy(log),
	}, nil
}

func (m *MediaStore) Upload(ctx context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", fmt.Errorf("media store: empty local path")
	}

	key := storageKey(filepath.Ext(localPath))
	contentType := mime.TypeByExtension(filepath.Ext(localPath))

	err := retry.Do(ctx, func() error {
		f, err := os.Open(localPath)
		if err != nil {
			return err
		}
		defer f.Close()

		input := &s3.PutObjectInput{
			Bucket: aws.String(m.cfg.Bucket),
			Key:    aws.String(key),
			Body:   f,
		}
		if contentType != "" {
			input.ContentType = aws.String(contentType)
		}
		_, err = m.client.PutObject(ctx, input)
		return err
	}, m.policy)
	if err != nil {
		return "", fmt.Errorf("media store: put %s: %w", key, err)
	}

	url := m.publicURL(key)
	m.log.Info("media uploaded", zap.String("key", key), zap.String("url", url))
	return url, nil
}

func (m *MediaStore) Remove(ctx context.Context, url string) error {
	key, ok := m.keyFromURL(url)
	if !ok {
		return fmt.Errorf("media store: url %q is not under %q", url, m.cfg.PublicBase)
	}
	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("media store: delete %s: %w", key, err)
	}
	return nil
}

func (m *MediaStore) publicURL(key string) string {
	return strings.TrimRight(m.cfg.PublicBase, "/") + "/" + key
}

func (m *MediaStore) keyFromURL(url string) (string, bool) {
	base := strings.TrimRight(m.cfg.PublicBase, "/") + "/"
	if !strings.HasPrefix(url, base) {
		return "", false
	}
	return strings.TrimPrefix(url, base), true
}

// storageKey spreads objects by date so buckets stay listable.
func storageKey(ext string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("media/%04d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}
