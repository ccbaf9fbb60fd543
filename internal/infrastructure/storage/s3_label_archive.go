// Package storage provides object storage implementations for label
// archiving.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/commerce/fulfillment/internal/domain/shipping"
	infraconfig "github.com/commerce/fulfillment/internal/infrastructure/config"
)

// maxLabelSize bounds the label PDF download.
const maxLabelSize = 20 << 20

const (
	labelObjectName = "label.pdf"
	qrObjectName    = "tracking-qr.png"
)

// Ensure S3LabelArchive implements LabelArchiver
var _ shipping.LabelArchiver = (*S3LabelArchive)(nil)

// S3LabelArchive mirrors purchased label artifacts into an
// S3-compatible bucket. Provider-hosted label URLs expire; the mirror
// under orders/{orderID}/ is the durable copy support staff link to.
type S3LabelArchive struct {
	client   *s3.Client
	httpc    *http.Client
	bucket   string
	endpoint string
	logger   *zap.Logger
}

// S3LabelArchiveOption is a functional option for configuring S3LabelArchive
type S3LabelArchiveOption func(*S3LabelArchive)

// WithLogger sets a custom logger for S3LabelArchive
func WithLogger(logger *zap.Logger) S3LabelArchiveOption {
	return func(s *S3LabelArchive) {
		s.logger = logger
	}
}

// WithHTTPClient sets the client used to download provider label URLs.
func WithHTTPClient(c *http.Client) S3LabelArchiveOption {
	return func(s *S3LabelArchive) {
		s.httpc = c
	}
}

// NewS3LabelArchive creates a new S3LabelArchive from configuration.
// It supports any S3-compatible storage backend (AWS S3, MinIO, etc.)
func NewS3LabelArchive(cfg *infraconfig.StorageConfig, opts ...S3LabelArchiveOption) (*S3LabelArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String(endpoint)
	})

	archive := &S3LabelArchive{
		client:   client,
		httpc:    &http.Client{Timeout: 30 * time.Second},
		bucket:   cfg.Bucket,
		endpoint: endpoint,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(archive)
	}
	return archive, nil
}

// ArchiveLabel downloads the provider-hosted label PDF and stores it
// under the order's prefix. Returns the stored copy's URL.
func (s *S3LabelArchive) ArchiveLabel(ctx context.Context, orderID, labelURL string) (string, error) {
	if orderID == "" {
		return "", errors.New("order id is required")
	}
	if labelURL == "" {
		return "", errors.New("label url is required")
	}

	body, contentType, err := s.download(ctx, labelURL)
	if err != nil {
		return "", fmt.Errorf("download label: %w", err)
	}
	if contentType == "" {
		contentType = "application/pdf"
	}

	key := s.objectKey(orderID, labelObjectName)
	if err := s.put(ctx, key, contentType, body); err != nil {
		return "", fmt.Errorf("store label copy: %w", err)
	}

	s.logger.Debug("archived label",
		zap.String("order_id", orderID),
		zap.String("key", key),
		zap.Int("bytes", len(body)))
	return s.objectURL(key), nil
}

// ArchiveTrackingQR stores a rendered tracking QR image under the
// order's prefix. Returns the stored copy's URL.
func (s *S3LabelArchive) ArchiveTrackingQR(ctx context.Context, orderID string, png []byte) (string, error) {
	if orderID == "" {
		return "", errors.New("order id is required")
	}
	if len(png) == 0 {
		return "", errors.New("qr image is empty")
	}

	key := s.objectKey(orderID, qrObjectName)
	if err := s.put(ctx, key, "image/png", png); err != nil {
		return "", fmt.Errorf("store tracking qr: %w", err)
	}
	return s.objectURL(key), nil
}

func (s *S3LabelArchive) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLabelSize))
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (s *S3LabelArchive) put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	return err
}

func (s *S3LabelArchive) objectKey(orderID, name string) string {
	return fmt.Sprintf("orders/%s/%s", orderID, name)
}

func (s *S3LabelArchive) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
}
