// Package s3 implements upload.Uploader on top of Amazon S3 or any
// S3-compatible object store.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/sakif/report-portal/internal/upload"
)

var _ upload.Uploader = (*Uploader)(nil)

// ObjectPutter is the one S3 call the uploader needs. *awss3.Client satisfies it.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

// seams for tests
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*awss3.Options)) ObjectPutter {
		return awss3.NewFromConfig(cfg, optFns...)
	}
)

// Uploader writes images to a bucket.
type Uploader struct {
	client ObjectPutter
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New builds an S3 client from static credentials and returns an Uploader.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = DefaultConfig().Region
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("s3: loading AWS config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient wraps an existing client. Used by New and by tests.
func NewWithClient(client ObjectPutter, cfg Config, logger *slog.Logger) *Uploader {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Uploader{
		client: client,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Upload stores img under a fresh key and returns its public locator.
//
// The body is buffered first: PutObject needs a seekable body to sign
// the payload over plain HTTP endpoints. Callers validate the size beforehand.
func (u *Uploader) Upload(ctx context.Context, img upload.Image) (string, error) {
	data, err := io.ReadAll(img.Body)
	if err != nil {
		return "", fmt.Errorf("s3: reading image: %w", err)
	}

	key := u.objectKey(img.Extension())
	start := time.Now()

	_, err = u.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(img.ContentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("s3: putting object %s: %w", key, err)
	}

	u.logger.Debug("object stored",
		slog.String("bucket", u.cfg.Bucket),
		slog.String("key", key),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", time.Since(start)),
	)

	return u.locator(key), nil
}

// objectKey returns "<prefix>/YYYY/MM/DD/<uuid>.<ext>".
func (u *Uploader) objectKey(ext string) string {
	d := u.now().UTC()
	key := fmt.Sprintf("%s/%04d/%02d/%02d/%s", u.cfg.KeyPrefix, d.Year(), int(d.Month()), d.Day(), uuid.New())
	if ext != "" {
		key += "." + ext
	}
	return key
}

// locator builds the URL a browser can load the object from.
//
//	PublicBaseURL set → <PublicBaseURL>/<key>
//	Endpoint set      → <Endpoint>/<bucket>/<key>   (path style)
//	otherwise         → https://<bucket>.s3.<region>.amazonaws.com/<key>
func (u *Uploader) locator(key string) string {
	switch {
	case u.cfg.PublicBaseURL != "":
		return strings.TrimRight(u.cfg.PublicBaseURL, "/") + "/" + key
	case u.cfg.Endpoint != "":
		return strings.TrimRight(u.cfg.Endpoint, "/") + "/" + u.cfg.Bucket + "/" + key
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, key)
	}
}
