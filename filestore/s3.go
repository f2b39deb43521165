package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	authgate "github.com/MrEthical07/authgate"
)

// S3Config defines a public type used by authgate APIs.
//
// S3Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// BaseEndpoint overrides the AWS endpoint for S3-compatible stores.
	BaseEndpoint string
	// PublicURLBase prefixes returned avatar URLs. Defaults to the
	// virtual-hosted AWS URL for the bucket.
	PublicURLBase string
	KeyPrefix     string
}

// S3Store uploads avatars into a bucket under KeyPrefix.
//
// S3Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type S3Store struct {
	client *s3.Client
	config S3Config
}

// NewS3Store describes the news3store operation and its observable behavior.
//
// NewS3Store may return an error when input validation, dependency calls, or security checks fail.
// NewS3Store does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "avatars"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
	})

	if cfg.PublicURLBase == "" {
		cfg.PublicURLBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3Store{client: client, config: cfg}, nil
}

// Upload describes the upload operation and its observable behavior.
//
// Upload may return an error when input validation, dependency calls, or security checks fail.
// Upload does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *S3Store) Upload(ctx context.Context, filename, contentType string, content io.Reader) (authgate.Avatar, error) {
	if content == nil {
		return authgate.Avatar{}, errors.New("upload content is nil")
	}

	key := s.config.KeyPrefix + "/" + uuid.NewString() + strings.ToLower(path.Ext(filename))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return authgate.Avatar{}, fmt.Errorf("put object: %w", err)
	}

	return authgate.Avatar{
		URL:       strings.TrimRight(s.config.PublicURLBase, "/") + "/" + key,
		StorageID: key,
	}, nil
}
