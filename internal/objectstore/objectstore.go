// Package objectstore issues presigned upload URLs so clients can put photos
// straight into an S3-compatible bucket.
package objectstore

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/hyperjump/photostory/internal/config"
)

// Issuer hands out one-time upload URLs.
type Issuer interface {
	UploadURL(ctx context.Context) (string, error)
}

// S3Issuer presigns PUT requests for fresh object keys.
type S3Issuer struct {
	presigner *s3.PresignClient
	bucket    string
	prefix    string
	expiry    time.Duration
	newKey    func() string
}

// NewS3Issuer loads AWS credentials from the default chain (env, shared config, instance role).
func NewS3Issuer(ctx context.Context, cfg *config.ObjectStorageConfig) (*S3Issuer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3IssuerFromConfig(awsCfg, cfg), nil
}

// NewS3IssuerFromConfig builds an issuer from an already loaded AWS config.
// A custom endpoint switches to path-style addressing for S3-compatible stores.
func NewS3IssuerFromConfig(awsCfg aws.Config, cfg *config.ObjectStorageConfig) *S3Issuer {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &S3Issuer{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		expiry:    expiry,
		newKey:    func() string { return uuid.New().String() },
	}
}

// UploadURL presigns a PUT for <prefix>/<uuid>.
func (i *S3Issuer) UploadURL(ctx context.Context) (string, error) {
	key := path.Join(i.prefix, i.newKey())
	req, err := i.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(i.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(i.expiry))
	if err != nil {
		return "", fmt.Errorf("presign put %s/%s: %w", i.bucket, key, err)
	}
	return req.URL, nil
}
