// Package blob stores product images in S3-compatible object storage.
package blob

import (
	"context"
	"fmt"
	"io"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3 builds a client from the default AWS chain. endpoint overrides the
// API endpoint for S3-compatible stores (MinIO and friends); publicURL is the
// base the stored objects are served from, defaulting to the usual
// virtual-hosted form.
func NewS3(ctx context.Context, bucket, region, endpoint, publicURL string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = awssdk.String(endpoint)
			o.UsePathStyle = true
		}
	})
	if publicURL == "" {
		if endpoint != "" {
			publicURL = strings.TrimSuffix(endpoint, "/") + "/" + bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
		}
	}
	return &S3Store{client: client, bucket: bucket, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

func (s *S3Store) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      awssdk.String(s.bucket),
		Key:         awssdk.String(key),
		Body:        body,
		ContentType: awssdk.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put %s/%s: %w", s.bucket, key, err)
	}
	return s.publicURL + "/" + key, nil
}
