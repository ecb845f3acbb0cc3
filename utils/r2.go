// utils/r2.go
package utils

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Config holds Cloudflare R2 credentials
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	// Endpoint overrides the account endpoint (e.g. a local MinIO)
	Endpoint string
}

// R2Endpoint returns the S3-compatible endpoint for the account.
func (c R2Config) R2Endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

// NewR2Client builds an S3 client pointed at R2.
func NewR2Client(ctx context.Context, c R2Config) (*s3.Client, error) {
	if c.AccountID == "" && c.Endpoint == "" {
		return nil, fmt.Errorf("CLOUDFLARE_ACCOUNT_ID is required for the r2 driver")
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID, c.AccessKeySecret, "",
		)),
		config.WithHTTPClient(HTTPClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	endpoint := c.R2Endpoint()
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}), nil
}
