package main

import (
	"context"
	"encoding/base64"
	"fmt"

	"redaid/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/kelseyhightower/envconfig"
	"github.com/urfave/cli/v2"
)

func loadConfig(cCtx *cli.Context) (*types.Config, error) {
	c := new(types.Config)
	if err := envconfig.Process(cCtx.String("env-prefix"), c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	return c, nil
}

// validateServeConfig checks the settings only the API server needs.
func validateServeConfig(c *types.Config) error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("set DATABASE_URL")
	}

	if c.CognitoClientID == "" || c.CognitoIssuerURL == "" {
		return fmt.Errorf("set COGNITO_CLIENT_ID and COGNITO_ISSUER_URL")
	}

	if _, _, err := cookieKeys(c); err != nil {
		return err
	}

	switch c.ImageHost {
	case "imgbb":
		if c.ImgbbAPIKey == "" {
			return fmt.Errorf("set IMGBB_API_KEY")
		}
	case "s3":
		if c.S3Bucket == "" || c.S3PublicBaseURL == "" {
			return fmt.Errorf("set S3_BUCKET and S3_PUBLIC_BASE_URL")
		}
	default:
		return fmt.Errorf("IMAGE_HOST must be imgbb or s3, got %q", c.ImageHost)
	}

	if c.StripeSecretKey == "" {
		return fmt.Errorf("set STRIPE_SECRET_KEY")
	}

	return nil
}

func cookieKeys(c *types.Config) ([]byte, []byte, error) {
	hashKey, err := base64.StdEncoding.DecodeString(c.CookieHashKey)
	if err != nil || (len(hashKey) != 32 && len(hashKey) != 64) {
		return nil, nil, fmt.Errorf("COOKIE_HASH_KEY must be 32 or 64 base64 encoded bytes")
	}

	blockKey, err := base64.StdEncoding.DecodeString(c.CookieBlockKey)
	if err != nil || (len(blockKey) != 16 && len(blockKey) != 24 && len(blockKey) != 32) {
		return nil, nil, fmt.Errorf("COOKIE_BLOCK_KEY must be 16, 24 or 32 base64 encoded bytes")
	}

	return hashKey, blockKey, nil
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return cfg, nil
}
