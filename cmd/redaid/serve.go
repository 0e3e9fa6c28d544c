package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"redaid/internal/cache"
	"redaid/internal/db"
	"redaid/internal/identity"
	"redaid/internal/lifecycle"
	"redaid/internal/payment"
	"redaid/internal/reference"
	"redaid/internal/server"
	"redaid/internal/storage"
	"redaid/internal/store"
	"redaid/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP API",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	if config.Environment == "development" {
		logger.SetLevel(logrus.DebugLevel)
	}

	if err := validateServeConfig(config); err != nil {
		return err
	}

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return err
	}

	cognitoClient := cognitoidentityprovider.NewFromConfig(awsConfig)

	pool, err := db.Connect(ctx, config, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	locations, err := reference.Load()
	if err != nil {
		return err
	}

	userRepo := store.NewUserRepository(pool)
	requestRepo := store.NewDonationRequestRepository(pool)
	eventRepo := store.NewRequestEventRepository(pool)
	blogRepo := store.NewBlogRepository(pool)
	fundingRepo := store.NewFundingRepository(pool)

	engineOpts := []lifecycle.Option{
		lifecycle.WithEventRecorder(eventRepo),
		lifecycle.WithLocations(locations),
	}

	var listCache *cache.RequestListCache
	if config.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, config.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		listCache = cache.NewRequestListCache(logger, redisClient, time.Duration(config.RequestListCacheTTLSec)*time.Second)
		engineOpts = append(engineOpts, lifecycle.WithInvalidator(listCache))
	} else {
		logger.Warn("REDIS_URL not set, donation request lists will not be cached")
	}

	engine := lifecycle.New(logger, requestRepo, engineOpts...)

	jwkCache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		return fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	jwksURL := identity.JWKSURL(config.CognitoIssuerURL)
	if err := jwkCache.Register(ctx, jwksURL); err != nil {
		return fmt.Errorf("failed to register cognito jwks with cache: %w", err)
	}

	hashKey, blockKey, err := cookieKeys(config)
	if err != nil {
		return err
	}

	sessions := identity.NewSessions(
		logger,
		hashKey,
		blockKey,
		identity.NewVerifier(jwkCache, config.CognitoIssuerURL),
		userRepo,
		time.Duration(config.SessionMaxAgeSec)*time.Second,
		config.Environment != "development" && config.Environment != "test",
	)

	payments := payment.New(
		logger,
		payment.NewStripeIntents(config.StripeSecretKey),
		fundingRepo,
		config.FundingCurrency,
		config.FundingMinAmountCents,
	)

	srv := server.New(
		config,
		logger,
		engine,
		sessions,
		identity.NewProvider(cognitoClient, config.CognitoClientID),
		payments,
		imageHost(config, awsConfig),
		listCache,
		locations,
		userRepo,
		requestRepo,
		eventRepo,
		blogRepo,
		fundingRepo,
	)

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

func imageHost(config *types.Config, awsConfig aws.Config) storage.ImageHost {
	if config.ImageHost == "s3" {
		return storage.NewS3Storage(s3.NewFromConfig(awsConfig), config.S3Bucket, config.S3PublicBaseURL)
	}
	return storage.NewImgbbStorage(config.ImgbbUploadURL, config.ImgbbAPIKey)
}
