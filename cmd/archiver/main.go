package main

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mfreitag/weather-archiver/internal/client"
	"github.com/mfreitag/weather-archiver/internal/config"
	"github.com/mfreitag/weather-archiver/internal/localfile"
	"github.com/mfreitag/weather-archiver/internal/observability"
	"github.com/mfreitag/weather-archiver/internal/pipeline"
	"github.com/mfreitag/weather-archiver/internal/storage"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	// One ID per run; every log line and upstream request carries it.
	runID := uuid.New().String()
	logger = logger.With(zap.String("run_id", runID))

	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		logger.Fatal("aws config", zap.Error(err))
	}

	weatherClient := client.NewOpenWeatherClient(cfg.APIKey, cfg.APIURL, cfg.APITimeout, runID)
	uploader := storage.NewS3Sink(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.KeyPrefix, logger)
	saver := localfile.NewSink(cfg.LocalDir, logger)

	runErr := pipeline.New(cfg, weatherClient, uploader, saver, logger).Run(ctx)
	if runErr != nil {
		logger.Error("run aborted", zap.Error(runErr))
	}

	if err := observability.FlushTelemetry(ctx, logger, cfg.PushgatewayURL); err != nil {
		logger.Warn("flush telemetry", zap.Error(err))
	}

	if runErr != nil {
		os.Exit(1)
	}
}
