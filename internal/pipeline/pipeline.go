package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mfreitag/weather-archiver/internal/client"
	"github.com/mfreitag/weather-archiver/internal/config"
	"github.com/mfreitag/weather-archiver/internal/localfile"
	"github.com/mfreitag/weather-archiver/internal/observability"
	"github.com/mfreitag/weather-archiver/internal/record"
	"github.com/mfreitag/weather-archiver/internal/storage"
)

// Pipeline drives one batch run: for each configured city, fetch the
// current observation, extract a record, upload it to object storage, and
// save a local copy. Cities are processed strictly in order, one at a time.
type Pipeline struct {
	cfg      *config.Config
	fetcher  client.WeatherFetcher
	uploader storage.RecordUploader
	saver    localfile.RecordSaver
	logger   *zap.Logger
}

func New(cfg *config.Config, fetcher client.WeatherFetcher, uploader storage.RecordUploader, saver localfile.RecordSaver, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		uploader: uploader,
		saver:    saver,
		logger:   logger,
	}
}

// Run validates the run preconditions and then attempts every city. A
// precondition failure returns before any network or storage call. Per-city
// failures are contained: the error is logged, the city is skipped, and the
// run carries on, so Run only fails fast on configuration.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.cfg.Validate(); err != nil {
		return err
	}

	start := time.Now()
	for _, city := range p.cfg.Cities {
		p.processCity(ctx, city)
	}
	observability.RunDurationSeconds.Set(time.Since(start).Seconds())

	p.logger.Info("run complete",
		zap.Int("cities", len(p.cfg.Cities)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// processCity runs fetch → extract → upload → save for one city. An upload
// failure skips the local save: both sinks sit inside the same per-city
// failure boundary and the upload comes first. A save failure is advisory
// only; the local copy is best-effort.
func (p *Pipeline) processCity(ctx context.Context, city string) {
	logger := p.logger.With(zap.String("city", city))
	logger.Info("fetching weather")

	raw, err := p.fetcher.FetchCurrent(ctx, city)
	if err != nil {
		observability.CitiesSkippedTotal.Inc()
		logger.Warn("skipping city, fetch failed", zap.Error(err))
		return
	}

	rec := record.Extract(raw)
	logger.Info("weather fetched",
		zap.Float64p("temperature_f", rec.TemperatureF),
		zap.Intp("humidity", rec.Humidity),
		zap.Stringp("condition", rec.Condition),
	)

	if err := p.uploader.Upload(ctx, rec); err != nil {
		observability.CitiesSkippedTotal.Inc()
		logger.Warn("skipping city, upload failed", zap.Error(err))
		return
	}

	if err := p.saver.Save(rec); err != nil {
		logger.Warn("local save failed", zap.Error(err))
	}
}
