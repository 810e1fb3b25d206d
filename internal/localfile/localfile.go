package localfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mfreitag/weather-archiver/internal/models"
	"github.com/mfreitag/weather-archiver/internal/observability"
)

// RecordSaver persists one record to the local filesystem.
type RecordSaver interface {
	Save(rec models.WeatherRecord) error
}

// Sink writes each record as indented JSON under one directory. This is the
// best-effort local copy of the archive: callers are expected to log a
// returned error and carry on, never to abort a run over it.
type Sink struct {
	dir    string
	logger *zap.Logger
}

func NewSink(dir string, logger *zap.Logger) *Sink {
	return &Sink{dir: dir, logger: logger}
}

// Save writes <dir>/<city>_<timestamp>.json, overwriting any file of the
// same name. Same-second collisions for one city overwrite silently;
// acceptable at one-second timestamp granularity.
func (s *Sink) Save(rec models.WeatherRecord) error {
	body, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		observability.LocalSavesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("marshal record: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		observability.LocalSavesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("create local dir %s: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, models.ObjectName(rec.CityName(), rec.Timestamp))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		observability.LocalSavesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("write local file: %w", err)
	}

	observability.LocalSavesTotal.WithLabelValues("success").Inc()
	s.logger.Info("saved record",
		zap.String("city", rec.CityName()),
		zap.String("path", path),
	)
	return nil
}
