package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/mfreitag/weather-archiver/internal/models"
	"github.com/mfreitag/weather-archiver/internal/observability"
)

// RecordUploader persists one record to object storage.
type RecordUploader interface {
	Upload(ctx context.Context, rec models.WeatherRecord) error
}

// ObjectPutter is the slice of the S3 API the sink needs; satisfied by
// *s3.Client and by test fakes.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// WriteError reports a failed object-store write. Wraps the underlying SDK
// error and names the destination.
type WriteError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write s3://%s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// S3Sink serializes records to JSON and writes them to one bucket under a
// per-city prefix. One attempt per record; retries are the SDK's business,
// not ours.
type S3Sink struct {
	putter ObjectPutter
	bucket string
	prefix string
	logger *zap.Logger
}

func NewS3Sink(putter ObjectPutter, bucket, prefix string, logger *zap.Logger) *S3Sink {
	return &S3Sink{
		putter: putter,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

// ObjectKey builds the deterministic storage key for a record captured at t:
// <prefix>/<city>/<city>_<timestamp>.json, spaces underscored in both city
// segments. Calls within the same second yield the same key.
func ObjectKey(prefix, city string, t time.Time) string {
	return prefix + "/" + models.NormalizeCity(city) + "/" + models.ObjectName(city, t)
}

// Upload writes the full record, raw payload included, as compact JSON.
func (s *S3Sink) Upload(ctx context.Context, rec models.WeatherRecord) error {
	start := time.Now()

	body, err := json.Marshal(rec)
	if err != nil {
		observability.RecordUploadsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("marshal record: %w", err)
	}

	key := ObjectKey(s.prefix, rec.CityName(), rec.Timestamp)

	_, err = s.putter.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	observability.RecordUploadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.RecordUploadsTotal.WithLabelValues("error").Inc()
		return &WriteError{Bucket: s.bucket, Key: key, Err: err}
	}

	observability.RecordUploadsTotal.WithLabelValues("success").Inc()
	s.logger.Info("uploaded record",
		zap.String("city", rec.CityName()),
		zap.String("uri", fmt.Sprintf("s3://%s/%s", s.bucket, key)),
	)
	return nil
}
