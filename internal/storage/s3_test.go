package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/mfreitag/weather-archiver/internal/models"
)

type fakePutter struct {
	input *s3.PutObjectInput
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func strPtr(s string) *string { return &s }

func testRecord() models.WeatherRecord {
	return models.WeatherRecord{
		City:      strPtr("New York"),
		Timestamp: time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC),
		Raw:       json.RawMessage(`{"name":"New York"}`),
	}
}

func TestObjectKey(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)

	tests := []struct {
		name string
		city string
		want string
	}{
		{
			name: "plain city",
			city: "London",
			want: "weather-data/London/London_20240315T093045Z.json",
		},
		{
			name: "city with spaces",
			city: "New York",
			want: "weather-data/New_York/New_York_20240315T093045Z.json",
		},
		{
			name: "empty city",
			city: "",
			want: "weather-data/unknown/unknown_20240315T093045Z.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ObjectKey("weather-data", tt.city, ts); got != tt.want {
				t.Errorf("ObjectKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestObjectKey_Idempotent verifies two calls within the same second yield
// the same key.
func TestObjectKey_Idempotent(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)

	first := ObjectKey("weather-data", "Mumbai", ts)
	second := ObjectKey("weather-data", "Mumbai", ts.Add(900*time.Millisecond))
	if first != second {
		t.Errorf("keys differ within one second: %q vs %q", first, second)
	}
}

func TestS3Sink_Upload(t *testing.T) {
	putter := &fakePutter{}
	sink := NewS3Sink(putter, "weather-bucket", "weather-data", zap.NewNop())

	rec := testRecord()
	if err := sink.Upload(context.Background(), rec); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if putter.input == nil {
		t.Fatal("PutObject was not called")
	}
	if got := *putter.input.Bucket; got != "weather-bucket" {
		t.Errorf("Bucket = %q, want %q", got, "weather-bucket")
	}
	wantKey := "weather-data/New_York/New_York_20240315T093045Z.json"
	if got := *putter.input.Key; got != wantKey {
		t.Errorf("Key = %q, want %q", got, wantKey)
	}
	if got := *putter.input.ContentType; got != "application/json" {
		t.Errorf("ContentType = %q, want %q", got, "application/json")
	}

	body, err := io.ReadAll(putter.input.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var uploaded models.WeatherRecord
	if err := json.Unmarshal(body, &uploaded); err != nil {
		t.Fatalf("uploaded body is not a record: %v", err)
	}
	if *uploaded.City != "New York" {
		t.Errorf("uploaded City = %q, want %q", *uploaded.City, "New York")
	}
	if string(uploaded.Raw) != `{"name":"New York"}` {
		t.Errorf("uploaded Raw = %s, want original payload", uploaded.Raw)
	}
}

func TestS3Sink_Upload_WriteError(t *testing.T) {
	putter := &fakePutter{err: errors.New("access denied")}
	sink := NewS3Sink(putter, "weather-bucket", "weather-data", zap.NewNop())

	err := sink.Upload(context.Background(), testRecord())
	if err == nil {
		t.Fatal("Upload() expected error, got nil")
	}

	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("error type = %T, want *WriteError", err)
	}
	if writeErr.Bucket != "weather-bucket" {
		t.Errorf("Bucket = %q, want %q", writeErr.Bucket, "weather-bucket")
	}
	if writeErr.Unwrap() == nil {
		t.Error("WriteError should wrap the underlying error")
	}
}
