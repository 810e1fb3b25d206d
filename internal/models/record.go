package models

import (
	"encoding/json"
	"strings"
	"time"
)

// WeatherRecord is the normalized observation persisted by both sinks.
// Optional fields are pointers: the upstream API omits fields freely and
// absence must survive serialization as JSON null rather than a zero value.
type WeatherRecord struct {
	City         *string         `json:"city"`
	TemperatureF *float64        `json:"temperature_f"`
	Humidity     *int            `json:"humidity"`
	Condition    *string         `json:"condition"`
	Timestamp    time.Time       `json:"timestamp"` // capture time, always UTC
	Raw          json.RawMessage `json:"raw"`       // verbatim upstream body
}

// CityName returns the city for log lines and name construction, falling
// back to "unknown" when the upstream body carried no location name.
func (r WeatherRecord) CityName() string {
	if r.City == nil || *r.City == "" {
		return "unknown"
	}
	return *r.City
}

// timestampLayout is compact UTC to the second; same-second writes for one
// city collide on purpose and overwrite.
const timestampLayout = "20060102T150405Z"

// NormalizeCity makes a city name safe for object keys and filenames.
func NormalizeCity(city string) string {
	city = strings.ReplaceAll(strings.TrimSpace(city), " ", "_")
	if city == "" {
		return "unknown"
	}
	return city
}

// ObjectName builds the <city>_<timestamp>.json basename shared by the S3
// key and the local filename, so one record lands under the same name in
// both sinks.
func ObjectName(city string, t time.Time) string {
	return NormalizeCity(city) + "_" + t.UTC().Format(timestampLayout) + ".json"
}
