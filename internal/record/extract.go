package record

import (
	"encoding/json"
	"time"

	"github.com/mfreitag/weather-archiver/internal/models"
)

// timeNow is swapped in tests to pin the capture timestamp.
var timeNow = time.Now

// Extract maps a raw upstream body onto a WeatherRecord. It is total:
// missing or mistyped fields become nil, never an error, and a body that
// does not decode at all yields a record carrying only the capture time
// and the raw payload. The capture timestamp is stamped here, in UTC,
// and nowhere else.
func Extract(raw json.RawMessage) models.WeatherRecord {
	rec := models.WeatherRecord{
		Timestamp: timeNow().UTC(),
		Raw:       raw,
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return rec
	}

	rec.City = decodeString(top["name"])

	if mainRaw, ok := top["main"]; ok {
		var main map[string]json.RawMessage
		if err := json.Unmarshal(mainRaw, &main); err == nil {
			rec.TemperatureF = decodeFloat(main["temp"])
			rec.Humidity = decodeInt(main["humidity"])
		}
	}

	if weatherRaw, ok := top["weather"]; ok {
		var weather []struct {
			Description *string `json:"description"`
		}
		if err := json.Unmarshal(weatherRaw, &weather); err == nil && len(weather) > 0 {
			rec.Condition = weather[0].Description
		}
	}

	return rec
}

func decodeString(raw json.RawMessage) *string {
	if raw == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

func decodeFloat(raw json.RawMessage) *float64 {
	if raw == nil {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return &f
}

func decodeInt(raw json.RawMessage) *int {
	if raw == nil {
		return nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	return &n
}
