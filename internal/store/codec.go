package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/i474232898/weather-forecast/internal/forecast"
)

// windowPayload is the cached form of a history window. Columns are written
// explicitly so a reordered or partial payload is detected on read.
type windowPayload struct {
	Columns    []string    `json:"columns"`
	Timestamps []string    `json:"timestamps"`
	Rows       [][]float64 `json:"rows"`
}

// EncodeWindow serializes w. encoding/json writes floats in their shortest
// round-trip form, so DecodeWindow restores every value bit for bit.
func EncodeWindow(w *forecast.HistoryWindow) ([]byte, error) {
	p := windowPayload{
		Columns:    forecast.FeatureNames[:],
		Timestamps: make([]string, 0, w.Len()),
		Rows:       w.Matrix(),
	}
	for _, row := range w.Rows() {
		p.Timestamps = append(p.Timestamps, row.Timestamp.UTC().Format(time.RFC3339Nano))
	}
	return json.Marshal(p)
}

// DecodeWindow parses a payload written by EncodeWindow.
func DecodeWindow(data []byte) (*forecast.HistoryWindow, error) {
	var p windowPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	if len(p.Columns) != forecast.NumFeatures {
		return nil, fmt.Errorf("expected %d columns, got %d", forecast.NumFeatures, len(p.Columns))
	}
	for i, c := range p.Columns {
		if c != forecast.FeatureNames[i] {
			return nil, fmt.Errorf("column %d is %q, want %q", i, c, forecast.FeatureNames[i])
		}
	}
	if len(p.Rows) != len(p.Timestamps) {
		return nil, fmt.Errorf("%d rows but %d timestamps", len(p.Rows), len(p.Timestamps))
	}

	rows := make([]forecast.FeatureVector, len(p.Rows))
	for i, r := range p.Rows {
		if len(r) != forecast.NumFeatures {
			return nil, fmt.Errorf("row %d has %d values", i, len(r))
		}
		ts, err := time.Parse(time.RFC3339Nano, p.Timestamps[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows[i].Timestamp = ts.UTC()
		copy(rows[i].Values[:], r)
	}

	return forecast.NewHistoryWindow(rows)
}
