package forecast

import (
	"math"
	"sort"
	"time"
)

// FeatureEngineer turns raw hourly observations into a history window of
// HistorySteps rows.
type FeatureEngineer struct {
	HistorySteps int
}

// NewFeatureEngineer creates a FeatureEngineer for windows of historySteps rows.
func NewFeatureEngineer(historySteps int) *FeatureEngineer {
	return &FeatureEngineer{HistorySteps: historySteps}
}

// Engineer drops incomplete rows, derives the cyclical encodings and keeps
// the most recent HistorySteps rows. A missing wind direction is treated as
// 0 degrees rather than dropping the row. Rows reported twice for the same
// hour collapse to the later one in input order. Gaps left by dropped rows
// are kept as they are; the window is then not strictly hourly.
func (e *FeatureEngineer) Engineer(obs []Observation) (*HistoryWindow, error) {
	usable := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if o.AirTemperature == nil || o.DewPoint == nil || o.RelativeHumidity == nil ||
			o.Precipitation == nil || o.WindSpeed == nil || o.Pressure == nil {
			continue
		}
		usable = append(usable, o)
	}

	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].Timestamp.Before(usable[j].Timestamp)
	})
	usable = dedupeHours(usable)

	if len(usable) < e.HistorySteps || e.HistorySteps <= 0 {
		return nil, &InsufficientHistoryError{Required: e.HistorySteps, Available: len(usable)}
	}

	tail := usable[len(usable)-e.HistorySteps:]
	rows := make([]FeatureVector, len(tail))
	for i, o := range tail {
		rows[i] = Engineer(o)
	}

	return NewHistoryWindow(rows)
}

// dedupeHours keeps the last row of every hour in a time-sorted slice.
func dedupeHours(sorted []Observation) []Observation {
	out := sorted[:0]
	for _, o := range sorted {
		hour := o.Timestamp.UTC().Truncate(time.Hour)
		if n := len(out); n > 0 && out[n-1].Timestamp.UTC().Truncate(time.Hour).Equal(hour) {
			out[n-1] = o
			continue
		}
		out = append(out, o)
	}
	return out
}

// Engineer derives the feature vector of a single complete observation.
func Engineer(o Observation) FeatureVector {
	ts := o.Timestamp.UTC()

	wdir := 0.0
	if o.WindDirection != nil {
		wdir = *o.WindDirection
	}
	wdirRad := wdir * math.Pi / 180

	hour := float64(ts.Hour())
	day := float64(ts.YearDay())

	var v FeatureVector
	v.Timestamp = ts
	v.Values[ColAirTemperature] = *o.AirTemperature
	v.Values[ColDewPoint] = *o.DewPoint
	v.Values[ColRelativeHumidity] = *o.RelativeHumidity
	v.Values[ColPrecipitation] = *o.Precipitation
	v.Values[ColWindSpeed] = *o.WindSpeed
	v.Values[ColWindDirection] = wdir
	v.Values[ColWdirSin] = math.Sin(wdirRad)
	v.Values[ColWdirCos] = math.Cos(wdirRad)
	v.Values[ColPressure] = *o.Pressure
	v.Values[ColHourSin] = math.Sin(2 * math.Pi * hour / 24)
	v.Values[ColHourCos] = math.Cos(2 * math.Pi * hour / 24)
	v.Values[ColDayOfYearSin] = math.Sin(2 * math.Pi * day / 365)
	v.Values[ColDayOfYearCos] = math.Cos(2 * math.Pi * day / 365)
	return v
}
