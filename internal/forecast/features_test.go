package forecast

import (
	"errors"
	"math"
	"testing"
	"time"
)

func ptr(v float64) *float64 { return &v }

// hourlyObservations returns n complete observations one hour apart, ending at end.
func hourlyObservations(n int, end time.Time) []Observation {
	obs := make([]Observation, n)
	for i := range obs {
		ts := end.Add(-time.Duration(n-1-i) * time.Hour)
		obs[i] = Observation{
			Timestamp:        ts,
			AirTemperature:   ptr(10 + float64(i)),
			DewPoint:         ptr(5),
			RelativeHumidity: ptr(70),
			Precipitation:    ptr(0),
			WindDirection:    ptr(90),
			WindSpeed:        ptr(12),
			Pressure:         ptr(1013),
		}
	}
	return obs
}

func TestEngineerKeepsMostRecentRows(t *testing.T) {
	end := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	obs := hourlyObservations(30, end)

	w, err := NewFeatureEngineer(24).Engineer(obs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Len() != 24 {
		t.Fatalf("expected 24 rows, got %d", w.Len())
	}
	if !w.LastTimestamp().Equal(end) {
		t.Fatalf("expected last timestamp %v, got %v", end, w.LastTimestamp())
	}
	if got := w.At(0).Temperature(); got != 16 {
		t.Fatalf("expected oldest kept temperature 16, got %v", got)
	}
}

func TestEngineerCyclicalEncodings(t *testing.T) {
	ts := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	obs := hourlyObservations(1, ts)

	v := Engineer(obs[0])

	if math.Abs(v.Values[ColHourSin]-1) > 1e-12 {
		t.Fatalf("hour_sin at 06:00 should be 1, got %v", v.Values[ColHourSin])
	}
	if math.Abs(v.Values[ColHourCos]) > 1e-12 {
		t.Fatalf("hour_cos at 06:00 should be 0, got %v", v.Values[ColHourCos])
	}
	wantDaySin := math.Sin(2 * math.Pi / 365)
	if v.Values[ColDayOfYearSin] != wantDaySin {
		t.Fatalf("dayofyear_sin = %v, want %v", v.Values[ColDayOfYearSin], wantDaySin)
	}
	if math.Abs(v.Values[ColWdirSin]-1) > 1e-12 || math.Abs(v.Values[ColWdirCos]) > 1e-12 {
		t.Fatalf("unexpected wind encoding for 90 degrees: sin=%v cos=%v", v.Values[ColWdirSin], v.Values[ColWdirCos])
	}
}

func TestEngineerMissingWindDirectionIsZero(t *testing.T) {
	obs := hourlyObservations(3, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	obs[1].WindDirection = nil

	w, err := NewFeatureEngineer(3).Engineer(obs)
	if err != nil {
		t.Fatalf("row with missing wind direction must not be dropped: %v", err)
	}
	row := w.At(1)
	if row.Values[ColWindDirection] != 0 || row.Values[ColWdirSin] != 0 || row.Values[ColWdirCos] != 1 {
		t.Fatalf("expected 0 degree encoding, got %v", row.Values)
	}
}

func TestEngineerInsufficientHistory(t *testing.T) {
	obs := hourlyObservations(26, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	// Null out required fields in 16 rows, leaving 10 usable.
	for i := 0; i < 16; i++ {
		obs[i].Pressure = nil
	}

	_, err := NewFeatureEngineer(24).Engineer(obs)

	var insufficient *InsufficientHistoryError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientHistoryError, got %v", err)
	}
	if insufficient.Required != 24 || insufficient.Available != 10 {
		t.Fatalf("unexpected error fields: %+v", insufficient)
	}
}

func TestEngineerSortsUnorderedInput(t *testing.T) {
	obs := hourlyObservations(4, time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC))
	obs[0], obs[3] = obs[3], obs[0]

	w, err := NewFeatureEngineer(4).Engineer(obs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < w.Len(); i++ {
		if !w.At(i).Timestamp.After(w.At(i - 1).Timestamp) {
			t.Fatalf("rows not ascending at %d", i)
		}
	}
}

func TestEngineerCollapsesDuplicateHours(t *testing.T) {
	end := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	obs := hourlyObservations(5, end)
	dup := obs[4]
	dup.AirTemperature = ptr(99)
	obs = append(obs, dup)

	w, err := NewFeatureEngineer(5).Engineer(obs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < w.Len(); i++ {
		if d := w.At(i).Timestamp.Sub(w.At(i - 1).Timestamp); d != time.Hour {
			t.Fatalf("rows %d and %d are %v apart", i-1, i, d)
		}
	}
	if got := w.Last().Temperature(); got != 99 {
		t.Fatalf("expected the later duplicate to win, got %v", got)
	}

	_, err = NewFeatureEngineer(6).Engineer(obs)
	var insufficient *InsufficientHistoryError
	if !errors.As(err, &insufficient) || insufficient.Available != 5 {
		t.Fatalf("duplicates must not count as history, got %v", err)
	}
}

func TestFormatValue(t *testing.T) {
	cases := map[float64]string{
		21.456: "21.46",
		21.5:   "21.5",
		0:      "0",
		-0.001: "0",
		-3.14:  "-3.14",
	}
	for in, want := range cases {
		if got := FormatValue(in); got != want {
			t.Errorf("FormatValue(%v) = %q, want %q", in, got, want)
		}
	}
}
