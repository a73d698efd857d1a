package forecast

import (
	"testing"
	"time"
)

func testRows(n int) []FeatureVector {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]FeatureVector, n)
	for i := range rows {
		rows[i].Timestamp = start.Add(time.Duration(i) * time.Hour)
		rows[i].Values[ColAirTemperature] = float64(i)
	}
	return rows
}

func TestHistoryWindowPushEvictsOldest(t *testing.T) {
	w, err := NewHistoryWindow(testRows(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 4; i < 11; i++ {
		var v FeatureVector
		v.Values[ColAirTemperature] = float64(i)
		w.Push(v)

		if w.Len() != 4 {
			t.Fatalf("length changed to %d after push", w.Len())
		}
		if got := w.At(0).Temperature(); got != float64(i-3) {
			t.Fatalf("after pushing %d oldest is %v, want %d", i, got, i-3)
		}
		if got := w.Last().Temperature(); got != float64(i) {
			t.Fatalf("after pushing %d newest is %v", i, got)
		}
	}
}

func TestHistoryWindowCopiesInput(t *testing.T) {
	rows := testRows(3)
	w, _ := NewHistoryWindow(rows)
	rows[0].Values[ColAirTemperature] = 99

	if w.At(0).Temperature() == 99 {
		t.Fatalf("window must not alias the input slice")
	}

	c := w.Clone()
	c.Push(FeatureVector{})
	if w.Last().Temperature() != 2 {
		t.Fatalf("clone must not alias the original")
	}
}

func TestHistoryWindowMatrixOrder(t *testing.T) {
	w, _ := NewHistoryWindow(testRows(3))
	var v FeatureVector
	v.Values[ColAirTemperature] = 3
	w.Push(v)

	m := w.Matrix()
	if len(m) != 3 || len(m[0]) != NumFeatures {
		t.Fatalf("unexpected matrix shape %dx%d", len(m), len(m[0]))
	}
	for i, want := range []float64{1, 2, 3} {
		if m[i][ColAirTemperature] != want {
			t.Fatalf("row %d temperature = %v, want %v", i, m[i][ColAirTemperature], want)
		}
	}
}

func TestNewHistoryWindowRejectsEmpty(t *testing.T) {
	if _, err := NewHistoryWindow(nil); err == nil {
		t.Fatalf("expected error for empty window")
	}
}
