package forecast

import (
	"fmt"
	"time"
)

// HistoryWindow is a fixed-length ring of feature vectors ordered oldest to
// newest. Push evicts the oldest row, so Len never changes.
type HistoryWindow struct {
	rows []FeatureVector
	head int // index of the oldest row
}

// NewHistoryWindow copies rows (oldest first) into a new window.
func NewHistoryWindow(rows []FeatureVector) (*HistoryWindow, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("history window must not be empty")
	}
	buf := make([]FeatureVector, len(rows))
	copy(buf, rows)
	return &HistoryWindow{rows: buf}, nil
}

// Len returns the fixed window length.
func (w *HistoryWindow) Len() int {
	return len(w.rows)
}

// At returns the i-th row, 0 being the oldest.
func (w *HistoryWindow) At(i int) FeatureVector {
	return w.rows[(w.head+i)%len(w.rows)]
}

// Last returns the newest row.
func (w *HistoryWindow) Last() FeatureVector {
	return w.At(len(w.rows) - 1)
}

// LastTimestamp returns the timestamp of the newest row.
func (w *HistoryWindow) LastTimestamp() time.Time {
	return w.Last().Timestamp
}

// Push appends v as the newest row and drops the oldest one.
func (w *HistoryWindow) Push(v FeatureVector) {
	w.rows[w.head] = v
	w.head = (w.head + 1) % len(w.rows)
}

// Rows returns the rows oldest first as a fresh slice.
func (w *HistoryWindow) Rows() []FeatureVector {
	out := make([]FeatureVector, len(w.rows))
	for i := range out {
		out[i] = w.At(i)
	}
	return out
}

// Matrix returns the feature values as a [Len][NumFeatures] matrix.
func (w *HistoryWindow) Matrix() [][]float64 {
	out := make([][]float64, len(w.rows))
	for i := range out {
		v := w.At(i).Values
		out[i] = append([]float64(nil), v[:]...)
	}
	return out
}

// Clone returns an independent copy.
func (w *HistoryWindow) Clone() *HistoryWindow {
	return &HistoryWindow{rows: w.Rows()}
}
