package predictor

import (
	"context"

	"github.com/i474232898/weather-forecast/internal/forecast"
)

// Condition groups, in the sorted order a fitted label encoder uses.
var DefaultClasses = []string{"Clear", "Cloudy", "Fog", "Rainy", "Snowy", "Storm", "Thunderstorm"}

// PersistenceModel forecasts that a column keeps its latest value.
// It needs no trained weights, which makes it the offline fallback.
type PersistenceModel struct {
	name    string
	steps   int
	column  int
	outputs int
}

// NewPersistenceModel repeats input column for outputs steps.
func NewPersistenceModel(name string, steps, column, outputs int) *PersistenceModel {
	return &PersistenceModel{name: name, steps: steps, column: column, outputs: outputs}
}

func (m *PersistenceModel) Name() string {
	return m.name
}

func (m *PersistenceModel) InputShape() (int, int) {
	return m.steps, forecast.NumFeatures
}

func (m *PersistenceModel) Infer(_ context.Context, input [][]float64) ([]float64, error) {
	last := input[len(input)-1][m.column]
	out := make([]float64, m.outputs)
	for i := range out {
		out[i] = last
	}
	return out, nil
}

// RuleClassifier assigns a condition group from the newest row using simple
// thresholds and returns it one-hot over DefaultClasses.
type RuleClassifier struct {
	steps int
}

func NewRuleClassifier(steps int) *RuleClassifier {
	return &RuleClassifier{steps: steps}
}

func (c *RuleClassifier) Name() string {
	return "rule-classifier"
}

func (c *RuleClassifier) InputShape() (int, int) {
	return c.steps, forecast.NumFeatures
}

func (c *RuleClassifier) Infer(_ context.Context, input [][]float64) ([]float64, error) {
	row := input[len(input)-1]
	temp := row[forecast.ColAirTemperature]
	spread := temp - row[forecast.ColDewPoint]
	precip := row[forecast.ColPrecipitation]

	label := "Clear"
	switch {
	case precip > 0 && temp <= 0:
		label = "Snowy"
	case precip >= 0.1:
		label = "Rainy"
	case row[forecast.ColRelativeHumidity] >= 97:
		label = "Fog"
	case spread < 2.5:
		label = "Cloudy"
	}

	probs := make([]float64, len(DefaultClasses))
	for i, cls := range DefaultClasses {
		if cls == label {
			probs[i] = 1
		}
	}
	return probs, nil
}
