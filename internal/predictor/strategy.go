package predictor

import (
	"context"
	"fmt"

	"github.com/i474232898/weather-forecast/internal/forecast"
)

// Target is one regression model with its fitted scalers.
type Target struct {
	Model        Model
	InputScaler  *MinMaxScaler
	OutputScaler *MinMaxScaler // nil when the model emits physical units
}

// predict scales the window, runs the model and inverse-scales its output.
// The scaled input is returned so a classifier can reuse it.
func (t *Target) predict(ctx context.Context, window [][]float64) ([]float64, [][]float64, error) {
	scaled, err := t.InputScaler.Transform(window)
	if err != nil {
		return nil, nil, &forecast.ModelInferenceError{Model: t.Model.Name(), Err: err}
	}

	out, err := infer(ctx, t.Model, scaled)
	if err != nil {
		return nil, nil, err
	}

	if t.OutputScaler != nil {
		out, err = t.OutputScaler.InverseColumn(out)
		if err != nil {
			return nil, nil, &forecast.ModelInferenceError{Model: t.Model.Name(), Err: err}
		}
	}
	return out, scaled, nil
}

// Classifier is the condition model with its label mapping. When InputScaler
// is nil it is fed the temperature model's scaled input.
type Classifier struct {
	Model       Model
	InputScaler *MinMaxScaler
	Labels      LabelEncoder
}

func (c *Classifier) input(window, fallback [][]float64) ([][]float64, error) {
	if c.InputScaler == nil {
		return fallback, nil
	}
	scaled, err := c.InputScaler.Transform(window)
	if err != nil {
		return nil, &forecast.ModelInferenceError{Model: c.Model.Name(), Err: err}
	}
	return scaled, nil
}

func (c *Classifier) classify(ctx context.Context, input [][]float64) (string, error) {
	probs, err := infer(ctx, c.Model, input)
	if err != nil {
		return "", err
	}
	label, err := c.Labels.Decode(probs)
	if err != nil {
		return "", &forecast.ModelInferenceError{Model: c.Model.Name(), Err: err}
	}
	return label, nil
}

// SingleStep predicts one hour per call. The classifier always sees the
// window the regression models just saw, so it tracks every synthesized row.
type SingleStep struct {
	Temperature Target
	Humidity    *Target
	Condition   Classifier
}

func (p *SingleStep) BlockSize() int {
	return 1
}

func (p *SingleStep) PredictBlock(ctx context.Context, window *forecast.HistoryWindow, _ int) (forecast.PartialForecast, error) {
	m := window.Matrix()

	temp, scaled, err := p.Temperature.predict(ctx, m)
	if err != nil {
		return forecast.PartialForecast{}, err
	}
	out := forecast.PartialForecast{Temperature: temp[:min(1, len(temp))]}

	if p.Humidity != nil {
		rh, _, err := p.Humidity.predict(ctx, m)
		if err != nil {
			return forecast.PartialForecast{}, err
		}
		out.Humidity = rh[:min(1, len(rh))]
	}

	in, err := p.Condition.input(m, scaled)
	if err != nil {
		return forecast.PartialForecast{}, err
	}
	label, err := p.Condition.classify(ctx, in)
	if err != nil {
		return forecast.PartialForecast{}, err
	}
	out.Condition = []string{label}

	return out, nil
}

// Seq2Seq predicts Block hours per call from the pre-block window.
//
// The classifier is invoked once per hour of the block, but every call gets
// the same pre-block input; conditions within a block do not see the
// block's own temperature and humidity predictions.
type Seq2Seq struct {
	Block       int
	Temperature Target
	Humidity    *Target
	Condition   Classifier
}

func (p *Seq2Seq) BlockSize() int {
	return p.Block
}

func (p *Seq2Seq) PredictBlock(ctx context.Context, window *forecast.HistoryWindow, block int) (forecast.PartialForecast, error) {
	if block > p.Block {
		return forecast.PartialForecast{}, fmt.Errorf("requested %d hours from a %d-hour block model", block, p.Block)
	}
	m := window.Matrix()

	temp, scaled, err := p.Temperature.predict(ctx, m)
	if err != nil {
		return forecast.PartialForecast{}, err
	}
	if len(temp) < block {
		return forecast.PartialForecast{}, &forecast.ModelInferenceError{
			Model: p.Temperature.Model.Name(),
			Err:   fmt.Errorf("returned %d values for a %d-hour block", len(temp), block),
		}
	}
	out := forecast.PartialForecast{Temperature: temp[:block]}

	if p.Humidity != nil {
		rh, _, err := p.Humidity.predict(ctx, m)
		if err != nil {
			return forecast.PartialForecast{}, err
		}
		if len(rh) < block {
			return forecast.PartialForecast{}, &forecast.ModelInferenceError{
				Model: p.Humidity.Model.Name(),
				Err:   fmt.Errorf("returned %d values for a %d-hour block", len(rh), block),
			}
		}
		out.Humidity = rh[:block]
	}

	in, err := p.Condition.input(m, scaled)
	if err != nil {
		return forecast.PartialForecast{}, err
	}
	out.Condition = make([]string, 0, block)
	for i := 0; i < block; i++ {
		label, err := p.Condition.classify(ctx, in)
		if err != nil {
			return forecast.PartialForecast{}, err
		}
		out.Condition = append(out.Condition, label)
	}

	return out, nil
}
