package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-forecast/internal/common"
	"github.com/i474232898/weather-forecast/internal/forecast"
)

// Model is an opaque trained model taking one [steps][features] sample.
type Model interface {
	Name() string
	InputShape() (steps, features int)
	Infer(ctx context.Context, input [][]float64) ([]float64, error)
}

// checkShape fails with a ModelInferenceError when input does not match the
// model's declared shape.
func checkShape(m Model, input [][]float64) error {
	steps, features := m.InputShape()
	if len(input) != steps {
		return &forecast.ModelInferenceError{Model: m.Name(), Err: fmt.Errorf("expected %d time steps, got %d", steps, len(input))}
	}
	for i, row := range input {
		if len(row) != features {
			return &forecast.ModelInferenceError{Model: m.Name(), Err: fmt.Errorf("step %d has %d features, expected %d", i, len(row), features)}
		}
	}
	return nil
}

// infer runs m after a shape check and wraps any failure as a ModelInferenceError.
func infer(ctx context.Context, m Model, input [][]float64) ([]float64, error) {
	if err := checkShape(m, input); err != nil {
		return nil, err
	}
	out, err := m.Infer(ctx, input)
	if err != nil {
		var inference *forecast.ModelInferenceError
		if errors.As(err, &inference) {
			return nil, err
		}
		return nil, &forecast.ModelInferenceError{Model: m.Name(), Err: err}
	}
	return out, nil
}

// ServingModel calls a model hosted by TensorFlow Serving over its REST API.
// Calls go through a circuit breaker and are never retried.
type ServingModel struct {
	name     string
	baseURL  string
	steps    int
	features int
	httpCfg  common.HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

// NewServingModel creates a client for model name served at baseURL.
func NewServingModel(client *http.Client, baseURL, name string, steps, features int) *ServingModel {
	return &ServingModel{
		name:     name,
		baseURL:  baseURL,
		steps:    steps,
		features: features,
		httpCfg: common.HTTPClientConfig{
			Client: client,
			Backoff: common.BackoffConfig{
				MaxRetries:      0,
				InitialInterval: time.Millisecond,
			},
		},
		circuit: common.NewCircuitBreaker("serving:" + name),
	}
}

func (m *ServingModel) Name() string {
	return m.name
}

func (m *ServingModel) InputShape() (int, int) {
	return m.steps, m.features
}

func (m *ServingModel) Infer(ctx context.Context, input [][]float64) ([]float64, error) {
	body, err := json.Marshal(map[string]any{
		"instances": [][][]float64{input},
	})
	if err != nil {
		return nil, err
	}

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/v1/models/%s:predict", m.baseURL, m.name)
		req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := common.DoRequestWithResilience(ctx, m.httpCfg, m.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Predictions []any `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	if len(payload.Predictions) == 0 {
		return nil, errors.New("empty predictions")
	}

	// One instance was sent; its output may be nested, e.g. [block][1].
	var out []float64
	if err := flatten(payload.Predictions[0], &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(v any, out *[]float64) error {
	switch t := v.(type) {
	case float64:
		*out = append(*out, t)
	case []any:
		for _, e := range t {
			if err := flatten(e, out); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unexpected prediction element %T", v)
	}
	return nil
}
