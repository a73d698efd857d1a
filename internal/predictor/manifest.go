package predictor

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-forecast/internal/forecast"
)

const (
	StrategySingle  = "single"
	StrategySeq2Seq = "seq2seq"
)

var validate = validator.New()

// Manifest describes the deployed models and their fitted preprocessing.
type Manifest struct {
	Strategy     string `yaml:"strategy" validate:"required,oneof=single seq2seq"`
	HistorySteps int    `yaml:"history_steps" validate:"required,gt=0"`
	BlockSize    int    `yaml:"block_size" validate:"omitempty,gt=0"`

	Serving struct {
		URL     string        `yaml:"url" validate:"required,url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"serving"`

	Temperature TargetSpec     `yaml:"temperature"`
	Humidity    *TargetSpec    `yaml:"humidity"`
	Condition   ClassifierSpec `yaml:"condition"`
}

// TargetSpec describes one regression model.
type TargetSpec struct {
	Model        string        `yaml:"model" validate:"required"`
	InputScaler  *MinMaxScaler `yaml:"input_scaler"`
	OutputScaler *MinMaxScaler `yaml:"output_scaler"`
}

// ClassifierSpec describes the condition classifier.
type ClassifierSpec struct {
	Model       string        `yaml:"model" validate:"required"`
	Classes     []string      `yaml:"classes" validate:"required,min=1"`
	InputScaler *MinMaxScaler `yaml:"input_scaler"`
}

// LoadManifest reads and validates a YAML manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model manifest %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks field constraints and scaler dimensions.
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		return err
	}
	if m.Strategy == StrategySeq2Seq && m.BlockSize < 1 {
		return fmt.Errorf("seq2seq strategy needs block_size")
	}

	check := func(name string, s *MinMaxScaler, cols int) error {
		if s == nil {
			return nil
		}
		if err := s.check(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if s.Columns() != cols {
			return fmt.Errorf("%s has %d columns, want %d", name, s.Columns(), cols)
		}
		return nil
	}

	if err := check("temperature.input_scaler", m.Temperature.InputScaler, forecast.NumFeatures); err != nil {
		return err
	}
	if err := check("temperature.output_scaler", m.Temperature.OutputScaler, 1); err != nil {
		return err
	}
	if m.Humidity != nil {
		if err := check("humidity.input_scaler", m.Humidity.InputScaler, forecast.NumFeatures); err != nil {
			return err
		}
		if err := check("humidity.output_scaler", m.Humidity.OutputScaler, 1); err != nil {
			return err
		}
	}
	return check("condition.input_scaler", m.Condition.InputScaler, forecast.NumFeatures)
}

// Build creates the predictor the manifest describes, with every model
// served over HTTP through client.
func (m *Manifest) Build(client *http.Client) forecast.Predictor {
	if m.Serving.Timeout > 0 {
		c := *client
		c.Timeout = m.Serving.Timeout
		client = &c
	}

	serving := func(name string) Model {
		return NewServingModel(client, m.Serving.URL, name, m.HistorySteps, forecast.NumFeatures)
	}
	target := func(ts TargetSpec) Target {
		t := Target{
			Model:        serving(ts.Model),
			InputScaler:  ts.InputScaler,
			OutputScaler: ts.OutputScaler,
		}
		if t.InputScaler == nil {
			t.InputScaler = IdentityScaler(forecast.NumFeatures)
		}
		return t
	}

	temp := target(m.Temperature)
	var humidity *Target
	if m.Humidity != nil {
		h := target(*m.Humidity)
		humidity = &h
	}
	cond := Classifier{
		Model:       serving(m.Condition.Model),
		InputScaler: m.Condition.InputScaler,
		Labels:      LabelEncoder{Classes: m.Condition.Classes},
	}

	if m.Strategy == StrategySingle {
		return &SingleStep{Temperature: temp, Humidity: humidity, Condition: cond}
	}
	return &Seq2Seq{Block: m.BlockSize, Temperature: temp, Humidity: humidity, Condition: cond}
}

// Baseline builds a predictor from the persistence and rule models, used when
// no model manifest is configured.
func Baseline(strategy string, historySteps, blockSize int) (forecast.Predictor, error) {
	identity := IdentityScaler(forecast.NumFeatures)
	cond := Classifier{
		Model:  NewRuleClassifier(historySteps),
		Labels: LabelEncoder{Classes: DefaultClasses},
	}

	switch strategy {
	case StrategySingle:
		return &SingleStep{
			Temperature: Target{Model: NewPersistenceModel("persistence-temperature", historySteps, forecast.ColAirTemperature, 1), InputScaler: identity},
			Humidity:    &Target{Model: NewPersistenceModel("persistence-humidity", historySteps, forecast.ColRelativeHumidity, 1), InputScaler: identity},
			Condition:   cond,
		}, nil
	case StrategySeq2Seq:
		if blockSize < 1 {
			return nil, fmt.Errorf("block size must be positive, got %d", blockSize)
		}
		return &Seq2Seq{
			Block:       blockSize,
			Temperature: Target{Model: NewPersistenceModel("persistence-temperature", historySteps, forecast.ColAirTemperature, blockSize), InputScaler: identity},
			Humidity:    &Target{Model: NewPersistenceModel("persistence-humidity", historySteps, forecast.ColRelativeHumidity, blockSize), InputScaler: identity},
			Condition:   cond,
		}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
}
