package forecast

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// TimestampLayout is the hour-aligned ISO-8601 layout used for forecast output.
const TimestampLayout = "2006-01-02T15:04:05"

// PointTypeHourly tags every point produced by the rolling loop.
const PointTypeHourly = "hourly"

// Station is an immutable entry of the station registry.
type Station struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Observation is one raw hourly reading. Numeric fields are nil when the
// upstream source reported a gap.
type Observation struct {
	Timestamp        time.Time
	AirTemperature   *float64
	DewPoint         *float64
	RelativeHumidity *float64
	Precipitation    *float64
	WindDirection    *float64
	WindSpeed        *float64
	Pressure         *float64
}

// Feature column indexes, in the order the models were trained on.
const (
	ColAirTemperature = iota
	ColDewPoint
	ColRelativeHumidity
	ColPrecipitation
	ColWindSpeed
	ColWindDirection
	ColWdirSin
	ColWdirCos
	ColPressure
	ColHourSin
	ColHourCos
	ColDayOfYearSin
	ColDayOfYearCos

	NumFeatures
)

// FeatureNames lists the feature columns in model order.
var FeatureNames = [NumFeatures]string{
	"air_temperature",
	"dew_point",
	"relative_humidity",
	"precipitation",
	"wind_speed",
	"wind_direction",
	"wdir_sin",
	"wdir_cos",
	"pressure",
	"hour_sin",
	"hour_cos",
	"dayofyear_sin",
	"dayofyear_cos",
}

// FeatureVector is one engineered row of the history window.
type FeatureVector struct {
	Timestamp time.Time
	Values    [NumFeatures]float64
}

// Temperature returns the air temperature column.
func (v FeatureVector) Temperature() float64 {
	return v.Values[ColAirTemperature]
}

// Humidity returns the relative humidity column.
func (v FeatureVector) Humidity() float64 {
	return v.Values[ColRelativeHumidity]
}

// ForecastPoint is one hour of forecast output. Values stay float64 until
// they are serialized.
type ForecastPoint struct {
	Timestamp     time.Time
	Temperature   float64
	Humidity      float64
	Precipitation float64
	Condition     string
	Type          string
}

type forecastPointJSON struct {
	Temperature   string `json:"temperature"`
	Precipitation string `json:"precipitation"`
	Humidity      string `json:"humidity"`
	Condition     string `json:"condition"`
	Timestamp     string `json:"timestamp"`
	Type          string `json:"type"`
}

// MarshalJSON renders numbers as 2-decimal strings, which is the wire
// contract existing clients parse.
func (p ForecastPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(forecastPointJSON{
		Temperature:   FormatValue(p.Temperature),
		Precipitation: FormatValue(p.Precipitation),
		Humidity:      FormatValue(p.Humidity),
		Condition:     p.Condition,
		Timestamp:     p.Timestamp.UTC().Format(TimestampLayout),
		Type:          p.Type,
	})
}

// FormatValue rounds to two decimals and prints the shortest representation
// ("21.5", "0", "-3.14").
func FormatValue(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// PartialForecast is what a predictor returns for one block. Humidity is nil
// when the predictor does not model it.
type PartialForecast struct {
	Temperature []float64
	Humidity    []float64
	Condition   []string
}
