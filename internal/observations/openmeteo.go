package observations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-forecast/internal/common"
	"github.com/i474232898/weather-forecast/internal/forecast"
)

const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoSource implements forecast.ObservationSource for the Open-Meteo
// hourly API. It needs no API key.
type OpenMeteoSource struct {
	name    string
	baseURL string
	httpCfg common.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoSource(client *http.Client) *OpenMeteoSource {
	return &OpenMeteoSource{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: common.HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff,
		},
		circuit: common.NewCircuitBreaker("openmeteo"),
	}
}

func (s *OpenMeteoSource) Name() string {
	return s.name
}

func (s *OpenMeteoSource) FetchHourly(ctx context.Context, lat, lon float64, start, end time.Time) ([]forecast.Observation, error) {
	start = start.UTC().Truncate(time.Hour)
	end = end.UTC().Truncate(time.Hour)

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", lat))
		values.Set("longitude", fmt.Sprintf("%f", lon))
		values.Set("hourly", "temperature_2m,dew_point_2m,relative_humidity_2m,precipitation,wind_speed_10m,wind_direction_10m,pressure_msl")
		values.Set("start_hour", start.Format(openMeteoTimeLayout))
		values.Set("end_hour", end.Format(openMeteoTimeLayout))
		values.Set("timezone", "GMT")

		u := fmt.Sprintf("%s?%s", s.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := common.DoRequestWithResilience(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly struct {
			Time             []string   `json:"time"`
			Temperature      []*float64 `json:"temperature_2m"`
			DewPoint         []*float64 `json:"dew_point_2m"`
			RelativeHumidity []*float64 `json:"relative_humidity_2m"`
			Precipitation    []*float64 `json:"precipitation"`
			WindSpeed        []*float64 `json:"wind_speed_10m"`
			WindDirection    []*float64 `json:"wind_direction_10m"`
			Pressure         []*float64 `json:"pressure_msl"`
		} `json:"hourly"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode openmeteo response: %w", err)
	}

	h := payload.Hourly
	obs := make([]forecast.Observation, 0, len(h.Time))
	for i, raw := range h.Time {
		ts, err := time.Parse(openMeteoTimeLayout, raw)
		if err != nil {
			continue
		}
		obs = append(obs, forecast.Observation{
			Timestamp:        ts.UTC(),
			AirTemperature:   at(h.Temperature, i),
			DewPoint:         at(h.DewPoint, i),
			RelativeHumidity: at(h.RelativeHumidity, i),
			Precipitation:    at(h.Precipitation, i),
			WindSpeed:        at(h.WindSpeed, i),
			WindDirection:    at(h.WindDirection, i),
			Pressure:         at(h.Pressure, i),
		})
	}

	return obs, nil
}

// at returns the i-th element or nil when the series is shorter.
func at(series []*float64, i int) *float64 {
	if i < len(series) {
		return series[i]
	}
	return nil
}
