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

const meteostatTimeLayout = "2006-01-02 15:04:05"

var defaultBackoff = common.BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// MeteostatSource implements forecast.ObservationSource for the Meteostat
// point/hourly endpoint served through RapidAPI.
type MeteostatSource struct {
	name    string
	apiKey  string
	host    string
	baseURL string
	httpCfg common.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewMeteostatSource(client *http.Client, apiKey string) *MeteostatSource {
	return &MeteostatSource{
		name:    "meteostat",
		apiKey:  apiKey,
		host:    "meteostat.p.rapidapi.com",
		baseURL: "https://meteostat.p.rapidapi.com/point/hourly",
		httpCfg: common.HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff,
		},
		circuit: common.NewCircuitBreaker("meteostat"),
	}
}

func (s *MeteostatSource) Name() string {
	return s.name
}

func (s *MeteostatSource) FetchHourly(ctx context.Context, lat, lon float64, start, end time.Time) ([]forecast.Observation, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("meteostat api key is not configured")
	}
	start = start.UTC()
	end = end.UTC()

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", lat))
		values.Set("lon", fmt.Sprintf("%f", lon))
		// The endpoint works on whole days; rows outside [start, end] are dropped below.
		values.Set("start", start.Format("2006-01-02"))
		values.Set("end", end.Format("2006-01-02"))
		values.Set("tz", "UTC")

		u := fmt.Sprintf("%s?%s", s.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("x-rapidapi-key", s.apiKey)
		req.Header.Set("x-rapidapi-host", s.host)
		return req, nil
	}

	resp, err := common.DoRequestWithResilience(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Data []struct {
			Time string   `json:"time"`
			Temp *float64 `json:"temp"`
			Dwpt *float64 `json:"dwpt"`
			Rhum *float64 `json:"rhum"`
			Prcp *float64 `json:"prcp"`
			Wdir *float64 `json:"wdir"`
			Wspd *float64 `json:"wspd"`
			Pres *float64 `json:"pres"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode meteostat response: %w", err)
	}

	obs := make([]forecast.Observation, 0, len(payload.Data))
	for _, row := range payload.Data {
		ts, err := time.Parse(meteostatTimeLayout, row.Time)
		if err != nil {
			continue
		}
		if ts.Before(start) || ts.After(end) {
			continue
		}
		obs = append(obs, forecast.Observation{
			Timestamp:        ts,
			AirTemperature:   row.Temp,
			DewPoint:         row.Dwpt,
			RelativeHumidity: row.Rhum,
			Precipitation:    row.Prcp,
			WindDirection:    row.Wdir,
			WindSpeed:        row.Wspd,
			Pressure:         row.Pres,
		})
	}

	return obs, nil
}
