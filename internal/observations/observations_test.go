package observations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/i474232898/weather-forecast/internal/common"
)

var fastBackoff = common.BackoffConfig{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
}

func TestOpenMeteoFetchHourly(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query = map[string]string{
			"start_hour": q.Get("start_hour"),
			"end_hour":   q.Get("end_hour"),
			"timezone":   q.Get("timezone"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hourly":{
			"time":["2024-06-01T10:00","2024-06-01T11:00","bogus"],
			"temperature_2m":[21.5,null,1],
			"dew_point_2m":[10.1,10.2,1],
			"relative_humidity_2m":[55,56,1],
			"precipitation":[0,0.2,1],
			"wind_speed_10m":[7.2,8.1,1],
			"wind_direction_10m":[null,180,1],
			"pressure_msl":[1012.3,1012.1,1]
		}}`))
	}))
	defer srv.Close()

	src := NewOpenMeteoSource(srv.Client())
	src.baseURL = srv.URL
	src.httpCfg.Backoff = fastBackoff

	start := time.Date(2024, 6, 1, 10, 15, 0, 0, time.UTC)
	end := time.Date(2024, 6, 1, 11, 45, 0, 0, time.UTC)
	obs, err := src.FetchHourly(context.Background(), 47.5, 19.0, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if query["start_hour"] != "2024-06-01T10:00" || query["end_hour"] != "2024-06-01T11:00" || query["timezone"] != "GMT" {
		t.Fatalf("unexpected query %v", query)
	}
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs))
	}
	if *obs[0].AirTemperature != 21.5 || obs[0].WindDirection != nil {
		t.Fatalf("unexpected first observation %+v", obs[0])
	}
	if obs[1].AirTemperature != nil || *obs[1].WindDirection != 180 {
		t.Fatalf("nulls must be preserved, got %+v", obs[1])
	}
	if !obs[1].Timestamp.Equal(time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", obs[1].Timestamp)
	}
}

func TestMeteostatFetchHourlyFiltersRange(t *testing.T) {
	var gotKey, gotStart string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-rapidapi-key")
		gotStart = r.URL.Query().Get("start")
		_, _ = w.Write([]byte(`{"data":[
			{"time":"2024-06-01 08:00:00","temp":18,"dwpt":9,"rhum":60,"prcp":0,"wdir":200,"wspd":9,"pres":1015},
			{"time":"2024-06-01 09:00:00","temp":19,"dwpt":9,"rhum":58,"prcp":0,"wdir":210,"wspd":10,"pres":1015},
			{"time":"2024-06-01 10:00:00","temp":20,"dwpt":9,"rhum":55,"prcp":null,"wdir":null,"wspd":11,"pres":1014},
			{"time":"2024-06-01 13:00:00","temp":24,"dwpt":9,"rhum":40,"prcp":0,"wdir":220,"wspd":12,"pres":1013}
		]}`))
	}))
	defer srv.Close()

	src := NewMeteostatSource(srv.Client(), "secret")
	src.baseURL = srv.URL
	src.httpCfg.Backoff = fastBackoff

	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	obs, err := src.FetchHourly(context.Background(), 47.5, 19.0, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotKey != "secret" || gotStart != "2024-06-01" {
		t.Fatalf("unexpected request key=%q start=%q", gotKey, gotStart)
	}
	if len(obs) != 2 {
		t.Fatalf("expected rows inside [start, end] only, got %d", len(obs))
	}
	if obs[1].Precipitation != nil || obs[1].WindDirection != nil {
		t.Fatalf("nulls must be preserved, got %+v", obs[1])
	}
}

func TestMeteostatRequiresAPIKey(t *testing.T) {
	src := NewMeteostatSource(http.DefaultClient, "")
	if _, err := src.FetchHourly(context.Background(), 0, 0, time.Now(), time.Now()); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"hourly":{"time":[]}}`))
	}))
	defer srv.Close()

	src := NewOpenMeteoSource(srv.Client())
	src.baseURL = srv.URL
	src.httpCfg.Backoff = fastBackoff

	obs, err := src.FetchHourly(context.Background(), 0, 0, time.Now(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 || len(obs) != 0 {
		t.Fatalf("expected 3 attempts and no rows, got %d attempts and %d rows", calls, len(obs))
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	src := NewOpenMeteoSource(srv.Client())
	src.baseURL = srv.URL
	src.httpCfg.Backoff = fastBackoff

	if _, err := src.FetchHourly(context.Background(), 0, 0, time.Now(), time.Now()); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("client errors must not be retried, got %d attempts", calls)
	}
}
