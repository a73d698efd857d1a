package forecast

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/i474232898/weather-forecast/internal/common"
)

// DefaultPrecipitation is emitted for precipitation, which no model predicts.
const DefaultPrecipitation = 0.0

// Options configures the rolling loop.
type Options struct {
	// HistorySteps is the fixed window length fed to the models.
	HistorySteps int
	// LookbackHours is how far back raw observations are requested on a cache
	// miss. Values below HistorySteps are raised to HistorySteps.
	LookbackHours int
	// CacheTTL is the expiry of freshly engineered windows.
	CacheTTL time.Duration
}

// Orchestrator drives the predict/extend loop for one station at a time.
// It holds no per-request state; concurrent Forecast calls only share the cache.
type Orchestrator struct {
	stations  StationResolver
	cache     HistoryCache
	source    ObservationSource
	predictor Predictor
	engineer  *FeatureEngineer
	opts      Options

	now func() time.Time
}

// NewOrchestrator creates an Orchestrator. The cache handle is owned by the
// caller, which is responsible for closing it.
func NewOrchestrator(
	stations StationResolver,
	cache HistoryCache,
	source ObservationSource,
	predictor Predictor,
	opts Options,
) *Orchestrator {
	if opts.LookbackHours < opts.HistorySteps {
		opts.LookbackHours = opts.HistorySteps
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	return &Orchestrator{
		stations:  stations,
		cache:     cache,
		source:    source,
		predictor: predictor,
		engineer:  NewFeatureEngineer(opts.HistorySteps),
		opts:      opts,
		now:       time.Now,
	}
}

// SetClock replaces the wall clock used to bound raw history fetches.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// Forecast returns exactly horizon hourly points, earliest first. Any failure
// aborts the whole call; there is no partial output.
//
// The loop itself does not observe ctx; a large horizon runs to completion.
// ctx only bounds the cache, source and model I/O.
func (o *Orchestrator) Forecast(ctx context.Context, stationID string, horizon int) ([]ForecastPoint, error) {
	if horizon < 0 {
		return nil, ErrInvalidHorizon
	}

	station, err := o.stations.Lookup(stationID)
	if err != nil {
		return nil, err
	}
	if horizon == 0 {
		return []ForecastPoint{}, nil
	}

	runID := RunID(ctx)
	log.Printf("DEBUG: forecast %s started for station %s (%s), horizon %dh", runID, station.ID, station.Name, horizon)

	window, err := o.History(ctx, station)
	if err != nil {
		log.Printf("ERROR: forecast %s failed for station %s: %v", runID, station.ID, err)
		return nil, err
	}

	points, err := o.roll(ctx, window, horizon)
	if err != nil {
		log.Printf("ERROR: forecast %s failed for station %s: %v", runID, station.ID, err)
		return nil, err
	}

	log.Printf("DEBUG: forecast %s produced %d points for station %s", runID, len(points), station.ID)
	return points, nil
}

// History returns the station's current window from the cache, falling back
// to fetch + engineer + cache write on a miss. The returned window is a
// private copy the caller may mutate.
func (o *Orchestrator) History(ctx context.Context, station Station) (*HistoryWindow, error) {
	key := common.CacheKey(station.Name)

	window, err := o.cache.Get(ctx, key)
	switch {
	case err == nil:
		if window.Len() == o.opts.HistorySteps {
			return window.Clone(), nil
		}
		log.Printf("INFO: cached window %s has %d rows, want %d; refetching", key, window.Len(), o.opts.HistorySteps)
	case errors.Is(err, ErrCacheMiss):
	default:
		var corrupt *CacheDeserializationError
		if !errors.As(err, &corrupt) {
			return nil, fmt.Errorf("read history cache: %w", err)
		}
		log.Printf("INFO: %v; treating as cache miss", err)
	}

	window, err = o.fetchAndEngineer(ctx, station)
	if err != nil {
		return nil, err
	}

	if err := o.cache.Set(ctx, key, window, o.opts.CacheTTL); err != nil {
		return nil, fmt.Errorf("write history cache: %w", err)
	}
	return window.Clone(), nil
}

func (o *Orchestrator) fetchAndEngineer(ctx context.Context, station Station) (*HistoryWindow, error) {
	end := o.now().UTC()
	start := end.Add(-time.Duration(o.opts.LookbackHours) * time.Hour)

	obs, err := o.source.FetchHourly(ctx, station.Latitude, station.Longitude, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch observations from %s: %w", o.source.Name(), err)
	}

	window, err := o.engineer.Engineer(obs)
	if err != nil {
		return nil, err
	}

	log.Printf("DEBUG: engineered %d-row window for %s from %d %s observations", window.Len(), station.Name, len(obs), o.source.Name())
	return window, nil
}

// roll runs the LOOP state against window, which it mutates.
func (o *Orchestrator) roll(ctx context.Context, window *HistoryWindow, horizon int) ([]ForecastPoint, error) {
	blockSize := o.predictor.BlockSize()
	if blockSize <= 0 {
		return nil, fmt.Errorf("predictor block size must be positive, got %d", blockSize)
	}

	steps := window.Len()
	base := window.LastTimestamp().Add(time.Hour).Truncate(time.Hour)

	points := make([]ForecastPoint, 0, horizon)
	produced := 0

	for produced < horizon {
		block := min(blockSize, horizon-produced)

		partial, err := o.predictor.PredictBlock(ctx, window, block)
		if err != nil {
			return nil, err
		}
		if err := checkPartial(partial, block); err != nil {
			return nil, err
		}

		for i := 0; i < block; i++ {
			humidity := 0.0
			if partial.Humidity != nil {
				humidity = partial.Humidity[i]
			}

			points = append(points, ForecastPoint{
				Timestamp:     base.Add(time.Duration(produced+i) * time.Hour),
				Temperature:   partial.Temperature[i],
				Humidity:      humidity,
				Precipitation: DefaultPrecipitation,
				Condition:     conditionAt(partial.Condition, i),
				Type:          PointTypeHourly,
			})

			// Carry the newest row forward, overwriting only predicted values.
			next := window.Last()
			next.Timestamp = next.Timestamp.Add(time.Hour)
			next.Values[ColAirTemperature] = partial.Temperature[i]
			if partial.Humidity != nil {
				next.Values[ColRelativeHumidity] = partial.Humidity[i]
			}
			window.Push(next)
		}

		if window.Len() != steps {
			return nil, fmt.Errorf("history window length changed from %d to %d", steps, window.Len())
		}

		produced += block
	}

	return points, nil
}

func checkPartial(p PartialForecast, block int) error {
	if len(p.Temperature) < block {
		return &ModelInferenceError{Model: "temperature", Err: fmt.Errorf("got %d values for a %d-hour block", len(p.Temperature), block)}
	}
	if p.Humidity != nil && len(p.Humidity) < block {
		return &ModelInferenceError{Model: "humidity", Err: fmt.Errorf("got %d values for a %d-hour block", len(p.Humidity), block)}
	}
	if len(p.Condition) == 0 {
		return &ModelInferenceError{Model: "condition", Err: errors.New("no condition label returned")}
	}
	return nil
}

// conditionAt returns the i-th label, repeating the last one when the
// predictor labels fewer hours than the block.
func conditionAt(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return labels[len(labels)-1]
}
