package observations

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/weather-forecast/internal/forecast"
)

// MergedSource queries several sources concurrently and combines their hourly
// rows. A failing source is logged and skipped; the fetch only fails when
// every source does.
type MergedSource struct {
	sources []forecast.ObservationSource
}

// NewMergedSource creates a MergedSource over sources.
func NewMergedSource(sources ...forecast.ObservationSource) *MergedSource {
	return &MergedSource{sources: sources}
}

func (m *MergedSource) Name() string {
	names := make([]string, len(m.sources))
	for i, s := range m.sources {
		names[i] = s.Name()
	}
	return "merged(" + strings.Join(names, ",") + ")"
}

func (m *MergedSource) FetchHourly(ctx context.Context, lat, lon float64, start, end time.Time) ([]forecast.Observation, error) {
	if len(m.sources) == 0 {
		return nil, fmt.Errorf("no observation sources configured")
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		batches [][]forecast.Observation
		errs    []error
	)

	for _, s := range m.sources {
		wg.Add(1)
		go func(s forecast.ObservationSource) {
			defer wg.Done()

			obs, err := s.FetchHourly(ctx, lat, lon, start, end)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("source %s fetch failed for (%.4f, %.4f): %v", s.Name(), lat, lon, err)
				errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
				return
			}
			batches = append(batches, obs)
		}(s)
	}

	wg.Wait()

	if len(batches) == 0 {
		return nil, errors.Join(errs...)
	}
	return MergeObservations(batches...), nil
}

// MergeObservations combines rows sharing an hour. Each numeric field is the
// mean of the sources that reported it and stays nil when none did; wind
// direction is a circular mean in [0, 360). The result is sorted by timestamp.
func MergeObservations(batches ...[]forecast.Observation) []forecast.Observation {
	type acc struct {
		sums   [numFields]float64
		counts [numFields]int
		// unit vector sums of the wind direction
		sin, cos float64
	}

	hours := make(map[time.Time]*acc)
	for _, batch := range batches {
		for _, o := range batch {
			ts := o.Timestamp.UTC().Truncate(time.Hour)
			a, ok := hours[ts]
			if !ok {
				a = &acc{}
				hours[ts] = a
			}
			for i, v := range fields(&o) {
				if *v == nil {
					continue
				}
				a.counts[i]++
				a.sums[i] += **v
				if i == windDirectionField {
					rad := **v * math.Pi / 180
					a.sin += math.Sin(rad)
					a.cos += math.Cos(rad)
				}
			}
		}
	}

	out := make([]forecast.Observation, 0, len(hours))
	for ts, a := range hours {
		o := forecast.Observation{Timestamp: ts}
		for i, v := range fields(&o) {
			if a.counts[i] == 0 {
				continue
			}
			mean := a.sums[i] / float64(a.counts[i])
			// A single reading passes through exactly.
			if i == windDirectionField && a.counts[i] > 1 {
				mean = circularMean(a.sin, a.cos)
			}
			*v = &mean
		}
		out = append(out, o)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// circularMean converts summed unit vectors back to a bearing in [0, 360).
// Opposing directions that cancel out yield 0.
func circularMean(sin, cos float64) float64 {
	deg := math.Atan2(sin, cos) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

const (
	numFields          = 7
	windDirectionField = 4
)

func fields(o *forecast.Observation) [numFields]**float64 {
	return [numFields]**float64{
		&o.AirTemperature,
		&o.DewPoint,
		&o.RelativeHumidity,
		&o.Precipitation,
		&o.WindDirection,
		&o.WindSpeed,
		&o.Pressure,
	}
}
