package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-forecast/internal/forecast"
)

// HistoryLoader loads a station's history window, filling the cache on a miss.
type HistoryLoader interface {
	History(ctx context.Context, station forecast.Station) (*forecast.HistoryWindow, error)
}

// Scheduler periodically warms the history cache for configured stations so
// forecast requests for them rarely pay for an observation fetch.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	stations   forecast.StationResolver
	loader     HistoryLoader
	stationIDs []string
	interval   time.Duration
	timeout    time.Duration
}

// New creates a new Scheduler.
func New(stationIDs []string, interval time.Duration, stations forecast.StationResolver, loader HistoryLoader) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:  s,
		stations:   stations,
		loader:     loader,
		stationIDs: stationIDs,
		interval:   interval,
		timeout:    30 * time.Second,
	}
}

// Start schedules the warm job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.stationIDs) == 0 {
		log.Println("scheduler: no warm stations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 30
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.WarmAll)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// WarmAll loads history for every configured station concurrently and
// returns once all of them finished. Failures are logged, not returned.
func (s *Scheduler) WarmAll() {
	log.Println("scheduler: running cache warm job")

	var wg sync.WaitGroup
	for _, id := range s.stationIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			station, err := s.stations.Lookup(id)
			if err != nil {
				log.Printf("scheduler: %v", err)
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			if _, err := s.loader.History(ctx, station); err != nil {
				log.Printf("scheduler: warm failed for station %s: %v", id, err)
			}
		}(id)
	}
	wg.Wait()
	log.Println("scheduler: completed cache warm job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
