package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/pwshub/weathercloud-hub/internal/service"
)

// Scheduler periodically refreshes the reports of the watched stations.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *service.Service
	stations  []string
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(stations []string, interval time.Duration, svc *service.Service, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   svc,
		stations:  stations,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.stations) == 0 {
		s.logger.Info("no stations watched; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 10
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.logger.Debug("running station refresh job")

		var wg sync.WaitGroup
		for _, id := range s.stations {
			id := id
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if _, err := s.service.FetchAndStore(ctx, id); err != nil {
					s.logger.Warn("station refresh failed", "station", id, "error", err)
				}
			}()
		}
		wg.Wait()
		s.logger.Debug("completed station refresh job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
