package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/atmoslab/upperair/internal/sounding"
)

// Scheduler periodically acquires soundings for the configured stations.
// Radiosonde launches happen at the synoptic hours (00Z and 12Z), so each run
// requests the most recent synoptic time rather than the wall-clock hour.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *sounding.Service
	stations  []sounding.Station
	interval  time.Duration
	log       *slog.Logger
}

// New creates a new Scheduler. A nil logger falls back to slog.Default.
func New(stations []sounding.Station, interval time.Duration, service *sounding.Service, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		stations:  stations,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic acquisition job and starts the underlying
// scheduler. The first run fires immediately so a fresh deployment has data
// without waiting a full interval.
func (s *Scheduler) Start() error {
	if len(s.stations) == 0 {
		s.log.Info("scheduler: no stations configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 12 * time.Hour
	}

	_, err := s.scheduler.Every(interval).StartImmediately().Do(s.runOnce)
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

func (s *Scheduler) runOnce() {
	at := LastSynoptic(time.Now().UTC())
	s.log.Info("scheduler: acquiring soundings", "observationTime", at, "stations", len(s.stations))

	var wg sync.WaitGroup
	for _, st := range s.stations {
		st := st
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			if err := s.service.FetchAndStore(ctx, st, at); err != nil {
				s.log.Error("scheduler: acquisition failed", "station", st.Key(), "error", err)
			}
		}()
	}
	wg.Wait()
	s.log.Info("scheduler: acquisition run completed")
}

// LastSynoptic returns the most recent 00Z or 12Z at or before t.
func LastSynoptic(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if t.Hour() >= 12 {
		return day.Add(12 * time.Hour)
	}
	return day
}
