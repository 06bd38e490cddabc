package sounding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atmoslab/upperair/internal/profile"
)

// ErrNoProviders is returned when a fetch is attempted with no providers
// configured.
var ErrNoProviders = errors.New("sounding: no providers configured")

// Service orchestrates fetching soundings from providers and persisting them.
//
// Unlike surface observations, profiles from different archives cannot be
// averaged (their level sets differ), so providers act as an ordered fallback
// chain: the first one that returns a usable profile wins.
type Service struct {
	store     Store
	providers []Provider
	log       *slog.Logger
}

// NewService creates a new Service. A nil logger falls back to slog.Default.
func NewService(store Store, providers []Provider, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:     store,
		providers: providers,
		log:       log,
	}
}

// FetchAndStore retrieves the sounding for a station at the given observation
// time and persists it. Provider failures are logged and the next provider is
// tried; if all fail the joined errors are returned and the store is left
// untouched.
func (s *Service) FetchAndStore(ctx context.Context, st Station, at time.Time) error {
	if len(s.providers) == 0 {
		return ErrNoProviders
	}

	var errs []error
	for _, p := range s.providers {
		snd, err := p.Fetch(ctx, st, at)
		if err != nil {
			s.log.Warn("provider fetch failed",
				"provider", p.Name(), "station", st.Key(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if len(snd.Profile) == 0 {
			s.log.Warn("provider returned empty profile",
				"provider", p.Name(), "station", st.Key())
			errs = append(errs, fmt.Errorf("%s: empty profile", p.Name()))
			continue
		}

		snd.ObservedAt = snd.ObservedAt.UTC()
		if err := s.store.SaveSounding(snd); err != nil {
			return fmt.Errorf("store sounding for %s: %w", st.Key(), err)
		}
		s.log.Info("sounding stored",
			"station", st.Key(), "source", p.Name(),
			"observedAt", snd.ObservedAt, "levels", len(snd.Profile))
		return nil
	}

	return fmt.Errorf("all providers failed for %s: %w", st.Key(), errors.Join(errs...))
}

// Latest delegates to the underlying store.
func (s *Service) Latest(stationID string) (Sounding, error) {
	return s.store.Latest(stationID)
}

// Range delegates to the underlying store.
func (s *Service) Range(stationID string, from, to time.Time) ([]Sounding, error) {
	return s.store.Range(stationID, from, to)
}

// Resampled returns the latest sounding for a station with its profile
// interpolated onto a uniform grid. Resampling errors pass through unwrapped
// so callers can map profile sentinel errors to transport responses.
func (s *Service) Resampled(stationID string, axis profile.Axis, step float64) (Sounding, error) {
	snd, err := s.store.Latest(stationID)
	if err != nil {
		return Sounding{}, err
	}

	uniform, err := profile.Resample(snd.Profile, axis, step)
	if err != nil {
		return Sounding{}, err
	}

	snd.Profile = uniform
	return snd, nil
}
