package sounding

import (
	"context"
	"time"
)

// Provider abstracts an upper-air data source (e.g. the Wyoming radiosonde
// archive, Open-Meteo ERA5 reanalysis). Fetch retrieves the profile observed
// at (or valid for) the given time.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, st Station, at time.Time) (Sounding, error)
}

// Store is the contract the in-memory and sqlite stores must satisfy.
type Store interface {
	SaveSounding(s Sounding) error
	Latest(stationID string) (Sounding, error)
	Range(stationID string, from, to time.Time) ([]Sounding, error)
}
