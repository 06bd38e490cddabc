package sounding

import (
	"time"

	"github.com/atmoslab/upperair/internal/profile"
)

// Station identifies an upper-air observation site. ID is the WMO station
// number used by the radiosonde archives (e.g. "72518" for Albany, NY).
// City/Country are only used to geocode coordinates when Latitude/Longitude
// were not configured.
type Station struct {
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"-"`
	Country   string  `json:"-"`
}

// Key returns the canonical store key for this station.
func (s Station) Key() string {
	return s.ID
}

// HasCoordinates reports whether the station carries a usable lat/lon pair.
func (s Station) HasCoordinates() bool {
	return s.Latitude != 0 || s.Longitude != 0
}

// Sounding is one acquired vertical profile: where, when, from which archive,
// and the level data itself. Immutable once stored.
type Sounding struct {
	Station    Station         `json:"station"`
	ObservedAt time.Time       `json:"observedAt"` // always UTC
	Source     string          `json:"source"`     // provider name
	Profile    profile.Profile `json:"profile"`
}
