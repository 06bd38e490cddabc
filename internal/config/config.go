package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelvins/geocoder"

	"github.com/atmoslab/upperair/internal/sounding"
)

type AppConfig struct {
	// FetchInterval controls how often the scheduler acquires soundings.
	FetchInterval time.Duration

	// Stations to track.
	Stations []sounding.Station

	// Store selection: "memory" or "sqlite".
	StoreBackend string
	SQLitePath   string

	// In-memory store retention.
	StoreMaxHistory int           // max number of soundings per station (0 = unlimited)
	StoreMaxAge     time.Duration // max age of soundings (0 = unlimited)

	// GeocoderAPIKey enables resolving station coordinates from city/country.
	GeocoderAPIKey string

	Port     string
	LogLevel string
	AppEnv   string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	// Scheduler interval: default 12 hours, matching the synoptic launch cadence.
	intervalStr := getenvDefault("FETCH_INTERVAL", "12h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	cfg.StoreBackend = getenvDefault("STORE_BACKEND", "memory")
	switch cfg.StoreBackend {
	case "memory", "sqlite":
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: must be memory or sqlite", cfg.StoreBackend)
	}
	cfg.SQLitePath = getenvDefault("SQLITE_PATH", "data/upperair.db")

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 60) // roughly 30 days at two launches per day

	maxAgeStr := getenvDefault("STORE_MAX_AGE", "720h")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.AppEnv = getenvDefault("APP_ENV", "development")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	stations, err := loadStations()
	if err != nil {
		return nil, err
	}
	if err := resolveCoordinates(stations, cfg.GeocoderAPIKey); err != nil {
		return nil, err
	}
	cfg.Stations = stations

	return cfg, nil
}

// loadStations parses the station lists from the environment. STATION_IDS is
// required for any acquisition to happen; the remaining lists are optional but
// must match its length when present.
func loadStations() ([]sounding.Station, error) {
	ids := splitList(os.Getenv("STATION_IDS"))
	if len(ids) == 0 {
		return nil, nil
	}

	names := splitList(os.Getenv("STATION_NAMES"))
	lats := splitList(os.Getenv("STATION_LATITUDES"))
	lons := splitList(os.Getenv("STATION_LONGITUDES"))
	cities := splitList(os.Getenv("STATION_CITIES"))
	countries := splitList(os.Getenv("STATION_COUNTRIES"))

	for _, l := range [][]string{names, lats, lons, cities, countries} {
		if len(l) != 0 && len(l) != len(ids) {
			return nil, fmt.Errorf("station lists must all have %d entries to match STATION_IDS", len(ids))
		}
	}

	stations := make([]sounding.Station, 0, len(ids))
	for i, id := range ids {
		st := sounding.Station{ID: id}
		if len(names) != 0 {
			st.Name = names[i]
		}
		if len(cities) != 0 {
			st.City = cities[i]
		}
		if len(countries) != 0 {
			st.Country = countries[i]
		}
		if len(lats) != 0 && lats[i] != "" {
			lat, err := strconv.ParseFloat(lats[i], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid STATION_LATITUDES entry %q: %w", lats[i], err)
			}
			st.Latitude = lat
		}
		if len(lons) != 0 && lons[i] != "" {
			lon, err := strconv.ParseFloat(lons[i], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid STATION_LONGITUDES entry %q: %w", lons[i], err)
			}
			st.Longitude = lon
		}
		stations = append(stations, st)
	}

	return stations, nil
}

// resolveCoordinates fills in missing station coordinates by geocoding the
// station's city and country. Stations that already have coordinates are left
// alone; without an API key the stations are passed through unchanged.
func resolveCoordinates(stations []sounding.Station, apiKey string) error {
	if apiKey == "" {
		return nil
	}
	geocoder.ApiKey = apiKey

	for i := range stations {
		st := &stations[i]
		if st.HasCoordinates() || st.City == "" {
			continue
		}
		loc, err := geocoder.Geocoding(geocoder.Address{
			City:    st.City,
			Country: st.Country,
		})
		if err != nil {
			return fmt.Errorf("geocoding station %s (%s, %s): %w", st.ID, st.City, st.Country, err)
		}
		st.Latitude = loc.Latitude
		st.Longitude = loc.Longitude
	}

	return nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
