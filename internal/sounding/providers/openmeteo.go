package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/atmoslab/upperair/internal/profile"
	"github.com/atmoslab/upperair/internal/sounding"
)

// era5Levels are the pressure levels (hPa) Open-Meteo exposes for the ERA5
// reanalysis, surface first.
var era5Levels = []int{
	1000, 975, 950, 925, 900, 850, 800, 700, 600, 500,
	400, 300, 250, 200, 150, 100, 70, 50, 30,
}

// OpenMeteoProvider reconstructs a vertical profile from Open-Meteo's ERA5
// reanalysis archive. The API reports per-level temperature, relative
// humidity, wind and geopotential height as flat hourly series named
// "<variable>_<level>hPa"; dewpoint is derived from relative humidity.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo-era5",
		baseURL: "https://archive-api.open-meteo.com/v1/era5",
		httpCfg: defaultBackoff(client),
		circuit: newArchiveBreaker("openmeteo-era5"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, st sounding.Station, at time.Time) (sounding.Sounding, error) {
	if !st.HasCoordinates() {
		return sounding.Sounding{}, fmt.Errorf("openmeteo requires station coordinates")
	}

	at = at.UTC().Truncate(time.Hour)
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%.4f", st.Latitude))
		values.Set("longitude", fmt.Sprintf("%.4f", st.Longitude))
		values.Set("start_date", at.Format("2006-01-02"))
		values.Set("end_date", at.Format("2006-01-02"))
		values.Set("hourly", strings.Join(era5Variables(), ","))
		values.Set("wind_speed_unit", "ms")
		values.Set("timezone", "UTC")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return sounding.Sounding{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly map[string]json.RawMessage `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return sounding.Sounding{}, err
	}

	prof, err := assembleERA5Profile(payload.Hourly, at)
	if err != nil {
		return sounding.Sounding{}, fmt.Errorf("station %s: %w", st.ID, err)
	}

	return sounding.Sounding{
		Station:    st,
		ObservedAt: at,
		Source:     p.name,
		Profile:    prof,
	}, nil
}

func era5Variables() []string {
	var vars []string
	for _, lvl := range era5Levels {
		vars = append(vars,
			fmt.Sprintf("temperature_%dhPa", lvl),
			fmt.Sprintf("relative_humidity_%dhPa", lvl),
			fmt.Sprintf("wind_speed_%dhPa", lvl),
			fmt.Sprintf("wind_direction_%dhPa", lvl),
			fmt.Sprintf("geopotential_height_%dhPa", lvl),
		)
	}
	return vars
}

// assembleERA5Profile picks the series index matching the requested hour and
// folds the per-level series into profile levels. API nulls become NaN.
func assembleERA5Profile(hourly map[string]json.RawMessage, at time.Time) (profile.Profile, error) {
	if hourly == nil {
		return nil, fmt.Errorf("response carries no hourly block")
	}

	var times []string
	if err := json.Unmarshal(hourly["time"], &times); err != nil {
		return nil, fmt.Errorf("decode time axis: %w", err)
	}

	want := at.Format("2006-01-02T15:04")
	idx := -1
	for i, ts := range times {
		if ts == want {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("hour %s not present in reanalysis response", want)
	}

	series := func(name string) float64 {
		raw, ok := hourly[name]
		if !ok {
			return math.NaN()
		}
		var vals []*float64
		if err := json.Unmarshal(raw, &vals); err != nil || idx >= len(vals) || vals[idx] == nil {
			return math.NaN()
		}
		return *vals[idx]
	}

	var prof profile.Profile
	for _, plvl := range era5Levels {
		lvl := profile.NewLevel()
		lvl.Pressure = float64(plvl)
		lvl.Temperature = series(fmt.Sprintf("temperature_%dhPa", plvl))
		lvl.Height = series(fmt.Sprintf("geopotential_height_%dhPa", plvl))
		lvl.Dewpoint = dewpointFromRH(lvl.Temperature, series(fmt.Sprintf("relative_humidity_%dhPa", plvl)))

		dir := series(fmt.Sprintf("wind_direction_%dhPa", plvl))
		spd := series(fmt.Sprintf("wind_speed_%dhPa", plvl))
		if !math.IsNaN(dir) && !math.IsNaN(spd) {
			lvl.WindU, lvl.WindV = windComponents(dir, spd)
		}

		// Below-ground levels come back null across the board; skip them.
		if math.IsNaN(lvl.Temperature) && math.IsNaN(lvl.Height) {
			continue
		}
		prof = append(prof, lvl)
	}

	if len(prof) == 0 {
		return nil, fmt.Errorf("reanalysis response contains no levels")
	}
	return prof, nil
}
