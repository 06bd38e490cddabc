package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/atmoslab/upperair/internal/profile"
	"github.com/atmoslab/upperair/internal/sounding"
	"github.com/atmoslab/upperair/internal/store"
)

func testApp(t *testing.T) (*fiber.App, *store.MemoryStore) {
	t.Helper()
	app := fiber.New()
	memStore := store.NewMemoryStore(10, 0)
	svc := sounding.NewService(memStore, nil, nil)
	RegisterRoutes(app, svc)
	return app, memStore
}

func seedSounding(t *testing.T, s *store.MemoryStore) sounding.Sounding {
	t.Helper()
	sfc := profile.NewLevel()
	sfc.Pressure, sfc.Height, sfc.Temperature = 1000, 100, 20
	top := profile.NewLevel()
	top.Pressure, top.Height, top.Temperature = 900, 1000, 10

	snd := sounding.Sounding{
		Station:    sounding.Station{ID: "72518", Name: "Albany"},
		ObservedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Source:     "wyoming",
		Profile:    profile.Profile{sfc, top},
	}
	if err := s.SaveSounding(snd); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return snd
}

func doRequest(t *testing.T, app *fiber.App, url string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

func TestLatestSounding(t *testing.T) {
	app, memStore := testApp(t)
	seedSounding(t, memStore)

	resp := doRequest(t, app, "/api/v1/soundings/latest?station=72518")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var snd sounding.Sounding
	if err := json.NewDecoder(resp.Body).Decode(&snd); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if snd.Station.ID != "72518" || len(snd.Profile) != 2 {
		t.Errorf("unexpected payload: %+v", snd)
	}
}

func TestLatestSoundingValidation(t *testing.T) {
	app, _ := testApp(t)

	// Missing station parameter.
	if resp := doRequest(t, app, "/api/v1/soundings/latest"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing station: status %d, want 400", resp.StatusCode)
	}
	// Unknown station.
	if resp := doRequest(t, app, "/api/v1/soundings/latest?station=99999"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown station: status %d, want 404", resp.StatusCode)
	}
}

func TestLatestSoundingCSV(t *testing.T) {
	app, memStore := testApp(t)
	seedSounding(t, memStore)

	resp := doRequest(t, app, "/api/v1/soundings/latest?station=72518&format=csv")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type %q, want text/csv", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(body), "pressure_hpa,") {
		t.Errorf("csv body missing header: %q", string(body)[:min(len(body), 40)])
	}
}

func TestResampledSounding(t *testing.T) {
	app, memStore := testApp(t)
	seedSounding(t, memStore)

	resp := doRequest(t, app, "/api/v1/soundings/resampled?station=72518&axis=pressure&step=50")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var snd sounding.Sounding
	if err := json.NewDecoder(resp.Body).Decode(&snd); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(snd.Profile) != 3 {
		t.Fatalf("expected 3 resampled levels, got %d", len(snd.Profile))
	}
	if snd.Profile[1].Temperature != 15 {
		t.Errorf("midpoint temperature = %v, want 15", snd.Profile[1].Temperature)
	}
}

// TestResampledValidation verifies that axis and step are checked before the
// store is consulted.
func TestResampledValidation(t *testing.T) {
	app, memStore := testApp(t)
	seedSounding(t, memStore)

	cases := []struct {
		name string
		url  string
		want int
	}{
		{"missing step", "/api/v1/soundings/resampled?station=72518&axis=pressure", http.StatusBadRequest},
		{"zero step", "/api/v1/soundings/resampled?station=72518&axis=pressure&step=0", http.StatusBadRequest},
		{"negative step", "/api/v1/soundings/resampled?station=72518&axis=pressure&step=-10", http.StatusBadRequest},
		{"bogus axis", "/api/v1/soundings/resampled?station=72518&axis=sigma&step=50", http.StatusBadRequest},
		{"unknown station", "/api/v1/soundings/resampled?station=99999&axis=pressure&step=50", http.StatusNotFound},
	}
	for _, tc := range cases {
		if resp := doRequest(t, app, tc.url); resp.StatusCode != tc.want {
			t.Errorf("%s: status %d, want %d", tc.name, resp.StatusCode, tc.want)
		}
	}
}

func TestResampledInsufficientData(t *testing.T) {
	app, memStore := testApp(t)

	lvl := profile.NewLevel()
	lvl.Pressure, lvl.Temperature = 1000, 20
	memStore.SaveSounding(sounding.Sounding{
		Station:    sounding.Station{ID: "72518"},
		ObservedAt: time.Now().UTC(),
		Profile:    profile.Profile{lvl},
	})

	resp := doRequest(t, app, "/api/v1/soundings/resampled?station=72518&axis=pressure&step=50")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("single-level profile: status %d, want 422", resp.StatusCode)
	}
}

func TestHistoryValidation(t *testing.T) {
	app, memStore := testApp(t)
	seedSounding(t, memStore)

	// Missing range parameters.
	if resp := doRequest(t, app, "/api/v1/soundings/history?station=72518"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing range: status %d, want 400", resp.StatusCode)
	}

	// to before from.
	url := "/api/v1/soundings/history?station=72518&from=2026-08-31T00:00:00Z&to=2026-08-30T00:00:00Z"
	if resp := doRequest(t, app, url); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("inverted range: status %d, want 400", resp.StatusCode)
	}

	// Valid range around the seeded sounding.
	url = "/api/v1/soundings/history?station=72518&from=2026-08-30T00:00:00Z&to=2026-08-31T00:00:00Z"
	if resp := doRequest(t, app, url); resp.StatusCode != http.StatusOK {
		t.Errorf("valid range: status %d, want 200", resp.StatusCode)
	}
}
