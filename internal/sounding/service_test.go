package sounding

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/atmoslab/upperair/internal/profile"
)

type fakeProvider struct {
	name string
	snd  Sounding
	err  error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(ctx context.Context, st Station, at time.Time) (Sounding, error) {
	if f.err != nil {
		return Sounding{}, f.err
	}
	return f.snd, nil
}

type fakeStore struct {
	saved  []Sounding
	latest Sounding
	err    error
}

func (f *fakeStore) SaveSounding(s Sounding) error {
	f.saved = append(f.saved, s)
	return f.err
}

func (f *fakeStore) Latest(stationID string) (Sounding, error) {
	return f.latest, f.err
}

func (f *fakeStore) Range(stationID string, from, to time.Time) ([]Sounding, error) {
	return []Sounding{f.latest}, f.err
}

func testSounding() Sounding {
	lvl := profile.NewLevel()
	lvl.Pressure, lvl.Height, lvl.Temperature = 1000, 100, 20
	lvl2 := profile.NewLevel()
	lvl2.Pressure, lvl2.Height, lvl2.Temperature = 900, 1000, 10
	return Sounding{
		Station:    Station{ID: "72518"},
		ObservedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Profile:    profile.Profile{lvl, lvl2},
	}
}

// TestFetchAndStoreFallback exercises the fallback chain: the first provider
// fails, the second succeeds and its sounding is stored.
func TestFetchAndStoreFallback(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, []Provider{
		&fakeProvider{name: "wyoming", err: errors.New("503")},
		&fakeProvider{name: "openmeteo-era5", snd: testSounding()},
	}, nil)

	err := svc.FetchAndStore(context.Background(), Station{ID: "72518"}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected 1 stored sounding, got %d", len(store.saved))
	}
}

func TestFetchAndStoreAllFail(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, []Provider{
		&fakeProvider{name: "wyoming", err: errors.New("timeout")},
		&fakeProvider{name: "openmeteo-era5", err: errors.New("404")},
	}, nil)

	err := svc.FetchAndStore(context.Background(), Station{ID: "72518"}, time.Now())
	if err == nil {
		t.Fatal("expected an error when every provider fails")
	}
	if len(store.saved) != 0 {
		t.Errorf("nothing should be stored, got %d soundings", len(store.saved))
	}
}

func TestFetchAndStoreSkipsEmptyProfiles(t *testing.T) {
	store := &fakeStore{}
	empty := testSounding()
	empty.Profile = nil
	svc := NewService(store, []Provider{
		&fakeProvider{name: "wyoming", snd: empty},
		&fakeProvider{name: "openmeteo-era5", snd: testSounding()},
	}, nil)

	if err := svc.FetchAndStore(context.Background(), Station{ID: "72518"}, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.saved) != 1 || store.saved[0].Profile == nil {
		t.Fatalf("expected the non-empty fallback sounding to be stored")
	}
}

func TestFetchAndStoreNoProviders(t *testing.T) {
	svc := NewService(&fakeStore{}, nil, nil)
	err := svc.FetchAndStore(context.Background(), Station{ID: "72518"}, time.Now())
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("got %v, want ErrNoProviders", err)
	}
}

func TestResampled(t *testing.T) {
	store := &fakeStore{latest: testSounding()}
	svc := NewService(store, nil, nil)

	snd, err := svc.Resampled("72518", profile.AxisPressure, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snd.Profile) != 3 {
		t.Fatalf("expected 3 resampled levels, got %d", len(snd.Profile))
	}
	if got := snd.Profile[1].Temperature; math.Abs(got-15) > 1e-9 {
		t.Errorf("midpoint temperature = %v, want 15", got)
	}
}

func TestResampledPropagatesSentinels(t *testing.T) {
	store := &fakeStore{latest: testSounding()}
	svc := NewService(store, nil, nil)

	if _, err := svc.Resampled("72518", profile.AxisPressure, -1); !errors.Is(err, profile.ErrInvalidResolution) {
		t.Errorf("got %v, want ErrInvalidResolution", err)
	}
	if _, err := svc.Resampled("72518", profile.Axis("sigma"), 10); !errors.Is(err, profile.ErrInvalidAxis) {
		t.Errorf("got %v, want ErrInvalidAxis", err)
	}
}
