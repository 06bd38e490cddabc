package providers

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atmoslab/upperair/internal/sounding"
)

const wyomingPage = `<HTML>
<TITLE>University of Wyoming - Radiosonde Data</TITLE>
<BODY BGCOLOR="white">
<H2>72518 ALB Albany Observations at 12Z 30 Aug 2026</H2>
<PRE>
-----------------------------------------------------------------------------
   PRES   HGHT   TEMP   DWPT   RELH   MIXR   DRCT   SKNT   THTA   THTE   THTV
    hPa     m      C      C      %    g/kg    deg   knot     K      K      K
-----------------------------------------------------------------------------
 1000.0     96   21.6   16.6     73  12.05    210     10  295.5  330.6  297.6
  925.0    764   17.2   13.2     77  10.48    225     14  297.6  328.4  299.5
  850.0   1473   12.4    8.4     76   8.82                298.9  325.3  300.5
  700.0   3107    2.0   -5.0     60   4.28    270     22  304.6  318.3  305.4
</PRE><H3>Station information and sounding indices</H3><PRE>
                         Station identifier: ALB
                             Station number: 72518
                           Observation time: 260830/1200
                           Station latitude: 42.69
                          Station longitude: -73.83
                          Station elevation: 96.0
</PRE>
</BODY>
</HTML>`

func testWyoming(t *testing.T, handler http.HandlerFunc) (*WyomingProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewWyomingProvider(srv.Client())
	p.baseURL = srv.URL
	return p, srv
}

func TestWyomingFetch(t *testing.T) {
	p, _ := testWyoming(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("STNM") != "72518" || q.Get("TYPE") != "TEXT:LIST" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("FROM") != "3012" {
			t.Errorf("FROM = %q, want 3012", q.Get("FROM"))
		}
		w.Write([]byte(wyomingPage))
	})

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	snd, err := p.Fetch(context.Background(), sounding.Station{ID: "72518"}, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(snd.Profile) != 4 {
		t.Fatalf("expected 4 levels, got %d", len(snd.Profile))
	}
	if !snd.ObservedAt.Equal(at) {
		t.Errorf("observed at %v, want %v", snd.ObservedAt, at)
	}

	sfc := snd.Profile[0]
	if sfc.Pressure != 1000 || sfc.Height != 96 || sfc.Temperature != 21.6 || sfc.Dewpoint != 16.6 {
		t.Errorf("surface level parsed wrong: %+v", sfc)
	}

	// 210° at 10 kt: wind from the southwest, so u and v are both positive.
	wantSpeed := 10 * knotsToMS
	speed := math.Hypot(sfc.WindU, sfc.WindV)
	if math.Abs(speed-wantSpeed) > 1e-9 {
		t.Errorf("wind speed %v, want %v", speed, wantSpeed)
	}
	if sfc.WindU <= 0 || sfc.WindV <= 0 {
		t.Errorf("wind from 210 deg should give positive u and v, got (%v, %v)", sfc.WindU, sfc.WindV)
	}

	// The 850 hPa row has blank wind columns.
	if !math.IsNaN(snd.Profile[2].WindU) || !math.IsNaN(snd.Profile[2].WindV) {
		t.Errorf("blank wind columns should stay NaN: %+v", snd.Profile[2])
	}
}

func TestWyomingFetchNoData(t *testing.T) {
	p, _ := testWyoming(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<HTML><BODY>Can't get 72518 data for 30 Aug 2026 12Z.</BODY></HTML>`))
	})

	_, err := p.Fetch(context.Background(), sounding.Station{ID: "72518"}, time.Now())
	if err == nil {
		t.Fatal("expected an error for a page without sounding data")
	}
}

func TestWyomingFetchRequiresStation(t *testing.T) {
	p := NewWyomingProvider(http.DefaultClient)
	if _, err := p.Fetch(context.Background(), sounding.Station{}, time.Now()); err == nil {
		t.Fatal("expected an error without a station number")
	}
}

func TestParseObservationTime(t *testing.T) {
	got := parseObservationTime("   Observation time: 260830/1200\n")
	want := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parsed %v, want %v", got, want)
	}

	if !parseObservationTime("no such line").IsZero() {
		t.Error("missing line should give zero time")
	}
}
