package providers

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/atmoslab/upperair/internal/profile"
	"github.com/atmoslab/upperair/internal/sounding"
)

// WyomingProvider fetches radiosonde observations from the University of
// Wyoming upper-air archive (weather.uwyo.edu). The archive serves an HTML
// page whose <PRE> block holds a fixed-width table:
//
//	PRES   HGHT   TEMP   DWPT   RELH   MIXR   DRCT   SKNT   THTA   THTE   THTV
//	 hPa     m      C      C      %    g/kg    deg   knot     K      K      K
//
// Each column is seven characters wide; missing observations are blank.
type WyomingProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWyomingProvider(client *http.Client) *WyomingProvider {
	return &WyomingProvider{
		name:    "wyoming",
		baseURL: "https://weather.uwyo.edu/cgi-bin/sounding",
		httpCfg: defaultBackoff(client),
		circuit: newArchiveBreaker("wyoming"),
	}
}

func (p *WyomingProvider) Name() string {
	return p.name
}

func (p *WyomingProvider) Fetch(ctx context.Context, st sounding.Station, at time.Time) (sounding.Sounding, error) {
	if st.ID == "" {
		return sounding.Sounding{}, fmt.Errorf("wyoming requires a WMO station number")
	}

	at = at.UTC()
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("TYPE", "TEXT:LIST")
		values.Set("YEAR", fmt.Sprintf("%04d", at.Year()))
		values.Set("MONTH", fmt.Sprintf("%02d", int(at.Month())))
		values.Set("FROM", fmt.Sprintf("%02d%02d", at.Day(), at.Hour()))
		values.Set("TO", fmt.Sprintf("%02d%02d", at.Day(), at.Hour()))
		values.Set("STNM", st.ID)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return sounding.Sounding{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return sounding.Sounding{}, err
	}

	prof, observed, err := parseWyoming(string(body))
	if err != nil {
		return sounding.Sounding{}, fmt.Errorf("station %s at %s: %w", st.ID, at.Format("2006-01-02 15Z"), err)
	}
	if observed.IsZero() {
		observed = at
	}

	return sounding.Sounding{
		Station:    st,
		ObservedAt: observed,
		Source:     p.name,
		Profile:    prof,
	}, nil
}

// parseWyoming extracts the level table and observation time from the archive
// page. The first <PRE> holds the data table, the second the station info
// block with an "Observation time: YYMMDD/HHMM" line.
func parseWyoming(page string) (profile.Profile, time.Time, error) {
	blocks := preBlocks(page)
	if len(blocks) == 0 {
		return nil, time.Time{}, fmt.Errorf("no sounding data in archive response")
	}

	var prof profile.Profile
	for _, line := range strings.Split(blocks[0], "\n") {
		if !isWyomingDataLine(line) {
			continue
		}
		prof = append(prof, parseWyomingLevel(line))
	}
	if len(prof) == 0 {
		return nil, time.Time{}, fmt.Errorf("archive response contains no levels")
	}

	var observed time.Time
	if len(blocks) > 1 {
		observed = parseObservationTime(blocks[1])
	}
	return prof, observed, nil
}

func preBlocks(page string) []string {
	var blocks []string
	rest := page
	for {
		start := strings.Index(rest, "<PRE>")
		if start < 0 {
			break
		}
		rest = rest[start+len("<PRE>"):]
		end := strings.Index(rest, "</PRE>")
		if end < 0 {
			break
		}
		blocks = append(blocks, rest[:end])
		rest = rest[end:]
	}
	return blocks
}

// isWyomingDataLine reports whether a table line holds numbers rather than
// column headers, units or separators.
func isWyomingDataLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "-") {
		return false
	}
	first := strings.Fields(trimmed)[0]
	_, err := strconv.ParseFloat(first, 64)
	return err == nil
}

// parseWyomingLevel slices one fixed-width row into a Level. Only the first
// eight columns are used; the potential-temperature columns are diagnostics
// the archive derives itself.
func parseWyomingLevel(line string) profile.Level {
	lvl := profile.NewLevel()

	lvl.Pressure = wyomingField(line, 0)
	lvl.Height = wyomingField(line, 1)
	lvl.Temperature = wyomingField(line, 2)
	lvl.Dewpoint = wyomingField(line, 3)

	dir := wyomingField(line, 6)
	spd := wyomingField(line, 7)
	if !math.IsNaN(dir) && !math.IsNaN(spd) {
		lvl.WindU, lvl.WindV = windComponents(dir, spd*knotsToMS)
	}
	return lvl
}

// wyomingField returns the idx-th seven-character column as a float, or NaN
// when the column is blank or runs past the end of the line.
func wyomingField(line string, idx int) float64 {
	const width = 7
	start := idx * width
	if start >= len(line) {
		return math.NaN()
	}
	end := start + width
	if end > len(line) {
		end = len(line)
	}
	s := strings.TrimSpace(line[start:end])
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseObservationTime finds "Observation time: YYMMDD/HHMM" in the station
// info block. A zero time means the line was absent or malformed.
func parseObservationTime(block string) time.Time {
	for _, line := range strings.Split(block, "\n") {
		idx := strings.Index(line, "Observation time:")
		if idx < 0 {
			continue
		}
		raw := strings.TrimSpace(line[idx+len("Observation time:"):])
		t, err := time.Parse("060102/1504", raw)
		if err != nil {
			return time.Time{}
		}
		return t.UTC()
	}
	return time.Time{}
}
