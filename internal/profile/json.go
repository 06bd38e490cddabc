package profile

import (
	"encoding/json"
	"math"
)

// levelJSON is the wire shape of a Level. Missing observations travel as
// null; encoding/json cannot represent NaN.
type levelJSON struct {
	Pressure    *float64 `json:"pressureHpa"`
	Height      *float64 `json:"heightM"`
	Temperature *float64 `json:"temperatureC"`
	Dewpoint    *float64 `json:"dewpointC"`
	WindU       *float64 `json:"windUMs"`
	WindV       *float64 `json:"windVMs"`
}

func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(levelJSON{
		Pressure:    nanToNil(l.Pressure),
		Height:      nanToNil(l.Height),
		Temperature: nanToNil(l.Temperature),
		Dewpoint:    nanToNil(l.Dewpoint),
		WindU:       nanToNil(l.WindU),
		WindV:       nanToNil(l.WindV),
	})
}

func (l *Level) UnmarshalJSON(data []byte) error {
	var w levelJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	l.Pressure = nilToNaN(w.Pressure)
	l.Height = nilToNaN(w.Height)
	l.Temperature = nilToNaN(w.Temperature)
	l.Dewpoint = nilToNaN(w.Dewpoint)
	l.WindU = nilToNaN(w.WindU)
	l.WindV = nilToNaN(w.WindV)
	return nil
}

func nanToNil(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func nilToNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
