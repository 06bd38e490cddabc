package profile

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
)

// ReadCSV parses a delimited profile file. The first record is a header;
// columns are matched by name and unknown columns are ignored, so archive
// exports with extra diagnostics load unchanged. Empty cells become NaN.
// A file carrying neither a pressure nor a height column cannot anchor a
// profile and returns ErrMissingField.
func ReadCSV(r io.Reader) (Profile, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	if _, okP := cols[ColPressure]; !okP {
		if _, okH := cols[ColHeight]; !okH {
			return nil, fmt.Errorf("%w: need %s or %s", ErrMissingField, ColPressure, ColHeight)
		}
	}

	var p Profile
	row := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}
		row++

		lvl := NewLevel()
		for _, f := range fields {
			idx, ok := cols[f.name]
			if !ok || idx >= len(rec) {
				continue
			}
			v, err := parseCell(rec[idx])
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", row, f.name, err)
			}
			f.set(&lvl, v)
		}
		p = append(p, lvl)
	}

	return p, nil
}

// WriteCSV writes the profile with the canonical header. NaN fields are
// written as empty cells so the output reads back via ReadCSV unchanged.
func WriteCSV(w io.Writer, p Profile) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.name
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(fields))
	for _, lvl := range p {
		for i, f := range fields {
			rec[i] = formatCell(f.get(lvl))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func parseCell(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
