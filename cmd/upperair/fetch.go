package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/atmoslab/upperair/internal/profile"
	"github.com/atmoslab/upperair/internal/scheduler"
	"github.com/atmoslab/upperair/internal/sounding"
	"github.com/atmoslab/upperair/internal/store"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a single sounding and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			station, _ := cmd.Flags().GetString("station")
			name, _ := cmd.Flags().GetString("name")
			lat, _ := cmd.Flags().GetFloat64("lat")
			lon, _ := cmd.Flags().GetFloat64("lon")
			at, _ := cmd.Flags().GetString("at")
			out, _ := cmd.Flags().GetString("out")
			format, _ := cmd.Flags().GetString("format")

			st := sounding.Station{
				ID:        station,
				Name:      name,
				Latitude:  lat,
				Longitude: lon,
			}
			return runFetch(st, at, out, format)
		},
	}

	cmd.Flags().String("station", "", "WMO station identifier (required)")
	cmd.Flags().String("name", "", "station name")
	cmd.Flags().Float64("lat", 0, "station latitude in degrees")
	cmd.Flags().Float64("lon", 0, "station longitude in degrees")
	cmd.Flags().String("at", "", "observation time, RFC3339 (default: most recent 00Z/12Z)")
	cmd.Flags().StringP("out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringP("format", "f", "csv", "output format (csv, json)")
	cmd.MarkFlagRequired("station")

	return cmd
}

func runFetch(st sounding.Station, atStr, out, format string) error {
	at := scheduler.LastSynoptic(time.Now().UTC())
	if atStr != "" {
		parsed, err := time.Parse(time.RFC3339, atStr)
		if err != nil {
			return fmt.Errorf("invalid --at value %q: %w", atStr, err)
		}
		at = parsed
	}

	memStore := store.NewMemoryStore(1, 0)
	service := sounding.NewService(memStore, buildProviders(newHTTPClient()), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := service.FetchAndStore(ctx, st, at); err != nil {
		return fmt.Errorf("fetching sounding for %s: %w", st.ID, err)
	}

	snd, err := memStore.Latest(st.ID)
	if err != nil {
		return err
	}

	w := io.Writer(os.Stdout)
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	return writeSounding(w, snd, format)
}

func writeSounding(w io.Writer, snd sounding.Sounding, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snd)
	case "csv":
		return profile.WriteCSV(w, snd.Profile)
	default:
		return fmt.Errorf("unknown format %q: must be csv or json", format)
	}
}
