package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/atmoslab/upperair/internal/profile"
)

func newResampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resample",
		Short: "Resample a profile CSV onto a uniform grid",
		Long:  "Reads a vertical profile from CSV, interpolates it onto a uniform pressure or height grid, and writes the result as CSV.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			axis, _ := cmd.Flags().GetString("axis")
			step, _ := cmd.Flags().GetFloat64("step")

			return runResample(in, out, profile.Axis(axis), step)
		},
	}

	cmd.Flags().StringP("in", "i", "", "input CSV file (default: stdin)")
	cmd.Flags().StringP("out", "o", "", "output CSV file (default: stdout)")
	cmd.Flags().String("axis", string(profile.AxisPressure), "grid axis (pressure, height)")
	cmd.Flags().Float64("step", 0, "grid spacing: hPa for pressure, m for height (required)")
	cmd.MarkFlagRequired("step")

	return cmd
}

func runResample(in, out string, axis profile.Axis, step float64) error {
	r := io.Reader(os.Stdin)
	if in != "" {
		f, err := os.Open(in)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	p, err := profile.ReadCSV(r)
	if err != nil {
		return fmt.Errorf("reading profile: %w", err)
	}

	resampled, err := profile.Resample(p, axis, step)
	if err != nil {
		return fmt.Errorf("resampling: %w", err)
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

	return profile.WriteCSV(w, resampled)
}
