package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/atmoslab/upperair/internal/sounding"
	"github.com/atmoslab/upperair/internal/sounding/providers"
)

const appName = "upperair"

func main() {
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Upper-air sounding toolkit",
		Long:  "Acquires atmospheric soundings from public archives, stores them, and resamples vertical profiles onto uniform grids.",
	}

	rootCmd.AddCommand(newServeCmd(), newFetchCmd(), newResampleCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildProviders assembles the archive provider chain in fallback order:
// the radiosonde archive first, the reanalysis archive as backup.
func buildProviders(client *http.Client) []sounding.Provider {
	return []sounding.Provider{
		providers.NewWyomingProvider(client),
		providers.NewOpenMeteoProvider(client),
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
