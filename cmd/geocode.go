package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode <location>",
	Short: "Resolve a location string to coordinates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		result, err := newGeocodeClient().Geocode(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "geocode")
		}
		if !result.Matched {
			return eris.Errorf("location not found: %s", args[0])
		}

		fmt.Printf("%s\n", result.FormattedAddress)
		fmt.Printf("  lat: %.6f\n  lon: %.6f\n", result.Latitude, result.Longitude)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
}
