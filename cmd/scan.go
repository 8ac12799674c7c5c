package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rankgrid/internal/model"
	"github.com/sells-group/rankgrid/internal/scan"
	"github.com/sells-group/rankgrid/internal/store"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a grid rank scan for a target business",
	Long: `Generates a square coordinate grid around a center point, searches Google
Places at every grid point for the keyword, and reports where the target
business ranks against competitors across the area.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		keyword, _ := cmd.Flags().GetString("keyword")
		target, _ := cmd.Flags().GetString("target")
		if keyword == "" {
			return eris.New("--keyword is required")
		}
		if target == "" {
			return eris.New("--target is required")
		}

		center, err := resolveCenter(ctx, cmd)
		if err != nil {
			return err
		}

		radius, _ := cmd.Flags().GetFloat64("radius")
		gridSize, _ := cmd.Flags().GetInt("grid-size")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		noSave, _ := cmd.Flags().GetBool("no-save")

		if !cmd.Flags().Changed("grid-size") {
			gridSize = cfg.Scan.GridSize
		}
		if radius == 0 {
			radius = cfg.Scan.RadiusMiles
		}
		if concurrency == 0 {
			concurrency = cfg.Scan.Concurrency
		}

		req := model.ScanRequest{
			Center:      center,
			RadiusMiles: radius,
			GridSize:    gridSize,
			Keyword:     keyword,
			Target:      target,
			Concurrency: concurrency,
		}

		var (
			st     store.Store
			scanID string
		)
		if !noSave {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			run, err := st.CreateScan(ctx, req)
			if err != nil {
				return eris.Wrap(err, "scan: create run")
			}
			scanID = run.ID
		}

		scanCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			scanCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		// Persistence must survive the scan timeout or a Ctrl-C.
		persistCtx := context.WithoutCancel(ctx)

		scanner := scan.NewScanner(newPlacesClient())
		outcomes, err := scanner.Scan(scanCtx, req)
		if err != nil {
			if st != nil {
				if fErr := st.FailScan(persistCtx, scanID, err.Error()); fErr != nil {
					zap.L().Warn("mark scan failed", zap.String("scan_id", scanID), zap.Error(fErr))
				}
			}
			return eris.Wrap(err, "scan")
		}

		summary := scan.Summarize(outcomes)

		if st != nil {
			if err := st.CompleteScan(persistCtx, scanID, outcomes, summary); err != nil {
				zap.L().Warn("persist scan failed", zap.String("scan_id", scanID), zap.Error(err))
			}
		}

		fmt.Print(coverageReport(target, summary, scanID))
		return nil
	},
}

// resolveCenter picks the scan center from --lat/--lon, or geocodes
// --location when coordinates are absent.
func resolveCenter(ctx context.Context, cmd *cobra.Command) (model.Coordinate, error) {
	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	location, _ := cmd.Flags().GetString("location")

	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
			return model.Coordinate{}, eris.New("--lat and --lon must be given together")
		}
		return model.Coordinate{Latitude: lat, Longitude: lon}, nil
	}

	if location == "" {
		return model.Coordinate{}, eris.New("either --lat/--lon or --location is required")
	}

	result, err := newGeocodeClient().Geocode(ctx, location)
	if err != nil {
		return model.Coordinate{}, eris.Wrap(err, "scan: geocode center")
	}
	if !result.Matched {
		return model.Coordinate{}, eris.Errorf("scan: location not found: %s", location)
	}

	zap.L().Info("geocoded scan center",
		zap.String("location", location),
		zap.String("matched", result.FormattedAddress),
		zap.Float64("lat", result.Latitude),
		zap.Float64("lon", result.Longitude),
	)
	return model.Coordinate{Latitude: result.Latitude, Longitude: result.Longitude}, nil
}

// coverageReport renders the summary for the terminal. Percentages are
// derived here at the reporting boundary, not stored.
func coverageReport(target string, s model.CoverageSummary, scanID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s coverage report\n", target)
	fmt.Fprintf(&b, "  Total grid points:  %d\n", s.TotalPoints)
	fmt.Fprintf(&b, "  Business found at:  %d points\n", s.FoundCount)
	if s.TotalPoints > 0 {
		fmt.Fprintf(&b, "  In top 3:           %d points (%.1f%% of total)\n",
			s.Top3Count, 100.0*float64(s.Top3Count)/float64(s.TotalPoints))
		fmt.Fprintf(&b, "  In top 10:          %d points (%.1f%% of total)\n",
			s.Top10Count, 100.0*float64(s.Top10Count)/float64(s.TotalPoints))
	}
	if s.AverageRankWhereFound != nil {
		fmt.Fprintf(&b, "  Average rank:       %.2f (where found)\n", *s.AverageRankWhereFound)
	} else {
		fmt.Fprintf(&b, "  Average rank:       n/a\n")
	}
	if scanID != "" {
		fmt.Fprintf(&b, "  Saved as scan:      %s\n", scanID)
	}
	return b.String()
}

func init() {
	scanCmd.Flags().Float64("lat", 0, "center latitude")
	scanCmd.Flags().Float64("lon", 0, "center longitude")
	scanCmd.Flags().String("location", "", "free-form center location, geocoded when --lat/--lon are absent")
	scanCmd.Flags().Float64("radius", 0, "scan radius in miles (default from config)")
	scanCmd.Flags().Int("grid-size", 0, "grid dimension N for an NxN scan (default from config)")
	scanCmd.Flags().String("keyword", "", "search keyword, e.g. \"dentist\" (required)")
	scanCmd.Flags().String("target", "", "target business name substring (required)")
	scanCmd.Flags().Int("concurrency", 0, "max parallel grid points (default from config)")
	scanCmd.Flags().Duration("timeout", 0, "overall scan timeout, e.g. 5m (0 = none)")
	scanCmd.Flags().Bool("no-save", false, "don't persist the scan run")
	rootCmd.AddCommand(scanCmd)
}
