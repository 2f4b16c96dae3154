package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geo-cli/internal/enrich"
)

var (
	enrichLat    float64
	enrichLon    float64
	enrichRadius float64
	enrichLayers []string
	enrichNoSave bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a coordinate with every configured spatial layer",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		report, err := e.Engine.Run(cmd.Context(), enrich.Request{
			Lat:         enrichLat,
			Lon:         enrichLon,
			RadiusMiles: enrichRadius,
			LayerIDs:    enrichLayers,
		})
		if err != nil {
			return err
		}

		if !enrichNoSave {
			reportJSON, err := json.Marshal(report)
			if err == nil {
				_, err = e.Store.SaveEnrichment(cmd.Context(), report.RunID, report.Lat, report.Lon, reportJSON)
			}
			if err != nil {
				zap.L().Warn("failed to persist enrichment", zap.Error(err))
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	enrichCmd.Flags().Float64Var(&enrichLat, "lat", 0, "latitude")
	enrichCmd.Flags().Float64Var(&enrichLon, "lon", 0, "longitude")
	enrichCmd.Flags().Float64Var(&enrichRadius, "radius", 5, "search radius in miles")
	enrichCmd.Flags().StringSliceVar(&enrichLayers, "layers", nil, "restrict to specific layer IDs")
	enrichCmd.Flags().BoolVar(&enrichNoSave, "no-save", false, "do not persist the report")
	enrichCmd.MarkFlagRequired("lat")
	enrichCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(enrichCmd)
}
