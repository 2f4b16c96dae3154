package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/geo-cli/internal/layers"
)

var (
	resolveLat    float64
	resolveLon    float64
	resolveRadius float64
)

var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "Inspect and query spatial layers",
}

var layersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured layers",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := layers.DefaultRegistry()
		if cfg.Layers.File != "" {
			if err := layers.LoadFile(reg, cfg.Layers.File); err != nil {
				return err
			}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tGEOMETRY\tMAX RADIUS (MI)\tLABEL")
		for _, cfg := range reg.All() {
			fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\n", cfg.ID, cfg.Geometry, cfg.MaxRadiusMiles, cfg.Label)
		}
		return w.Flush()
	},
}

var layersResolveCmd = &cobra.Command{
	Use:   "resolve <layer-id>",
	Short: "Resolve one layer around a point",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		layerCfg, err := e.Layers.Get(args[0])
		if err != nil {
			return err
		}

		result, err := e.Resolver.Resolve(cmd.Context(), layerCfg, resolveLat, resolveLon, resolveRadius)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	layersResolveCmd.Flags().Float64Var(&resolveLat, "lat", 0, "latitude")
	layersResolveCmd.Flags().Float64Var(&resolveLon, "lon", 0, "longitude")
	layersResolveCmd.Flags().Float64Var(&resolveRadius, "radius", 0, "search radius in miles")
	layersResolveCmd.MarkFlagRequired("lat")
	layersResolveCmd.MarkFlagRequired("lon")

	layersCmd.AddCommand(layersListCmd)
	layersCmd.AddCommand(layersResolveCmd)
	rootCmd.AddCommand(layersCmd)
}
