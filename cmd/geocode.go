package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/geo-cli/internal/geocode"
)

var geocodeMode string

var geocodeCmd = &cobra.Command{
	Use:   "geocode <query>",
	Short: "Resolve an address or place name to coordinates",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := geocode.ParseMode(geocodeMode)
		if err != nil {
			return err
		}

		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		result, err := e.Geocoder.Search(cmd.Context(), geocode.Query{
			Text: strings.Join(args, " "),
			Mode: mode,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}

		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s: %s\n", w.Adapter, w.Message)
		}
		return nil
	},
}

func init() {
	geocodeCmd.Flags().StringVar(&geocodeMode, "mode", "auto", "disambiguation mode (auto, lookup, search)")
	rootCmd.AddCommand(geocodeCmd)
}
