package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/snar-ar/overlay/internal/config"
	"github.com/snar-ar/overlay/internal/poi"
	"github.com/spf13/cobra"
)

var (
	importFormat string
	importDriver string
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a point file into the database",
	Long: `Reads a building_info.json array or a GeoJSON FeatureCollection and upserts
every point into the configured SQLite or Postgres store, keyed by id.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFormat, "format", "", "Input format: json or geojson (default: by file extension)")
	importCmd.Flags().StringVar(&importDriver, "driver", "", "Database driver: sqlite or postgres (default: db.driver)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	format := importFormat
	if format == "" {
		format = formatFromExt(path)
	}
	var src poi.Source
	switch format {
	case "json":
		src = poi.JSONSource{Path: path}
	case "geojson":
		src = poi.GeoJSONSource{Path: path}
	default:
		return fmt.Errorf("unknown input format %q", format)
	}

	start := time.Now()
	points, err := src.LoadAll(ctx)
	if err != nil {
		return err
	}

	dbCfg := config.GetDBConfig()
	if importDriver != "" {
		dbCfg.Driver = importDriver
	}
	store, closeDB, err := openStore(dbCfg)
	if err != nil {
		return err
	}
	defer closeDB()

	n, err := store.Import(ctx, points)
	if err != nil {
		return err
	}
	total, err := store.Count(ctx)
	if err != nil {
		return err
	}

	Logger.Info("Imported points", "file", path, "count", n, "duration", time.Since(start))
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d points from %s (%d in store)\n", n, path, total)
	return nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson":
		return "geojson"
	case ".json":
		return "json"
	}
	return ""
}
