package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/snar-ar/overlay/internal/config"
	"github.com/snar-ar/overlay/internal/frame"
	"github.com/snar-ar/overlay/internal/geo"
	"github.com/snar-ar/overlay/internal/sink/memory"
	"github.com/snar-ar/overlay/internal/style"
	"github.com/snar-ar/overlay/internal/tracking/sim"
	"github.com/snar-ar/overlay/pkg/core"
	"github.com/spf13/cobra"
)

var (
	projectAt      string
	projectHeading float64
	projectWidth   float64
	projectHeight  float64
	projectAll     bool
	projectJSON    bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project the point set for one camera pose",
	Long: `Loads the configured point set and projects it for a single camera pose,
printing where each visible annotation would be drawn.`,
	Example: `  overlay project --at "-122.0841,37.4219,10" --heading 45`,
	RunE:    runProject,
}

func init() {
	projectCmd.Flags().StringVar(&projectAt, "at", "", `Camera position as "lon,lat[,alt]" (default: sim config)`)
	projectCmd.Flags().Float64Var(&projectHeading, "heading", -1, "Camera heading in degrees (default: sim config)")
	projectCmd.Flags().Float64Var(&projectWidth, "width", 0, "Viewport width in pixels (default: sim config)")
	projectCmd.Flags().Float64Var(&projectHeight, "height", 0, "Viewport height in pixels (default: sim config)")
	projectCmd.Flags().BoolVar(&projectAll, "all", false, "Include points that are not visible")
	projectCmd.Flags().BoolVar(&projectJSON, "json", false, "Print JSON instead of a table")
}

func runProject(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	simCfg := config.GetSimConfig()
	if projectAt != "" {
		at, err := geo.CoordinateFromString(projectAt)
		if err != nil {
			return fmt.Errorf("--at %q: %w", projectAt, err)
		}
		simCfg.Origin, simCfg.Camera = at, at
	}
	if projectHeading >= 0 {
		simCfg.Heading = projectHeading
	}
	if projectWidth > 0 {
		simCfg.Viewport.Width = projectWidth
	}
	if projectHeight > 0 {
		simCfg.Viewport.Height = projectHeight
	}
	tracker := sim.New(simCfg)

	mapper, err := style.NewMapper(config.GetStyleConfig())
	if err != nil {
		return fmt.Errorf("invalid style config: %w", err)
	}

	poiCfg := config.GetPOIConfig()
	src, closeSource, err := createSource(poiCfg)
	if err != nil {
		return err
	}
	defer closeSource()

	set, err := loader(src, poiCfg.Index)(ctx)
	if err != nil {
		return err
	}

	sink := memory.New()
	orch, err := frame.New(tracker, tracker, tracker, sink, mapper, frame.WithLogger(Logger))
	if err != nil {
		return err
	}
	orch.SetPoints(set)

	var points []core.ProjectedPoint
	if projectAll {
		state, err := tracker.CurrentFrame()
		if err != nil {
			return err
		}
		points = orch.Project(state, tracker.Viewport(), set.All())
	} else {
		r, err := orch.ProcessFrame(ctx)
		if err != nil {
			return err
		}
		Logger.Debug("Projected", "report", r.String())
		for _, w := range sink.Widgets() {
			p, _ := set.Get(w.PointID)
			points = append(points, core.ProjectedPoint{
				PointID:        w.PointID,
				ScreenX:        w.ScreenX,
				ScreenY:        w.ScreenY,
				DistanceMeters: geo.Distance(simCfg.Camera, p.Coordinate),
				Visible:        true,
				TextScale:      w.TextScale,
				Text:           w.Text,
			})
		}
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].DistanceMeters < points[j].DistanceMeters
	})

	if projectJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(points)
	}
	return printTable(cmd.OutOrStdout(), set.Len(), points)
}

func printTable(w io.Writer, total int, points []core.ProjectedPoint) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVISIBLE\tX\tY\tDISTANCE\tSCALE\tLABEL")
	for _, p := range points {
		fmt.Fprintf(tw, "%d\t%t\t%.1f\t%.1f\t%.0f m\t%.1f\t%q\n",
			p.PointID, p.Visible, p.ScreenX, p.ScreenY, p.DistanceMeters, p.TextScale, p.Text)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d points listed\n", len(points), total)
	return err
}
