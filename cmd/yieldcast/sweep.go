package main

import (
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ezoic/yieldcast/catalog"
	"github.com/ezoic/yieldcast/features"
	"github.com/ezoic/yieldcast/forecast"
	"github.com/ezoic/yieldcast/pkg/errors"
)

func newSweepCmd(a *app) *cobra.Command {
	var (
		raw      features.RawInput
		field    string
		from, to float64
		steps    int
		plotPath string
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Forecast across a range of rainfall or temperature values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := a.load()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("from") || !cmd.Flags().Changed("to") {
				r, err := f.Catalog().Range(field)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("from") {
					from = r.Min
				}
				if !cmd.Flags().Changed("to") {
					to = r.Max
				}
			}

			points, err := f.Sweep(raw, field, from, to, steps)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-12s %-16s %-16s\n", field, "yield_t_per_ha", "total_t")
			for _, p := range points {
				fmt.Fprintf(out, "%-12g %-16.4f %-16.4f\n", p.Value, p.Prediction.YieldPerHectare, p.Prediction.TotalProduction)
			}

			if plotPath != "" {
				title := fmt.Sprintf("%s %s yield in %s", raw.CropType, catalog.DisplayName(raw.Crop), catalog.DisplayName(raw.State))
				if err := savePlot(points, field, title, plotPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "plot written to %s\n", plotPath)
			}
			return nil
		},
	}
	bindInputFlags(cmd, &raw)
	cmd.Flags().StringVar(&field, "field", catalog.FieldRainfall, "input to vary: rainfall or temperature")
	cmd.Flags().Float64Var(&from, "from", 0, "first value (default: catalog minimum)")
	cmd.Flags().Float64Var(&to, "to", 0, "last value (default: catalog maximum)")
	cmd.Flags().IntVar(&steps, "steps", 20, "number of points")
	cmd.Flags().StringVar(&plotPath, "plot", "", "write a yield curve to this .png, .svg or .pdf file")
	return cmd
}

// savePlot renders yield per hectare against the swept field.
func savePlot(points []forecast.SweepPoint, field, title, path string) error {
	pts := make(plotter.XYs, len(points))
	for i, p := range points {
		pts[i].X = p.Value
		pts[i].Y = p.Prediction.YieldPerHectare
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = axisLabel(field)
	p.Y.Label.Text = "Yield (t/ha)"
	p.Add(plotter.NewGrid())

	line, scatter, err := plotter.NewLinePoints(pts)
	if err != nil {
		return errors.Wrap(err, "plot")
	}
	line.Color = color.RGBA{R: 34, G: 139, B: 34, A: 255}
	line.Width = vg.Points(2)
	scatter.Radius = vg.Points(2)
	p.Add(line, scatter)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, filepath.Clean(path)); err != nil {
		return errors.Wrap(err, "save plot")
	}
	return nil
}

func axisLabel(field string) string {
	if field == catalog.FieldTemperature {
		return "Temperature (°C)"
	}
	return "Rainfall (mm)"
}
