package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ezoic/yieldcast/catalog"
)

type catalogView struct {
	Source      string          `json:"source"`
	Rows        int             `json:"rows"`
	States      []string        `json:"states"`
	CropTypes   []string        `json:"crop_types"`
	Crops       []string        `json:"crops"`
	Rainfall    catalog.Summary `json:"rainfall"`
	Temperature catalog.Summary `json:"temperature"`
}

func newCatalogCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the states, crops and climate ranges of the reference dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.catalogOnly()
			if err != nil {
				return err
			}
			rain, _ := c.Summary(catalog.FieldRainfall)
			temp, _ := c.Summary(catalog.FieldTemperature)
			view := catalogView{
				Source:      c.Source(),
				Rows:        c.Rows(),
				States:      c.States(),
				CropTypes:   c.CropTypes(),
				Crops:       c.Crops(),
				Rainfall:    rain,
				Temperature: temp,
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source:      %s (%d rows)\n", view.Source, view.Rows)
			fmt.Fprintf(out, "states:      %s\n", display(view.States))
			fmt.Fprintf(out, "crop types:  %s\n", display(view.CropTypes))
			fmt.Fprintf(out, "crops:       %s\n", display(view.Crops))
			fmt.Fprintf(out, "rainfall:    %g..%g mm (mean %.1f)\n", rain.Min, rain.Max, rain.Mean)
			fmt.Fprintf(out, "temperature: %g..%g °C (mean %.1f)\n", temp.Min, temp.Max, temp.Mean)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON, with stored values")
	return cmd
}

func display(values []string) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = catalog.DisplayName(v)
	}
	return strings.Join(out, ", ")
}
