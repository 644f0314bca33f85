package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ezoic/yieldcast/core/frame"
	"github.com/ezoic/yieldcast/features"
	"github.com/ezoic/yieldcast/forecast"
	"github.com/ezoic/yieldcast/pkg/errors"
)

func newEvaluateCmd(a *app) *cobra.Command {
	var data, target string
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score the model against a labelled dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := a.load()
			if err != nil {
				return err
			}
			if data == "" {
				data = a.cfg.Dataset.Path
			}

			file, err := os.Open(filepath.Clean(data))
			if err != nil {
				return errors.Wrap(err, "open data")
			}
			defer func() { _ = file.Close() }()

			labelled, err := frame.ReadCSV(file,
				features.Rainfall, features.Temperature, features.AreaInHectares, target)
			if err != nil {
				return errors.Wrapf(err, "read %s", data)
			}

			report, err := f.Evaluate(labelled, target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "samples             %d\n", report.N)
			fmt.Fprintf(out, "r2                  %.6f\n", report.R2)
			fmt.Fprintf(out, "rmse                %.6f\n", report.RMSE)
			fmt.Fprintf(out, "mae                 %.6f\n", report.MAE)
			fmt.Fprintf(out, "mse                 %.6f\n", report.MSE)
			fmt.Fprintf(out, "mape                %.6f\n", report.MAPE)
			fmt.Fprintf(out, "explained_variance  %.6f\n", report.ExplainedVariance)
			return nil
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "labelled CSV (default: dataset.path)")
	cmd.Flags().StringVar(&target, "target", forecast.DefaultTarget, "target yield column")
	return cmd
}
