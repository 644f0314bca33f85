package main

import (
	"github.com/spf13/cobra"

	"github.com/ezoic/yieldcast/features"
)

func newPredictCmd(a *app) *cobra.Command {
	var raw features.RawInput
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Forecast the yield of one crop and print the result as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := a.load()
			if err != nil {
				return err
			}
			p, err := f.Forecast(raw)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
	bindInputFlags(cmd, &raw)
	return cmd
}
