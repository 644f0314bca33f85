package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ezoic/yieldcast/features"
	"github.com/ezoic/yieldcast/forecast"
	"github.com/ezoic/yieldcast/pkg/errors"
	"github.com/ezoic/yieldcast/pkg/log"
	"github.com/ezoic/yieldcast/pkg/watch"
)

// maxLineBytes bounds a single JSON request line.
const maxLineBytes = 1 << 20

type batchResult struct {
	Line       int                  `json:"line"`
	Prediction *forecast.Prediction `json:"prediction,omitempty"`
	Error      *errorRecord         `json:"error,omitempty"`
}

func newBatchCmd(a *app) *cobra.Command {
	var (
		input       string
		watchAssets bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Forecast JSON-lines requests from a file or stdin",
		Long: `batch reads one JSON request per line, for example

  {"state":"Punjab","crop_type":"Kharif","crop":"Rice","rainfall_mm":1000,"temperature_c":25,"area_hectares":10}

and writes one JSON result per line. A request that fails produces an
"error" record; the remaining lines are still processed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := a.load()
			if err != nil {
				return err
			}

			if watchAssets || a.cfg.Watch.Enabled {
				stop, err := a.startWatcher(cmd)
				if err != nil {
					return err
				}
				defer stop()
			}

			in := cmd.InOrStdin()
			if input != "" && input != "-" {
				file, err := os.Open(filepath.Clean(input))
				if err != nil {
					return errors.Wrap(err, "open input")
				}
				defer func() { _ = file.Close() }()
				in = file
			}
			return runBatch(f, in, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON-lines input file (default stdin)")
	cmd.Flags().BoolVar(&watchAssets, "watch", false, "reload the model and dataset when they change")
	return cmd
}

func (a *app) startWatcher(cmd *cobra.Command) (func(), error) {
	r := forecast.NewReloader(a.cfg.Dataset.Path, a.cfg.Model.Path, a.catalogs, a.predictors)
	w, err := watch.New(r.Paths(), a.cfg.Watch.Debounce, r.Handle)
	if err != nil {
		return nil, err
	}
	if err := w.Start(cmd.Context()); err != nil {
		w.Stop()
		return nil, err
	}
	return w.Stop, nil
}

func runBatch(f *forecast.Forecaster, in io.Reader, out io.Writer) error {
	logger := log.GetLoggerWithName("batch")
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	w := bufio.NewWriter(out)

	line, ok, failed := 0, 0, 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		res := batchResult{Line: line}
		raw, err := decodeRequest(text)
		if err == nil {
			res.Prediction, err = f.Forecast(raw)
		}
		if err != nil {
			rec := describe(err)
			res.Error = &rec
			failed++
		} else {
			ok++
		}
		if err := writeJSON(w, res); err != nil {
			return errors.Wrap(err, "write result")
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "read input line %d", line+1)
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "write results")
	}

	logger.Info("Batch completed", log.OperationKey, log.OperationForecast, log.PredsKey, ok, "failed", failed)
	return nil
}

func decodeRequest(text []byte) (features.RawInput, error) {
	var raw features.RawInput
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return raw, errors.NewInvalidInputError("request", string(text), "not a valid request: "+err.Error())
	}
	return raw, nil
}
