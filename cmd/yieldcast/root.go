package main

import (
	"github.com/spf13/cobra"

	"github.com/ezoic/yieldcast/catalog"
	"github.com/ezoic/yieldcast/forecast"
	"github.com/ezoic/yieldcast/pkg/config"
	"github.com/ezoic/yieldcast/pkg/log"
	"github.com/ezoic/yieldcast/predictor"
)

// app is the state shared by every subcommand.
type app struct {
	configPath string
	modelPath  string
	dataPath   string
	logLevel   string
	strict     bool

	cfg        config.Config
	catalogs   *catalog.Store
	predictors *predictor.Store
	forecaster *forecast.Forecaster
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "yieldcast",
		Short:         "Forecast crop yield from climate and area inputs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&a.modelPath, "model", "", "pipeline artifact (overrides model.path)")
	flags.StringVar(&a.dataPath, "dataset", "", "reference dataset CSV (overrides dataset.path)")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")
	flags.BoolVar(&a.strict, "strict", false, "reject inputs outside the reference catalog")

	root.AddCommand(
		newPredictCmd(a),
		newCatalogCmd(a),
		newBatchCmd(a),
		newSweepCmd(a),
		newEvaluateCmd(a),
	)
	return root
}

func (a *app) configure(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.modelPath != "" {
		cfg.Model.Path = a.modelPath
	}
	if a.dataPath != "" {
		cfg.Dataset.Path = a.dataPath
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if cmd.Flags().Changed("strict") {
		cfg.Catalog.Strict = a.strict
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	log.SetupLogger(cfg.Log.Level)
	return nil
}

// catalogOnly loads just the reference dataset.
func (a *app) catalogOnly() (*catalog.Catalog, error) {
	if a.catalogs != nil {
		return a.catalogs.Load(), nil
	}
	c, err := catalog.Load(a.cfg.Dataset.Path)
	if err != nil {
		return nil, err
	}
	a.catalogs = catalog.NewStore(c)
	return c, nil
}

// load builds the forecaster. Either asset failing to load is fatal.
func (a *app) load() (*forecast.Forecaster, error) {
	if a.forecaster != nil {
		return a.forecaster, nil
	}
	logger := log.GetLoggerWithName("yieldcast").With(log.PhaseKey, log.PhaseStartup)

	if _, err := a.catalogOnly(); err != nil {
		logger.Error("Cannot load reference dataset", log.PathKey, a.cfg.Dataset.Path, log.ErrorKey, err.Error())
		return nil, err
	}
	p, err := predictor.Load(a.cfg.Model.Path)
	if err != nil {
		logger.Error("Cannot load model", log.PathKey, a.cfg.Model.Path, log.ErrorKey, err.Error())
		return nil, err
	}
	a.predictors = predictor.NewStore(p)

	f, err := forecast.New(a.catalogs, a.predictors, forecast.WithStrictCatalog(a.cfg.Catalog.Strict))
	if err != nil {
		return nil, err
	}
	a.forecaster = f
	return f, nil
}
