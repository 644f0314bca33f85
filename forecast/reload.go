package forecast

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/ezoic/yieldcast/catalog"
	"github.com/ezoic/yieldcast/pkg/errors"
	"github.com/ezoic/yieldcast/pkg/log"
	"github.com/ezoic/yieldcast/predictor"
)

// Reloader rebuilds the catalog or predictor from disk and publishes the new
// value with one atomic swap. A failed reload keeps the previous value.
type Reloader struct {
	mu          sync.Mutex
	catalogPath string
	modelPath   string
	catalogs    *catalog.Store
	predictors  *predictor.Store
	logger      log.Logger
}

// NewReloader creates a Reloader for the dataset at catalogPath and the
// pipeline artifact at modelPath.
func NewReloader(catalogPath, modelPath string, catalogs *catalog.Store, predictors *predictor.Store) *Reloader {
	return &Reloader{
		catalogPath: catalogPath,
		modelPath:   modelPath,
		catalogs:    catalogs,
		predictors:  predictors,
		logger:      log.GetLoggerWithName("reload").With(log.PhaseKey, log.PhaseReload),
	}
}

// Paths returns the files the reloader reads.
func (r *Reloader) Paths() []string {
	return []string{r.catalogPath, r.modelPath}
}

// ReloadCatalog re-reads the reference dataset.
func (r *Reloader) ReloadCatalog() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := catalog.Load(r.catalogPath)
	if err != nil {
		r.logger.Error("Catalog reload failed, keeping previous catalog",
			log.PathKey, r.catalogPath, log.ErrorKey, err.Error())
		return err
	}
	r.catalogs.Swap(c)
	r.logger.Info("Catalog reloaded", log.PathKey, r.catalogPath, log.SamplesKey, c.Rows())
	return nil
}

// ReloadPredictor re-reads the pipeline artifact.
func (r *Reloader) ReloadPredictor() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := predictor.Load(r.modelPath)
	if err != nil {
		r.logger.Error("Predictor reload failed, keeping previous predictor",
			log.PathKey, r.modelPath, log.ErrorKey, err.Error())
		return err
	}
	r.predictors.Swap(p)
	r.logger.Info("Predictor reloaded", log.PathKey, r.modelPath)
	return nil
}

// Reload reloads whichever asset lives at path.
func (r *Reloader) Reload(path string) error {
	switch {
	case samePath(path, r.catalogPath):
		return r.ReloadCatalog()
	case samePath(path, r.modelPath):
		return r.ReloadPredictor()
	default:
		return errors.Newf("reload: %s is not a watched asset", path)
	}
}

// Handle has the signature of a watch.Handler. Reload errors are logged by
// Reload and otherwise dropped.
func (r *Reloader) Handle(_ context.Context, path string) {
	_ = r.Reload(path)
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == bb
}
