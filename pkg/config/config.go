// Package config loads the yieldcast process configuration from YAML.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ezoic/yieldcast/pkg/errors"
)

// Config is the process configuration. Paths are used as given; relative
// paths resolve against the working directory.
type Config struct {
	Model   ModelConfig   `yaml:"model"`
	Dataset DatasetConfig `yaml:"dataset"`
	Log     LogConfig     `yaml:"log"`
	Catalog CatalogConfig `yaml:"catalog"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ModelConfig locates the trained pipeline artifact.
type ModelConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// DatasetConfig locates the reference dataset used to build the input catalog.
type DatasetConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// CatalogConfig controls how requests are checked against the catalog.
type CatalogConfig struct {
	// Strict rejects requests outside the catalog instead of logging a warning.
	Strict bool `yaml:"strict"`
}

// WatchConfig controls hot reload of the model and dataset.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Model:   ModelConfig{Path: filepath.Join("models", "crop_yield_pipeline.json")},
		Dataset: DatasetConfig{Path: "Final_Dataset_after_temperature.csv"},
		Log:     LogConfig{Level: "info"},
		Watch:   WatchConfig{Debounce: 500 * time.Millisecond},
	}
}

// Load reads the YAML file at path over Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML from r over Default and validates the result.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "decode")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.NewValidationError(fe.Namespace(), "failed "+fe.Tag()+" check", fe.Value())
		}
		return errors.Wrap(err, "validate config")
	}
	return nil
}
