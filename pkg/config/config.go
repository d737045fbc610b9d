package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/copier"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/travigo/gtfs-validator/pkg/metrics"
	gtfsvalidator "github.com/travigo/gtfs-validator/pkg/validator"
	"github.com/travigo/gtfs-validator/pkg/validation"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath     = "data/validator.yaml"
	PathEnvironment = "GTFS_VALIDATOR_CONFIG"
)

type Config struct {
	DefaultValidityDays    int                         `yaml:"default_validity_days" validate:"min=1,max=366"`
	DistanceTolerance      float64                     `yaml:"distance_tolerance" validate:"gte=0"`
	SaturdayReferenceLines []string                    `yaml:"saturday_reference_lines" validate:"dive,required"`
	LegacyReturnDirection  bool                        `yaml:"legacy_return_direction"`
	MaxGoroutines          int                         `yaml:"max_goroutines" validate:"gte=0"`
	Rules                  []validation.RuleDefinition `yaml:"rules" validate:"dive" copier:"-"`

	// ArchiveDirectory receives a tar.xz bundle of every command line run when set
	ArchiveDirectory string `yaml:"archive_directory"`

	API APIConfig `yaml:"api"`
}

type APIConfig struct {
	Listen         string `yaml:"listen" validate:"required"`
	MaxUploadBytes int    `yaml:"max_upload_bytes" validate:"gte=1048576"`
}

func Default() *Config {
	return &Config{
		DefaultValidityDays:    gtfsvalidator.DefaultValidityDays,
		DistanceTolerance:      validation.DefaultDistanceTolerance,
		SaturdayReferenceLines: []string{},
		Rules:                  []validation.RuleDefinition{},
		API: APIConfig{
			Listen:         ":8080",
			MaxUploadBytes: 64 * 1024 * 1024,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", path).Msg("No config file found, using defaults")
		return config, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}

	log.Debug().Str("path", path).Int("rules", len(config.Rules)).Msg("Loaded config")

	return config, nil
}

// LoadFromEnvironment loads .env if present then the config file named by GTFS_VALIDATOR_CONFIG
func LoadFromEnvironment() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv(PathEnvironment)
	if path == "" {
		path = DefaultPath
	}

	return Load(path)
}

// ValidatorOptions compiles the custom rules and builds the options of a validation run
func (c *Config) ValidatorOptions(collector *metrics.Collector) (gtfsvalidator.Options, error) {
	rules, err := validation.CompileRules(c.Rules)
	if err != nil {
		return gtfsvalidator.Options{}, err
	}

	// Options never share slices with the config
	options := gtfsvalidator.Options{}
	if err := copier.CopyWithOption(&options, c, copier.Option{DeepCopy: true}); err != nil {
		return gtfsvalidator.Options{}, fmt.Errorf("copying config: %w", err)
	}

	options.Rules = rules
	options.Metrics = collector

	return options, nil
}
