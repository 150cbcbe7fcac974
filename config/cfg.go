package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"pagesync/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	ReaderConfig struct {
		LocationSampleSize int               `yaml:"location_sample_size" validate:"min=100"`
		Paging             common.PagingMode `yaml:"paging" validate:"gte=0"`
		Debounce           time.Duration     `yaml:"debounce" validate:"gte=0"`
		IndicatorTimeout   time.Duration     `yaml:"indicator_timeout" validate:"gt=0"`
		NavigationTimeout  time.Duration     `yaml:"navigation_timeout" validate:"gt=0"`
		RetreatCheckDelay  time.Duration     `yaml:"retreat_check_delay" validate:"gte=0"`
		FrameInterval      time.Duration     `yaml:"frame_interval" validate:"gt=0"`
		PrevZone           float64           `yaml:"prev_zone" validate:"gt=0,lt=1"`
		NextZone           float64           `yaml:"next_zone" validate:"gt=0,lt=1"`
		IndicatorTemplate  string            `yaml:"indicator_template" validate:"required"`
	}

	StorageConfig struct {
		Database    string        `yaml:"database" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
		BusyRetries uint          `yaml:"busy_retries" validate:"min=1,max=50"`
		BusyDelay   time.Duration `yaml:"busy_delay" validate:"gt=0"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Reader    ReaderConfig   `yaml:"reader"`
		Storage   StorageConfig  `yaml:"storage"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	IndicatorTemplateFieldName TemplateFieldName = "indicator_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(IndicatorTemplateFieldName)),
)

// tap zones must not overlap, otherwise center tap could never be produced
func readerChecks(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}
	if cfg.Reader.NextZone <= cfg.Reader.PrevZone {
		sl.ReportError(cfg.Reader.NextZone, "NextZone", "next_zone", "gtfield", "PrevZone")
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(readerChecks)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
