package watermark

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonatw/pdf-watermark-remove/logger"
)

// Config is the static per-engine configuration. It is constructed once,
// validated, and passed by value into the remover and its strategies;
// there is no process-wide mutable state.
type Config struct {
	// Signatures are the known watermark image fingerprints for the
	// image-signature strategy.
	Signatures []Signature `yaml:"watermark_signatures" validate:"dive"`

	// ProducerTriggers route a document to the image-signature strategy
	// when any of them is a literal substring of the producer metadata.
	ProducerTriggers []string `yaml:"producer_triggers"`

	// MinPatternLength is the shortest byte run that qualifies as a
	// watermark candidate.
	MinPatternLength int `yaml:"min_pattern_length" validate:"min=1"`

	// SearchWindow bounds how far ahead the scanner looks for a run
	// terminator.
	SearchWindow int `yaml:"pattern_search_window" validate:"min=1"`

	// ScanMode selects the detection scan: bracket mode pairs opening
	// markers with their text-show terminators; anchor mode takes a
	// fixed-length tail after every anchor occurrence.
	ScanMode ScanMode `yaml:"scan_mode" validate:"oneof=bracket anchor"`

	// AnchorPattern and AnchorTailLength parameterize the anchor scan
	// mode.
	AnchorPattern    string `yaml:"anchor_pattern"`
	AnchorTailLength int    `yaml:"anchor_tail_length" validate:"min=1"`

	// MaxPageWorkers bounds the per-document removal worker pool.
	MaxPageWorkers int `yaml:"max_page_workers" validate:"min=1,max=64"`

	// ImageScanDepth is how many leading pages the image strategy
	// inspects. 1 checks the first page only; higher values take a
	// majority vote across the scanned pages.
	ImageScanDepth int `yaml:"image_scan_depth" validate:"min=1,max=6"`

	// MaxConcurrentDocs bounds how many documents one engine instance
	// processes at the same time.
	MaxConcurrentDocs int `yaml:"max_concurrent_docs" validate:"min=1,max=32"`

	DebugOn bool `yaml:"debug"`

	Logger logger.LogFunc `yaml:"-"`
}

// NewDefaultConfig returns the stock configuration: the two known
// watermark image sizes in both orientations, the "Version" producer
// trigger, and the scan parameters the detection heuristics were tuned
// with.
func NewDefaultConfig() *Config {
	return &Config{
		Signatures: []Signature{
			{Width: 2360, Height: 1640},
			{Width: 1640, Height: 2360},
		},
		ProducerTriggers:  []string{"Version"},
		MinPatternLength:  30,
		SearchWindow:      300,
		ScanMode:          BracketMode,
		AnchorPattern:     "(",
		AnchorTailLength:  30,
		MaxPageWorkers:    8,
		ImageScanDepth:    1,
		MaxConcurrentDocs: 5,
		DebugOn:           false,
	}
}

// LoadConfig reads a YAML config file over the defaults and then applies
// PDF_WATERMARK_* environment overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		logger.Debug("loaded configuration file", "path", path)
	}
	cfg.applyEnv()
	return cfg, nil
}

// Environment variable names mirror the historical deployment surface.
const (
	envMaxPageWorkers   = "PDF_WATERMARK_MAX_CONCURRENT_PAGES"
	envMinPatternLength = "PDF_WATERMARK_MIN_PATTERN_LENGTH"
	envSearchWindow     = "PDF_WATERMARK_PATTERN_SEARCH_WINDOW"
	envImageScanDepth   = "PDF_WATERMARK_IMAGE_SCAN_DEPTH"
)

func (cfg *Config) applyEnv() {
	overrideInt(envMaxPageWorkers, &cfg.MaxPageWorkers)
	overrideInt(envMinPatternLength, &cfg.MinPatternLength)
	overrideInt(envSearchWindow, &cfg.SearchWindow)
	overrideInt(envImageScanDepth, &cfg.ImageScanDepth)
}

func overrideInt(name string, dst *int) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logger.Error("ignoring invalid integer in environment", "var", name, "value", raw)
		return
	}
	*dst = v
	logger.Debug("configuration overridden from environment", "var", name, "value", v)
}

// Validate checks the configuration against its struct tags.
func (cfg *Config) Validate() error {
	logger.Debug("validating config object")
	validate := validator.New()
	return validate.Struct(cfg)
}
