package pdfstatement

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// RasterLimits bounds the pixel size of rendered pages.
type RasterLimits struct {
	MaxWidth   int `mapstructure:"max_width"`
	MaxHeight  int `mapstructure:"max_height"`
	MaxSamples int `mapstructure:"max_samples"` // width * height * 3
}

// Config controls extraction behavior.
type Config struct {
	// MinTextChars and MinTextWords are the vector text thresholds a page
	// must exceed to be classified as a text page (default: 50 and 10)
	MinTextChars int `mapstructure:"min_text_chars"`
	MinTextWords int `mapstructure:"min_text_words"`

	// EnableFallback switches text pages to image extraction when the
	// vector extractor finds no tables (default: true)
	EnableFallback bool `mapstructure:"enable_fallback"`

	// MaxRetries bounds image extraction retries per page (default: 2)
	MaxRetries int `mapstructure:"max_retries"`

	// OCRDPI is the target resolution for page rasterization (default: 300)
	OCRDPI int `mapstructure:"ocr_dpi"`

	Raster RasterLimits `mapstructure:"raster"`

	// MinTokenConfidence drops OCR tokens below this score (0-100, default: 60)
	MinTokenConfidence float64 `mapstructure:"min_token_confidence"`

	// RowTolerance is the vertical pixel distance within which OCR tokens
	// share a row (default: 10)
	RowTolerance float64 `mapstructure:"row_tolerance"`

	// QualityThreshold is the consistency score a run needs to pass (default: 0.7)
	QualityThreshold float64 `mapstructure:"quality_threshold"`

	// LowConfidenceThreshold flags pages for review (default: 0.3)
	LowConfidenceThreshold float64 `mapstructure:"low_confidence_threshold"`

	OCRLanguages    []string `mapstructure:"ocr_languages"`
	DefaultCurrency string   `mapstructure:"default_currency"`

	// TableSettings configures lattice detection
	TableSettings TableSettings `mapstructure:"-"`

	// EnableMetricsLogging logs per-page timings and a run summary (default: false)
	EnableMetricsLogging bool `mapstructure:"enable_metrics_logging"`
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		MinTextChars:   50,
		MinTextWords:   10,
		EnableFallback: true,
		MaxRetries:     2,
		OCRDPI:         300,
		Raster: RasterLimits{
			MaxWidth:   4000,
			MaxHeight:  4000,
			MaxSamples: 30_000_000,
		},
		MinTokenConfidence:     60,
		RowTolerance:           10,
		QualityThreshold:       0.7,
		LowConfidenceThreshold: 0.3,
		OCRLanguages:           []string{"eng"},
		DefaultCurrency:        "USD",
		TableSettings:          DefaultTableSettings(),
	}
}

const envPrefix = "PDFSTATEMENT"

// LoadConfig reads configuration from an optional file and PDFSTATEMENT_*
// environment variables on top of DefaultConfig. An empty path skips the
// file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, errors.Wrapf(err, "failed to read config %s", path)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to decode config")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("min_text_chars", cfg.MinTextChars)
	v.SetDefault("min_text_words", cfg.MinTextWords)
	v.SetDefault("enable_fallback", cfg.EnableFallback)
	v.SetDefault("max_retries", cfg.MaxRetries)
	v.SetDefault("ocr_dpi", cfg.OCRDPI)
	v.SetDefault("raster.max_width", cfg.Raster.MaxWidth)
	v.SetDefault("raster.max_height", cfg.Raster.MaxHeight)
	v.SetDefault("raster.max_samples", cfg.Raster.MaxSamples)
	v.SetDefault("min_token_confidence", cfg.MinTokenConfidence)
	v.SetDefault("row_tolerance", cfg.RowTolerance)
	v.SetDefault("quality_threshold", cfg.QualityThreshold)
	v.SetDefault("low_confidence_threshold", cfg.LowConfidenceThreshold)
	v.SetDefault("ocr_languages", cfg.OCRLanguages)
	v.SetDefault("default_currency", cfg.DefaultCurrency)
	v.SetDefault("enable_metrics_logging", cfg.EnableMetricsLogging)
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	switch {
	case c.OCRDPI <= 0:
		return errors.Errorf("ocr_dpi must be positive, got %d", c.OCRDPI)
	case c.Raster.MaxWidth <= 0 || c.Raster.MaxHeight <= 0 || c.Raster.MaxSamples <= 0:
		return errors.New("raster limits must be positive")
	case c.MaxRetries < 0:
		return errors.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	case c.QualityThreshold < 0 || c.QualityThreshold > 1:
		return errors.Errorf("quality_threshold must be in [0,1], got %v", c.QualityThreshold)
	}
	return nil
}
