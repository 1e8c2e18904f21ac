package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Imaging     ImagingConfig     `yaml:"imaging"`
	OCR         OCRConfig         `yaml:"ocr"`
	Matcher     MatcherConfig     `yaml:"matcher"`
	Store       StoreConfig       `yaml:"store"`
	Submissions SubmissionsConfig `yaml:"submissions"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	History     HistoryConfig     `yaml:"history"`
	Archive     ArchiveConfig     `yaml:"archive"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ImagingConfig struct {
	// HeaderFraction is the share of total image height cropped from the
	// top to isolate the merchant header line. Valid range 0.20-0.35.
	HeaderFraction float64 `yaml:"header_fraction"`
	BlurKernel     int     `yaml:"blur_kernel"`
}

type OCRConfig struct {
	Engine         string `yaml:"engine"` // tesseract, remote
	TesseractPath  string `yaml:"tesseract_path"`
	Languages      string `yaml:"languages"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RemoteURL      string `yaml:"remote_url"`
	FallbackPass   bool   `yaml:"fallback_pass"`
}

type MatcherConfig struct {
	Threshold float64  `yaml:"threshold"`
	Merchants []string `yaml:"merchants"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend"` // memory, postgres
	PostgresURL string `yaml:"postgres_url"`
}

type SubmissionsConfig struct {
	RegionRequired  bool `yaml:"region_required"`
	CountryRequired bool `yaml:"country_required"`
}

type LeaderboardConfig struct {
	WindowDays int `yaml:"window_days"`
	Limit      int `yaml:"limit"`
}

type HistoryConfig struct {
	Limit int `yaml:"limit"`
	// Bounding box the display coordinates are jittered within.
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLng float64 `yaml:"min_lng"`
	MaxLng float64 `yaml:"max_lng"`
}

type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// DefaultMerchants is the registry used when the config lists none.
var DefaultMerchants = []string{
	"TESCO",
	"AEON",
	"AEON BIG",
	"GIANT",
	"MYDIN",
	"LOTUS'S",
	"99 SPEEDMART",
	"ECONSAVE",
	"KK SUPER MART",
	"7-ELEVEN",
	"FAMILYMART",
	"WATSONS",
	"GUARDIAN",
	"THE STORE",
	"HERO MARKET",
	"JAYA GROCER",
	"VILLAGE GROCER",
	"NSK TRADE CITY",
	"BILLION",
	"PACIFIC",
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Imaging.HeaderFraction == 0 {
		cfg.Imaging.HeaderFraction = 0.25
	}
	if cfg.Imaging.BlurKernel == 0 {
		cfg.Imaging.BlurKernel = 3
	}
	if cfg.OCR.Engine == "" {
		cfg.OCR.Engine = "tesseract"
	}
	if cfg.OCR.Languages == "" {
		cfg.OCR.Languages = "eng"
	}
	if cfg.OCR.TimeoutSeconds == 0 {
		cfg.OCR.TimeoutSeconds = 30
	}
	if cfg.Matcher.Threshold == 0 {
		cfg.Matcher.Threshold = 0.6
	}
	if len(cfg.Matcher.Merchants) == 0 {
		cfg.Matcher.Merchants = DefaultMerchants
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}
	if cfg.Leaderboard.WindowDays == 0 {
		cfg.Leaderboard.WindowDays = 21
	}
	if cfg.Leaderboard.Limit == 0 {
		cfg.Leaderboard.Limit = 50
	}
	if cfg.History.Limit == 0 {
		cfg.History.Limit = 10
	}
	if cfg.History.MinLat == 0 && cfg.History.MaxLat == 0 {
		// Peninsular plus East Malaysia
		cfg.History.MinLat = 0.8
		cfg.History.MaxLat = 7.4
		cfg.History.MinLng = 99.6
		cfg.History.MaxLng = 119.3
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Imaging.HeaderFraction < 0.20 || c.Imaging.HeaderFraction > 0.35 {
		return fmt.Errorf("imaging.header_fraction must be between 0.20 and 0.35, got %.2f", c.Imaging.HeaderFraction)
	}
	if c.Imaging.BlurKernel < 1 || c.Imaging.BlurKernel%2 == 0 {
		return fmt.Errorf("imaging.blur_kernel must be a positive odd number, got %d", c.Imaging.BlurKernel)
	}
	if c.OCR.TimeoutSeconds < 20 || c.OCR.TimeoutSeconds > 60 {
		return fmt.Errorf("ocr.timeout_seconds must be between 20 and 60, got %d", c.OCR.TimeoutSeconds)
	}
	if c.OCR.Engine != "tesseract" && c.OCR.Engine != "remote" {
		return fmt.Errorf("ocr.engine must be tesseract or remote, got %q", c.OCR.Engine)
	}
	if c.OCR.Engine == "remote" && c.OCR.RemoteURL == "" {
		return fmt.Errorf("ocr.remote_url is required when ocr.engine is remote")
	}
	if c.Matcher.Threshold <= 0 || c.Matcher.Threshold > 1 {
		return fmt.Errorf("matcher.threshold must be in (0, 1], got %.2f", c.Matcher.Threshold)
	}
	if c.Store.Backend != "memory" && c.Store.Backend != "postgres" {
		return fmt.Errorf("store.backend must be memory or postgres, got %q", c.Store.Backend)
	}
	if c.Store.Backend == "postgres" && c.Store.PostgresURL == "" {
		return fmt.Errorf("store.postgres_url is required when store.backend is postgres")
	}
	return nil
}
