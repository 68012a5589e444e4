package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"campusnest_backend/internal/storage"
	"campusnest_backend/internal/upload"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host        string   `yaml:"host"`
		Port        int      `yaml:"port"`
		Env         string   `yaml:"env"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	// Database is optional; without a DSN the upload registry is disabled.
	Database struct {
		DSN          string `yaml:"url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		AutoMigrate  bool   `yaml:"auto_migrate"`
	} `yaml:"database"`

	Storage struct {
		Type      string `yaml:"type"`       // local, s3, cloudflare_r2, minio
		BasePath  string `yaml:"base_path"`  // For local storage
		BaseURL   string `yaml:"base_url"`   // Public URL base
		Bucket    string `yaml:"bucket"`     // For S3/R2/MinIO
		Region    string `yaml:"region"`     // For S3
		AccessKey string `yaml:"access_key"` // For S3/R2/MinIO
		SecretKey string `yaml:"secret_key"` // For S3/R2/MinIO
		Endpoint  string `yaml:"endpoint"`   // For R2, MinIO or custom S3
		UseSSL    bool   `yaml:"use_ssl"`    // For MinIO
	} `yaml:"storage"`

	Upload struct {
		Defaults          CategoryConfig            `yaml:"defaults"`
		Categories        map[string]CategoryConfig `yaml:"categories"`
		ProcessTimeout    time.Duration             `yaml:"process_timeout"`
		RollbackOnFailure bool                      `yaml:"rollback_on_failure"`
		TempSweepInterval time.Duration             `yaml:"temp_sweep_interval"` // 0 disables the sweeper
		TempMaxAge        time.Duration             `yaml:"temp_max_age"`
	} `yaml:"upload"`

	JWT struct {
		Secret string        `yaml:"secret"` // empty disables auth on /api/v1
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"jwt"`

	Metrics struct {
		Enabled   bool   `yaml:"enabled"`
		Path      string `yaml:"path"`
		Namespace string `yaml:"namespace"`
	} `yaml:"metrics"`
}

// CategoryConfig overrides the options of one upload category. Zero values
// keep whatever the preset says.
type CategoryConfig struct {
	MaxFileSize   int64    `yaml:"max_file_size"`
	ImageWidth    int      `yaml:"image_width"` // -1 disables resizing
	ImageTypes    []string `yaml:"image_types"`
	DocumentTypes []string `yaml:"document_types"`
	IsDocument    *bool    `yaml:"is_document"`
	Quality       int      `yaml:"quality"`
}

var AppConfig *Config

// Load reads the configuration. When UPLOAD_ROOT or SERVER_PORT is set the
// file is skipped and the environment is used on top of the defaults;
// otherwise CONFIG_PATH (default config/config.yaml) is parsed.
func Load() (*Config, error) {
	if os.Getenv("UPLOAD_ROOT") != "" || os.Getenv("SERVER_PORT") != "" {
		log.Println("Загрузка конфигурации из ПЕРЕМЕННЫХ ОКРУЖЕНИЯ")
		return fromEnv()
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка из %s", configPath)
	return LoadFile(configPath)
}

// LoadFile parses a YAML config file over the defaults.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file at %s: %w", path, err)
	}
	defer f.Close()

	cfg := Defaults()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file at %s: %w", path, err)
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	cfg := Defaults()

	if v := os.Getenv("SERVER_ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVER_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	cfg.Database.DSN = os.Getenv("DATABASE_URL")

	if v := os.Getenv("UPLOAD_ROOT"); v != "" {
		cfg.Storage.BasePath = v
	}
	if v := os.Getenv("UPLOAD_PUBLIC_URL"); v != "" {
		cfg.Storage.BaseURL = v
	}
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("UPLOAD_PROCESS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid UPLOAD_PROCESS_TIMEOUT %q: %w", v, err)
		}
		cfg.Upload.ProcessTimeout = d
	}
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid METRICS_ENABLED %q: %w", v, err)
		}
		cfg.Metrics.Enabled = enabled
	}
	return cfg, nil
}

// LoadConfig loads AppConfig and exits the process on failure.
func LoadConfig() {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) StorageConfig() storage.Config {
	s := c.Storage
	return storage.Config{
		Type:      s.Type,
		BasePath:  s.BasePath,
		BaseURL:   s.BaseURL,
		Bucket:    s.Bucket,
		Region:    s.Region,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
		Endpoint:  s.Endpoint,
		UseSSL:    s.UseSSL,
	}
}

// CategoryOptions returns the options of every category: the presets, then
// upload.defaults applied to all of them, then per-category overrides.
// A category that only exists in the file starts from the general defaults.
func (c *Config) CategoryOptions() map[string]upload.Options {
	out := upload.Presets()
	for name, opts := range out {
		out[name] = c.Upload.Defaults.apply(opts)
	}
	for name, override := range c.Upload.Categories {
		base, ok := out[name]
		if !ok {
			base = c.Upload.Defaults.apply(upload.DefaultOptions())
		}
		out[name] = override.apply(base)
	}
	for name, opts := range out {
		opts.ProcessTimeout = c.Upload.ProcessTimeout
		opts.RollbackOnFailure = c.Upload.RollbackOnFailure
		out[name] = opts
	}
	return out
}

func (cc CategoryConfig) apply(opts upload.Options) upload.Options {
	if cc.MaxFileSize != 0 {
		opts.MaxFileSize = cc.MaxFileSize
	}
	if cc.ImageWidth != 0 {
		opts.ImageWidth = cc.ImageWidth
	}
	if len(cc.ImageTypes) > 0 {
		opts.ImageTypes = cc.ImageTypes
	}
	if len(cc.DocumentTypes) > 0 {
		opts.DocumentTypes = cc.DocumentTypes
	}
	if cc.IsDocument != nil {
		opts.IsDocument = *cc.IsDocument
	}
	if cc.Quality != 0 {
		opts.Quality = cc.Quality
	}
	return opts
}
