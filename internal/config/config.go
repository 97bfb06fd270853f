package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the service configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	TLS     TLSConfig     `yaml:"tls"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type TLSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CertFile   string `yaml:"certFile"`
	KeyFile    string `yaml:"keyFile"`
	MinVersion string `yaml:"minVersion"`
}

// StorageConfig selects where the slide snapshot is kept.
// Driver is one of memory, file, sqlite or s3.
type StorageConfig struct {
	Driver string   `yaml:"driver"`
	Path   string   `yaml:"path"`
	Key    string   `yaml:"key"`
	S3     S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"useSSL"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverS3     = "s3"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: "8080"},
		TLS:    TLSConfig{MinVersion: "1.2"},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   "./data/slides.db",
			Key:    "presentation-slides",
			S3: S3Config{
				Region: "us-east-1",
				Bucket: "slidedeck",
				UseSSL: true,
			},
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file named by
// SLIDEDECK_CONFIG, a .env file and the environment, later sources winning.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("SLIDEDECK_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Host, "HOST")
	setString(&c.Server.Port, "PORT")

	setBool(&c.TLS.Enabled, "TLS_ENABLED")
	setString(&c.TLS.CertFile, "TLS_CERT_FILE")
	setString(&c.TLS.KeyFile, "TLS_KEY_FILE")
	setString(&c.TLS.MinVersion, "TLS_MIN_VERSION")

	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.Path, "STORAGE_PATH")
	setString(&c.Storage.Path, "DB_PATH")
	setString(&c.Storage.Key, "STORAGE_KEY")
	setString(&c.Storage.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.Storage.S3.Region, "S3_REGION")
	setString(&c.Storage.S3.AccessKey, "S3_ACCESS_KEY")
	setString(&c.Storage.S3.SecretKey, "S3_SECRET_KEY")
	setString(&c.Storage.S3.Bucket, "S3_BUCKET")
	setString(&c.Storage.S3.Prefix, "S3_PREFIX")
	setBool(&c.Storage.S3.UseSSL, "S3_USE_SSL")

	setString(&c.Log.Level, "LOG_LEVEL")
	setBool(&c.Log.Development, "LOG_DEVELOPMENT")
}

// Validate checks the fields the server cannot start without.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverFile, DriverSQLite, DriverS3:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver != DriverMemory && c.Storage.Driver != DriverS3 && c.Storage.Path == "" {
		return fmt.Errorf("storage path is required for driver %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("storage key is required")
	}
	if c.TLS.Enabled && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return fmt.Errorf("tls enabled but cert or key file missing")
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv("SLIDEDECK_" + key)); v != "" {
		*dst = v
		return
	}
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	raw := strings.TrimSpace(os.Getenv("SLIDEDECK_" + key))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv(key))
	}
	if raw == "" {
		return
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		*dst = v
	}
}
