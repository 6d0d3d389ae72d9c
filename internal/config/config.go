package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Scanner   ScannerConfig   `json:"scanner"`
	Camera    CameraConfig    `json:"camera"`
	Generator GeneratorConfig `json:"generator"`
	Logging   LoggingConfig   `json:"logging"`
}

type ServerConfig struct {
	Port           int    `json:"port"`
	Host           string `json:"host"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
}

type ScannerConfig struct {
	TryHarder    bool `json:"try_harder"`
	ServerDecode bool `json:"server_decode"` // POST /api/scan/decode
	MaxPixels    int  `json:"max_pixels"`    // largest uploaded image accepted, width*height
}

// CameraConfig maps facing modes to capture device indices
type CameraConfig struct {
	Device         int `json:"device"`       // rear / environment
	FrontDevice    int `json:"front_device"` // user-facing
	Width          int `json:"width"`
	Height         int `json:"height"`
	PollIntervalMS int `json:"poll_interval_ms"`
}

type GeneratorConfig struct {
	Engine      string `json:"engine"`
	DefaultSize int    `json:"default_size"`
	Foreground  string `json:"foreground"`
	Background  string `json:"background"`
	Filename    string `json:"filename"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	File   string `json:"file"`
	Format string `json:"format"`
}

const (
	EngineSkip2     = "skip2"
	EngineBoombuler = "boombuler"

	MinQRSize = 100
	MaxQRSize = 600
)

func LoadConfig(path string) (*Config, error) {
	// Start with default config
	config := getDefaultConfig()

	// Override with environment variables if they exist
	loadFromEnvironment(config)

	// Try to load from file if it exists
	if path != "" {
		file, err := os.Open(path)
		if err == nil {
			defer file.Close()
			decoder := json.NewDecoder(file)
			if err := decoder.Decode(config); err != nil {
				return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
			}
			// Override again with environment variables to give them priority
			loadFromEnvironment(config)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(c)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	if c.Scanner.MaxPixels <= 0 {
		return fmt.Errorf("max_pixels must be positive")
	}
	if c.Camera.Device < 0 || c.Camera.FrontDevice < 0 {
		return fmt.Errorf("camera device index must not be negative")
	}
	if c.Camera.PollIntervalMS <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive")
	}
	switch c.Generator.Engine {
	case EngineSkip2, EngineBoombuler:
	default:
		return fmt.Errorf("unknown QR engine %q", c.Generator.Engine)
	}
	if c.Generator.DefaultSize < MinQRSize || c.Generator.DefaultSize > MaxQRSize {
		return fmt.Errorf("default_size %d outside [%d,%d]", c.Generator.DefaultSize, MinQRSize, MaxQRSize)
	}
	return nil
}

// Addr returns host:port for the HTTP listener
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// PollInterval returns the camera polling period
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Camera.PollIntervalMS) * time.Millisecond
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "127.0.0.1",
			MaxUploadBytes: 20 << 20,
		},
		Scanner: ScannerConfig{
			TryHarder:    true,
			ServerDecode: true,
			MaxPixels:    40_000_000,
		},
		Camera: CameraConfig{
			Device:         0,
			FrontDevice:    0,
			Width:          1280,
			Height:         720,
			PollIntervalMS: 500,
		},
		Generator: GeneratorConfig{
			Engine:      EngineSkip2,
			DefaultSize: 200,
			Foreground:  "#000000",
			Background:  "#ffffff",
			Filename:    "custom-qr-code",
		},
		Logging: LoggingConfig{
			Level:  "info",
			File:   "stdout",
			Format: "json",
		},
	}
}

// loadFromEnvironment loads configuration from environment variables
func loadFromEnvironment(config *Config) {
	// Server configuration
	config.Server.Host = getEnv("SERVER_HOST", config.Server.Host)
	config.Server.Port = getEnvAsInt("SERVER_PORT", config.Server.Port)

	// Scanner configuration
	config.Scanner.TryHarder = getEnvAsBool("SCANNER_TRY_HARDER", config.Scanner.TryHarder)
	config.Scanner.ServerDecode = getEnvAsBool("SCANNER_SERVER_DECODE", config.Scanner.ServerDecode)
	config.Scanner.MaxPixels = getEnvAsInt("SCANNER_MAX_PIXELS", config.Scanner.MaxPixels)

	// Camera configuration
	config.Camera.Device = getEnvAsInt("CAMERA_DEVICE", config.Camera.Device)
	config.Camera.FrontDevice = getEnvAsInt("CAMERA_FRONT_DEVICE", config.Camera.FrontDevice)
	if d := getEnvAsDuration("CAMERA_POLL_INTERVAL", 0); d > 0 {
		config.Camera.PollIntervalMS = int(d / time.Millisecond)
	}
	config.Camera.PollIntervalMS = getEnvAsInt("CAMERA_POLL_INTERVAL_MS", config.Camera.PollIntervalMS)

	// Generator configuration
	if engine := os.Getenv("QR_ENGINE"); engine != "" {
		config.Generator.Engine = strings.ToLower(engine)
	}

	// Logging configuration
	config.Logging.Level = getEnv("LOG_LEVEL", config.Logging.Level)
	config.Logging.File = getEnv("LOG_FILE", config.Logging.File)
}
