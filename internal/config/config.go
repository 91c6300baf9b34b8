package config

import (
	"encoding/hex"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Provider
	ProviderType     string `envconfig:"PROVIDER_TYPE" default:"localface"`
	SidecarURL       string `envconfig:"SIDECAR_URL" default:"http://localhost:5005"`
	RecognitionModel string `envconfig:"RECOGNITION_MODEL" default:"Facenet"`
	DetectorBackend  string `envconfig:"DETECTOR_BACKEND" default:"ssd_mobilenet"`

	// Camera sidecar
	CameraURL string `envconfig:"CAMERA_URL" default:"http://localhost:5006/frame"`

	// Enrollment service
	EnrollmentURL string `envconfig:"ENROLLMENT_URL" required:"true"`

	// Reference cache
	IndicatorDir string `envconfig:"INDICATOR_DIR" default:"/var/lib/faceverify/indicators"`
	IndicatorKey string `envconfig:"INDICATOR_KEY" required:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// IndicatorKeyBytes decodes the hex-encoded cache indicator key. The key
// must decode to exactly 32 bytes.
func (c *Config) IndicatorKeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.IndicatorKey)
	if err != nil {
		return nil, fmt.Errorf("decode indicator key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("indicator key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
