// Package config holds global settings for the phishsense service. Defaults
// come from environment variables; an optional YAML file (PHISHSENSE_CONFIG)
// overrides them for deployments that prefer checked-in configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all service settings. The core analyzer packages take no
// configuration; everything here belongs to the HTTP boundary and the model
// and storage collaborators.
type Config struct {
	// === HTTP boundary ===
	ListenAddr     string `yaml:"listen_addr"`      // default ":8000"
	MaxUploadBytes int    `yaml:"max_upload_bytes"` // scanned-content ceiling (default 10 MiB)
	ScanSlots      int    `yaml:"scan_slots"`       // max concurrent inference/scan requests

	// === Model collaborators ===
	ModelServiceURL string  `yaml:"model_service_url"` // URL decision-forest service; empty = unavailable
	TextModelPath   string  `yaml:"text_model_path"`   // local ONNX text model directory
	TextModelName   string  `yaml:"text_model_name"`   // HuggingFace name for download
	PhishThreshold  float64 `yaml:"phish_threshold"`   // probability above this = phishing (default 0.5)
	EnableLures     bool    `yaml:"enable_lures"`      // embedding lure similarity (needs an embedder)

	// === Feedback / retraining ===
	PostgresDSN      string `yaml:"postgres_dsn"`      // empty = feedback endpoint disabled
	RedisAddr        string `yaml:"redis_addr"`        // empty = retrain queue disabled
	RetrainThreshold int    `yaml:"retrain_threshold"` // corrections per retrain batch (default 500)
}

// NewDefaultConfig builds a Config from environment variables, then applies
// the YAML override file if PHISHSENSE_CONFIG points at one.
func NewDefaultConfig() (*Config, error) {
	cfg := &Config{
		ListenAddr:     GetEnv("PHISHSENSE_LISTEN_ADDR", ":8000"),
		MaxUploadBytes: GetEnvInt("PHISHSENSE_MAX_UPLOAD_BYTES", 10*1024*1024),
		ScanSlots:      GetEnvInt("PHISHSENSE_SCAN_SLOTS", 64),

		ModelServiceURL: GetEnv("PHISHSENSE_MODEL_SERVICE_URL", ""),
		TextModelPath:   GetEnv("PHISHSENSE_TEXT_MODEL_PATH", ""),
		TextModelName:   GetEnv("PHISHSENSE_TEXT_MODEL_NAME", "ealvaradob/bert-finetuned-phishing"),
		PhishThreshold:  GetEnvFloat("PHISHSENSE_PHISH_THRESHOLD", 0.5),
		EnableLures:     GetEnvBool("PHISHSENSE_ENABLE_LURES", false),

		PostgresDSN:      GetEnv("PHISHSENSE_POSTGRES_DSN", ""),
		RedisAddr:        GetEnv("PHISHSENSE_REDIS_ADDR", ""),
		RetrainThreshold: GetEnvInt("PHISHSENSE_RETRAIN_THRESHOLD", 500),
	}

	if path := os.Getenv("PHISHSENSE_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadFile overlays settings from a YAML file onto the config. Fields absent
// from the file keep their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
