package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg, err := NewDefaultConfig()
	if err != nil {
		t.Fatalf("NewDefaultConfig: %v", err)
	}

	if cfg.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q, want :8000", cfg.ListenAddr)
	}
	if cfg.MaxUploadBytes != 10*1024*1024 {
		t.Errorf("MaxUploadBytes = %d, want 10 MiB", cfg.MaxUploadBytes)
	}
	if cfg.ScanSlots != 64 {
		t.Errorf("ScanSlots = %d, want 64", cfg.ScanSlots)
	}
	if cfg.PhishThreshold != 0.5 {
		t.Errorf("PhishThreshold = %f, want 0.5", cfg.PhishThreshold)
	}
	if cfg.RetrainThreshold != 500 {
		t.Errorf("RetrainThreshold = %d, want 500", cfg.RetrainThreshold)
	}
	if cfg.ModelServiceURL != "" || cfg.PostgresDSN != "" || cfg.RedisAddr != "" {
		t.Error("optional collaborators should default to disabled")
	}
	if cfg.EnableLures {
		t.Error("lure detection should default to off")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PHISHSENSE_LISTEN_ADDR", ":9100")
	t.Setenv("PHISHSENSE_PHISH_THRESHOLD", "0.65")
	t.Setenv("PHISHSENSE_SCAN_SLOTS", "8")
	t.Setenv("PHISHSENSE_ENABLE_LURES", "true")
	t.Setenv("PHISHSENSE_MODEL_SERVICE_URL", "http://models:9000")

	cfg, err := NewDefaultConfig()
	if err != nil {
		t.Fatalf("NewDefaultConfig: %v", err)
	}

	if cfg.ListenAddr != ":9100" {
		t.Errorf("ListenAddr = %q, want :9100", cfg.ListenAddr)
	}
	if cfg.PhishThreshold != 0.65 {
		t.Errorf("PhishThreshold = %f, want 0.65", cfg.PhishThreshold)
	}
	if cfg.ScanSlots != 8 {
		t.Errorf("ScanSlots = %d, want 8", cfg.ScanSlots)
	}
	if !cfg.EnableLures {
		t.Error("EnableLures not picked up from env")
	}
	if cfg.ModelServiceURL != "http://models:9000" {
		t.Errorf("ModelServiceURL = %q", cfg.ModelServiceURL)
	}
}

func TestInvalidEnvValuesKeepDefaults(t *testing.T) {
	t.Setenv("PHISHSENSE_SCAN_SLOTS", "many")
	t.Setenv("PHISHSENSE_PHISH_THRESHOLD", "high")
	t.Setenv("PHISHSENSE_ENABLE_LURES", "yup")

	cfg, err := NewDefaultConfig()
	if err != nil {
		t.Fatalf("NewDefaultConfig: %v", err)
	}
	if cfg.ScanSlots != 64 || cfg.PhishThreshold != 0.5 || cfg.EnableLures {
		t.Errorf("unparseable env values must fall back to defaults, got %+v", cfg)
	}
}

func TestYAMLFileOverridesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phishsense.yaml")
	data := []byte("listen_addr: \":7000\"\nretrain_threshold: 250\npostgres_dsn: \"postgres://fb\"\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("PHISHSENSE_LISTEN_ADDR", ":9100")
	t.Setenv("PHISHSENSE_CONFIG", path)

	cfg, err := NewDefaultConfig()
	if err != nil {
		t.Fatalf("NewDefaultConfig: %v", err)
	}

	if cfg.ListenAddr != ":7000" {
		t.Errorf("ListenAddr = %q, file must override env", cfg.ListenAddr)
	}
	if cfg.RetrainThreshold != 250 {
		t.Errorf("RetrainThreshold = %d, want 250", cfg.RetrainThreshold)
	}
	if cfg.PostgresDSN != "postgres://fb" {
		t.Errorf("PostgresDSN = %q", cfg.PostgresDSN)
	}
	// Fields absent from the file keep the env/default values.
	if cfg.ScanSlots != 64 {
		t.Errorf("ScanSlots = %d, want untouched default 64", cfg.ScanSlots)
	}
}

func TestMissingConfigFileErrors(t *testing.T) {
	t.Setenv("PHISHSENSE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := NewDefaultConfig(); err == nil {
		t.Error("expected error for a missing config file")
	}
}

func TestGetEnvSlice(t *testing.T) {
	t.Setenv("PHISHSENSE_TEST_SLICE", "a, b ,,c")
	got := GetEnvSlice("PHISHSENSE_TEST_SLICE", []string{"x"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("GetEnvSlice = %v", got)
	}

	got = GetEnvSlice("PHISHSENSE_TEST_SLICE_UNSET", []string{"x"})
	if !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("GetEnvSlice default = %v", got)
	}
}
