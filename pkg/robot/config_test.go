package robot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)

	cfg := DefaultConfig()
	cfg.Port = "/dev/ttyUSB0"
	cfg.DefaultSpeed = 255
	cfg.Server.Address = "localhost:9000"
	cfg.Calibration.TurnAngle = 86

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if got.Port != cfg.Port || got.DefaultSpeed != 255 || got.Server.Address != "localhost:9000" {
		t.Errorf("loaded %+v, want %+v", got, cfg)
	}
	if got.Calibration.TurnAngle != 86 {
		t.Errorf("TurnAngle = %d, want 86", got.Calibration.TurnAngle)
	}
}

func TestConfig_LoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	if err := os.WriteFile(path, []byte(`{"port": "/dev/ttyUSB1", "calibration": {"turn_angle": 80}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.BaudRate != DefaultBaudRate {
		t.Errorf("BaudRate = %d, want %d", cfg.BaudRate, DefaultBaudRate)
	}
	if cfg.DefaultSpeed != DefaultSpeed {
		t.Errorf("DefaultSpeed = %d, want %d", cfg.DefaultSpeed, DefaultSpeed)
	}
	if cfg.Calibration.TurnAngle != 80 || cfg.Calibration.ModeDelayMs != 2000 {
		t.Errorf("Calibration = %+v", cfg.Calibration)
	}
}

func TestConfig_LoadErrors(t *testing.T) {
	if _, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{"), 0644)
	if _, err := LoadConfigFrom(path); err == nil {
		t.Error("bad JSON should fail")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no port", func(c *Config) { c.Port = "" }, true},
		{"bad mode", func(c *Config) { c.Mode = "passive" }, true},
		{"speed too high", func(c *Config) { c.DefaultSpeed = 600 }, true},
		{"negative speed", func(c *Config) { c.DefaultSpeed = -200 }, true},
		{"top speed", func(c *Config) { c.DefaultSpeed = 500 }, false},
		{"bad turn angle", func(c *Config) { c.Calibration.TurnAngle = -5 }, true},
		{"zero calibration uses defaults", func(c *Config) { c.Calibration = Calibration{} }, false},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Port = "/dev/ttyUSB0"
		tt.mutate(cfg)
		err := cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestCalibration_Delays(t *testing.T) {
	c := DefaultCalibration()
	if c.StartDelay().Seconds() != 1 || c.ModeDelay().Seconds() != 2 {
		t.Errorf("delays = %v, %v", c.StartDelay(), c.ModeDelay())
	}
	if c.TurnAngle != 84 {
		t.Errorf("TurnAngle = %d, want 84", c.TurnAngle)
	}
}
