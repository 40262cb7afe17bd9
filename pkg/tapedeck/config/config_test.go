package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tapedeck.yaml")
	data := `
log_level: debug
decode:
  format: raw
  schema: checksum-ff
  ignore_checksums: true
  highpass_hz: 300
  highpass_window: blackman
encode:
  sample_rate: 48000
capture:
  device: file
  file: in.wav
  silence_timeout: 2s
influxdb:
  host: http://localhost:8086
  bucket: tape
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.LogLevel != "debug" || c.Decode.Format != FormatRaw || c.Decode.Schema != "checksum-ff" || !c.Decode.IgnoreChecksums || c.Decode.HighpassHz != 300 || c.Decode.HighpassWindow != "blackman" {
		t.Errorf("decode section = %+v", c.Decode)
	}
	if c.Encode.SampleRate != 48000 || c.Encode.BitsPerSample != 16 {
		t.Errorf("encode section = %+v", c.Encode)
	}
	if c.Capture.SilenceTimeout != 2*time.Second || c.Capture.PreRoll != time.Second || c.Capture.File != "in.wav" {
		t.Errorf("capture section = %+v", c.Capture)
	}
	if c.InfluxDB.Host != "http://localhost:8086" || c.InfluxDB.Bucket != "tape" {
		t.Errorf("influxdb section = %+v", c.InfluxDB)
	}
}

func TestLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	c, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load(optional) error = %v", err)
	}
	if c.Decode.Format != FormatText {
		t.Errorf("expected defaults, got %+v", c.Decode)
	}
	if _, err := Load(path, false); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"format", func(c *Config) { c.Decode.Format = "hex" }},
		{"schema", func(c *Config) { c.Decode.Schema = "crc16" }},
		{"highpass", func(c *Config) { c.Decode.HighpassHz = -50 }},
		{"highpass window", func(c *Config) { c.Decode.HighpassWindow = "kaiser" }},
		{"bits", func(c *Config) { c.Encode.BitsPerSample = 4 }},
		{"name", func(c *Config) { c.Encode.Name = "TOOLONG" }},
		{"silence", func(c *Config) { c.Capture.SilenceTimeout = 0 }},
		{"pre-roll", func(c *Config) { c.Capture.PreRoll = -time.Second }},
		{"file device", func(c *Config) { c.Capture.Device = DeviceFile }},
		{"channels", func(c *Config) { c.Capture.Channels = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
