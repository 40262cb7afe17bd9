package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/norasector/tapedeck/pkg/dsp/filters/fir"
	"github.com/norasector/tapedeck/pkg/tape"
	"github.com/norasector/tapedeck/pkg/tape/container"
	"gopkg.in/yaml.v2"
)

const (
	FormatRaw  = "raw"
	FormatText = "text"

	DeviceDefault = "default"
	DeviceFile    = "file"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel string `yaml:"log_level"`
	Decode   struct {
		Format          string  `yaml:"format"`
		IgnoreChecksums bool    `yaml:"ignore_checksums"`
		Schema          string  `yaml:"schema"`
		HighpassHz      float64 `yaml:"highpass_hz"`
		HighpassWindow  string  `yaml:"highpass_window"`
	} `yaml:"decode"`
	Encode struct {
		SampleRate    int    `yaml:"sample_rate"`
		BitsPerSample int    `yaml:"bits_per_sample"`
		Name          string `yaml:"name"`
	} `yaml:"encode"`
	Capture struct {
		Device         string        `yaml:"device"`
		File           string        `yaml:"file"`
		SilenceTimeout time.Duration `yaml:"silence_timeout"`
		PreRoll        time.Duration `yaml:"pre_roll"`
		BufferChunks   int           `yaml:"buffer_chunks"`
		ChunkFrames    int           `yaml:"chunk_frames"`
		SampleRate     int           `yaml:"sample_rate"`
		Channels       int           `yaml:"channels"`
	} `yaml:"capture"`
	InfluxDB struct {
		Host         string `yaml:"host"`
		Token        string `yaml:"token"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"influxdb"`
}

func Default() *Config {
	c := &Config{LogLevel: "info"}
	c.Decode.Format = FormatText
	c.Decode.Schema = string(container.SchemaChecksum)
	c.Decode.HighpassWindow = fir.Hamming.String()
	c.Encode.SampleRate = tape.CalibrationRate
	c.Encode.BitsPerSample = 16
	c.Encode.Name = "TAPE"
	c.Capture.Device = DeviceDefault
	c.Capture.SilenceTimeout = tape.CaptureSilence
	c.Capture.PreRoll = tape.CapturePreRoll
	c.Capture.BufferChunks = 64
	c.Capture.ChunkFrames = 1024
	c.Capture.SampleRate = tape.CalibrationRate
	c.Capture.Channels = 1
	return c
}

// Load reads path over the defaults. A missing file is not an error when
// optional is set.
func Load(path string, optional bool) (*Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return c, c.Validate()
}

func (c *Config) Validate() error {
	switch c.Decode.Format {
	case FormatRaw, FormatText:
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Decode.Format)
	}
	if _, err := container.ParseSchema(c.Decode.Schema); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Decode.HighpassHz < 0 {
		return fmt.Errorf("%w: decode highpass_hz must not be negative", ErrInvalidConfig)
	}
	if _, err := fir.ParseWindowType(c.Decode.HighpassWindow); err != nil {
		return fmt.Errorf("%w: decode highpass_window: %v", ErrInvalidConfig, err)
	}

	enc := tape.Spec{SampleRate: c.Encode.SampleRate, Channels: 1, BitsPerSample: c.Encode.BitsPerSample}
	if err := enc.Validate(); err != nil {
		return fmt.Errorf("%w: encode: %v", ErrInvalidConfig, err)
	}
	if len(c.Encode.Name) > 6 {
		return fmt.Errorf("%w: encode name %q longer than 6 bytes", ErrInvalidConfig, c.Encode.Name)
	}

	if c.Capture.SilenceTimeout <= 0 {
		return fmt.Errorf("%w: capture silence_timeout must be positive", ErrInvalidConfig)
	}
	if c.Capture.PreRoll < 0 {
		return fmt.Errorf("%w: capture pre_roll must not be negative", ErrInvalidConfig)
	}
	if c.Capture.BufferChunks <= 0 || c.Capture.ChunkFrames <= 0 {
		return fmt.Errorf("%w: capture buffer_chunks and chunk_frames must be positive", ErrInvalidConfig)
	}
	if c.Capture.Device == DeviceFile && c.Capture.File == "" {
		return fmt.Errorf("%w: capture device file needs a file", ErrInvalidConfig)
	}
	capSpec := tape.Spec{SampleRate: c.Capture.SampleRate, Channels: c.Capture.Channels, BitsPerSample: 16}
	if err := capSpec.Validate(); err != nil {
		return fmt.Errorf("%w: capture: %v", ErrInvalidConfig, err)
	}
	return nil
}
