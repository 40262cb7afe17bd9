package soundcard

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/gen2brain/malgo"
	"github.com/norasector/tapedeck/pkg/tape"
	"github.com/rs/zerolog"
)

// Capture records signed 16 bit samples from a sound card input.
type Capture struct {
	name   string
	spec   tape.Spec
	logger zerolog.Logger

	ctx    *malgo.AllocatedContext
	device *malgo.Device
}

// NewCapture opens the capture device whose name contains name. An empty name
// or "default" picks the system default input.
func NewCapture(name string, sampleRate, channels int, logger zerolog.Logger) (*Capture, error) {
	c := &Capture{
		name: name,
		spec: tape.Spec{
			SampleRate:    sampleRate,
			Channels:      channels,
			BitsPerSample: 16,
		},
		logger: logger,
	}
	if err := c.spec.Validate(); err != nil {
		return nil, err
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		logger.Debug().Str("msg", strings.TrimSpace(msg)).Msg("malgo")
	})
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	c.ctx = ctx
	return c, nil
}

func (c *Capture) deviceID() (*malgo.DeviceInfo, error) {
	if c.name == "" || c.name == "default" {
		return nil, nil
	}

	infos, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("list capture devices: %w", err)
	}
	want := strings.ToLower(c.name)
	for i := range infos {
		if strings.Contains(strings.ToLower(infos[i].Name()), want) {
			return &infos[i], nil
		}
	}
	return nil, fmt.Errorf("no capture device matching %q", c.name)
}

func (c *Capture) Start(ctx context.Context, chunks chan<- []int32) error {
	info, err := c.deviceID()
	if err != nil {
		return err
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = uint32(c.spec.Channels)
	cfg.SampleRate = uint32(c.spec.SampleRate)
	if info != nil {
		cfg.Capture.DeviceID = info.ID.Pointer()
	}
	if runtime.GOOS == "linux" {
		cfg.Alsa.NoMMap = 1
	}

	channels := int(cfg.Capture.Channels)
	onCapture := func(_, input []byte, frameCount uint32) {
		samples := make([]int32, int(frameCount)*channels)
		for i := range samples {
			off := i * 2
			samples[i] = int32(int16(uint16(input[off]) | uint16(input[off+1])<<8))
		}

		select {
		case chunks <- samples:
		default:
			c.logger.Warn().Uint32("frames", frameCount).Msg("capture buffer full, dropping chunk")
		}
	}

	dev, err := malgo.InitDevice(c.ctx.Context, cfg, malgo.DeviceCallbacks{Data: onCapture})
	if err != nil {
		return fmt.Errorf("open capture device: %w", err)
	}
	c.device = dev

	if err := dev.Start(); err != nil {
		return fmt.Errorf("start capture device: %w", err)
	}
	c.logger.Info().Str("device", c.name).Str("spec", c.spec.String()).Msg("capture started")

	<-ctx.Done()
	if err := dev.Stop(); err != nil {
		return err
	}
	return ctx.Err()
}

func (c *Capture) Stop() error {
	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	if c.ctx != nil {
		err := c.ctx.Uninit()
		c.ctx.Free()
		c.ctx = nil
		return err
	}
	return nil
}

func (c *Capture) Spec() tape.Spec {
	return c.spec
}
