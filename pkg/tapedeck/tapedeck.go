// Package tapedeck ties the demodulator, modulator and container packages
// together with logging, metrics and live capture.
package tapedeck

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/norasector/tapedeck/pkg/dsp/filters/fir"
	"github.com/norasector/tapedeck/pkg/tape"
	"github.com/norasector/tapedeck/pkg/tape/container"
	"github.com/norasector/tapedeck/pkg/tape/frame"
	"github.com/norasector/tapedeck/pkg/tape/modem"
	"github.com/norasector/tapedeck/pkg/tapedeck/analysis"
	"github.com/norasector/tapedeck/pkg/tapedeck/capture"
	"github.com/norasector/tapedeck/pkg/tapedeck/device"
	"github.com/norasector/tapedeck/pkg/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	IgnoreChecksums bool
	Schema          container.Schema

	// HighpassHz enables a high-pass prefilter ahead of demodulation when
	// positive. It removes DC offset and mains hum from real recordings.
	HighpassHz     float64
	HighpassWindow fir.WindowType

	// EncodeSpec is the output format for encoding; channels are always 1.
	EncodeSpec tape.Spec

	SilenceTimeout time.Duration
	PreRoll        time.Duration
	BufferChunks   int
}

type Deck struct {
	opts     Options
	writeAPI api.WriteAPI
	logger   zerolog.Logger
}

type DeckOption func(d *Deck) error

func WithInfluxDB(writeAPI api.WriteAPI) DeckOption {
	return func(d *Deck) error {
		d.writeAPI = writeAPI
		return nil
	}
}

func WithLogger(logger zerolog.Logger) DeckOption {
	return func(d *Deck) error {
		d.logger = logger
		return nil
	}
}

func NewDeck(options Options, opts ...DeckOption) (*Deck, error) {
	d := &Deck{
		opts:     options,
		writeAPI: &util.MockWriteAPI{}, // overwritten with option
		logger:   log.Logger,
	}
	if d.opts.Schema == "" {
		d.opts.Schema = container.SchemaChecksum
	}
	if d.opts.EncodeSpec.SampleRate == 0 {
		d.opts.EncodeSpec = tape.Spec{SampleRate: tape.CalibrationRate, BitsPerSample: 16}
	}
	d.opts.EncodeSpec.Channels = 1
	if d.opts.SilenceTimeout == 0 {
		d.opts.SilenceTimeout = tape.CaptureSilence
	}
	if d.opts.PreRoll == 0 {
		d.opts.PreRoll = tape.CapturePreRoll
	}
	if d.opts.BufferChunks <= 0 {
		d.opts.BufferChunks = 64
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	if err := d.opts.EncodeSpec.Validate(); err != nil {
		return nil, fmt.Errorf("encode spec: %w", err)
	}
	if d.opts.HighpassHz < 0 {
		return nil, fmt.Errorf("negative highpass cutoff %v", d.opts.HighpassHz)
	}
	if _, err := fir.ParseWindowType(d.opts.HighpassWindow.String()); err != nil {
		return nil, fmt.Errorf("highpass: %w", err)
	}
	return d, nil
}

func (d *Deck) writePoint(name string, tags map[string]string, fields map[string]interface{}, start time.Time) {
	fields["duration"] = time.Since(start).Microseconds()
	d.writeAPI.WritePoint(influxdb2.NewPoint(name, tags, fields, start))
}

// prefilter runs the high-pass filter over samples. It is a no-op when the
// cutoff is zero.
func (d *Deck) prefilter(samples []int32, spec tape.Spec) ([]int32, error) {
	if d.opts.HighpassHz <= 0 {
		return samples, nil
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if d.opts.HighpassHz >= float64(spec.SampleRate)/2 {
		return nil, fmt.Errorf("highpass cutoff %v Hz above nyquist for %s", d.opts.HighpassHz, spec)
	}

	taps := fir.MakeHighPass(1, float64(spec.SampleRate), d.opts.HighpassHz, d.opts.HighpassHz, d.opts.HighpassWindow)
	filter := fir.NewFilter(taps, spec.Channels, tape.MaxAmplitude(spec.BitsPerSample))
	d.logger.Debug().
		Float64("cutoff", d.opts.HighpassHz).
		Str("window", d.opts.HighpassWindow.String()).
		Int("taps", len(taps)).
		Msg("applying highpass")
	return filter.Apply(samples), nil
}

func (d *Deck) demodulate(samples []int32, spec tape.Spec, fields map[string]interface{}) ([]frame.Section, error) {
	var err error
	if d.opts.HighpassHz > 0 {
		fields["filter_duration"], err = util.TimeOperationErr(func() error {
			samples, err = d.prefilter(samples, spec)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	var sections []frame.Section
	fields["demodulate_duration"], err = util.TimeOperationErr(func() error {
		sections, err = modem.Demodulate(samples, spec)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("demodulate: %w", err)
	}
	fields["sections"] = len(sections)

	for i, sec := range sections {
		if !sec.Aligned() {
			d.logger.Warn().Int("section", i).Int("bits", sec.BitLen()).Msg("section ends mid-byte, last byte zero padded")
		}
	}

	d.logger.Debug().
		Str("spec", spec.String()).
		Int("samples", len(samples)).
		Int("sections", len(sections)).
		Msg("demodulated")
	return sections, nil
}

// DecodeRaw returns the bytes of every burst in the recording.
func (d *Deck) DecodeRaw(samples []int32, spec tape.Spec) ([][]byte, error) {
	start := time.Now()
	fields := map[string]interface{}{"samples": len(samples)}
	defer d.writePoint("tape.decode", map[string]string{"format": "raw"}, fields, start)

	sections, err := d.demodulate(samples, spec, fields)
	if err != nil {
		fields["error"] = err.Error()
		return nil, err
	}
	return container.Raw(sections), nil
}

// DecodeText demodulates the recording and parses it as a text file.
func (d *Deck) DecodeText(samples []int32, spec tape.Spec) (*container.File, error) {
	start := time.Now()
	fields := map[string]interface{}{"samples": len(samples)}
	tags := map[string]string{"format": "text", "schema": d.opts.Schema.String()}
	defer d.writePoint("tape.decode", tags, fields, start)

	sections, err := d.demodulate(samples, spec, fields)
	if err != nil {
		fields["error"] = err.Error()
		return nil, err
	}

	f, err := container.Parse(container.Raw(sections), container.ParseOptions{
		IgnoreChecksums: d.opts.IgnoreChecksums,
		Schema:          d.opts.Schema,
	})
	if err != nil {
		fields["error"] = err.Error()
		return nil, fmt.Errorf("parse: %w", err)
	}
	fields["checksum_failures"] = len(f.ChecksumFailures)
	fields["bytes"] = len(f.Data)

	for _, rec := range f.ChecksumFailures {
		d.logger.Warn().Int("record", rec).Msg("ignoring bad checksum")
	}
	d.logger.Info().
		Str("name", f.Name).
		Str("type", f.Type.String()).
		Int("bytes", len(f.Data)).
		Msg("parsed file")
	return f, nil
}

// EncodeRaw renders each payload as its own burst.
func (d *Deck) EncodeRaw(payloads [][]byte) ([]int32, tape.Spec, error) {
	return d.encode("raw", payloads)
}

// EncodeText lays data out as a named text file and renders it.
func (d *Deck) EncodeText(name string, data []byte) ([]int32, tape.Spec, error) {
	buffers, err := container.BuildText(name, data, [10]byte{}, d.opts.Schema)
	if err != nil {
		return nil, tape.Spec{}, err
	}
	return d.encode("text", buffers)
}

func (d *Deck) encode(format string, payloads [][]byte) ([]int32, tape.Spec, error) {
	start := time.Now()
	spec := d.opts.EncodeSpec

	samples, err := modem.Modulate(payloads, spec)
	if err != nil {
		return nil, tape.Spec{}, err
	}

	d.writePoint("tape.encode",
		map[string]string{"format": format},
		map[string]interface{}{
			"sections": len(payloads),
			"samples":  len(samples),
		}, start)
	d.logger.Debug().
		Str("spec", spec.String()).
		Int("sections", len(payloads)).
		Dur("length", time.Duration(len(samples))*time.Second/time.Duration(spec.SampleRate)).
		Msg("modulated")
	return samples, spec, nil
}

// Listen records from dev until the signal is followed by silence or the
// device runs dry. The device is stopped before Listen returns.
func (d *Deck) Listen(ctx context.Context, dev device.Device) ([]int32, tape.Spec, error) {
	spec := dev.Spec()
	rec, err := capture.NewRecorder(spec,
		capture.WithLogger(d.logger),
		capture.WithSilenceTimeout(d.opts.SilenceTimeout),
		capture.WithPreRoll(d.opts.PreRoll),
	)
	if err != nil {
		return nil, tape.Spec{}, err
	}
	defer func() {
		if err := dev.Stop(); err != nil {
			d.logger.Warn().Err(err).Msg("stopping device")
		}
	}()

	chunks := make(chan []int32, d.opts.BufferChunks)
	eg, egCtx := errgroup.WithContext(ctx)
	devCtx, stopDevice := context.WithCancel(egCtx)
	defer stopDevice()

	eg.Go(func() error {
		err := dev.Start(devCtx, chunks)
		if err == nil {
			// source ran dry; let the recorder finish with what it has
			close(chunks)
			return nil
		}
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			return nil
		}
		return err
	})

	var samples []int32
	eg.Go(func() error {
		defer stopDevice()
		var err error
		samples, err = rec.Record(egCtx, chunks)
		return err
	})

	d.logger.Info().Str("spec", spec.String()).Msg("waiting for signal")
	if err := eg.Wait(); err != nil {
		return nil, tape.Spec{}, err
	}
	return samples, spec, nil
}

func (d *Deck) Analyze(samples []int32, spec tape.Spec) (*analysis.Report, error) {
	samples, err := d.prefilter(samples, spec)
	if err != nil {
		return nil, err
	}
	return analysis.Analyze(samples, spec)
}
