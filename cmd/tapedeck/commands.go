package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/norasector/tapedeck/pkg/tape"
	"github.com/norasector/tapedeck/pkg/tape/wavfile"
	"github.com/norasector/tapedeck/pkg/tapedeck"
	"github.com/norasector/tapedeck/pkg/tapedeck/analysis"
	"github.com/norasector/tapedeck/pkg/tapedeck/config"
	"github.com/norasector/tapedeck/pkg/tapedeck/device"
	"github.com/norasector/tapedeck/pkg/tapedeck/device/file"
	"github.com/norasector/tapedeck/pkg/tapedeck/device/soundcard"
)

func decodeFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Decode.Format, "format", cfg.Decode.Format, "output format: raw or text")
	fs.BoolVar(&cfg.Decode.IgnoreChecksums, "ignore-checksums", cfg.Decode.IgnoreChecksums, "accept records with bad checksums")
	fs.StringVar(&cfg.Decode.Schema, "schema", cfg.Decode.Schema, "container schema: checksum, checksum-ff or eof-flag")
	fs.Float64Var(&cfg.Decode.HighpassHz, "highpass", cfg.Decode.HighpassHz, "highpass prefilter cutoff in Hz, 0 disables")
	fs.StringVar(&cfg.Decode.HighpassWindow, "highpass-window", cfg.Decode.HighpassWindow, "highpass window: hamming, hann or blackman")
}

func runDecode(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	decodeFlags(fs, cfg)
	fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("decode needs IN.wav and OUT")
	}

	deck, cleanup, err := newDeck(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	samples, spec, err := wavfile.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	log.Info().Str("file", fs.Arg(0)).Str("spec", spec.String()).Msg("decoding")
	return decodeTo(deck, cfg.Decode.Format, samples, spec, fs.Arg(1))
}

func decodeTo(deck *tapedeck.Deck, format string, samples []int32, spec tape.Spec, out string) error {
	if format == config.FormatRaw {
		buffers, err := deck.DecodeRaw(samples, spec)
		if err != nil {
			return err
		}
		log.Info().Int("sections", len(buffers)).Msg("found sections")
		for i, b := range buffers {
			name := fmt.Sprintf("%s-%d.bin", out, i)
			if err := os.WriteFile(name, b, 0o644); err != nil {
				return err
			}
			log.Debug().Str("file", name).Int("bytes", len(b)).Msg("wrote section")
		}
		return nil
	}

	f, err := deck.DecodeText(samples, spec)
	if err != nil {
		return err
	}
	log.Info().Str("name", f.Name).Str("file", out).Msg("writing file")
	return os.WriteFile(out, f.Data, 0o644)
}

func runEncode(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	format := fs.String("format", cfg.Decode.Format, "input format: raw or text")
	fs.StringVar(&cfg.Decode.Schema, "schema", cfg.Decode.Schema, "container schema for text files")
	fs.StringVar(&cfg.Encode.Name, "name", cfg.Encode.Name, "file name stored in the text header")
	fs.IntVar(&cfg.Encode.SampleRate, "rate", cfg.Encode.SampleRate, "output sample rate")
	fs.IntVar(&cfg.Encode.BitsPerSample, "bits", cfg.Encode.BitsPerSample, "output bits per sample")
	fs.Parse(args)
	if fs.NArg() < 2 {
		return fmt.Errorf("encode needs at least one input and OUT.wav")
	}

	deck, cleanup, err := newDeck(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	inputs, out := fs.Args()[:fs.NArg()-1], fs.Arg(fs.NArg()-1)
	payloads := make([][]byte, len(inputs))
	for i, in := range inputs {
		if payloads[i], err = os.ReadFile(in); err != nil {
			return err
		}
	}

	var samples []int32
	var spec tape.Spec
	switch *format {
	case config.FormatRaw:
		samples, spec, err = deck.EncodeRaw(payloads)
	case config.FormatText:
		if len(payloads) != 1 {
			return fmt.Errorf("text encoding takes exactly one input")
		}
		samples, spec, err = deck.EncodeText(cfg.Encode.Name, payloads[0])
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		return err
	}

	log.Info().Str("file", out).Str("spec", spec.String()).Int("samples", len(samples)).Msg("writing recording")
	return wavfile.WriteFile(out, samples, spec)
}

func runListen(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("listen", flag.ExitOnError)
	decodeFlags(fs, cfg)
	fs.StringVar(&cfg.Capture.Device, "device", cfg.Capture.Device, "capture device name, or file")
	fs.StringVar(&cfg.Capture.File, "file", cfg.Capture.File, "WAV file replayed by the file device")
	save := fs.String("save", "", "also write the captured audio to this WAV file")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("listen needs OUT")
	}

	deck, cleanup, err := newDeck(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var dev device.Device
	switch cfg.Capture.Device {
	case config.DeviceFile:
		log.Info().Str("device", "file").Str("file", cfg.Capture.File).Msg("initializing device...")
		dev, err = file.NewFileDevice(cfg.Capture.File, cfg.Capture.ChunkFrames, 0)
	default:
		log.Info().Str("device", cfg.Capture.Device).Msg("initializing device...")
		dev, err = soundcard.NewCapture(cfg.Capture.Device, cfg.Capture.SampleRate, cfg.Capture.Channels, log.Logger)
	}
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}

	eg, ctx := errgroup.WithContext(context.Background())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	eg.Go(func() error {
		select {
		case <-sigChan:
			log.Info().Msg("interrupted")
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	var samples []int32
	var spec tape.Spec
	eg.Go(func() error {
		defer cancel()
		var err error
		samples, spec, err = deck.Listen(ctx, dev)
		return err
	})

	if err := eg.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	if *save != "" {
		if err := wavfile.WriteFile(*save, samples, spec); err != nil {
			return err
		}
	}
	return decodeTo(deck, cfg.Decode.Format, samples, spec, fs.Arg(0))
}

func runAnalyze(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	fs.Float64Var(&cfg.Decode.HighpassHz, "highpass", cfg.Decode.HighpassHz, "highpass prefilter cutoff in Hz, 0 disables")
	fs.StringVar(&cfg.Decode.HighpassWindow, "highpass-window", cfg.Decode.HighpassWindow, "highpass window: hamming, hann or blackman")
	plotFile := fs.String("plot", "", "write a pulse length histogram PNG")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("analyze needs IN.wav")
	}

	deck, cleanup, err := newDeck(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	samples, spec, err := wavfile.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	report, err := deck.Analyze(samples, spec)
	if err != nil {
		return err
	}
	log.Info().
		Str("spec", report.Spec.String()).
		Int("intervals", report.Intervals).
		Int("unclassified", report.Unclassified).
		Int("first_unclassified", report.FirstUnclassified).
		Floats64("carriers_hz", report.Carriers).
		Msg("analysis")
	for _, p := range report.Pulses {
		log.Info().
			Str("kind", p.Kind.String()).
			Int("count", p.Count).
			Float64("mean", p.Mean).
			Float64("stddev", p.StdDev).
			Float64("min", p.Min).
			Float64("max", p.Max).
			Msg("pulses")
	}

	if *plotFile != "" {
		f, err := os.Create(*plotFile)
		if err != nil {
			return err
		}
		if err := analysis.WriteHistogram(f, samples, spec); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return nil
}
