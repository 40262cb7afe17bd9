package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/norasector/tapedeck/pkg/dsp/filters/fir"
	"github.com/norasector/tapedeck/pkg/tape"
	"github.com/norasector/tapedeck/pkg/tape/container"
	"github.com/norasector/tapedeck/pkg/tapedeck"
	"github.com/norasector/tapedeck/pkg/tapedeck/config"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: tapedeck [-config FILE] [-debug] <command> [flags] args

commands:
  decode  [-format raw|text] [-ignore-checksums] [-schema NAME] [-highpass HZ] [-highpass-window W] IN.wav OUT
  encode  [-format raw|text] [-name NAME] [-rate HZ] [-bits N] [-schema NAME] IN... OUT.wav
  listen  [-device NAME|file] [-file PATH] [-format raw|text] [-save WAV] OUT
  analyze [-highpass HZ] [-highpass-window W] [-plot PNG] IN.wav
`)
	flag.PrintDefaults()
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	configFile := flag.String("config", "tapedeck.yaml", "YAML config file")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Usage = usage

	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	// the default config file is optional, an explicit one is not
	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	cfg, err := config.Load(*configFile, !explicit)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configFile).Msg("error reading config file")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	if *debug {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Logger.Level(level)

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "decode":
		err = runDecode(cfg, args)
	case "encode":
		err = runEncode(cfg, args)
	case "listen":
		err = runListen(cfg, args)
	case "analyze":
		err = runAnalyze(cfg, args)
	default:
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("exited program")
	}
}

// newDeck builds a deck from the config after flags have been applied to it.
func newDeck(cfg *config.Config) (*tapedeck.Deck, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	schema, err := container.ParseSchema(cfg.Decode.Schema)
	if err != nil {
		return nil, nil, err
	}
	window, err := fir.ParseWindowType(cfg.Decode.HighpassWindow)
	if err != nil {
		return nil, nil, err
	}

	opts := []tapedeck.DeckOption{tapedeck.WithLogger(log.Logger)}
	cleanup := func() {}
	if cfg.InfluxDB.Host != "" {
		client := influxdb2.NewClient(cfg.InfluxDB.Host, cfg.InfluxDB.Token)
		writeAPI := client.WriteAPI(cfg.InfluxDB.Organization, cfg.InfluxDB.Bucket)
		opts = append(opts, tapedeck.WithInfluxDB(writeAPI))
		cleanup = func() {
			writeAPI.Flush()
			client.Close()
		}
	}

	deck, err := tapedeck.NewDeck(tapedeck.Options{
		IgnoreChecksums: cfg.Decode.IgnoreChecksums,
		Schema:          schema,
		HighpassHz:      cfg.Decode.HighpassHz,
		HighpassWindow:  window,
		EncodeSpec: tape.Spec{
			SampleRate:    cfg.Encode.SampleRate,
			Channels:      1,
			BitsPerSample: cfg.Encode.BitsPerSample,
		},
		SilenceTimeout: cfg.Capture.SilenceTimeout,
		PreRoll:        cfg.Capture.PreRoll,
		BufferChunks:   cfg.Capture.BufferChunks,
	}, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return deck, cleanup, nil
}
