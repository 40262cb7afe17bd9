// Package capture turns a live stream of sample chunks into one finished
// recording: it waits for signal, keeps a short pre-roll and stops once the
// input has been quiet long enough.
package capture

import (
	"context"
	"errors"
	"time"

	"github.com/norasector/tapedeck/pkg/tape"
	"github.com/rs/zerolog"
)

var ErrNoSignal = errors.New("input ended before any signal was detected")

type Recorder struct {
	spec           tape.Spec
	threshold      int32
	silenceTimeout time.Duration
	preRoll        time.Duration
	logger         zerolog.Logger
}

type RecorderOption func(*Recorder)

func WithLogger(logger zerolog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func WithSilenceTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.silenceTimeout = d
	}
}

func WithPreRoll(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.preRoll = d
	}
}

func NewRecorder(spec tape.Spec, opts ...RecorderOption) (*Recorder, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	r := &Recorder{
		spec:           spec,
		threshold:      spec.Threshold(),
		silenceTimeout: tape.CaptureSilence,
		preRoll:        tape.CapturePreRoll,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Recorder) loud(frame []int32) bool {
	for _, v := range frame {
		if v > r.threshold || v < -r.threshold {
			return true
		}
	}
	return false
}

// Record consumes chunks until the signal has been followed by the silence
// timeout, or chunks is closed after signal was seen. Silence is measured in
// frames so a slow producer cannot cut a recording short.
func (r *Recorder) Record(ctx context.Context, chunks <-chan []int32) ([]int32, error) {
	ch := r.spec.Channels
	preRoll := r.spec.Frames(r.preRoll) * ch
	if preRoll < 0 {
		preRoll = 0
	}
	silence := r.spec.Frames(r.silenceTimeout)

	var (
		out     []int32
		started bool
		quiet   int
		frames  int
	)

	for {
		var chunk []int32
		var ok bool
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case chunk, ok = <-chunks:
		}
		if !ok {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !started {
				return nil, ErrNoSignal
			}
			r.logger.Info().Int("frames", len(out)/ch).Msg("input closed, recording finished")
			return out, nil
		}

		for i := 0; i+ch <= len(chunk); i += ch {
			frames++
			if !started {
				if !r.loud(chunk[i : i+ch]) {
					continue
				}
				started = true
				out = append(out, chunk[:i]...)
				if len(out) > preRoll {
					out = out[len(out)-preRoll:]
				}
				r.logger.Debug().Int("frame", frames-1).Msg("signal detected")
			}

			if r.loud(chunk[i : i+ch]) {
				quiet = 0
			} else {
				quiet++
			}
			out = append(out, chunk[i:i+ch]...)

			if quiet >= silence {
				r.logger.Info().
					Int("frames", len(out)/ch).
					Dur("silence", r.silenceTimeout).
					Msg("silence detected, recording finished")
				return out, nil
			}
		}

		if !started {
			out = append(out, chunk...)
			if len(out) > preRoll {
				out = append(out[:0], out[len(out)-preRoll:]...)
			}
		}
	}
}
