package file

import (
	"context"
	"time"

	"github.com/norasector/tapedeck/pkg/tape"
	"github.com/norasector/tapedeck/pkg/tape/wavfile"
)

// FileDevice replays a WAV recording as if it came from a sound card.
type FileDevice struct {
	samples     []int32
	spec        tape.Spec
	chunkFrames int
	timeBetween time.Duration
}

// NewFileDevice loads path up front. A zero timeBetween replays as fast as
// the consumer reads.
func NewFileDevice(path string, chunkFrames int, timeBetween time.Duration) (*FileDevice, error) {
	samples, spec, err := wavfile.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if chunkFrames <= 0 {
		chunkFrames = 1024
	}

	return &FileDevice{
		samples:     samples,
		spec:        spec,
		chunkFrames: chunkFrames,
		timeBetween: timeBetween,
	}, nil
}

func (f *FileDevice) Start(ctx context.Context, chunks chan<- []int32) error {
	var tick <-chan time.Time
	if f.timeBetween > 0 {
		t := time.NewTicker(f.timeBetween)
		defer t.Stop()
		tick = t.C
	}

	step := f.chunkFrames * f.spec.Channels
	for off := 0; off < len(f.samples); off += step {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}

		end := off + step
		if end > len(f.samples) {
			end = len(f.samples)
		}
		chunk := make([]int32, end-off)
		copy(chunk, f.samples[off:end])

		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunks <- chunk:
		}
	}
	return nil
}

func (f *FileDevice) Stop() error {
	f.samples = nil
	return nil
}

func (f *FileDevice) Spec() tape.Spec {
	return f.spec
}
