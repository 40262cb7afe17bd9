package file

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/norasector/tapedeck/pkg/tape"
	"github.com/norasector/tapedeck/pkg/tape/wavfile"
)

func writeTestFile(t *testing.T, samples []int32, spec tape.Spec) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.wav")
	if err := wavfile.WriteFile(path, samples, spec); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileDevice(t *testing.T) {
	spec := tape.Spec{SampleRate: 8000, Channels: 2, BitsPerSample: 16}
	samples := make([]int32, 2*250)
	for i := range samples {
		samples[i] = int32(i)
	}
	path := writeTestFile(t, samples, spec)

	dev, err := NewFileDevice(path, 100, time.Millisecond)
	if err != nil {
		t.Fatalf("NewFileDevice() error = %v", err)
	}
	if dev.Spec() != spec {
		t.Errorf("Spec() = %v, want %v", dev.Spec(), spec)
	}

	chunks := make(chan []int32, 10)
	if err := dev.Start(context.Background(), chunks); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	close(chunks)

	var got []int32
	var sizes []int
	for c := range chunks {
		got = append(got, c...)
		sizes = append(sizes, len(c))
	}
	if !reflect.DeepEqual(got, samples) {
		t.Errorf("replayed %d samples, want %d", len(got), len(samples))
	}
	if !reflect.DeepEqual(sizes, []int{200, 200, 100}) {
		t.Errorf("chunk sizes = %v", sizes)
	}
	if err := dev.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestFileDeviceCancel(t *testing.T) {
	spec := tape.Spec{SampleRate: 8000, Channels: 1, BitsPerSample: 16}
	path := writeTestFile(t, make([]int32, 1000), spec)

	dev, err := NewFileDevice(path, 10, 0)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := dev.Start(ctx, make(chan []int32)); !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
}

func TestFileDeviceMissing(t *testing.T) {
	if _, err := NewFileDevice(filepath.Join(t.TempDir(), "nope.wav"), 10, 0); err == nil {
		t.Error("NewFileDevice() expected error for missing file")
	}
}
