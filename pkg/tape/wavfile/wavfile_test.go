package wavfile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/norasector/tapedeck/pkg/tape"
)

func TestWriteRead(t *testing.T) {
	tests := []struct {
		name    string
		spec    tape.Spec
		samples []int32
	}{
		{"mono 16", tape.Spec{SampleRate: 44100, Channels: 1, BitsPerSample: 16}, []int32{0, 32767, -32767, 1, -1, 100}},
		{"stereo 16", tape.Spec{SampleRate: 48000, Channels: 2, BitsPerSample: 16}, []int32{0, 0, 1000, -1000, -5, 5}},
		{"mono 8", tape.Spec{SampleRate: 22050, Channels: 1, BitsPerSample: 8}, []int32{0, 127, -128, -1, 1}},
		{"mono 24", tape.Spec{SampleRate: 96000, Channels: 1, BitsPerSample: 24}, []int32{0, 8388607, -8388607, 42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.wav")
			if err := WriteFile(path, tt.samples, tt.spec); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			got, spec, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if spec != tt.spec {
				t.Errorf("spec = %v, want %v", spec, tt.spec)
			}
			if !reflect.DeepEqual(got, tt.samples) {
				t.Errorf("samples = %v, want %v", got, tt.samples)
			}
		})
	}
}

func TestReadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("definitely not a RIFF file, just some text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadFile(path); !errors.Is(err, ErrInvalidFile) {
		t.Errorf("ReadFile() error = %v, want ErrInvalidFile", err)
	}
}

func TestWriteInvalidSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	if err := WriteFile(path, []int32{1}, tape.Spec{SampleRate: 44100}); !errors.Is(err, tape.ErrInvalidSpec) {
		t.Errorf("WriteFile() error = %v, want ErrInvalidSpec", err)
	}
}
