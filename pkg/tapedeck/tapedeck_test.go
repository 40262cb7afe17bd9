package tapedeck

import (
	"bytes"
	"context"
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/norasector/tapedeck/pkg/dsp/filters/fir"
	"github.com/norasector/tapedeck/pkg/tape"
	"github.com/norasector/tapedeck/pkg/tape/container"
	"github.com/norasector/tapedeck/pkg/tape/pulse"
	"github.com/norasector/tapedeck/pkg/tape/wavfile"
	"github.com/norasector/tapedeck/pkg/tapedeck/capture"
	"github.com/norasector/tapedeck/pkg/tapedeck/device/file"
	"github.com/norasector/tapedeck/pkg/util"
	"github.com/rs/zerolog"
)

func newTestDeck(t *testing.T, options Options) (*Deck, *util.MockWriteAPI) {
	t.Helper()
	m := &util.MockWriteAPI{}
	d, err := NewDeck(options, WithInfluxDB(m), WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("NewDeck() error = %v", err)
	}
	return d, m
}

func TestRawRoundTrip(t *testing.T) {
	d, m := newTestDeck(t, Options{})
	payloads := [][]byte{[]byte("HI"), []byte("second burst")}

	samples, spec, err := d.EncodeRaw(payloads)
	if err != nil {
		t.Fatalf("EncodeRaw() error = %v", err)
	}
	want := tape.Spec{SampleRate: 44100, Channels: 1, BitsPerSample: 16}
	if spec != want {
		t.Errorf("spec = %v, want %v", spec, want)
	}

	got, err := d.DecodeRaw(samples, spec)
	if err != nil {
		t.Fatalf("DecodeRaw() error = %v", err)
	}
	if !reflect.DeepEqual(got, payloads) {
		t.Errorf("DecodeRaw() = %q, want %q", got, payloads)
	}

	points := m.Points()
	if len(points) != 2 || points[0].Name() != "tape.encode" || points[1].Name() != "tape.decode" {
		t.Errorf("unexpected metrics points: %d", len(points))
	}
}

func TestTextRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("10 PRINT \"HELLO\"\n20 GOTO 10\n"), 30)
	for _, schema := range []container.Schema{container.SchemaChecksum, container.SchemaChecksumFF, container.SchemaEOFFlag} {
		t.Run(schema.String(), func(t *testing.T) {
			d, _ := newTestDeck(t, Options{
				Schema:     schema,
				EncodeSpec: tape.Spec{SampleRate: 48000, BitsPerSample: 16},
			})

			samples, spec, err := d.EncodeText("HELLO", data)
			if err != nil {
				t.Fatalf("EncodeText() error = %v", err)
			}
			f, err := d.DecodeText(samples, spec)
			if err != nil {
				t.Fatalf("DecodeText() error = %v", err)
			}
			if f.Name != "HELLO" || f.Type != container.Text || !bytes.Equal(f.Data, data) {
				t.Errorf("DecodeText() = %q %v %d bytes", f.Name, f.Type, len(f.Data))
			}
		})
	}
}

func TestDecodeTextChecksums(t *testing.T) {
	buffers, err := container.BuildText("SUM", []byte("payload"), [10]byte{}, container.SchemaChecksum)
	if err != nil {
		t.Fatal(err)
	}
	// flip the checksum byte, the bytes after it are not covered
	buffers[1][1+tape.RecordPayload] ^= 0xFF

	strict, _ := newTestDeck(t, Options{})
	samples, spec, err := strict.EncodeRaw(buffers)
	if err != nil {
		t.Fatal(err)
	}

	_, err = strict.DecodeText(samples, spec)
	var ce *container.InvalidChecksumError
	if !errors.As(err, &ce) || ce.Record != 1 {
		t.Errorf("DecodeText() error = %v, want checksum error on record 1", err)
	}

	lenient, m := newTestDeck(t, Options{IgnoreChecksums: true})
	f, err := lenient.DecodeText(samples, spec)
	if err != nil {
		t.Fatalf("DecodeText(ignore) error = %v", err)
	}
	if string(f.Data) != "payload" || !reflect.DeepEqual(f.ChecksumFailures, []int{1}) {
		t.Errorf("DecodeText(ignore) = %q failures %v", f.Data, f.ChecksumFailures)
	}
	if len(m.Points()) != 1 {
		t.Errorf("expected one decode point")
	}
}

func TestDecodeNoSignal(t *testing.T) {
	d, _ := newTestDeck(t, Options{})
	spec := tape.Spec{SampleRate: 44100, Channels: 1, BitsPerSample: 16}

	got, err := d.DecodeRaw(make([]int32, 1000), spec)
	if err != nil || len(got) != 0 {
		t.Errorf("DecodeRaw(silence) = %v, %v", got, err)
	}
	if _, err := d.DecodeText(make([]int32, 1000), spec); !errors.Is(err, container.ErrInvalidBufferLength) {
		t.Errorf("DecodeText(silence) error = %v, want ErrInvalidBufferLength", err)
	}
}

func TestEncodeTextNameTooLong(t *testing.T) {
	d, _ := newTestDeck(t, Options{})
	if _, _, err := d.EncodeText("TOOLONG", nil); !errors.Is(err, container.ErrNameTooLong) {
		t.Errorf("EncodeText() error = %v, want ErrNameTooLong", err)
	}
}

func TestListenFileDevice(t *testing.T) {
	d, _ := newTestDeck(t, Options{})
	samples, spec, err := d.EncodeRaw([][]byte{[]byte("HI")})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "hi.wav")
	if err := wavfile.WriteFile(path, samples, spec); err != nil {
		t.Fatal(err)
	}

	dev, err := file.NewFileDevice(path, 512, 0)
	if err != nil {
		t.Fatal(err)
	}
	recorded, recSpec, err := d.Listen(context.Background(), dev)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	got, err := d.DecodeRaw(recorded, recSpec)
	if err != nil {
		t.Fatalf("DecodeRaw() error = %v", err)
	}
	if len(got) != 1 || string(got[0]) != "HI" {
		t.Errorf("DecodeRaw() = %q, want [\"HI\"]", got)
	}
}

// fakeDevice sends its chunks and then idles until cancelled.
type fakeDevice struct {
	spec     tape.Spec
	chunks   [][]int32
	startErr error
	stopped  bool
}

func (f *fakeDevice) Start(ctx context.Context, chunks chan<- []int32) error {
	if f.startErr != nil {
		return f.startErr
	}
	for _, c := range f.chunks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunks <- c:
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeDevice) Stop() error {
	f.stopped = true
	return nil
}

func (f *fakeDevice) Spec() tape.Spec { return f.spec }

func TestListenSilenceStops(t *testing.T) {
	d, _ := newTestDeck(t, Options{SilenceTimeout: 500 * time.Millisecond})
	samples, spec, err := d.EncodeRaw([][]byte{[]byte("live")})
	if err != nil {
		t.Fatal(err)
	}

	input := append(make([]int32, 10000), samples...)
	input = append(input, make([]int32, spec.SampleRate)...)
	dev := &fakeDevice{spec: spec}
	for off := 0; off < len(input); off += 4096 {
		end := off + 4096
		if end > len(input) {
			end = len(input)
		}
		dev.chunks = append(dev.chunks, input[off:end])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	recorded, _, err := d.Listen(ctx, dev)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if !dev.stopped {
		t.Errorf("device not stopped")
	}

	got, err := d.DecodeRaw(recorded, spec)
	if err != nil {
		t.Fatalf("DecodeRaw() error = %v", err)
	}
	if len(got) != 1 || string(got[0]) != "live" {
		t.Errorf("DecodeRaw() = %q", got)
	}
}

func TestListenErrors(t *testing.T) {
	d, _ := newTestDeck(t, Options{})
	spec := tape.Spec{SampleRate: 8000, Channels: 1, BitsPerSample: 16}

	boom := errors.New("device unplugged")
	if _, _, err := d.Listen(context.Background(), &fakeDevice{spec: spec, startErr: boom}); !errors.Is(err, boom) {
		t.Errorf("Listen() error = %v, want %v", err, boom)
	}

	path := filepath.Join(t.TempDir(), "quiet.wav")
	if err := wavfile.WriteFile(path, make([]int32, 8000), spec); err != nil {
		t.Fatal(err)
	}
	dev, err := file.NewFileDevice(path, 512, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := d.Listen(context.Background(), dev); !errors.Is(err, capture.ErrNoSignal) {
		t.Errorf("Listen() error = %v, want ErrNoSignal", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := d.Listen(ctx, &fakeDevice{spec: spec}); !errors.Is(err, context.Canceled) {
		t.Errorf("Listen() error = %v, want context.Canceled", err)
	}
}

func TestAnalyze(t *testing.T) {
	d, _ := newTestDeck(t, Options{})
	samples, spec, err := d.EncodeRaw([][]byte{{0xAA}})
	if err != nil {
		t.Fatal(err)
	}
	report, err := d.Analyze(samples, spec)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Unclassified != 0 || report.Intervals == 0 {
		t.Errorf("Analyze() = %+v", report)
	}
}

func TestDecodeHighpassRejectsHum(t *testing.T) {
	plain, _ := newTestDeck(t, Options{})
	samples, spec, err := plain.EncodeRaw([][]byte{[]byte("HI")})
	if err != nil {
		t.Fatal(err)
	}

	padded := append(make([]int32, 10000), samples...)
	padded = append(padded, make([]int32, 10000)...)
	for i := range padded {
		padded[i] += int32(math.Round(8000 * math.Sin(2*math.Pi*50*float64(i)/float64(spec.SampleRate))))
	}

	var pe *pulse.InvalidPulseLengthError
	if _, err := plain.DecodeRaw(padded, spec); !errors.As(err, &pe) {
		t.Fatalf("DecodeRaw(no filter) error = %v, want InvalidPulseLengthError", err)
	}

	for _, w := range []fir.WindowType{fir.Hamming, fir.Hann, fir.Blackman} {
		t.Run(w.String(), func(t *testing.T) {
			filtered, m := newTestDeck(t, Options{HighpassHz: 400, HighpassWindow: w})
			got, err := filtered.DecodeRaw(padded, spec)
			if err != nil {
				t.Fatalf("DecodeRaw(highpass) error = %v", err)
			}
			if len(got) != 1 || string(got[0]) != "HI" {
				t.Errorf("DecodeRaw(highpass) = %q, want [\"HI\"]", got)
			}
			if len(m.Points()) != 1 {
				t.Errorf("points = %d, want 1", len(m.Points()))
			}

			report, err := filtered.Analyze(padded, spec)
			if err != nil {
				t.Fatalf("Analyze(highpass) error = %v", err)
			}
			if report.Unclassified != 0 {
				t.Errorf("Analyze(highpass) unclassified = %d", report.Unclassified)
			}
		})
	}
}

func TestHighpassOptions(t *testing.T) {
	if _, err := NewDeck(Options{HighpassHz: -1}); err == nil {
		t.Errorf("NewDeck(negative cutoff) error = nil")
	}
	if _, err := NewDeck(Options{HighpassWindow: fir.WindowType(7)}); err == nil {
		t.Errorf("NewDeck(unknown window) error = nil")
	}

	d, _ := newTestDeck(t, Options{HighpassHz: 5000})
	spec := tape.Spec{SampleRate: 8000, Channels: 1, BitsPerSample: 16}
	if _, err := d.DecodeRaw(make([]int32, 100), spec); err == nil {
		t.Errorf("DecodeRaw(cutoff above nyquist) error = nil")
	}
}
