package pulse

import (
	"fmt"

	"github.com/norasector/tapedeck/pkg/tape"
)

type Kind int

const (
	One Kind = iota
	Zero
	Start
	Gap
)

func (k Kind) String() string {
	switch k {
	case One:
		return "one"
	case Zero:
		return "zero"
	case Start:
		return "start"
	case Gap:
		return "gap"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Window is a half-open pulse length range in 1/44100 s units.
type Window struct {
	Low, High int64
}

var (
	OneWindow   = Window{15, 20}
	ZeroWindow  = Window{35, 39}
	StartWindow = Window{41, 46}
	// GapLength is exclusive: a gap must be strictly longer.
	GapLength int64 = 20000
)

// contains reports whether frames/sampleRate lies in the window, scaled from
// the calibration rate with exact integer arithmetic.
func (w Window) contains(frames int64, sampleRate int64) bool {
	scaled := frames * tape.CalibrationRate
	return scaled >= w.Low*sampleRate && scaled < w.High*sampleRate
}

// ClassifyInterval maps a crossing interval to a pulse kind. The boolean is false when
// the interval fits none of the windows.
func ClassifyInterval(frames int, sampleRate int) (Kind, bool) {
	f, sr := int64(frames), int64(sampleRate)
	switch {
	case OneWindow.contains(f, sr):
		return One, true
	case ZeroWindow.contains(f, sr):
		return Zero, true
	case StartWindow.contains(f, sr):
		return Start, true
	case f*tape.CalibrationRate > GapLength*sr:
		return Gap, true
	}
	return 0, false
}

// Nominal returns the pulse length in frames the encoder should aim for at the
// given sample rate; it sits inside the classification window.
func Nominal(k Kind, sampleRate int) int {
	var units int64
	switch k {
	case One:
		units = 17
	case Zero:
		units = 37
	case Start:
		units = 43
	default:
		return 0
	}
	// round half up
	return int((2*units*int64(sampleRate) + tape.CalibrationRate) / (2 * tape.CalibrationRate))
}
