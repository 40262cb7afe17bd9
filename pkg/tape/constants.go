package tape

import "time"

const (
	// SyncMarker is the byte that locks byte alignment at the start of every section.
	SyncMarker byte = 0x7F
	// PreambleByte is repeated PreambleLength times ahead of the marker.
	PreambleByte   byte = 0x55
	PreambleLength      = 255

	HeaderLength       = 38
	RecordLength       = 278
	RecordMarker  byte = 0x8D
	RecordPayload      = 256
	FillerByte    byte = 0x1A

	ZeroToneHz = 1320.0
	OneToneHz  = 2680.0

	// CalibrationRate is the sample rate the pulse windows are expressed in.
	CalibrationRate = 44100

	CrossThresholdRatio = 0.10
)

const (
	BurstSilence   = 750 * time.Millisecond
	CaptureSilence = 3 * time.Second
	CapturePreRoll = time.Second
)

// Preamble returns the fixed lead-in written before every burst.
func Preamble() []byte {
	ret := make([]byte, PreambleLength+1)
	for i := 0; i < PreambleLength; i++ {
		ret[i] = PreambleByte
	}
	ret[PreambleLength] = SyncMarker
	return ret
}
