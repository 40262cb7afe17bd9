package modem

import (
	"github.com/norasector/tapedeck/pkg/tape"
	"github.com/norasector/tapedeck/pkg/tape/frame"
	"github.com/norasector/tapedeck/pkg/tape/pulse"
)

// Demodulate recovers one section per burst. The first pulse or framing
// error aborts the whole decode.
func Demodulate(samples []int32, spec tape.Spec) ([]frame.Section, error) {
	groups, err := pulse.Classify(samples, spec)
	if err != nil {
		return nil, err
	}
	return frame.Assemble(groups)
}
