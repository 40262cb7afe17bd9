package frame

import (
	"errors"
	"fmt"

	"github.com/norasector/tapedeck/pkg/tape/pulse"
)

var (
	ErrInvalidStartPulse     = errors.New("start pulse off byte boundary")
	ErrStartSequenceNotFound = errors.New("start sequence not found")
	ErrUnexpectedGap         = errors.New("gap inside burst")
)

// Assembler takes classified pulses of one burst and assembles them into a section.
type Assembler interface {
	// Receive may be called repeatedly with consecutive runs of pulses.
	Receive([]pulse.Kind) error
	// Finish returns the section collected since lock.
	Finish() (Section, error)
}

// FramingError locates a framing failure inside the decoded stream.
type FramingError struct {
	Group int
	Pulse int
	Bit   int
	Err   error
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("group %d, pulse %d, bit %d: %v", e.Group, e.Pulse, e.Bit, e.Err)
}

func (e *FramingError) Unwrap() error {
	return e.Err
}

// Assemble frames every pulse group into a section, preserving order. The
// first group that fails to frame aborts the whole call.
func Assemble(groups [][]pulse.Kind) ([]Section, error) {
	sections := make([]Section, 0, len(groups))
	for i, group := range groups {
		a := NewSyncAssembler(i)
		if err := a.Receive(group); err != nil {
			return nil, err
		}
		sec, err := a.Finish()
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, nil
}
