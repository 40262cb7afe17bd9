package frame

import (
	"github.com/norasector/tapedeck/pkg/tape"
	"github.com/norasector/tapedeck/pkg/tape/pulse"
)

type State int

const (
	Seeking State = iota
	Locked
)

func (s State) String() string {
	if s == Locked {
		return "locked"
	}
	return "seeking"
}

// SyncAssembler shifts bits through an 8-bit register while Seeking and
// locks the moment the register holds the sync marker. Everything before the
// lock is preamble and is thrown away.
type SyncAssembler struct {
	group   int
	state   State
	syncReg byte
	seen    int
	pulses  int
	data    []byte
	bitLen  int
}

func NewSyncAssembler(group int) *SyncAssembler {
	return &SyncAssembler{group: group}
}

func (s *SyncAssembler) State() State {
	return s.state
}

func (s *SyncAssembler) fail(err error) error {
	return &FramingError{
		Group: s.group,
		Pulse: s.pulses,
		Bit:   s.bitLen,
		Err:   err,
	}
}

func (s *SyncAssembler) seek(bit byte) {
	s.syncReg = (s.syncReg << 1) | bit
	if s.seen < 8 {
		s.seen++
	}
	if s.seen == 8 && s.syncReg == tape.SyncMarker {
		s.state = Locked
	}
}

func (s *SyncAssembler) push(bit byte) {
	if s.bitLen%8 == 0 {
		s.data = append(s.data, 0)
	}
	if bit == 1 {
		s.data[len(s.data)-1] |= 0x80 >> (s.bitLen % 8)
	}
	s.bitLen++
}

func (s *SyncAssembler) receivePulse(k pulse.Kind) error {
	var bit byte
	switch k {
	case pulse.One:
		bit = 1
	case pulse.Zero:
	case pulse.Start:
		if s.state == Locked {
			if s.bitLen%8 != 0 {
				return s.fail(ErrInvalidStartPulse)
			}
			return nil
		}
	default:
		return s.fail(ErrUnexpectedGap)
	}

	if s.state == Seeking {
		s.seek(bit)
		return nil
	}
	s.push(bit)
	return nil
}

func (s *SyncAssembler) Receive(kinds []pulse.Kind) error {
	for _, k := range kinds {
		if err := s.receivePulse(k); err != nil {
			return err
		}
		s.pulses++
	}
	return nil
}

func (s *SyncAssembler) Finish() (Section, error) {
	if s.state != Locked {
		return Section{}, s.fail(ErrStartSequenceNotFound)
	}
	return Section{data: s.data, bitLen: s.bitLen}, nil
}
