// Package container interprets decoded sections as a named file: one header
// record followed by fixed-size data records.
package container

import (
	"bytes"

	"github.com/norasector/tapedeck/pkg/tape"
	"github.com/norasector/tapedeck/pkg/tape/frame"
)

type FileType byte

const (
	Text     FileType = 0x9C
	Compiled FileType = 0xD0
	Basic    FileType = 0xD3
)

func (f FileType) String() string {
	switch f {
	case Text:
		return "text"
	case Compiled:
		return "compiled"
	case Basic:
		return "basic"
	}
	return "unknown"
}

func ParseFileType(b byte) (FileType, error) {
	switch ft := FileType(b); ft {
	case Text, Compiled, Basic:
		return ft, nil
	}
	return 0, &InvalidFileTypeError{Got: b}
}

// header layout
const (
	nameOffset     = 1
	nameLength     = 6
	miscOffset     = nameOffset + nameLength
	miscLength     = 10
	headerChecksum = miscOffset + miscLength

	recordChecksum = 1 + tape.RecordPayload
)

type ParseOptions struct {
	// IgnoreChecksums accepts records whose checksum does not add up.
	// Length, type and marker errors stay fatal.
	IgnoreChecksums bool
	Schema          Schema
}

type File struct {
	Name string
	Type FileType
	Misc [miscLength]byte
	Data []byte
	// ChecksumFailures lists records (0 is the header) accepted only
	// because checksums were ignored.
	ChecksumFailures []int
}

// Raw returns the bytes of every section unchanged, in order.
func Raw(sections []frame.Section) [][]byte {
	ret := make([][]byte, len(sections))
	for i, s := range sections {
		ret[i] = s.Bytes()
	}
	return ret
}

// Parse reads buffers[0] as the header and the rest as data records.
func Parse(buffers [][]byte, opts ParseOptions) (*File, error) {
	if len(buffers) == 0 {
		return nil, &InvalidBufferLengthError{Record: 0, Want: tape.HeaderLength, Got: 0}
	}

	f := &File{}
	if err := f.parseHeader(buffers[0], opts); err != nil {
		return nil, err
	}

	for i := 1; i < len(buffers); i++ {
		last, err := f.parseRecord(i, buffers[i], opts)
		if err != nil {
			return nil, err
		}
		if last {
			break
		}
	}
	return f, nil
}

func (f *File) parseHeader(b []byte, opts ParseOptions) error {
	if len(b) != tape.HeaderLength {
		return &InvalidBufferLengthError{Record: 0, Want: tape.HeaderLength, Got: len(b)}
	}

	ft, err := ParseFileType(b[0])
	if err != nil {
		return err
	}
	if ft != Text {
		return &InvalidFileTypeError{Got: b[0]}
	}

	if opts.Schema.checksummed() {
		if err := f.verify(0, b[nameOffset:headerChecksum+1], opts); err != nil {
			return err
		}
	} else if b[legacyTextOffset] != legacyTextMarker {
		return &InvalidFileTypeError{Got: b[legacyTextOffset]}
	}

	name := b[nameOffset:miscOffset]
	if i := bytes.IndexByte(name, ' '); i >= 0 {
		name = name[:i]
	}
	f.Name = string(name)
	f.Type = ft
	copy(f.Misc[:], b[miscOffset:headerChecksum])
	return nil
}

// parseRecord appends the payload of record i and reports whether the record
// closes the file.
func (f *File) parseRecord(i int, b []byte, opts ParseOptions) (bool, error) {
	if len(b) != tape.RecordLength {
		return false, &InvalidBufferLengthError{Record: i, Want: tape.RecordLength, Got: len(b)}
	}
	if b[0] != tape.RecordMarker {
		return false, &MissingStartByteError{Record: i, Want: tape.RecordMarker, Got: b[0]}
	}

	last := false
	if opts.Schema.checksummed() {
		if err := f.verify(i, b[1:recordChecksum+1], opts); err != nil {
			return false, err
		}
	} else {
		switch b[recordChecksum] {
		case endFlagMore:
		case endFlagLast:
			last = true
		default:
			return false, &InvalidEndFlagError{Record: i, Got: b[recordChecksum]}
		}
	}

	f.Data = append(f.Data, trimFiller(b[1:recordChecksum])...)
	return last, nil
}

func (f *File) verify(record int, relevant []byte, opts ParseOptions) error {
	s := sum(relevant)
	if s == opts.Schema.validSum() {
		return nil
	}
	if !opts.IgnoreChecksums {
		return &InvalidChecksumError{Record: record, Sum: s}
	}
	f.ChecksumFailures = append(f.ChecksumFailures, record)
	return nil
}

// trimFiller cuts trailing filler. A window of nothing but filler is empty.
func trimFiller(payload []byte) []byte {
	end := len(payload)
	for end > 0 && payload[end-1] == tape.FillerByte {
		end--
	}
	return payload[:end]
}
