package container

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBufferLength = errors.New("invalid buffer length")
	ErrInvalidChecksum     = errors.New("invalid checksum")
	ErrInvalidFileType     = errors.New("invalid file type")
	ErrMissingStartByte    = errors.New("missing start byte")
	ErrInvalidEndFlag      = errors.New("invalid end flag")
	ErrUnknownSchema       = errors.New("unknown container schema")
	ErrNameTooLong         = errors.New("file name longer than 6 bytes")
)

// InvalidBufferLengthError reports a record of the wrong size. Record 0 is the header.
type InvalidBufferLengthError struct {
	Record int
	Want   int
	Got    int
}

func (e *InvalidBufferLengthError) Error() string {
	return fmt.Sprintf("record %d: expected %d bytes got %d", e.Record, e.Want, e.Got)
}

func (e *InvalidBufferLengthError) Unwrap() error { return ErrInvalidBufferLength }

// InvalidChecksumError carries the sum of the checksum-relevant bytes.
type InvalidChecksumError struct {
	Record int
	Sum    byte
}

func (e *InvalidChecksumError) Error() string {
	return fmt.Sprintf("record %d: invalid checksum (sum 0x%02X)", e.Record, e.Sum)
}

func (e *InvalidChecksumError) Unwrap() error { return ErrInvalidChecksum }

type InvalidFileTypeError struct {
	Got byte
}

func (e *InvalidFileTypeError) Error() string {
	return fmt.Sprintf("invalid file type 0x%02X", e.Got)
}

func (e *InvalidFileTypeError) Unwrap() error { return ErrInvalidFileType }

type MissingStartByteError struct {
	Record int
	Want   byte
	Got    byte
}

func (e *MissingStartByteError) Error() string {
	return fmt.Sprintf("record %d: expected start byte 0x%02X got 0x%02X", e.Record, e.Want, e.Got)
}

func (e *MissingStartByteError) Unwrap() error { return ErrMissingStartByte }

type InvalidEndFlagError struct {
	Record int
	Got    byte
}

func (e *InvalidEndFlagError) Error() string {
	return fmt.Sprintf("record %d: invalid end flag 0x%02X", e.Record, e.Got)
}

func (e *InvalidEndFlagError) Unwrap() error { return ErrInvalidEndFlag }
