package container

import (
	"github.com/norasector/tapedeck/pkg/tape"
)

// Header renders a text file header for the given schema. The name is padded
// with spaces.
func Header(name string, misc [miscLength]byte, schema Schema) ([]byte, error) {
	if len(name) > nameLength {
		return nil, ErrNameTooLong
	}

	ret := make([]byte, tape.HeaderLength)
	ret[0] = byte(Text)
	copy(ret[nameOffset:miscOffset], "      ")
	copy(ret[nameOffset:], name)
	copy(ret[miscOffset:headerChecksum], misc[:])

	if schema.checksummed() {
		ret[headerChecksum] = schema.checksum(ret[nameOffset:headerChecksum])
	} else {
		ret[legacyTextOffset] = legacyTextMarker
	}
	return ret, nil
}

// Records splits data into padded data records.
func Records(data []byte, schema Schema) [][]byte {
	var ret [][]byte
	for off := 0; off < len(data); off += tape.RecordPayload {
		end := off + tape.RecordPayload
		if end > len(data) {
			end = len(data)
		}

		rec := make([]byte, tape.RecordLength)
		rec[0] = tape.RecordMarker
		n := copy(rec[1:recordChecksum], data[off:end])
		for i := 1 + n; i < recordChecksum; i++ {
			rec[i] = tape.FillerByte
		}

		switch {
		case schema.checksummed():
			rec[recordChecksum] = schema.checksum(rec[1:recordChecksum])
		case end == len(data):
			rec[recordChecksum] = endFlagLast
		default:
			rec[recordChecksum] = endFlagMore
		}
		ret = append(ret, rec)
	}
	return ret
}

// BuildText lays out a complete text file ready for modulation.
func BuildText(name string, data []byte, misc [miscLength]byte, schema Schema) ([][]byte, error) {
	header, err := Header(name, misc, schema)
	if err != nil {
		return nil, err
	}
	return append([][]byte{header}, Records(data, schema)...), nil
}
