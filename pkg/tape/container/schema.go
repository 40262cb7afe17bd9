package container

import (
	"fmt"
	"strings"
)

// Schema selects one of the record layouts seen on real tapes. It is always
// configured, never guessed from the data.
type Schema string

const (
	// SchemaChecksum records end in a checksum that makes the relevant bytes sum to zero.
	SchemaChecksum Schema = "checksum"
	// SchemaChecksumFF records end in 0xFF minus the sum of the preceding bytes.
	SchemaChecksumFF Schema = "checksum-ff"
	// SchemaEOFFlag is the early layout: no checksums, a text marker in the
	// header and an end-of-file flag closing every data record.
	SchemaEOFFlag Schema = "eof-flag"
)

const (
	legacyTextMarker byte = 0x74
	legacyTextOffset      = 9

	endFlagMore byte = 0xD1
	endFlagLast byte = 0x38
)

var schemas = []Schema{SchemaChecksum, SchemaChecksumFF, SchemaEOFFlag}

// ParseSchema maps a configuration value to a Schema. Empty selects SchemaChecksum.
func ParseSchema(s string) (Schema, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SchemaChecksum, nil
	}
	for _, sc := range schemas {
		if string(sc) == s {
			return sc, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSchema, s)
}

func (s Schema) String() string {
	if s == "" {
		return string(SchemaChecksum)
	}
	return string(s)
}

func (s Schema) checksummed() bool {
	return s != SchemaEOFFlag
}

// validSum is what the checksum-relevant bytes of an intact record add up to.
func (s Schema) validSum() byte {
	if s == SchemaChecksumFF {
		return 0xFF
	}
	return 0x00
}

// checksum returns the byte that completes data to a valid record.
func (s Schema) checksum(data []byte) byte {
	return s.validSum() - sum(data)
}

func sum(data []byte) byte {
	var ret byte
	for _, b := range data {
		ret += b
	}
	return ret
}
