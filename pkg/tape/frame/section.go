package frame

// Section is the bit buffer collected from one burst after the sync marker,
// packed MSB first. A trailing partial byte is zero padded.
type Section struct {
	data   []byte
	bitLen int
}

// NewSection wraps whole bytes; mostly useful to tests and the raw encoder.
func NewSection(b []byte) Section {
	data := make([]byte, len(b))
	copy(data, b)
	return Section{data: data, bitLen: len(b) * 8}
}

// Bytes returns a copy of the packed data.
func (s Section) Bytes() []byte {
	ret := make([]byte, len(s.data))
	copy(ret, s.data)
	return ret
}

func (s Section) BitLen() int {
	return s.bitLen
}

func (s Section) Len() int {
	return len(s.data)
}

// Aligned reports whether the section holds a whole number of bytes.
func (s Section) Aligned() bool {
	return s.bitLen%8 == 0
}
