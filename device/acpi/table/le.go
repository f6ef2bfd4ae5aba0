package table

// Uint16LE is a little-endian 16-bit field stored as raw bytes. ACPI places
// several multi-byte fields at offsets that are not aligned to their width;
// declaring them as byte arrays keeps the Go compiler from inserting padding
// in front of them.
type Uint16LE [2]byte

// Get returns the field value.
func (v *Uint16LE) Get() uint16 {
	return uint16(v[0]) | uint16(v[1])<<8
}

// Set updates the field value.
func (v *Uint16LE) Set(val uint16) {
	v[0], v[1] = byte(val), byte(val>>8)
}

// Uint64LE is a little-endian 64-bit field stored as raw bytes. See Uint16LE.
type Uint64LE [8]byte

// Get returns the field value.
func (v *Uint64LE) Get() uint64 {
	var val uint64
	for i := len(v) - 1; i >= 0; i-- {
		val = val<<8 | uint64(v[i])
	}
	return val
}

// Set updates the field value.
func (v *Uint64LE) Set(val uint64) {
	for i := range v {
		v[i] = byte(val >> (8 * uint(i)))
	}
}
