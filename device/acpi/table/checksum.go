package table

// ChecksumMode selects how the bytes of a table are folded into the 8-bit
// value that must be zero for the table to be considered intact.
type ChecksumMode uint8

const (
	// ChecksumXOR folds the table bytes with XOR. This is the default
	// mode used by the boot-time locators.
	ChecksumXOR ChecksumMode = iota

	// ChecksumSum folds the table bytes with 8-bit (wrapping) addition,
	// which is the convention documented by the ACPI specification.
	ChecksumSum
)

// String implements fmt.Stringer for ChecksumMode.
func (m ChecksumMode) String() string {
	switch m {
	case ChecksumSum:
		return "sum"
	default:
		return "xor"
	}
}

// ParseChecksumMode maps "xor" and "sum" to the matching ChecksumMode.
func ParseChecksumMode(name string) (ChecksumMode, bool) {
	switch name {
	case "xor":
		return ChecksumXOR, true
	case "sum":
		return ChecksumSum, true
	default:
		return ChecksumXOR, false
	}
}

// Fold combines all bytes of b according to the mode.
func (m ChecksumMode) Fold(b []byte) uint8 {
	var fold uint8
	for _, v := range b {
		fold = m.combine(fold, v)
	}
	return fold
}

// Verify returns true if the fold of b equals zero.
func (m ChecksumMode) Verify(b []byte) bool {
	return m.Fold(b) == 0
}

// Create returns 0xFF minus the fold of b. If the checksum byte of b is zero
// when Create is called, storing the result into that byte yields a fold of
// exactly 0xFF in both modes; Create therefore does not produce a value that
// passes Verify. Use Balance for that.
func (m ChecksumMode) Create(b []byte) uint8 {
	return 0xFF - m.Fold(b)
}

// Balance returns the value that, when stored at b[at], makes Verify(b)
// return true. The current contents of b[at] are ignored.
func (m ChecksumMode) Balance(b []byte, at int) uint8 {
	var fold uint8
	for i, v := range b {
		if i != at {
			fold = m.combine(fold, v)
		}
	}

	if m == ChecksumSum {
		return -fold
	}
	return fold
}

func (m ChecksumMode) combine(fold, v uint8) uint8 {
	if m == ChecksumSum {
		return fold + v
	}
	return fold ^ v
}
