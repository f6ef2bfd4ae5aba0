package mem

// Scan looks for pattern inside the address range [start, end), checking
// only candidate addresses start, start+step, start+2*step and so on. It
// returns the lowest candidate address at which every byte of pattern
// matches. The comparison stops at the first mismatching byte of each
// candidate.
//
// Scan returns false when start > end, when step is zero, when pattern is
// empty or longer than the range, or when no candidate matches.
func Scan(start, end uintptr, pattern []byte, step uintptr) (uintptr, bool) {
	patLen := uintptr(len(pattern))
	if start > end || step == 0 || patLen == 0 || end-start < patLen {
		return 0, false
	}

	// A candidate must leave room for the whole pattern before end.
	lastCandidate := end - patLen

nextCandidate:
	for cur := start; ; cur += step {
		for i := uintptr(0); i < patLen; i++ {
			if *ViewAs[byte](cur + i) != pattern[i] {
				if lastCandidate-cur < step {
					break nextCandidate
				}
				continue nextCandidate
			}
		}

		return cur, true
	}

	return 0, false
}
