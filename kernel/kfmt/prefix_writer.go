package kfmt

import "io"

// PrefixWriter is an io.Writer that injects Prefix at the beginning of every
// line written to Sink. The HAL uses it to tag driver output with the name
// of the driver that produced it.
type PrefixWriter struct {
	// Sink receives the prefixed output. A nil Sink sends the output to
	// the early buffer that SetOutputSink replays.
	Sink io.Writer

	// Prefix is written before the first byte of each line.
	Prefix []byte

	// midLine is set when the last write did not end with a line feed.
	midLine bool
}

// Write writes p to the sink, adding the prefix in front of each new line.
// The returned count does not include the injected prefixes.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written, lineStart int

	sink := w.Sink
	if sink == nil {
		sink = &earlyBuffer
	}

	for i := 0; i < len(p); i++ {
		if p[i] != '\n' && i != len(p)-1 {
			continue
		}

		if !w.midLine {
			sink.Write(w.Prefix)
		}

		n, err := sink.Write(p[lineStart : i+1])
		written += n
		if err != nil {
			return written, err
		}

		w.midLine = p[i] != '\n'
		lineStart = i + 1
	}

	return written, nil
}
