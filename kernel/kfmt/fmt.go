// Package kfmt provides formatted output that is safe to use before the Go
// allocator is ready. Output produced before an output sink is registered is
// kept in a ring buffer and replayed once SetOutputSink is called.
package kfmt

import (
	"io"
	"unsafe"
)

// maxNumLen is the size of the scratch buffer used for formatting integers.
const maxNumLen = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")
	digits          = []byte("0123456789abcdef")

	// numBuf and oneByte are shared scratch buffers. Output is produced by
	// a single CPU before the scheduler exists so no locking is needed.
	numBuf  [maxNumLen]byte
	oneByte = []byte(" ")

	// earlyBuffer captures output until an output sink becomes available.
	earlyBuffer ringBuffer

	// outputSink receives the output of Printf. A nil sink redirects the
	// output to earlyBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the target for calls to Printf to w and flushes any
// output that was buffered while no sink was available.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyBuffer)
	}
}

// GetOutputSink returns the current target for calls to Printf.
func GetOutputSink() io.Writer {
	return outputSink
}

// Printf writes a formatted string to the active output sink. It supports
// the following subset of the fmt verbs:
//
//	%s  string or []byte
//	%d  base 10 integer (space padded)
//	%x  base 16 integer with lower-case digits (zero padded)
//	%o  base 8 integer (zero padded)
//	%t  bool
//	%%  a literal percent sign
//
// An optional decimal width may precede the verb. Printf does not support
// %v or %p because both would pull in reflect and trigger allocations.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves like Printf but writes its output to w. A nil w sends the
// output to the early ring buffer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex int
		litStart int
	)

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}

		writeString(w, format[litStart:i], 0)

		width := 0
		i++
		for ; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}

		switch {
		case i >= len(format):
			write(w, errNoVerb)
		case format[i] == '%':
			oneByte[0] = '%'
			write(w, oneByte)
		case argIndex >= len(args):
			write(w, errMissingArg)
		default:
			formatArg(w, format[i], args[argIndex], width)
			argIndex++
		}

		litStart = i + 1
	}

	if litStart < len(format) {
		writeString(w, format[litStart:], 0)
	}

	for ; argIndex < len(args); argIndex++ {
		write(w, errExtraArg)
	}
}

func formatArg(w io.Writer, verb byte, arg interface{}, width int) {
	switch verb {
	case 'd':
		formatInt(w, arg, 10, width)
	case 'x':
		formatInt(w, arg, 16, width)
	case 'o':
		formatInt(w, arg, 8, width)
	case 's':
		switch v := arg.(type) {
		case string:
			writeString(w, v, width)
		case []byte:
			pad(w, ' ', width-len(v))
			write(w, v)
		default:
			write(w, errWrongArgType)
		}
	case 't':
		v, ok := arg.(bool)
		switch {
		case !ok:
			write(w, errWrongArgType)
		case v:
			write(w, trueValue)
		default:
			write(w, falseValue)
		}
	default:
		write(w, errNoVerb)
	}
}

// formatInt writes v in the requested base. Base 10 values are left-padded
// with spaces; base 8 and 16 values are left-padded with zeroes.
func formatInt(w io.Writer, v interface{}, base uint64, width int) {
	var (
		mag      uint64
		negative bool
	)

	switch n := v.(type) {
	case uint8:
		mag = uint64(n)
	case uint16:
		mag = uint64(n)
	case uint32:
		mag = uint64(n)
	case uint64:
		mag = n
	case uint:
		mag = uint64(n)
	case uintptr:
		mag = uint64(n)
	case int8:
		mag, negative = signed(int64(n))
	case int16:
		mag, negative = signed(int64(n))
	case int32:
		mag, negative = signed(int64(n))
	case int64:
		mag, negative = signed(n)
	case int:
		mag, negative = signed(int64(n))
	default:
		write(w, errWrongArgType)
		return
	}

	if width > maxNumLen-1 {
		width = maxNumLen - 1
	}

	// Digits are produced right to left.
	pos := maxNumLen
	for {
		pos--
		numBuf[pos] = digits[mag%base]
		mag /= base
		if mag == 0 {
			break
		}
	}

	padCh := byte('0')
	if base == 10 {
		padCh = ' '
	}

	if negative && padCh == ' ' {
		pos--
		numBuf[pos] = '-'
	}

	for maxNumLen-pos < width && pos > 1 {
		pos--
		numBuf[pos] = padCh
	}

	if negative && padCh == '0' {
		pos--
		numBuf[pos] = '-'
	}

	write(w, numBuf[pos:])
}

func signed(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}

// writeString emits s one byte at a time; converting s to a []byte would
// allocate.
func writeString(w io.Writer, s string, width int) {
	pad(w, ' ', width-len(s))
	for i := 0; i < len(s); i++ {
		oneByte[0] = s[i]
		write(w, oneByte)
	}
}

func pad(w io.Writer, ch byte, count int) {
	oneByte[0] = ch
	for ; count > 0; count-- {
		write(w, oneByte)
	}
}

// write hides p from escape analysis. Without this the compiler cannot prove
// that p does not escape through the io.Writer interface call and every
// Printf call site would heap-allocate its argument slice.
func write(w io.Writer, p []byte) {
	realWrite(w, noEscape(unsafe.Pointer(&p)))
}

func realWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w == nil {
		earlyBuffer.Write(p)
		return
	}
	w.Write(p)
}

// noEscape hides a pointer from escape analysis (see runtime/stubs.go).
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
