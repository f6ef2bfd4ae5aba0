package kfmt

import (
	"bytes"
	"io"
	"testing"
)

func TestRingBuffer(t *testing.T) {
	var (
		rb  ringBuffer
		buf bytes.Buffer
	)

	if n, err := rb.Read(make([]byte, 1)); n != 0 || err != io.EOF {
		t.Fatalf("expected empty buffer read to return (0, io.EOF); got (%d, %v)", n, err)
	}

	rb.Write([]byte("hello"))
	io.Copy(&buf, &rb)
	if got := buf.String(); got != "hello" {
		t.Fatalf("expected to read back %q; got %q", "hello", got)
	}

	// Overflow the buffer so that the write index wraps around.
	payload := bytes.Repeat([]byte("0123456789abcdef"), ringBufferSize/16+4)
	rb.Write(payload)

	buf.Reset()
	io.Copy(&buf, &rb)

	exp := payload[len(payload)-(ringBufferSize-1):]
	if !bytes.Equal(buf.Bytes(), exp) {
		t.Fatalf("expected ring buffer to keep the last %d bytes", ringBufferSize-1)
	}
}
