package kfmt

import (
	"bytes"
	"strings"
	"testing"
)

func TestFprintf(t *testing.T) {
	// Calling through a variable keeps vet from checking the deliberately
	// malformed format strings below.
	fprintf := Fprintf

	specs := []struct {
		format string
		args   []interface{}
		exp    string
	}{
		{"no args", nil, "no args"},
		{"%t %t", []interface{}{true, false}, "true false"},
		{"%s arg", []interface{}{"STRING"}, "STRING arg"},
		{"%s arg", []interface{}{[]byte("BYTES")}, "BYTES arg"},
		{"'%6s'", []interface{}{"RSDT"}, "'  RSDT'"},
		{"'%2s'", []interface{}{"FACP"}, "'FACP'"},
		{"%d", []interface{}{uint8(200)}, "200"},
		{"%d", []interface{}{int16(-42)}, "-42"},
		{"'%5d'", []interface{}{-42}, "'  -42'"},
		{"%x", []interface{}{uint32(0xbadf00d)}, "badf00d"},
		{"0x%16x", []interface{}{uintptr(0x200000)}, "0x0000000000200000"},
		{"%o", []interface{}{uint16(0755)}, "755"},
		{"%x", []interface{}{uint64(0)}, "0"},
		{"100%%", nil, "100%"},
		{"%d", nil, "(MISSING)"},
		{"%d", []interface{}{"nan"}, "%!(WRONGTYPE)"},
		{"%t", []interface{}{1}, "%!(WRONGTYPE)"},
		{"%s", []interface{}{3}, "%!(WRONGTYPE)"},
		{"trailing %", nil, "trailing %!(NOVERB)"},
		{"%q", []interface{}{1}, "%!(NOVERB)"},
		{"extra", []interface{}{1}, "extra%!(EXTRA)"},
	}

	var buf bytes.Buffer
	for specIndex, spec := range specs {
		buf.Reset()
		fprintf(&buf, spec.format, spec.args...)
		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected to get %q; got %q", specIndex, spec.exp, got)
		}
	}
}

func TestPrintfBuffersOutputWithoutSink(t *testing.T) {
	defer func() {
		outputSink = nil
		earlyBuffer = ringBuffer{}
	}()

	earlyBuffer = ringBuffer{}
	SetOutputSink(nil)
	Printf("[acpi] RSDP at 0x%x\n", uintptr(0x200200))

	var buf bytes.Buffer
	SetOutputSink(&buf)

	if got := buf.String(); got != "[acpi] RSDP at 0x200200\n" {
		t.Fatalf("expected buffered output to be flushed to the new sink; got %q", got)
	}

	if GetOutputSink() != &buf {
		t.Fatal("expected GetOutputSink to return the registered sink")
	}

	Printf("direct")
	if !strings.HasSuffix(buf.String(), "direct") {
		t.Fatalf("expected Printf to write to the registered sink; got %q", buf.String())
	}
}
