package table

import "testing"

func TestChecksumFold(t *testing.T) {
	specs := []struct {
		mode ChecksumMode
		in   []byte
		exp  uint8
	}{
		{ChecksumXOR, nil, 0},
		{ChecksumSum, nil, 0},
		{ChecksumXOR, []byte{0x0f, 0xf0}, 0xff},
		{ChecksumSum, []byte{0x0f, 0xf0}, 0xff},
		{ChecksumXOR, []byte{0xff, 0x01}, 0xfe},
		{ChecksumSum, []byte{0xff, 0x01}, 0x00},
		{ChecksumXOR, []byte{0xaa, 0xaa}, 0x00},
		{ChecksumSum, []byte{0x80, 0x80, 0x01}, 0x01},
	}

	for specIndex, spec := range specs {
		if got := spec.mode.Fold(spec.in); got != spec.exp {
			t.Errorf("[spec %d] expected %s fold of % x to be 0x%x; got 0x%x", specIndex, spec.mode, spec.in, spec.exp, got)
		}

		if got, exp := spec.mode.Verify(spec.in), spec.exp == 0; got != exp {
			t.Errorf("[spec %d] expected %s verify of % x to return %t", specIndex, spec.mode, spec.in, exp)
		}
	}
}

func TestChecksumCreate(t *testing.T) {
	for _, mode := range []ChecksumMode{ChecksumXOR, ChecksumSum} {
		buf := []byte("RSD PTR \x00OEMID!\x00\x10\x20\x30\x40")
		const at = 8

		buf[at] = 0
		buf[at] = mode.Create(buf)
		if got := mode.Fold(buf); got != 0xff {
			t.Errorf("[%s] expected fold after storing Create() to be 0xff; got 0x%x", mode, got)
		}
	}
}

func TestChecksumBalance(t *testing.T) {
	specs := [][]byte{
		{0},
		{0x12, 0, 0x34},
		[]byte("FACP\x00\x00\x00\x00garbage-after-header"),
	}

	for specIndex, spec := range specs {
		for _, mode := range []ChecksumMode{ChecksumXOR, ChecksumSum} {
			buf := append([]byte(nil), spec...)
			at := len(buf) / 2
			buf[at] = 0x5a

			buf[at] = mode.Balance(buf, at)
			if !mode.Verify(buf) {
				t.Errorf("[spec %d] expected %s verify to succeed after balancing byte %d; fold: 0x%x", specIndex, mode, at, mode.Fold(buf))
			}
		}
	}
}

func TestParseChecksumMode(t *testing.T) {
	specs := []struct {
		in     string
		exp    ChecksumMode
		expOK  bool
		expStr string
	}{
		{"xor", ChecksumXOR, true, "xor"},
		{"sum", ChecksumSum, true, "sum"},
		{"SUM", ChecksumXOR, false, "xor"},
		{"", ChecksumXOR, false, "xor"},
	}

	for specIndex, spec := range specs {
		got, ok := ParseChecksumMode(spec.in)
		if got != spec.exp || ok != spec.expOK {
			t.Errorf("[spec %d] expected ParseChecksumMode(%q) to return (%s, %t); got (%s, %t)", specIndex, spec.in, spec.exp, spec.expOK, got, ok)
		}

		if s := got.String(); s != spec.expStr {
			t.Errorf("[spec %d] expected mode string %q; got %q", specIndex, spec.expStr, s)
		}
	}
}
