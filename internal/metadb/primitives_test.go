package metadb

import (
	"bytes"
	"math"
	"testing"
)

func TestAlignUp(t *testing.T) {
	cases := []struct {
		v, a, want uint64
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{5, 1, 5},
		{5, 0, 5},
	}
	for _, c := range cases {
		if got := alignUp(c.v, c.a); got != c.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", c.v, c.a, got, c.want)
		}
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	b := make([]byte, 8)

	putU16(b, 0xbeef)
	if got := getU16(b); got != 0xbeef {
		t.Fatalf("getU16 = %#x, want 0xbeef", got)
	}

	putU32(b, 0xdeadbeef)
	if got := getU32(b); got != 0xdeadbeef {
		t.Fatalf("getU32 = %#x, want 0xdeadbeef", got)
	}

	putU64(b, 0x0102030405060708)
	if got := getU64(b); got != 0x0102030405060708 {
		t.Fatalf("getU64 = %#x, want 0x0102030405060708", got)
	}

	for _, v := range []float64{0, 1, -1, math.Pi, math.Inf(1), math.Inf(-1)} {
		putF64(b, v)
		if got := getF64(b); got != v {
			t.Errorf("getF64(putF64(%v)) = %v", v, got)
		}
	}
}

func TestPutString(t *testing.T) {
	var buf []byte
	buf = putString(buf, "hello")
	buf = putString(buf, "")
	buf = putString(buf, "world")

	want := append(append([]byte("hello\x00"), 0), []byte("world\x00")...)
	if !bytes.Equal(buf, want) {
		t.Fatalf("putString sequence = %q, want %q", buf, want)
	}
}
