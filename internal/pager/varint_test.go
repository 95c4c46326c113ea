package pager

import "testing"

func TestDecodeVarint_SingleByte(t *testing.T) {
	buf := []byte{0x45, 0xff, 0xff}
	v, n := DecodeVarint(buf)
	if v != 0x45 || n != 1 {
		t.Fatalf("got (%d, %d), want (0x45, 1)", v, n)
	}
}

func TestDecodeVarint_TwoByte(t *testing.T) {
	buf := []byte{0x81, 0x00}
	v, n := DecodeVarint(buf)
	if v != 128 || n != 2 {
		t.Fatalf("got (%d, %d), want (128, 2)", v, n)
	}
}

func TestDecodeVarint_NineByte(t *testing.T) {
	buf := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x2a}
	v, n := DecodeVarint(buf)
	if n != 9 {
		t.Fatalf("length: got %d, want 9", n)
	}
	want := int64(0x2a)
	for i := 0; i < 8; i++ {
		want |= int64(0x7f) << (8 + uint(i)*7)
	}
	if v != want {
		t.Fatalf("value: got %d, want %d", v, want)
	}
}

func TestVarintSize_MatchesDecode(t *testing.T) {
	cases := [][]byte{
		{0x00},
		{0x7f},
		{0x81, 0x00},
		{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01},
	}
	for _, c := range cases {
		_, n := DecodeVarint(c)
		if s := VarintSize(c); s != n {
			t.Errorf("VarintSize(%v): got %d, want %d", c, s, n)
		}
	}
}

func TestReadWriteU32(t *testing.T) {
	buf := make([]byte, 4)
	WriteU32(buf, 0x01020304)
	if got := ReadU32(buf); got != 0x01020304 {
		t.Fatalf("got %#x, want %#x", got, 0x01020304)
	}
}

func TestReadU16(t *testing.T) {
	buf := []byte{0x01, 0x02}
	if got := ReadU16(buf); got != 0x0102 {
		t.Fatalf("got %#x, want %#x", got, 0x0102)
	}
}
