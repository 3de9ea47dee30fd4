package protocol

import "testing"

func TestVLQRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 31, -32, 95, 96, 127, -127, 128, 1000, -1000,
		65535, -65535, 1000000, -1000000, 1<<31 - 1, -1 << 31}
	for _, want := range values {
		out := NewScratchOutput()
		EncodeVLQInt(out, want)
		data := out.Result()

		got, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("DecodeVLQInt(%d) failed: %v", want, err)
			continue
		}
		if got != want {
			t.Errorf("Expected %d, got %d (encoded %v)", want, got, out.Result())
		}
		if len(data) != 0 {
			t.Errorf("%d: %d bytes left over", want, len(data))
		}
	}
}

func TestVLQEncodedLength(t *testing.T) {
	tests := []struct {
		v int32
		n int
	}{
		{0, 1},
		{95, 1},
		{-32, 1},
		{96, 2},
		{-33, 2},
		{12000, 2},
		{12499, 3},
		{49999, 3},
		{1 << 20, 3},
		{150000000, 4},
		{-1 << 31, 5},
	}
	for _, tt := range tests {
		out := NewScratchOutput()
		EncodeVLQInt(out, tt.v)
		if got := len(out.Result()); got != tt.n {
			t.Errorf("EncodeVLQInt(%d) used %d bytes, want %d", tt.v, got, tt.n)
		}
	}
}

func TestVLQUintAboveInt32(t *testing.T) {
	out := NewScratchOutput()
	EncodeVLQUint(out, 0xFFFFFFF0)
	data := out.Result()
	got, err := DecodeVLQUint(&data)
	if err != nil || got != 0xFFFFFFF0 {
		t.Errorf("Expected 0xFFFFFFF0, got 0x%X, %v", got, err)
	}
}

func TestVLQDecodeErrors(t *testing.T) {
	data := []byte{0x80}
	if _, err := DecodeVLQInt(&data); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
	if len(data) != 1 {
		t.Error("A failed decode must not consume input")
	}

	data = []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&data); err != ErrInvalidVLQ {
		t.Errorf("Expected ErrInvalidVLQ, got %v", err)
	}

	empty := []byte{}
	if _, err := DecodeVLQUint(&empty); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
}

func TestVLQBytes(t *testing.T) {
	for _, want := range [][]byte{{}, {0x7E}, {1, 2, 3}, make([]byte, 40)} {
		out := NewScratchOutput()
		EncodeVLQBytes(out, want)
		data := out.Result()
		got, err := DecodeVLQBytes(&data)
		if err != nil {
			t.Errorf("DecodeVLQBytes failed: %v", err)
			continue
		}
		if string(got) != string(want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}

	short := []byte{5, 1, 2}
	if _, err := DecodeVLQBytes(&short); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
}

func TestArgs(t *testing.T) {
	out := NewScratchOutput()
	EncodeArgs(out, 3, 20000, 0, 4800)
	data := out.Result()

	var id, hz, mode, ns uint32
	if err := DecodeArgs(&data, &id, &hz, &mode, &ns); err != nil {
		t.Fatalf("DecodeArgs failed: %v", err)
	}
	if id != 3 || hz != 20000 || mode != 0 || ns != 4800 {
		t.Errorf("Unexpected args %d %d %d %d", id, hz, mode, ns)
	}
	if err := DecodeArgs(&data, &id); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall on missing arg, got %v", err)
	}
}
