package protocol

import "testing"

func TestCRC16(t *testing.T) {
	tests := []struct {
		data []byte
		want uint16
	}{
		{[]byte{}, 0xFFFF},
		{[]byte("123456789"), 0x6F91},
	}
	for _, tt := range tests {
		if got := CRC16(tt.data); got != tt.want {
			t.Errorf("CRC16(%q) = 0x%04X, want 0x%04X", tt.data, got, tt.want)
		}
	}
}

func TestCRC16DetectsSingleBitErrors(t *testing.T) {
	data := []byte{0x08, 0x10, 0x05, 0x01, 0x02}
	want := CRC16(data)
	for i := range data {
		for bit := 0; bit < 8; bit++ {
			data[i] ^= 1 << bit
			if CRC16(data) == want {
				t.Errorf("flip of byte %d bit %d not detected", i, bit)
			}
			data[i] ^= 1 << bit
		}
	}
}

func TestAckFrame(t *testing.T) {
	ack := ackFrame(0x13)
	if len(ack) != FrameMinLen {
		t.Fatalf("Expected %d byte ack, got %v", FrameMinLen, ack)
	}
	if n, r := scan(ack); r != scanOK || n != FrameMinLen {
		t.Errorf("Ack did not scan as a frame: n=%d r=%d", n, r)
	}
}
