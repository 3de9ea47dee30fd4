package protocol

import "testing"

func TestSliceInputBuffer(t *testing.T) {
	buf := NewSliceInputBuffer([]byte{1, 2, 3, 4, 5})
	buf.Pop(2)
	if buf.Available() != 3 || buf.Data()[0] != 3 {
		t.Errorf("After Pop(2) expected [3 4 5], got %v", buf.Data())
	}
	buf.Pop(10)
	if buf.Available() != 0 {
		t.Errorf("Pop past the end should empty the buffer, got %v", buf.Data())
	}
}

func TestScratchOutput(t *testing.T) {
	s := NewScratchOutput()
	s.Output([]byte{1, 2, 3})
	s.Output([]byte{4, 5})
	if s.CurPosition() != 5 {
		t.Errorf("Expected position 5, got %d", s.CurPosition())
	}

	s.Update(0, 99)
	s.Update(7, 99)
	if r := s.Result(); r[0] != 99 || len(r) != 5 {
		t.Errorf("Unexpected result %v", r)
	}
	if since := s.DataSince(3); len(since) != 2 || since[0] != 4 {
		t.Errorf("DataSince(3) = %v", since)
	}
	if s.DataSince(6) != nil {
		t.Error("DataSince past the end should be nil")
	}

	s.Reset()
	if s.CurPosition() != 0 {
		t.Errorf("Expected position 0 after Reset, got %d", s.CurPosition())
	}
}

func TestScratchOutputOverflow(t *testing.T) {
	s := NewScratchOutput()
	s.Output(make([]byte, ScratchSize-1))
	s.Output([]byte{1, 2, 3})
	if s.CurPosition() != ScratchSize {
		t.Errorf("Expected writes to stop at %d, got %d", ScratchSize, s.CurPosition())
	}
}

func TestFifoBuffer(t *testing.T) {
	f := NewFifoBuffer(10)
	if !f.IsEmpty() || f.Free() != 9 {
		t.Fatalf("New FIFO: empty=%v free=%d", f.IsEmpty(), f.Free())
	}

	if n := f.Write([]byte{1, 2, 3, 4, 5}); n != 5 {
		t.Errorf("Expected 5 written, got %d", n)
	}
	out := make([]byte, 3)
	if n := f.Read(out); n != 3 || out[0] != 1 || out[2] != 3 {
		t.Errorf("Read %d bytes: %v", n, out)
	}
	f.Pop(1)
	if f.Available() != 1 || f.Data()[0] != 5 {
		t.Errorf("Expected [5], got %v", f.Data())
	}

	f.Reset()
	if n := f.Write(make([]byte, 12)); n != 9 {
		t.Errorf("Size-10 FIFO holds 9 bytes, wrote %d", n)
	}
}

func TestFifoBufferWrapAround(t *testing.T) {
	f := NewFifoBuffer(5)
	f.Write([]byte{1, 2, 3, 4})
	f.Read(make([]byte, 2))
	if n := f.Write([]byte{5, 6}); n != 2 {
		t.Fatalf("Expected 2 written, got %d", n)
	}

	data := f.Data()
	want := []byte{3, 4, 5, 6}
	if string(data) != string(want) {
		t.Errorf("Wrapped Data() = %v, want %v", data, want)
	}
	f.Pop(3)
	if f.Available() != 1 || f.Data()[0] != 6 {
		t.Errorf("After wrapped Pop expected [6], got %v", f.Data())
	}
}
