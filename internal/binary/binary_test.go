package binary

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestReaderReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(bytes.NewReader(data))

	for i, want := range data {
		if r.Position() != i {
			t.Errorf("position before read %d: got %d, want %d", i, r.Position(), i)
		}
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	_, err := r.ReadByte()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestReaderReadBytes(t *testing.T) {
	r := NewBytesReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05})

	got, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("ReadBytes: got %v, want [1 2 3]", got)
	}
	if r.Position() != 3 {
		t.Errorf("position: got %d, want 3", r.Position())
	}

	_, err = r.ReadBytes(10)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestReaderBigEndian(t *testing.T) {
	r := NewBytesReader([]byte{
		0xCA, 0xFE, 0xBA, 0xBE,
		0x00, 0x34,
		0xFF, 0xFE,
		0xFF, 0xFF, 0xFF, 0xFD,
		0x80,
	})

	magic, err := r.ReadU4()
	if err != nil || magic != 0xCAFEBABE {
		t.Fatalf("ReadU4 = %#x, %v", magic, err)
	}
	major, err := r.ReadU2()
	if err != nil || major != 52 {
		t.Fatalf("ReadU2 = %d, %v", major, err)
	}
	s2, err := r.ReadS2()
	if err != nil || s2 != -2 {
		t.Fatalf("ReadS2 = %d, %v", s2, err)
	}
	s4, err := r.ReadS4()
	if err != nil || s4 != -3 {
		t.Fatalf("ReadS4 = %d, %v", s4, err)
	}
	s1, err := r.ReadS1()
	if err != nil || s1 != -128 {
		t.Fatalf("ReadS1 = %d, %v", s1, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", r.Remaining())
	}
}

func TestReaderSkipAndReset(t *testing.T) {
	r := NewBytesReader([]byte{0, 1, 2, 3, 4, 5})
	if err := r.Skip(4); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	b, _ := r.ReadByte()
	if b != 4 {
		t.Errorf("after Skip got %d, want 4", b)
	}
	if err := r.Skip(5); err == nil {
		t.Error("expected error skipping past end")
	}
	if err := r.Reset(1); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	b, _ = r.ReadByte()
	if b != 1 || r.Position() != 2 {
		t.Errorf("after Reset got %d at %d", b, r.Position())
	}
}

func TestReaderReadBlock(t *testing.T) {
	r := NewBytesReader([]byte{0, 0, 0, 2, 0xAA, 0xBB, 0xCC})
	got, err := r.ReadBlock()
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !bytes.Equal(got, []byte{0xAA, 0xBB}) {
		t.Errorf("ReadBlock = %x", got)
	}

	r = NewBytesReader([]byte{0, 0, 0, 9, 0xAA})
	if _, err := r.ReadBlock(); err == nil {
		t.Error("expected error for oversized block")
	}
}

func TestWriterRoundTrip(t *testing.T) {
	w := NewWriter()
	w.U4(0xCAFEBABE)
	w.U2(0)
	w.U2(61)
	w.Byte(7)
	w.Block([]byte("hi"))
	w.U8(1 << 40)

	r := NewBytesReader(w.Bytes())
	if v, _ := r.ReadU4(); v != 0xCAFEBABE {
		t.Errorf("magic = %#x", v)
	}
	if v, _ := r.ReadU2(); v != 0 {
		t.Errorf("minor = %d", v)
	}
	if v, _ := r.ReadU2(); v != 61 {
		t.Errorf("major = %d", v)
	}
	if v, _ := r.ReadU1(); v != 7 {
		t.Errorf("tag = %d", v)
	}
	if v, _ := r.ReadBlock(); string(v) != "hi" {
		t.Errorf("block = %q", v)
	}
	if v, _ := r.ReadU8(); v != 1<<40 {
		t.Errorf("u8 = %d", v)
	}
}

func TestWriterPatch(t *testing.T) {
	w := NewWriter()
	w.U2(0)
	w.U4(0)
	w.PatchU2(0, 0x1234)
	w.PatchU4(2, 0xDEADBEEF)

	want := []byte{0x12, 0x34, 0xDE, 0xAD, 0xBE, 0xEF}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("got %x, want %x", w.Bytes(), want)
	}
}

func TestParseError(t *testing.T) {
	r := NewBytesReader([]byte{1, 2})
	_, _ = r.ReadByte()
	err := r.WrapError("constant_pool", io.ErrUnexpectedEOF)

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatal("expected *ParseError")
	}
	if pe.Position != 1 || pe.Section != "constant_pool" {
		t.Errorf("got %+v", pe)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("ParseError should unwrap")
	}
	if got := err.Error(); got != "classfile: constant_pool at position 1: unexpected EOF" {
		t.Errorf("Error() = %q", got)
	}
}
