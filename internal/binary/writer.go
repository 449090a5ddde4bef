package binary

import (
	"bytes"
	"encoding/binary"
)

// Writer provides buffered big-endian writing for class file encoding.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// U2 writes a big-endian uint16.
func (w *Writer) U2(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	w.buf.Write(buf[:])
}

// U4 writes a big-endian uint32.
func (w *Writer) U4(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	w.buf.Write(buf[:])
}

// U8 writes a big-endian uint64.
func (w *Writer) U8(v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	w.buf.Write(buf[:])
}

// Block writes a u4 length followed by data.
func (w *Writer) Block(data []byte) {
	w.U4(uint32(len(data)))
	w.buf.Write(data)
}

// PatchU2 overwrites two bytes at pos, which must already have been written.
func (w *Writer) PatchU2(pos int, v uint16) {
	binary.BigEndian.PutUint16(w.buf.Bytes()[pos:pos+2], v)
}

// PatchU4 overwrites four bytes at pos, which must already have been written.
func (w *Writer) PatchU4(pos int, v uint32) {
	binary.BigEndian.PutUint32(w.buf.Bytes()[pos:pos+4], v)
}
