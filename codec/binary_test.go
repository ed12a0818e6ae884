package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"
)

// stream builds little-endian test input.
type stream struct {
	b []byte
}

func (s *stream) u8(vs ...int) *stream {
	for _, v := range vs {
		s.b = append(s.b, byte(v))
	}
	return s
}

func (s *stream) u16(vs ...int) *stream {
	for _, v := range vs {
		s.b = binary.LittleEndian.AppendUint16(s.b, uint16(v))
	}
	return s
}

func (s *stream) i32(v int) *stream {
	s.b = binary.LittleEndian.AppendUint32(s.b, uint32(int32(v)))
	return s
}

func (s *stream) text(str string) *stream {
	s.i32(len(str))
	s.b = append(s.b, str...)
	return s
}

func (s *stream) raw(p []byte) *stream {
	s.b = append(s.b, p...)
	return s
}

func (s *stream) build() []byte {
	return s.b
}

func TestReaderPrimitives(t *testing.T) {
	in := []byte{
		0x07,                   // bool
		0x34, 0x12,             // uint16 0x1234
		0x9c, 0xff,             // int16 -100
		0x01, 0x02, 0x03, 0x04, // int32 0x04030201
		0xff, 0xff, 0xff, 0xff, // int32 -1
	}
	r := newReader(bytes.NewReader(in))
	if b, err := r.readBool(); err != nil || !b {
		t.Fatalf("readBool() = %v, %v", b, err)
	}
	if v, err := r.readUint16(); err != nil || v != 0x1234 {
		t.Fatalf("readUint16() = %#x, %v", v, err)
	}
	if v, err := r.readInt16(); err != nil || v != -100 {
		t.Fatalf("readInt16() = %d, %v", v, err)
	}
	if v, err := r.readInt32(); err != nil || v != 0x04030201 {
		t.Fatalf("readInt32() = %#x, %v", v, err)
	}
	if v, err := r.readInt32(); err != nil || v != -1 {
		t.Fatalf("readInt32() = %d, %v", v, err)
	}
	if r.offset != int64(len(in)) {
		t.Fatalf("offset = %d, expected %d", r.offset, len(in))
	}
	if more, err := r.more(); err != nil || more {
		t.Fatalf("more() = %v, %v at end of input", more, err)
	}
	_, err := r.readByte()
	var ie *InputError
	if !errors.As(err, &ie) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected *InputError wrapping io.ErrUnexpectedEOF, got %v", err)
	}
	if ie.Op != "read" || ie.Offset != int64(len(in)) {
		t.Fatalf("unexpected error contents: %+v", ie)
	}
}

func TestReadText(t *testing.T) {
	in := new(stream).
		text("Ünïcode ♪").
		i32(0).
		i32(-5).
		i32(1).u8(0xff). // Ill-formed UTF-8.
		build()
	r := newReader(bytes.NewReader(in))
	for _, want := range []string{"Ünïcode ♪", "", "", "\uFFFD"} {
		got, err := r.readText()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("readText() = %q, expected %q", got, want)
		}
	}
}

func TestReadTextLimit(t *testing.T) {
	in := new(stream).i32(MaxTextLength).raw(bytes.Repeat([]byte{'a'}, MaxTextLength)).build()
	got, err := newReader(bytes.NewReader(in)).readText()
	if err != nil || len(got) != MaxTextLength {
		t.Fatalf("text of exactly %d bytes: got %d bytes, %v", MaxTextLength, len(got), err)
	}

	in = new(stream).i32(20000).raw(bytes.Repeat([]byte{'a'}, 20000)).build()
	r := newReader(bytes.NewReader(in))
	_, err = r.readText()
	var se *SizeLimitError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SizeLimitError, got %v", err)
	}
	if se.Length != 20000 || se.Limit != MaxTextLength {
		t.Fatalf("unexpected error contents: %+v", se)
	}
	if r.offset != 4 {
		t.Fatalf("reader consumed the oversized text, offset %d", r.offset)
	}
}

func TestReadTextShort(t *testing.T) {
	in := new(stream).i32(10).u8('a', 'b', 'c').build()
	_, err := newReader(bytes.NewReader(in)).readText()
	var ie *InputError
	if !errors.As(err, &ie) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected *InputError wrapping io.ErrUnexpectedEOF, got %v", err)
	}
	if ie.Offset != 7 {
		t.Fatalf("offset = %d, expected 7", ie.Offset)
	}
}

func TestWriterMirrorsReader(t *testing.T) {
	var buf bytes.Buffer
	w := newWriter(&buf)
	w.writeBool(true)
	w.writeByte(200)
	w.writeUint16(65535)
	w.writeInt16(-1200)
	w.writeInt32(-7)
	w.writeText("note ♫")
	w.writeText("")
	if w.err != nil {
		t.Fatal(w.err)
	}
	if w.n != int64(buf.Len()) {
		t.Fatalf("writer counted %d bytes, wrote %d", w.n, buf.Len())
	}
	if want := 1 + 1 + 2 + 2 + 4 + textSize("note ♫") + textSize(""); buf.Len() != want {
		t.Fatalf("wrote %d bytes, expected %d", buf.Len(), want)
	}

	r := newReader(&buf)
	b, _ := r.readBool()
	v8, _ := r.readByte()
	v16, _ := r.readUint16()
	s16, _ := r.readInt16()
	s32, _ := r.readInt32()
	t1, _ := r.readText()
	t2, err := r.readText()
	if err != nil {
		t.Fatal(err)
	}
	if !b || v8 != 200 || v16 != 65535 || s16 != -1200 || s32 != -7 || t1 != "note ♫" || t2 != "" {
		t.Fatalf("read back %v %d %d %d %d %q %q", b, v8, v16, s16, s32, t1, t2)
	}
}

type failingWriter struct {
	after int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	if len(p) <= f.after {
		f.after -= len(p)
		return len(p), nil
	}
	n := f.after
	f.after = 0
	return n, errors.New("disk full")
}

func TestWriterErrorSticks(t *testing.T) {
	w := newWriter(&failingWriter{after: 3})
	w.writeInt32(1)
	w.writeInt32(2)
	var ie *InputError
	if !errors.As(w.err, &ie) || ie.Op != "write" || ie.Offset != 3 {
		t.Fatalf("unexpected error: %v", w.err)
	}
	if !strings.Contains(w.err.Error(), "disk full") {
		t.Fatalf("error lost its cause: %v", w.err)
	}
	if w.n != 3 {
		t.Fatalf("writes continued after an error, %d bytes counted", w.n)
	}
}

func TestWriteTextReplacesIllFormedUTF8(t *testing.T) {
	var buf bytes.Buffer
	w := newWriter(&buf)
	w.writeText("bad\xffname")
	if w.err != nil {
		t.Fatal(w.err)
	}
	if buf.Len() != textSize("bad\xffname") {
		t.Fatalf("wrote %d bytes, textSize() = %d", buf.Len(), textSize("bad\xffname"))
	}
	if stored := buf.String()[4:]; stored != "bad\uFFFDname" {
		t.Fatalf("stored %q", stored)
	}
	got, err := newReader(&buf).readText()
	if err != nil {
		t.Fatal(err)
	}
	if got != "bad\uFFFDname" {
		t.Fatalf("read back %q", got)
	}
}
