package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"golang.org/x/text/encoding/unicode"
)

// MaxTextLength is the largest text length prefix accepted by the decoder.
const MaxTextLength = 16384

// reader reads the little-endian primitives of the NBS format and keeps
// track of the byte offset for error messages.
type reader struct {
	r      *bufio.Reader
	offset int64
	buf    [4]byte
}

func newReader(r io.Reader) *reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &reader{r: br}
}

// fail wraps err in an *InputError positioned at the current offset.
func (r *reader) fail(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &InputError{Op: "read", Offset: r.offset, Err: err}
}

// read fills p completely or fails.
func (r *reader) read(p []byte) error {
	n, err := io.ReadFull(r.r, p)
	if err != nil {
		r.offset += int64(n)
		return r.fail(err)
	}
	r.offset += int64(n)
	return nil
}

func (r *reader) readByte() (int, error) {
	if err := r.read(r.buf[:1]); err != nil {
		return 0, err
	}
	return int(r.buf[0]), nil
}

func (r *reader) readBool() (bool, error) {
	b, err := r.readByte()
	return b != 0, err
}

func (r *reader) readUint16() (int, error) {
	if err := r.read(r.buf[:2]); err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint16(r.buf[:2])), nil
}

func (r *reader) readInt16() (int, error) {
	v, err := r.readUint16()
	return int(int16(v)), err
}

func (r *reader) readInt32() (int32, error) {
	if err := r.read(r.buf[:4]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(r.buf[:4])), nil
}

// readText reads a length-prefixed UTF-8 string. Non-positive lengths yield
// an empty string. Ill-formed UTF-8 is replaced with U+FFFD.
func (r *reader) readText() (string, error) {
	length, err := r.readInt32()
	if err != nil {
		return "", err
	}
	if length <= 0 {
		return "", nil
	}
	if length > MaxTextLength {
		return "", &SizeLimitError{Length: int(length), Limit: MaxTextLength}
	}
	raw := make([]byte, length)
	if err := r.read(raw); err != nil {
		return "", err
	}
	text, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return "", r.fail(err)
	}
	return string(text), nil
}

// more reports whether at least one more byte can be read.
func (r *reader) more() (bool, error) {
	_, err := r.r.Peek(1)
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, r.fail(err)
	}
	return true, nil
}

// writer mirrors reader. The first write error sticks, and later writes are
// dropped, so callers check err once at the end.
type writer struct {
	w   io.Writer
	n   int64
	err error
	buf [4]byte
}

func newWriter(w io.Writer) *writer {
	return &writer{w: w}
}

func (w *writer) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err != nil {
		w.err = &InputError{Op: "write", Offset: w.n, Err: err}
	}
}

func (w *writer) writeByte(v int) {
	w.buf[0] = byte(v)
	w.write(w.buf[:1])
}

func (w *writer) writeBool(v bool) {
	if v {
		w.writeByte(1)
	} else {
		w.writeByte(0)
	}
}

func (w *writer) writeUint16(v int) {
	binary.LittleEndian.PutUint16(w.buf[:2], uint16(v))
	w.write(w.buf[:2])
}

func (w *writer) writeInt16(v int) {
	w.writeUint16(int(uint16(int16(v))))
}

func (w *writer) writeInt32(v int32) {
	binary.LittleEndian.PutUint32(w.buf[:4], uint32(v))
	w.write(w.buf[:4])
}

func (w *writer) writeText(s string) {
	encoded := textBytes(s)
	w.writeInt32(int32(len(encoded)))
	w.write(encoded)
}

// textBytes returns s as it is stored, with ill-formed UTF-8 replaced by
// U+FFFD just as readText does.
func textBytes(s string) []byte {
	// The UTF-8 decoder replaces bad input instead of failing.
	b, _ := unicode.UTF8.NewDecoder().Bytes([]byte(s))
	return b
}

// textSize returns the number of bytes writeText produces for s.
func textSize(s string) int {
	return 4 + len(textBytes(s))
}
