package stream

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

var ErrSeek = errors.New("seek to range start failed")

// File is a readable, seekable media handle. The responder owns it and
// closes it exactly once.
type File interface {
	io.Reader
	io.Seeker
	io.Closer
}

// StreamResponder delivers [start, start+remaining) of a file in blocks of
// at most BlockSize bytes.
type StreamResponder struct {
	f           File
	contentType string
	size        int64
	start       int64
	length      int64
	remaining   int64
	whole       bool
	buf         []byte
	closed      bool
}

// NewStreamResponder clamps r to a file of the given size and seeks f to
// the range start. On seek failure f is closed and the error wraps ErrSeek.
func NewStreamResponder(f File, size int64, r Range, contentType string) (*StreamResponder, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	end := size
	if r.End >= 0 && r.End < size {
		end = r.End + 1
	}
	length := end - r.Start
	if length < 0 {
		length = 0
	}

	s := &StreamResponder{
		f:           f,
		contentType: contentType,
		size:        size,
		start:       r.Start,
		length:      length,
		remaining:   length,
		whole:       r.IsWhole(),
	}
	if length > 0 {
		if _, err := f.Seek(r.Start, io.SeekStart); err != nil {
			s.Close()
			return nil, fmt.Errorf("%w: offset %d: %v", ErrSeek, r.Start, err)
		}
	}
	return s, nil
}

// Satisfiable is false when the range started at or past the end of file
// and no body will be produced.
func (s *StreamResponder) Satisfiable() bool {
	return s.length > 0 || s.whole
}

func (s *StreamResponder) Length() int64    { return s.length }
func (s *StreamResponder) Remaining() int64 { return s.remaining }

func (s *StreamResponder) Header() Header {
	h := Header{
		ContentType:   s.contentType,
		ContentLength: s.length,
		Fields:        http.Header{"Accept-Ranges": {"bytes"}},
	}
	switch {
	case s.whole:
		h.Status = http.StatusOK
	case s.length == 0:
		h.Status = http.StatusRequestedRangeNotSatisfiable
		h.Fields.Set("Content-Range", "bytes */"+strconv.FormatInt(s.size, 10))
	default:
		h.Status = http.StatusPartialContent
		h.Fields.Set("Content-Range", "bytes "+strconv.FormatInt(s.start, 10)+"-"+
			strconv.FormatInt(s.start+s.length-1, 10)+"/*")
	}
	return h
}

// Next reads the following block. The file is closed as soon as the range
// is exhausted or a read fails. A file that turns out shorter than its
// reported size ends the body early without an error.
func (s *StreamResponder) Next() ([]byte, error) {
	if s.remaining <= 0 {
		s.Close()
		return nil, nil
	}
	n := int64(BlockSize)
	if s.remaining < n {
		n = s.remaining
	}
	if s.buf == nil {
		s.buf = make([]byte, BlockSize)
	}
	offset := s.start + s.length - s.remaining
	read, err := io.ReadFull(s.f, s.buf[:n])
	s.remaining -= int64(read)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		s.remaining = 0
	default:
		s.remaining = 0
		s.Close()
		return nil, fmt.Errorf("read media at offset %d: %w", offset, err)
	}
	if s.remaining == 0 {
		s.Close()
	}
	if read == 0 {
		return nil, nil
	}
	return s.buf[:read], nil
}

// Close releases the file. Safe to call more than once.
func (s *StreamResponder) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}
