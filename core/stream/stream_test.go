package stream

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackedFile wraps a reader and counts Close calls.
type trackedFile struct {
	*bytes.Reader
	closes  int
	seekErr error
	readErr error
}

func (f *trackedFile) Seek(off int64, whence int) (int64, error) {
	if f.seekErr != nil {
		return 0, f.seekErr
	}
	return f.Reader.Seek(off, whence)
}

func (f *trackedFile) Read(p []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	return f.Reader.Read(p)
}

func (f *trackedFile) Close() error {
	f.closes++
	return nil
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i * 7)
	}
	return b
}

func drain(t *testing.T, r Responder) []byte {
	t.Helper()
	var out []byte
	for i := 0; ; i++ {
		chunk, err := r.Next()
		require.NoError(t, err)
		if len(chunk) == 0 {
			break
		}
		assert.LessOrEqual(t, len(chunk), BlockSize)
		out = append(out, chunk...)
		require.Less(t, i, 1<<20, "responder never finished")
	}
	return out
}

func TestParseRange(t *testing.T) {
	cases := map[string]Range{
		"":                  Whole,
		"bytes=0-":          {0, -1},
		"bytes=100-":        {100, -1},
		"bytes=100-199":     {100, 199},
		" bytes=5-5 ":       {5, 5},
		"bytes=-500":        Whole,
		"bytes=0-1,5-6":     Whole,
		"items=0-10":        Whole,
		"bytes=abc-":        Whole,
		"bytes=10-5":        Whole,
		"bytes=5242880-":    {5242880, -1},
		"bytes=1-99999999":  {1, 99999999},
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseRange(in), in)
	}
	assert.True(t, ParseRange("bytes=0-").IsWhole())
	assert.False(t, ParseRange("bytes=0-10").IsWhole())
}

func TestStreamWholeFile(t *testing.T) {
	data := pattern(3*BlockSize + 123)
	f := &trackedFile{Reader: bytes.NewReader(data)}
	s, err := NewStreamResponder(f, int64(len(data)), ParseRange("bytes=0-"), "audio/mpeg")
	require.NoError(t, err)

	h := s.Header()
	assert.Equal(t, http.StatusOK, h.Status)
	assert.Equal(t, int64(len(data)), h.ContentLength)
	assert.Equal(t, "audio/mpeg", h.ContentType)
	assert.Empty(t, h.Fields.Get("Content-Range"))

	assert.Equal(t, data, drain(t, s))
	assert.Equal(t, 1, f.closes)

	chunk, err := s.Next()
	assert.NoError(t, err)
	assert.Empty(t, chunk)
	assert.NoError(t, s.Close())
	assert.Equal(t, 1, f.closes)
}

func TestStreamClampsEnd(t *testing.T) {
	data := pattern(1000)
	f := &trackedFile{Reader: bytes.NewReader(data)}
	s, err := NewStreamResponder(f, 1000, Range{Start: 400, End: 5000}, "")
	require.NoError(t, err)

	h := s.Header()
	assert.Equal(t, http.StatusPartialContent, h.Status)
	assert.Equal(t, int64(600), h.ContentLength)
	assert.Equal(t, "bytes 400-999/*", h.Fields.Get("Content-Range"))
	assert.Equal(t, "application/octet-stream", h.ContentType)
	assert.Equal(t, int64(600), s.Remaining())
	assert.Equal(t, data[400:], drain(t, s))
	assert.Zero(t, s.Remaining())
}

func TestStreamExplicitEnd(t *testing.T) {
	data := pattern(1000)
	s, err := NewStreamResponder(&trackedFile{Reader: bytes.NewReader(data)}, 1000, Range{Start: 10, End: 19}, "")
	require.NoError(t, err)
	assert.Equal(t, "bytes 10-19/*", s.Header().Fields.Get("Content-Range"))
	assert.Equal(t, data[10:20], drain(t, s))
}

func TestStreamStartPastEnd(t *testing.T) {
	for _, start := range []int64{1000, 1001, 1 << 40} {
		f := &trackedFile{Reader: bytes.NewReader(pattern(1000))}
		s, err := NewStreamResponder(f, 1000, Range{Start: start, End: -1}, "")
		require.NoError(t, err)
		assert.False(t, s.Satisfiable())
		assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, s.Header().Status)
		assert.Equal(t, "bytes */1000", s.Header().Fields.Get("Content-Range"))
		assert.Empty(t, drain(t, s))
		assert.Equal(t, 1, f.closes)
	}
}

func TestStreamEmptyFile(t *testing.T) {
	s, err := NewStreamResponder(&trackedFile{Reader: bytes.NewReader(nil)}, 0, Whole, "")
	require.NoError(t, err)
	assert.True(t, s.Satisfiable())
	assert.Equal(t, http.StatusOK, s.Header().Status)
	assert.Equal(t, int64(0), s.Header().ContentLength)
	assert.Empty(t, drain(t, s))
}

func TestStreamSeekFailure(t *testing.T) {
	f := &trackedFile{Reader: bytes.NewReader(pattern(10)), seekErr: errors.New("boom")}
	_, err := NewStreamResponder(f, 10, Range{Start: 5, End: -1}, "")
	assert.ErrorIs(t, err, ErrSeek)
	assert.Equal(t, 1, f.closes)
}

func TestStreamReadFailureClosesFile(t *testing.T) {
	f := &trackedFile{Reader: bytes.NewReader(pattern(10)), readErr: errors.New("disk gone")}
	s, err := NewStreamResponder(f, 10, Whole, "")
	require.NoError(t, err)
	_, err = s.Next()
	assert.Error(t, err)
	assert.Equal(t, 1, f.closes)
	chunk, err := s.Next()
	assert.NoError(t, err)
	assert.Empty(t, chunk)
}

func TestStreamShortFile(t *testing.T) {
	// reported size larger than what is actually on disk
	data := pattern(100)
	s, err := NewStreamResponder(&trackedFile{Reader: bytes.NewReader(data)}, 5000, Whole, "")
	require.NoError(t, err)
	assert.Equal(t, data, drain(t, s))
}

func TestStreamEarlyDiscard(t *testing.T) {
	f := &trackedFile{Reader: bytes.NewReader(pattern(4 * BlockSize))}
	s, err := NewStreamResponder(f, 4*BlockSize, Whole, "")
	require.NoError(t, err)
	chunk, err := s.Next()
	require.NoError(t, err)
	assert.Len(t, chunk, BlockSize)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Equal(t, 1, f.closes)
}

func TestStreamTenMiBSecondHalf(t *testing.T) {
	const size = 10 << 20
	path := filepath.Join(t.TempDir(), "track.mp3")
	data := pattern(size)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	s, err := NewStreamResponder(f, size, ParseRange("bytes=5242880-"), "audio/mpeg")
	require.NoError(t, err)

	h := s.Header()
	assert.Equal(t, http.StatusPartialContent, h.Status)
	assert.Equal(t, "bytes 5242880-10485759/*", h.Fields.Get("Content-Range"))
	assert.Equal(t, int64(5<<20), h.ContentLength)

	body := drain(t, s)
	assert.Len(t, body, 5<<20)
	assert.True(t, bytes.Equal(data[5<<20:], body))

	_, err = f.Seek(0, io.SeekStart)
	assert.Error(t, err, "file should be closed after exhaustion")
}

func TestLiteralYieldsOnce(t *testing.T) {
	l := NotFound()
	assert.Equal(t, http.StatusNotFound, l.Header().Status)
	assert.Equal(t, int64(13), l.Header().ContentLength)
	assert.Equal(t, []byte("URI not found"), drain(t, l))

	m := MethodNotAllowed()
	assert.Equal(t, int64(18), m.Header().ContentLength)

	r := RangeNotSatisfiable(42)
	assert.Equal(t, "bytes */42", r.Header().Fields.Get("Content-Range"))
	assert.Empty(t, drain(t, r))
}
