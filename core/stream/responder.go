// Package stream holds the response objects produced by the dispatcher.
//
// A Responder is pulled by the worker: Header once, then Next until it
// yields an empty chunk. Literal covers every fully materialized response,
// StreamResponder delivers a byte range of a media file in bounded blocks.
package stream

import (
	"net/http"
	"strconv"
)

// BlockSize is the largest chunk Next ever returns.
const BlockSize = 64 * 1024

// Header is the status line and header fields written before any body.
type Header struct {
	Status        int
	ContentType   string
	ContentLength int64
	Fields        http.Header
}

// Responder produces one response. Next returns an empty chunk exactly when
// the body is complete and keeps doing so afterwards. A returned chunk is
// only valid until the following call to Next.
type Responder interface {
	Header() Header
	Next() ([]byte, error)
	Close() error
}

// Literal is a response whose body is already in memory.
type Literal struct {
	header Header
	body   []byte
}

func NewLiteral(status int, contentType string, body []byte) *Literal {
	return &Literal{
		header: Header{
			Status:        status,
			ContentType:   contentType,
			ContentLength: int64(len(body)),
		},
		body: body,
	}
}

// WithField adds a header field and returns l.
func (l *Literal) WithField(key, value string) *Literal {
	if l.header.Fields == nil {
		l.header.Fields = make(http.Header)
	}
	l.header.Fields.Set(key, value)
	return l
}

func (l *Literal) Header() Header { return l.header }

// Next yields the whole body once.
func (l *Literal) Next() ([]byte, error) {
	b := l.body
	l.body = nil
	return b, nil
}

func (l *Literal) Close() error { return nil }

func NotFound() *Literal {
	return NewLiteral(http.StatusNotFound, "text/plain", []byte("URI not found"))
}

func MethodNotAllowed() *Literal {
	return NewLiteral(http.StatusMethodNotAllowed, "text/plain", []byte("Method not allowed"))
}

func InternalError() *Literal {
	return NewLiteral(http.StatusInternalServerError, "text/plain", []byte("Internal server error"))
}

// RangeNotSatisfiable answers a range that starts at or past the end of a
// file of the given size.
func RangeNotSatisfiable(size int64) *Literal {
	return NewLiteral(http.StatusRequestedRangeNotSatisfiable, "text/plain", nil).
		WithField("Content-Range", "bytes */"+strconv.FormatInt(size, 10))
}
