package server

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"supersonic/core/stream"

	"github.com/google/uuid"
)

// Request is one accepted call waiting in the queue. The acceptor keeps the
// underlying connection open until a worker calls finish.
type Request struct {
	ID       string
	Method   string
	Path     string
	Query    url.Values
	Range    stream.Range
	Received time.Time

	w    http.ResponseWriter
	ctx  context.Context
	done chan struct{}
}

// NewRequest captures everything a worker needs from r. Form values of a
// POST body are merged with the query string.
func NewRequest(w http.ResponseWriter, r *http.Request) *Request {
	query := r.URL.Query()
	if err := r.ParseForm(); err == nil {
		query = r.Form
	}
	return &Request{
		ID:       uuid.NewString(),
		Method:   r.Method,
		Path:     r.URL.Path,
		Query:    query,
		Range:    stream.ParseRange(r.Header.Get("Range")),
		Received: time.Now(),
		w:        w,
		ctx:      r.Context(),
		done:     make(chan struct{}),
	}
}

func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// Param returns the first value of a query parameter.
func (r *Request) Param(key string) string {
	return r.Query.Get(key)
}

// HasParam reports whether key was sent at all, even empty.
func (r *Request) HasParam(key string) bool {
	_, ok := r.Query[key]
	return ok
}

// Done is closed once the response has been delivered.
func (r *Request) Done() <-chan struct{} { return r.done }

func (r *Request) finish() { close(r.done) }
