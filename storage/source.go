// Package storage resolves catalog filenames into seekable media handles.
package storage

import (
	"context"
	"errors"
	"fmt"

	"supersonic/core/stream"
)

// ErrNotFound 媒体文件不存在
var ErrNotFound = errors.New("media file not found")

// Media is an opened media file. The caller owns File and must close it,
// usually by handing it to a stream.StreamResponder.
type Media struct {
	File stream.File
	Size int64
	Name string // resolved path or object key
}

// Source opens media by the filename recorded in the catalog.
type Source interface {
	Open(ctx context.Context, name string) (*Media, error)
	String() string
}

// Chain tries each source in order. ErrNotFound moves on to the next one;
// any other error is returned immediately.
type Chain []Source

func (c Chain) Open(ctx context.Context, name string) (*Media, error) {
	if name == "" {
		return nil, ErrNotFound
	}
	for _, src := range c {
		m, err := src.Open(ctx, name)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", src, err)
		}
	}
	return nil, ErrNotFound
}

func (c Chain) String() string {
	return fmt.Sprintf("chain(%d)", len(c))
}
