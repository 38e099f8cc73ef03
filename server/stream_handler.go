package server

import (
	"errors"
	"fmt"
	"path/filepath"

	"supersonic/core/catalogid"
	"supersonic/core/stream"
	"supersonic/model"
	"supersonic/storage"

	"go.uber.org/zap"
)

// streamSong serves stream and download. The file is delivered in blocks
// by a StreamResponder, honoring the Range header.
func (h *APIHandler) streamSong(c *call) (stream.Responder, error) {
	if c.id.Class() != catalogid.Song {
		return stream.NotFound(), nil
	}
	ctx := c.ctx()

	name, err := h.catalog.GetSongFile(ctx, c.id)
	if err != nil {
		return nil, fmt.Errorf("get file of song %s: %w", c.id, err)
	}
	if name == "" {
		return stream.NotFound(), nil
	}

	media, err := h.media.Open(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		c.log.Warn("媒体文件不存在", zap.String("file", name))
		return stream.NotFound(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", name, err)
	}

	contentType := ""
	if c.op == "stream" {
		contentType = model.ContentTypeOf(filepath.Ext(name))
	}
	resp, err := stream.NewStreamResponder(media.File, media.Size, c.req.Range, contentType)
	if err != nil {
		// 文件已由 responder 关闭
		return nil, fmt.Errorf("stream %q: %w", media.Name, err)
	}
	if !resp.Satisfiable() {
		resp.Close()
		return stream.RangeNotSatisfiable(media.Size), nil
	}

	c.log.Debug("开始推流",
		zap.String("file", media.Name),
		zap.Int64("size", media.Size),
		zap.Int64("start", c.req.Range.Start),
		zap.Int64("length", resp.Length()))
	return resp, nil
}
