package server

import (
	"fmt"
	"strconv"

	"supersonic/core/stream"
	"supersonic/core/subsonic"
)

// getPlaylist 公开歌单或本人歌单才可读取
func (h *APIHandler) getPlaylist(c *call) (stream.Responder, error) {
	ctx := c.ctx()
	id, err := strconv.ParseInt(c.req.Param("id"), 10, 64)
	if err != nil {
		return c.fail(subsonic.CodeNotFound, "Playlist not found")
	}

	pl, err := h.playlists.GetPlaylist(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get playlist %d: %w", id, err)
	}
	if pl == nil {
		return c.fail(subsonic.CodeNotFound, "Playlist not found")
	}
	if !pl.VisibleTo(c.user) {
		return c.fail(subsonic.CodeNotAuthorized, "Permission denied")
	}

	node := subsonic.PlaylistNode(pl)
	for _, songID := range pl.Songs {
		song, err := h.catalog.GetSong(ctx, songID)
		if err != nil {
			return nil, fmt.Errorf("get song %s of playlist %d: %w", songID, id, err)
		}
		if song == nil {
			// 目录重新扫描后歌曲可能已不存在
			continue
		}
		node.Append(subsonic.SongNode("entry", song))
	}
	return c.ok(node)
}

func (h *APIHandler) getPlaylists(c *call) (stream.Responder, error) {
	owned, err := h.playlists.GetPlaylists(c.ctx(), c.user)
	if err != nil {
		return nil, fmt.Errorf("list playlists of %q: %w", c.user, err)
	}
	list := subsonic.NewNode("playlists")
	for _, pl := range owned {
		list.Append(subsonic.PlaylistNode(pl))
	}
	return c.ok(list)
}
