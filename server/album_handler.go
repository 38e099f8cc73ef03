package server

import (
	"fmt"
	"net/http"
	"strconv"

	"supersonic/core/catalogid"
	"supersonic/core/stream"
	"supersonic/core/subsonic"
	"supersonic/repository"
)

const (
	defaultListSize = 10
	maxListSize     = 500
	ignoredArticles = "The El La Los Las Le Les"
)

// intParam parses a non-negative integer parameter. Missing or malformed
// values fall back to def.
func intParam(req *Request, key string, def int) int {
	if !req.HasParam(key) {
		return def
	}
	n, err := strconv.Atoi(req.Param(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func listSize(req *Request, max int) int {
	size := intParam(req, "size", defaultListSize)
	if size > max {
		size = max
	}
	return size
}

// getMusicDirectory 专辑列出歌曲，艺术家列出专辑
func (h *APIHandler) getMusicDirectory(c *call) (stream.Responder, error) {
	ctx := c.ctx()
	dir := subsonic.NewNode("directory", subsonic.String("id", c.id.Hex()))

	switch c.id.Class() {
	case catalogid.Album:
		album, err := h.catalog.GetAlbum(ctx, c.id)
		if err != nil {
			return nil, fmt.Errorf("get album %s: %w", c.id, err)
		}
		if album == nil {
			return stream.NotFound(), nil
		}
		songs, err := h.catalog.GetSongsByAlbum(ctx, c.id)
		if err != nil {
			return nil, fmt.Errorf("list songs of album %s: %w", c.id, err)
		}
		dir.Attrs = append(dir.Attrs, subsonic.String("name", album.Title))
		for _, s := range songs {
			dir.Append(subsonic.SongNode("child", s))
		}

	case catalogid.Artist:
		albums, err := h.catalog.GetAlbumsByArtist(ctx, c.id)
		if err != nil {
			return nil, fmt.Errorf("list albums of artist %s: %w", c.id, err)
		}
		name := ""
		for _, a := range albums {
			dir.Append(subsonic.AlbumNode("child", a))
			name = a.Artist
		}
		dir.Attrs = append(dir.Attrs, subsonic.String("name", name))

	default:
		return stream.NotFound(), nil
	}
	return c.ok(dir)
}

// getAlbumList serves both getAlbumList and getAlbumList2; the list type
// is ignored and albums come back sorted by title.
func (h *APIHandler) getAlbumList(c *call) (stream.Responder, error) {
	offset := intParam(c.req, "offset", 0)
	size := listSize(c.req, maxListSize)

	albums, err := h.catalog.GetAllAlbumsSorted(c.ctx(), offset, size)
	if err != nil {
		return nil, fmt.Errorf("list albums offset=%d size=%d: %w", offset, size, err)
	}

	element := "albumList"
	if c.op == "getAlbumList2" {
		element = "albumList2"
	}
	list := subsonic.NewNode(element)
	for _, a := range albums {
		list.Append(subsonic.AlbumNode("album", a))
	}
	return c.ok(list)
}

func (h *APIHandler) getAlbum(c *call) (stream.Responder, error) {
	if c.id.Class() != catalogid.Album {
		return stream.NotFound(), nil
	}
	album, err := h.catalog.GetAlbum(c.ctx(), c.id)
	if err != nil {
		return nil, fmt.Errorf("get album %s: %w", c.id, err)
	}
	if album == nil {
		return stream.NotFound(), nil
	}
	songs, err := h.catalog.GetSongsByAlbum(c.ctx(), c.id)
	if err != nil {
		return nil, fmt.Errorf("list songs of album %s: %w", c.id, err)
	}
	return c.ok(subsonic.AlbumDetailNode(album, songs))
}

func (h *APIHandler) getRandomSongs(c *call) (stream.Responder, error) {
	size := listSize(c.req, repository.MaxRandomSongs)
	songs, err := h.catalog.GetRandomSongs(c.ctx(), size)
	if err != nil {
		return nil, fmt.Errorf("pick %d random songs: %w", size, err)
	}
	list := subsonic.NewNode("randomSongs")
	for _, s := range songs {
		list.Append(subsonic.SongNode("song", s))
	}
	return c.ok(list)
}

// getIndexes 所有艺术家放在同一个 "Music" 索引下
func (h *APIHandler) getIndexes(c *call) (stream.Responder, error) {
	ctx := c.ctx()
	artists, err := h.catalog.GetArtists(ctx)
	if err != nil {
		return nil, fmt.Errorf("list artists: %w", err)
	}
	modified, err := h.catalog.LastModified(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog last modified: %w", err)
	}
	var millis int64
	if !modified.IsZero() {
		millis = modified.UnixMilli()
	}

	index := subsonic.NewNode("index", subsonic.String("name", "Music"))
	for _, a := range artists {
		index.Append(subsonic.ArtistNode(a))
	}
	indexes := subsonic.NewNode("indexes",
		subsonic.Int("lastModified", millis),
		subsonic.String("ignoredArticles", ignoredArticles),
	).Append(index)
	return c.ok(indexes)
}

// getCoverArt accepts an album ID or a song ID; a song resolves to its
// album's cover.
func (h *APIHandler) getCoverArt(c *call) (stream.Responder, error) {
	ctx := c.ctx()
	albumID := c.id
	if albumID.Class() == catalogid.Song {
		song, err := h.catalog.GetSong(ctx, albumID)
		if err != nil {
			return nil, fmt.Errorf("get song %s: %w", albumID, err)
		}
		if song == nil {
			return stream.NotFound(), nil
		}
		albumID = song.AlbumID
	}
	if albumID.Class() != catalogid.Album {
		return stream.NotFound(), nil
	}

	size := intParam(c.req, "size", 0)
	img, err := h.catalog.GetAlbumCover(ctx, albumID, size)
	if err != nil {
		return nil, fmt.Errorf("get cover of album %s size %d: %w", albumID, size, err)
	}
	if len(img) == 0 {
		return stream.NotFound(), nil
	}
	return stream.NewLiteral(http.StatusOK, "image/jpeg", img), nil
}
