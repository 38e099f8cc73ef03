package subsonic

import (
	"strconv"

	"supersonic/model"
)

// SongNode maps a song to a child/song/entry element.
func SongNode(name string, s *model.Song) *Node {
	return NewNode(name,
		String("id", s.ID.Hex()),
		String("title", s.Title),
		String("parent", s.AlbumID.Hex()),
		String("album", s.Album),
		String("albumId", s.AlbumID.Hex()),
		String("artist", s.Artist),
		String("artistId", s.ArtistID.Hex()),
		Int("track", int64(s.Track)),
		String("genre", s.Genre),
		Int("duration", int64(s.Duration)),
		Int("year", int64(s.Year)),
		Int("discNumber", int64(s.Disc)),
		Int("bitRate", int64(s.BitRate)),
		String("suffix", s.Suffix),
		String("contentType", s.ContentType()),
		Bool("isDir", false),
		String("coverArt", s.AlbumID.Hex()),
	)
}

// AlbumNode maps an album to a directory-style element, as used by album
// lists and artist directories.
func AlbumNode(name string, a *model.Album) *Node {
	return NewNode(name,
		String("id", a.ID.Hex()),
		String("title", a.Title),
		String("artist", a.Artist),
		String("parent", a.ArtistID.Hex()),
		Bool("isDir", true),
		StringOrNull("coverArt", a.ID.Hex(), a.HasCover),
	)
}

// AlbumDetailNode is the getAlbum element; songs become song children.
func AlbumDetailNode(a *model.Album, songs []*model.Song) *Node {
	n := NewNode("album",
		String("id", a.ID.Hex()),
		String("name", a.Title),
		String("artist", a.Artist),
		String("artistId", a.ArtistID.Hex()),
		Int("songCount", int64(len(songs))),
		String("coverArt", a.ID.Hex()),
	)
	for _, s := range songs {
		n.Append(SongNode("song", s))
	}
	return n
}

func ArtistNode(a *model.Artist) *Node {
	return NewNode("artist", String("id", a.ID.Hex()), String("name", a.Name))
}

// PlaylistNode maps playlist metadata. Entries are appended by the caller.
func PlaylistNode(p *model.Playlist) *Node {
	return NewNode("playlist",
		String("id", strconv.FormatInt(p.ID, 10)),
		String("name", p.Name),
		String("comment", p.Comment),
		String("owner", p.User),
		Bool("public", p.Public),
		Int("songCount", int64(len(p.Songs))),
	)
}
