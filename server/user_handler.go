package server

import (
	"supersonic/core/stream"
	"supersonic/core/subsonic"
)

func (h *APIHandler) ping(c *call) (stream.Responder, error) {
	return c.ok(nil)
}

func (h *APIHandler) getLicense(c *call) (stream.Responder, error) {
	return c.ok(subsonic.NewNode("license",
		subsonic.Bool("valid", true),
		subsonic.String("email", "example@example.com"),
		subsonic.String("key", "ABC123DEF"),
	))
}

// getMusicFolders 只有一个顶层目录
func (h *APIHandler) getMusicFolders(c *call) (stream.Responder, error) {
	folder := subsonic.NewNode("musicFolder",
		subsonic.String("id", "1"),
		subsonic.String("name", "Music"),
	)
	return c.ok(subsonic.NewNode("musicFolders").Append(folder))
}

// getUser reports the caller with read-only roles: streaming, download
// and playlists are on, every management role is off.
func (h *APIHandler) getUser(c *call) (stream.Responder, error) {
	return c.ok(subsonic.NewNode("user",
		subsonic.String("username", c.user),
		subsonic.String("email", c.user+"@localhost"),
		subsonic.Bool("scrobblingEnabled", false),
		subsonic.Bool("adminRole", false),
		subsonic.Bool("settingsRole", false),
		subsonic.Bool("streamRole", true),
		subsonic.Bool("jukeboxRole", false),
		subsonic.Bool("downloadRole", true),
		subsonic.Bool("uploadRole", false),
		subsonic.Bool("playlistRole", true),
		subsonic.Bool("coverArtRole", false),
		subsonic.Bool("commentRole", false),
		subsonic.Bool("podcastRole", false),
		subsonic.Bool("shareRole", false),
		subsonic.Bool("videoConversionRole", false),
	))
}
