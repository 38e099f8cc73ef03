package server

import (
	"supersonic/core/stream"
	"supersonic/core/subsonic"
)

// mockedOps 不支持的功能返回空列表，客户端只需要一个合法的响应
var mockedOps = map[string]string{
	"getGenres":                "genres",
	"getPodcasts":              "podcasts",
	"getNewestPodcasts":        "newestPodcasts",
	"getInternetRadioStations": "internetRadioStations",
	"getShares":                "shares",
	"getLyrics":                "lyrics",
	"getChatMessages":          "chatMessages",
	"getVideos":                "videos",
}

// deniedOps are write operations the server never performs.
var deniedOps = []string{
	"refreshPodcasts",
	"createPodcastChannel",
	"deletePodcastChannel",
	"deletePodcastEpisode",
	"downloadPodcastEpisode",
	"createInternetRadioStation",
	"updateInternetRadioStation",
	"deleteInternetRadioStation",
	"createShare",
	"updateShare",
	"deleteShare",
	"addChatMessage",
	"createUser",
	"updateUser",
	"deleteUser",
	"changePassword",
	"jukeboxControl",
}

func (h *APIHandler) mocked(element string) routeFunc {
	return func(c *call) (stream.Responder, error) {
		return c.ok(subsonic.NewNode(element))
	}
}

func (h *APIHandler) denied(c *call) (stream.Responder, error) {
	return c.fail(subsonic.CodeNotAuthorized, "Permission denied")
}
