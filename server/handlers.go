package server

import (
	"context"
	"net/http"
	"strings"

	"supersonic/core/catalogid"
	"supersonic/core/stream"
	"supersonic/core/subsonic"
	"supersonic/logger"
	"supersonic/repository"
	"supersonic/storage"

	"go.uber.org/zap"
)

const restPrefix = "/rest/"

// call 单个请求在路由处理函数之间共享的状态
type call struct {
	req      *Request
	op       string
	user     string
	format   subsonic.Format
	callback string
	id       catalogid.ID
	log      *zap.Logger
}

func (c *call) ctx() context.Context { return c.req.Context() }

// ok renders payload inside a successful response.
func (c *call) ok(payload *subsonic.Node) (stream.Responder, error) {
	return subsonic.Respond(subsonic.Ok(payload), c.format, c.callback)
}

func (c *call) fail(code int, message string) (stream.Responder, error) {
	return subsonic.Respond(subsonic.Failed(code, message), c.format, c.callback)
}

type routeFunc func(c *call) (stream.Responder, error)

// APIHandler 处理所有 /rest/ 请求，由 worker 调用
type APIHandler struct {
	catalog   repository.CatalogRepository
	playlists repository.PlaylistRepository
	media     storage.Source
	metrics   *Metrics

	routes map[string]routeFunc
}

// NewAPIHandler 创建新的API处理器。playlists 为 nil 时歌单接口返回空结果
func NewAPIHandler(
	catalog repository.CatalogRepository,
	playlists repository.PlaylistRepository,
	media storage.Source,
	metrics *Metrics,
) *APIHandler {
	if playlists == nil {
		playlists = repository.NewEmptyPlaylistRepository()
	}
	h := &APIHandler{
		catalog:   catalog,
		playlists: playlists,
		media:     media,
		metrics:   metrics,
	}
	h.routes = map[string]routeFunc{
		"getMusicDirectory": h.getMusicDirectory,
		"getAlbumList":      h.getAlbumList,
		"getAlbumList2":     h.getAlbumList,
		"getAlbum":          h.getAlbum,
		"getRandomSongs":    h.getRandomSongs,
		"getIndexes":        h.getIndexes,
		"getCoverArt":       h.getCoverArt,
		"stream":            h.streamSong,
		"download":          h.streamSong,
		"getPlaylist":       h.getPlaylist,
		"getPlaylists":      h.getPlaylists,
		"getMusicFolders":   h.getMusicFolders,
		"getLicense":        h.getLicense,
		"ping":              h.ping,
		"getUser":           h.getUser,
	}
	for op, element := range mockedOps {
		h.routes[op] = h.mocked(element)
	}
	for _, op := range deniedOps {
		h.routes[op] = h.denied
	}
	return h
}

// operation extracts "getAlbum" from "/rest/getAlbum.view". Paths outside
// /rest/ or without the .view suffix yield "".
func operation(path string) string {
	op, ok := strings.CutPrefix(path, restPrefix)
	if !ok || strings.Contains(op, "/") {
		return ""
	}
	op, ok = strings.CutSuffix(op, ".view")
	if !ok {
		return ""
	}
	return op
}

// unknownOp labels every request whose path is not in the route table.
const unknownOp = "unknown"

// metricOp is the op label for path. Only routed operations get their own
// label so clients cannot create new series.
func (h *APIHandler) metricOp(path string) string {
	op := operation(path)
	if _, ok := h.routes[op]; !ok {
		return unknownOp
	}
	return op
}

func allowedMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost:
		return true
	}
	return false
}

// Handle turns a request into a responder. It never returns nil; storage
// errors become a 500 literal.
func (h *APIHandler) Handle(req *Request) stream.Responder {
	op := operation(req.Path)
	log := logger.With(
		logger.String("requestId", req.ID),
		logger.String("method", req.Method),
		logger.String("op", op),
	)

	if !allowedMethod(req.Method) {
		return stream.MethodNotAllowed()
	}

	c := &call{
		req:      req,
		op:       op,
		user:     req.Param("u"),
		format:   subsonic.ParseFormat(req.Param("f")),
		callback: req.Param("callback"),
		log:      log,
	}

	if resp := h.authenticate(c); resp != nil {
		return resp
	}

	route, ok := h.routes[op]
	if !ok {
		return stream.NotFound()
	}
	c.id = catalogid.ParseHex(req.Param("id"))

	resp, err := route(c)
	if err != nil {
		log.Error("处理请求失败", zap.Error(err))
		return stream.InternalError()
	}
	if resp == nil {
		return stream.NotFound()
	}
	return resp
}
