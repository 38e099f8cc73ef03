package server

import (
	"errors"

	"supersonic/core/auth"
	"supersonic/core/stream"
	"supersonic/core/subsonic"

	"go.uber.org/zap"
)

const wrongCredentials = "Wrong username or password"

// credentialsFrom reads u, p, s and t from the request.
func credentialsFrom(req *Request) auth.Credentials {
	return auth.Credentials{
		User:     req.Param("u"),
		Password: req.Param("p"),
		Salt:     req.Param("s"),
		Token:    req.Param("t"),
	}
}

// authenticate returns nil when the caller may proceed, or the error
// response to send instead. No route logic runs for a rejected caller.
func (h *APIHandler) authenticate(c *call) stream.Responder {
	err := auth.Authenticate(c.ctx(), h.catalog, credentialsFrom(c.req))
	if err == nil {
		return nil
	}

	h.metrics.authFailed()
	switch {
	case errors.Is(err, auth.ErrMissingUser),
		errors.Is(err, auth.ErrNoCredentials),
		errors.Is(err, auth.ErrWrongCredentials):
		c.log.Warn("认证失败", zap.String("user", c.user), zap.Error(err))
	default:
		// 存储层故障同样按认证失败处理，但需要记录为错误
		c.log.Error("校验凭据失败", zap.String("user", c.user), zap.Error(err))
	}

	resp, rerr := c.fail(subsonic.CodeWrongCredentials, wrongCredentials)
	if rerr != nil {
		c.log.Error("渲染认证错误失败", zap.Error(rerr))
		return stream.InternalError()
	}
	return resp
}
