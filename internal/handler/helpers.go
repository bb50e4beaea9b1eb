package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insighthub/internal/middleware"
	"github.com/xxxsen/insighthub/internal/model"
	"github.com/xxxsen/insighthub/internal/pkg/errcode"
	appErr "github.com/xxxsen/insighthub/internal/pkg/errors"
	"github.com/xxxsen/insighthub/internal/pkg/response"
)

type errorMapping struct {
	kind   error
	status int
	code   int
}

var errorMappings = []errorMapping{
	{kind: appErr.ErrInvalid, status: http.StatusBadRequest, code: errcode.ErrInvalid},
	{kind: appErr.ErrUnauthorized, status: http.StatusUnauthorized, code: errcode.ErrUnauthorized},
	{kind: appErr.ErrNotFound, status: http.StatusNotFound, code: errcode.ErrNotFound},
	{kind: appErr.ErrConflict, status: http.StatusConflict, code: errcode.ErrConflict},
	{kind: appErr.ErrTooMany, status: http.StatusTooManyRequests, code: errcode.ErrTooMany},
	{kind: appErr.ErrUpstream, status: http.StatusBadGateway, code: errcode.ErrUpstream},
}

func currentUser(c *gin.Context) (*model.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "could not validate credentials")
		return nil, false
	}
	return user, true
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get(middleware.ContextRequestIDKey)
	userID, _ := c.Get(middleware.ContextUserIDKey)
	fields := []zap.Field{
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Any("user_id", userID),
		zap.Error(err),
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			logutil.GetLogger(c.Request.Context()).Warn("request failed", fields...)
			response.Error(c, m.status, m.code, err.Error())
			return
		}
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed", fields...)
	response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
}
