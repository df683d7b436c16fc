package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/reviewlens/reviewlens/internal/middleware"
	"github.com/reviewlens/reviewlens/internal/pkg/errcode"
	appErr "github.com/reviewlens/reviewlens/internal/pkg/errors"
	"github.com/reviewlens/reviewlens/internal/pkg/response"
)

// handleError maps service errors to a status and envelope. fallbackCode is
// used for unexpected failures; zero means errcode.ErrUnknown.
func handleError(c *gin.Context, err error, fallbackCode int) {
	if err == nil {
		return
	}
	if fallbackCode == 0 {
		fallbackCode = errcode.ErrUnknown
	}
	switch {
	case appErr.IsNotFound(err):
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "review not found")
	case appErr.IsInvalid(err):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, appErr.Message(err, "invalid request"))
	default:
		logutil.GetLogger(c.Request.Context()).Error("request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, fallbackCode, "internal error")
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid review id")
		return 0, false
	}
	return id, true
}

// queryInt reads an integer query parameter, returning def when it is absent.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, name+" must be an integer")
		return 0, false
	}
	return v, true
}
