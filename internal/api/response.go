package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/expo-garden/internal/errors"
	"github.com/wfunc/expo-garden/internal/middleware"
)

// SuccessResponse 成功响应
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{Success: true, Data: data})
}

// respondError 把业务错误映射为HTTP响应，调用栈不对外暴露
func respondError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown)
	}
	out := *appErr
	out.Stack = nil
	out.Cause = nil

	status := out.HTTPStatus()
	if status >= http.StatusInternalServerError {
		c.Error(err)
	}
	c.AbortWithStatusJSON(status, apperrors.NewErrorResponse(&out, c.GetHeader(middleware.RequestIDHeader)))
}

func bindError(c *gin.Context, err error) {
	respondError(c, apperrors.Wrap(err, apperrors.ErrInvalidParam, err.Error()))
}

// pathID 解析路径中的正整数ID
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperrors.Newf(apperrors.ErrInvalidParam, "%s 无效: %s", name, c.Param(name)))
		return 0, false
	}
	return uint(id), true
}

// queryInt 读取整数查询参数，缺省时返回默认值
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Newf(apperrors.ErrInvalidParam, "%s 无效: %s", name, raw)
	}
	return v, nil
}

// pageQuery 读取0起始的 page 和 size，size 为0时由服务使用默认值
func pageQuery(c *gin.Context) (page, size int, ok bool) {
	page, err := queryInt(c, "page", 0)
	if err != nil {
		respondError(c, err)
		return 0, 0, false
	}
	size, err = queryInt(c, "size", 0)
	if err != nil {
		respondError(c, err)
		return 0, 0, false
	}
	return page, size, true
}
