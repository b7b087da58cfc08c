package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/spanel_go_server/internal/api/middleware"
	"github.com/qs3c/spanel_go_server/internal/pkg/response"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// currentUser 取当前登录用户，未登录时已写入 401
func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
	}
	return userID, ok
}

// pagination 解析 page/page_size，非法值回退默认
func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.Query("page_size"))
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "无效的 ID")
		return 0, false
	}
	return id, true
}

// internalError 记录错误并返回通用 500
func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	response.ServerError(c, "")
}
