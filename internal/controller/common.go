package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zhifan_ops_v1/internal/service"
)

// respondError 把服务层哨兵错误映射到 HTTP 状态码，
// 未识别的错误一律按数据库错误处理
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "数据库错误"

	switch err {
	case service.ErrInvalidInput, service.ErrLastSuperAdmin,
		service.ErrImageTooLarge, service.ErrUnsupportedImage:
		status = http.StatusBadRequest
		message = err.Error()
	case service.ErrInvalidCredentials, service.ErrInvalidToken:
		status = http.StatusUnauthorized
		message = err.Error()
	case service.ErrUserDisabled, service.ErrAdminCreateScope,
		service.ErrAdminModifyScope, service.ErrAdminGrantSuper:
		status = http.StatusForbidden
		message = err.Error()
	case service.ErrUserNotFound, service.ErrRoleNotFound,
		service.ErrCategoryNotFound, service.ErrRecordNotFound,
		service.ErrWorkspaceNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case service.ErrUsernameExists, service.ErrRoleExists, service.ErrRoleInUse,
		service.ErrCategoryExists, service.ErrBatchAlreadyRan:
		status = http.StatusConflict
		message = err.Error()
	case service.ErrCategoryNotMigrated:
		status = http.StatusInternalServerError
		message = err.Error()
	}

	c.JSON(status, gin.H{"error": message})
}
