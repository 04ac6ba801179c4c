package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zhifan_ops_v1/internal/repository"
	"zhifan_ops_v1/internal/service"
)

// LogController 操作日志接口
type LogController struct {
	auditService *service.AuditService
}

// NewLogController 创建日志控制器
func NewLogController(s *service.AuditService) *LogController {
	return &LogController{auditService: s}
}

// List 列出操作日志，limit 夹在 [1,200]，默认 50
func (ctrl *LogController) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
			return
		}
		limit = n
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	filter := repository.OperationLogFilter{
		Action:     c.Query("action"),
		TargetType: c.Query("target_type"),
		Limit:      limit,
	}
	if raw := c.Query("actor"); raw != "" {
		actorID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
			return
		}
		filter.ActorID = &actorID
	}

	logs, err := ctrl.auditService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
