package controller

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"zhifan_ops_v1/internal/repository"
	"zhifan_ops_v1/internal/service"
)

// WorkspaceController 工作区记录接口（整块 JSON 布局）
type WorkspaceController struct {
	workspaceService *service.WorkspaceService
}

// NewWorkspaceController 创建工作区控制器
func NewWorkspaceController(s *service.WorkspaceService) *WorkspaceController {
	return &WorkspaceController{workspaceService: s}
}

// Schema 工作区注册字段表
func (ctrl *WorkspaceController) Schema(c *gin.Context) {
	fields, err := ctrl.workspaceService.SchemaFields(c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

// List 筛选列出记录
func (ctrl *WorkspaceController) List(c *gin.Context) {
	raw := parseListFilter(c)
	filter := repository.WorkspaceRecordFilter{
		Fields:   raw.Fields,
		FreeText: raw.FreeText,
		Limit:    raw.Limit,
	}

	records, err := ctrl.workspaceService.List(c.Request.Context(), c.Param("key"), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

type workspaceRecordRequest struct {
	Data map[string]string `json:"data" binding:"required"`
}

// Create 创建记录
func (ctrl *WorkspaceController) Create(c *gin.Context) {
	var req workspaceRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	view, err := ctrl.workspaceService.Create(c.Request.Context(), c.Param("key"), req.Data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": strconv.FormatInt(view.ID, 10), "record": view})
}

// Update 更新记录
func (ctrl *WorkspaceController) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	var req workspaceRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	view, err := ctrl.workspaceService.Update(c.Request.Context(), c.Param("key"), id, req.Data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "record": view})
}

// Delete 软删除记录
func (ctrl *WorkspaceController) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	if err := ctrl.workspaceService.Delete(c.Request.Context(), c.Param("key"), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Export 导出 xlsx 附件
func (ctrl *WorkspaceController) Export(c *gin.Context) {
	filename, content, err := ctrl.workspaceService.Export(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}
