package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zhifan_ops_v1/internal/repository"
	"zhifan_ops_v1/internal/service"
)

// RecordController 纵表记录接口，一种记录类型挂一个实例
type RecordController struct {
	recordService *service.RecordService
	recordType    string
}

// NewRecordController 创建纵表记录控制器
func NewRecordController(s *service.RecordService, recordType string) *RecordController {
	return &RecordController{recordService: s, recordType: recordType}
}

// Schema 有序字段表
func (ctrl *RecordController) Schema(c *gin.Context) {
	fields, err := ctrl.recordService.Schema(c.Request.Context(), ctrl.recordType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

// parseListFilter 解析列表筛选：q 做全文，limit 做分页，
// 其余查询参数一律当作字段子串条件
func parseListFilter(c *gin.Context) repository.RecordFilter {
	filter := repository.RecordFilter{
		FreeText: c.Query("q"),
		Fields:   map[string]string{},
	}
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = n
		}
	}
	for key, values := range c.Request.URL.Query() {
		if key == "q" || key == "limit" {
			continue
		}
		if len(values) > 0 && values[0] != "" {
			filter.Fields[key] = values[0]
		}
	}
	return filter
}

// List 筛选列出记录
func (ctrl *RecordController) List(c *gin.Context) {
	records, err := ctrl.recordService.List(c.Request.Context(), ctrl.recordType, parseListFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

type createRecordRequest struct {
	Action     string            `json:"action"`
	Data       map[string]string `json:"data"`
	KeepFields []string          `json:"keep_fields"`
}

// Create 创建记录；action=batch_copy_yesterday 时执行批量新增
func (ctrl *RecordController) Create(c *gin.Context) {
	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	if req.Action == "batch_copy_yesterday" {
		inserted, err := ctrl.recordService.BatchCopyYesterday(c.Request.Context(), ctrl.recordType, req.KeepFields)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"inserted": inserted})
		return
	}

	if req.Data == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	id, err := ctrl.recordService.Create(c.Request.Context(), ctrl.recordType, req.Data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": strconv.FormatInt(id, 10)})
}

type updateRecordRequest struct {
	Data map[string]string `json:"data" binding:"required"`
}

// Update 更新记录
func (ctrl *RecordController) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	var req updateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	if err := ctrl.recordService.Update(c.Request.Context(), ctrl.recordType, id, req.Data); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
