package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zhifan_ops_v1/internal/service"
)

// CategoryController 产品类目接口
type CategoryController struct {
	categoryService *service.CategoryService
}

// NewCategoryController 创建类目控制器
func NewCategoryController(s *service.CategoryService) *CategoryController {
	return &CategoryController{categoryService: s}
}

// List 列出类目（管理页）
func (ctrl *CategoryController) List(c *gin.Context) {
	categories, err := ctrl.categoryService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

type createCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create 创建类目
func (ctrl *CategoryController) Create(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	info, err := ctrl.categoryService.Create(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": info})
}

type updateCategoryRequest struct {
	Name       *string `json:"name"`
	SoftDelete bool    `json:"softDelete"`
}

// Update 重命名或软删除类目
func (ctrl *CategoryController) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	if req.SoftDelete {
		if err := ctrl.categoryService.Delete(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	if req.Name != nil {
		if _, err := ctrl.categoryService.Rename(c.Request.Context(), id, *req.Name); err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Options 下拉用的只读类目列表（登录即可访问）
func (ctrl *CategoryController) Options(c *gin.Context) {
	categories, err := ctrl.categoryService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}
