package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zhifan_ops_v1/internal/middleware"
	"zhifan_ops_v1/internal/service"
)

// RoleController 角色管理接口
type RoleController struct {
	roleService *service.RoleService
}

// NewRoleController 创建角色控制器
func NewRoleController(s *service.RoleService) *RoleController {
	return &RoleController{roleService: s}
}

// List 列出角色
func (ctrl *RoleController) List(c *gin.Context) {
	roles, err := ctrl.roleService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

type createRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	MenuKeys    []string `json:"menu_keys"`
}

// Create 创建角色
func (ctrl *RoleController) Create(c *gin.Context) {
	var req createRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	info, err := ctrl.roleService.Create(c.Request.Context(), req.Name, req.Description, req.MenuKeys)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": info})
}

type updateRoleRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	MenuKeys    []string `json:"menu_keys"`
	SoftDelete  bool     `json:"softDelete"`
}

// Update 更新或软删除角色
func (ctrl *RoleController) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	if req.SoftDelete {
		if err := ctrl.roleService.Delete(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	info, err := ctrl.roleService.Update(c.Request.Context(), id, req.Name, req.Description, req.MenuKeys)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": info})
}

// Menus 当前登录用户可见的菜单分组
func (ctrl *RoleController) Menus(c *gin.Context) {
	claims := middleware.GetUserClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
		return
	}

	groups, err := ctrl.roleService.VisibleMenus(c.Request.Context(), claims.RoleID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"menus": groups})
}
