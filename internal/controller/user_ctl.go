package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zhifan_ops_v1/internal/middleware"
	"zhifan_ops_v1/internal/service"
)

// UserController 用户管理接口
type UserController struct {
	userService *service.UserService
}

// NewUserController 创建用户控制器
func NewUserController(s *service.UserService) *UserController {
	return &UserController{userService: s}
}

// List 列出用户
func (ctrl *UserController) List(c *gin.Context) {
	users, err := ctrl.userService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type createUserRequest struct {
	Username        string `json:"username" binding:"required"`
	Password        string `json:"password" binding:"required"`
	DisplayName     string `json:"display_name"`
	PermissionLevel string `json:"permission_level"`
	RoleID          *int64 `json:"role_id"`
}

// Create 创建用户
func (ctrl *UserController) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	info, err := ctrl.userService.Create(c.Request.Context(), middleware.GetPermissionLevel(c), service.CreateUserInput{
		Username:        req.Username,
		Password:        req.Password,
		DisplayName:     req.DisplayName,
		PermissionLevel: req.PermissionLevel,
		RoleID:          req.RoleID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": info})
}

type updateUserRequest struct {
	DisplayName     *string `json:"display_name"`
	Password        *string `json:"password"`
	PermissionLevel *string `json:"permission_level"`
	RoleID          *int64  `json:"role_id"`
	ClearRole       bool    `json:"clear_role"`
	IsDisabled      *bool   `json:"is_disabled"`
}

// Update 更新用户
func (ctrl *UserController) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	info, err := ctrl.userService.Update(c.Request.Context(), middleware.GetPermissionLevel(c), id, service.UpdateUserInput{
		DisplayName:     req.DisplayName,
		Password:        req.Password,
		PermissionLevel: req.PermissionLevel,
		RoleID:          req.RoleID,
		ClearRole:       req.ClearRole,
		IsDisabled:      req.IsDisabled,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": info})
}
