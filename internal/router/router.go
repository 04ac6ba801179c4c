package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zhifan_ops_v1/internal/controller"
	"zhifan_ops_v1/internal/middleware"
	"zhifan_ops_v1/internal/service"
)

// Controllers 路由依赖的全部控制器
type Controllers struct {
	Auth          *controller.AuthController
	User          *controller.UserController
	Role          *controller.RoleController
	Category      *controller.CategoryController
	Log           *controller.LogController
	Purchase      *controller.RecordController
	Inventory     *controller.RecordController
	SalesOps      *controller.RecordController
	PenaltyAmount *controller.RecordController
	WarehouseCost *controller.RecordController
	Workspace     *controller.WorkspaceController
	Upload        *controller.UploadController
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, seed *service.SeedService, ctls *Controllers) {
	// 每个请求先过首启播种闸门，成功落闩后近似零开销
	r.Use(func(c *gin.Context) {
		if err := seed.Ensure(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "数据库错误"})
			c.Abort()
			return
		}
		c.Next()
	})

	// 上传的图片直接静态服务
	r.Static("/uploads", "uploads")

	// 页面访问闸门：未登录跳转登录页
	r.GET("/work/*path", middleware.PageAuth(), pagePlaceholder)
	r.GET("/settings/*path", middleware.PageAuth(), pagePlaceholder)

	api := r.Group("/api")
	{
		// auth 鉴权组
		auth := api.Group("/auth")
		{
			auth.POST("/login", ctls.Auth.Login)
			auth.POST("/refresh", ctls.Auth.Refresh)
			auth.GET("/profile", middleware.JWTAuth(), ctls.Auth.Profile)
		}

		// admin 管理组：登录 + 管理权限
		admin := api.Group("/admin", middleware.JWTAuth(), middleware.AuditContext(), middleware.RequireAdmin())
		{
			admin.GET("/users", ctls.User.List)
			admin.POST("/users", ctls.User.Create)
			admin.PATCH("/users/:id", ctls.User.Update)

			admin.GET("/roles", ctls.Role.List)
			admin.POST("/roles", ctls.Role.Create)
			admin.PATCH("/roles/:id", ctls.Role.Update)

			admin.GET("/categories", ctls.Category.List)
			admin.POST("/categories", ctls.Category.Create)
			admin.PATCH("/categories/:id", ctls.Category.Update)

			admin.GET("/logs", ctls.Log.List)
		}

		// 业务组：登录即可
		session := api.Group("", middleware.JWTAuth(), middleware.AuditContext())
		{
			session.GET("/config/categories", ctls.Category.Options)
			session.GET("/me/menus", ctls.Role.Menus)

			registerRecordRoutes(session.Group("/confirm"), ctls.Purchase)
			registerRecordRoutes(session.Group("/inventory-turnover"), ctls.Inventory)
			registerRecordRoutes(session.Group("/sales-ops"), ctls.SalesOps)
			registerRecordRoutes(session.Group("/finance/penalty-amount"), ctls.PenaltyAmount)
			// 仓储费用只有 schema，没有记录表
			session.GET("/finance/warehouse-cost/schema", ctls.WarehouseCost.Schema)

			workspace := session.Group("/workspace/:key")
			{
				workspace.GET("/records", ctls.Workspace.List)
				workspace.POST("/records", ctls.Workspace.Create)
				workspace.PATCH("/records/:id", ctls.Workspace.Update)
				workspace.DELETE("/records/:id", ctls.Workspace.Delete)
				workspace.GET("/export", ctls.Workspace.Export)
				workspace.GET("/schema", ctls.Workspace.Schema)
			}

			session.POST("/upload/image", ctls.Upload.Image)
		}
	}
}

func registerRecordRoutes(g *gin.RouterGroup, ctl *controller.RecordController) {
	g.GET("/schema", ctl.Schema)
	g.GET("/records", ctl.List)
	g.POST("/records", ctl.Create)
	g.PATCH("/records/:id", ctl.Update)
}

// pagePlaceholder 页面由前端静态资源渲染，后端只负责鉴权跳转
func pagePlaceholder(c *gin.Context) {
	c.Status(http.StatusOK)
}
