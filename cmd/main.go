package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"zhifan_ops_v1/internal/controller"
	"zhifan_ops_v1/internal/middleware"
	"zhifan_ops_v1/internal/model"
	"zhifan_ops_v1/internal/repository"
	"zhifan_ops_v1/internal/router"
	"zhifan_ops_v1/internal/service"
	"zhifan_ops_v1/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. 加载环境变量（.env 不存在时忽略）
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 2. 初始化数据库
	db := initDatabase()

	// 3. JWT 配置
	initJWT()

	// 4. 初始化依赖
	deps := initDependencies(db)

	// 5. 初始化路由
	gin.SetMode(getEnv("GIN_MODE", gin.DebugMode))
	r := gin.Default()
	router.InitRoutes(r, deps.Services.Seed, deps.Controllers)

	// 6. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	User      repository.UserRepository
	Role      repository.RoleRepository
	Category  repository.CategoryRepository
	Log       repository.OperationLogRepository
	FieldDef  repository.FieldDefRepository
	Workspace repository.WorkspaceRecordRepository
	Stores    map[string]repository.RecordStore
}

// Services 服务集合
type Services struct {
	Audit     *service.AuditService
	Auth      *service.AuthService
	User      *service.UserService
	Role      *service.RoleService
	Category  *service.CategoryService
	Schema    *service.SchemaService
	Record    *service.RecordService
	Workspace *service.WorkspaceService
	Upload    *service.UploadService
	Seed      *service.SeedService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_DSN", fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Shanghai",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", "zhifan_admin"),
		getEnv("DB_PASSWORD", "1234"),
		getEnv("DB_NAME", "zhifan_ops"),
		getEnv("DB_PORT", "5432"),
	))

	return database.InitDB(dsn,
		// 账号体系
		&model.User{}, &model.Role{},
		// 配置
		&model.Category{},
		// 审计
		&model.OperationLog{},
		// 记录
		&model.WorkspaceRecord{}, &model.RecordFieldDef{},
	)
}

// initJWT 从环境变量装配 JWT 配置
func initJWT() {
	cfg := middleware.DefaultJWTConfig()
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.SecretKey = secret
	}
	middleware.SetJWTConfig(cfg)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- 基础服务 --------
	auditSvc := service.NewAuditService(repos.Log, repos.User)
	uploadSvc := service.NewUploadService(initStorageProvider())

	// -------- 业务服务 --------
	schemaSvc := service.NewSchemaService(repos.FieldDef, repos.Stores)
	services := &Services{
		Audit:     auditSvc,
		Auth:      service.NewAuthService(repos.User, repos.Role),
		User:      service.NewUserService(repos.User, repos.Role, auditSvc),
		Role:      service.NewRoleService(repos.Role, auditSvc),
		Category:  service.NewCategoryService(repos.Category, auditSvc),
		Schema:    schemaSvc,
		Record:    service.NewRecordService(repos.Stores, schemaSvc, auditSvc),
		Workspace: service.NewWorkspaceService(repos.Workspace, auditSvc),
		Upload:    uploadSvc,
		Seed:      service.NewSeedService(repos.User, repos.Role),
	}

	// -------- Controller 层 --------
	controllers := initControllers(services)

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	stores := make(map[string]repository.RecordStore, len(database.NormalizedRecordTables))
	for _, typ := range database.NormalizedRecordTables {
		stores[typ] = repository.NewRecordStore(db, typ)
	}

	return &Repositories{
		User:      repository.NewUserRepository(db),
		Role:      repository.NewRoleRepository(db),
		Category:  repository.NewCategoryRepository(db),
		Log:       repository.NewOperationLogRepository(db),
		FieldDef:  repository.NewFieldDefRepository(db),
		Workspace: repository.NewWorkspaceRecordRepository(db),
		Stores:    stores,
	}
}

// initStorageProvider 初始化图片存储
func initStorageProvider() service.StorageProvider {
	provider, err := service.NewStorageProvider(&service.StorageConfig{
		Provider:  getEnv("STORAGE_PROVIDER", "local"),
		Bucket:    getEnv("AWS_BUCKET", ""),
		Region:    getEnv("AWS_REGION", ""),
		AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		Endpoint:  getEnv("AWS_ENDPOINT", ""),
		CDNDomain: getEnv("AWS_CDN_DOMAIN", ""),
		BasePath:  getEnv("STORAGE_BASE_PATH", "uploads"),
	})
	if err != nil {
		log.Fatalf("存储服务初始化失败: %v", err)
	}
	return provider
}

// initControllers 初始化所有控制器
func initControllers(svc *Services) *router.Controllers {
	return &router.Controllers{
		Auth:          controller.NewAuthController(svc.Auth),
		User:          controller.NewUserController(svc.User),
		Role:          controller.NewRoleController(svc.Role),
		Category:      controller.NewCategoryController(svc.Category),
		Log:           controller.NewLogController(svc.Audit),
		Purchase:      controller.NewRecordController(svc.Record, "purchase"),
		Inventory:     controller.NewRecordController(svc.Record, "inventory"),
		SalesOps:      controller.NewRecordController(svc.Record, "sales_ops"),
		PenaltyAmount: controller.NewRecordController(svc.Record, "penalty_amount"),
		WarehouseCost: controller.NewRecordController(svc.Record, "warehouse_cost"),
		Workspace:     controller.NewWorkspaceController(svc.Workspace),
		Upload:        controller.NewUploadController(svc.Upload),
	}
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
