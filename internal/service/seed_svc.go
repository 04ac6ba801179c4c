package service

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"zhifan_ops_v1/internal/menu"
	"zhifan_ops_v1/internal/model"
	"zhifan_ops_v1/internal/repository"
)

// ==================== SeedService 首启播种 ====================

// SeedService 懒式首启播种：第一个请求进来时确保
// 初始超级管理员和默认角色存在。成功后落闩不再重查。
type SeedService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository

	mu   sync.Mutex
	done bool
}

// NewSeedService 创建播种服务
func NewSeedService(userRepo repository.UserRepository, roleRepo repository.RoleRepository) *SeedService {
	return &SeedService{userRepo: userRepo, roleRepo: roleRepo}
}

// Ensure 幂等播种。失败不落闩，下一个请求会重试。
func (s *SeedService) Ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}

	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		s.done = true
		return nil
	}

	role, err := s.ensureDefaultRole(ctx)
	if err != nil {
		return err
	}

	username := getenvDefault("INITIAL_SUPER_ADMIN_USERNAME", "admin")
	password := getenvDefault("INITIAL_SUPER_ADMIN_PASSWORD", "admin123")
	displayName := getenvDefault("INITIAL_SUPER_ADMIN_DISPLAY_NAME", "超级管理员")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}

	user := model.User{
		Username:        username,
		DisplayName:     displayName,
		PasswordHash:    string(hash),
		PermissionLevel: model.PermissionSuperAdmin,
	}
	if role != nil {
		user.RoleID = &role.ID
	}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		return err
	}

	log.Printf("首启播种完成: 初始超级管理员 %s", username)
	s.done = true
	return nil
}

// ensureDefaultRole 默认角色持有全部菜单
func (s *SeedService) ensureDefaultRole(ctx context.Context) (*model.Role, error) {
	existing, err := s.roleRepo.GetByName(ctx, "默认部门")
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	var keys []string
	for _, g := range menu.Groups {
		for _, it := range g.Items {
			keys = append(keys, it.Key)
		}
	}
	raw, err := json.Marshal(keys)
	if err != nil {
		return nil, err
	}

	role := model.Role{
		Name:        "默认部门",
		Description: "系统默认角色",
		MenuKeys:    raw,
	}
	if err := s.roleRepo.Create(ctx, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
