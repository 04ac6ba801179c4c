package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"zhifan_ops_v1/internal/model"
	"zhifan_ops_v1/internal/repository"
)

// bcrypt 代价因子
const bcryptCost = 12

// 测试可替换的时钟
var timeNow = time.Now

// ==================== UserService 用户服务 ====================

// CreateUserInput 创建用户入参
type CreateUserInput struct {
	Username        string
	Password        string
	DisplayName     string
	PermissionLevel string
	RoleID          *int64
}

// UpdateUserInput 更新用户入参，nil 表示不改动
type UpdateUserInput struct {
	DisplayName     *string
	Password        *string
	PermissionLevel *string
	RoleID          *int64
	ClearRole       bool
	IsDisabled      *bool
}

// UserService 用户服务
type UserService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	audit    *AuditService
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, audit *AuditService) *UserService {
	return &UserService{userRepo: userRepo, roleRepo: roleRepo, audit: audit}
}

// List 列出用户（带角色名）
func (s *UserService) List(ctx context.Context) ([]UserInfo, error) {
	users, err := s.userRepo.List(ctx, 200)
	if err != nil {
		return nil, err
	}

	roleNames := map[int64]string{}
	infos := make([]UserInfo, 0, len(users))
	for _, u := range users {
		info := UserInfo{
			ID:              u.ID,
			Username:        u.Username,
			DisplayName:     u.DisplayName,
			PermissionLevel: string(u.PermissionLevel),
			RoleID:          u.RoleID,
			IsDisabled:      u.IsDisabled,
		}
		if u.RoleID != nil {
			name, ok := roleNames[*u.RoleID]
			if !ok {
				if role, err := s.roleRepo.GetByID(ctx, *u.RoleID); err == nil && role != nil {
					name = role.Name
				}
				roleNames[*u.RoleID] = name
			}
			info.RoleName = name
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Create 创建用户。admin 只能创建使用者账号；
// 超级管理员身份只能由超级管理员授予。
func (s *UserService) Create(ctx context.Context, actorLevel string, input CreateUserInput) (*UserInfo, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	level := model.PermissionLevel(input.PermissionLevel)
	if level == "" {
		level = model.PermissionUser
	}
	if level != model.PermissionSuperAdmin && level != model.PermissionAdmin && level != model.PermissionUser {
		return nil, ErrInvalidInput
	}

	if actorLevel == string(model.PermissionAdmin) && level != model.PermissionUser {
		if level == model.PermissionSuperAdmin {
			return nil, ErrAdminGrantSuper
		}
		return nil, ErrAdminCreateScope
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameExists
	}

	if input.RoleID != nil {
		role, err := s.roleRepo.GetByID(ctx, *input.RoleID)
		if err != nil {
			return nil, err
		}
		if role == nil {
			return nil, ErrRoleNotFound
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Username:        username,
		DisplayName:     strings.TrimSpace(input.DisplayName),
		PasswordHash:    string(hash),
		PermissionLevel: level,
		RoleID:          input.RoleID,
	}
	if user.DisplayName == "" {
		user.DisplayName = username
	}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		return nil, err
	}

	err = s.audit.Log(ctx, "user.create", "user", strconv.FormatInt(user.ID, 10), map[string]interface{}{
		"username":         user.Username,
		"permission_level": user.PermissionLevel,
	})
	if err != nil {
		return nil, err
	}

	info := s.toInfo(ctx, &user)
	return &info, nil
}

// Update 更新用户。admin 只能改使用者账号；
// 停用或降级前必须保证系统里还剩至少一个可用的超级管理员。
func (s *UserService) Update(ctx context.Context, actorLevel string, targetID int64, input UpdateUserInput) (*UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if actorLevel == string(model.PermissionAdmin) {
		if user.PermissionLevel != model.PermissionUser {
			return nil, ErrAdminModifyScope
		}
		if input.PermissionLevel != nil && *input.PermissionLevel != string(model.PermissionUser) {
			if *input.PermissionLevel == string(model.PermissionSuperAdmin) {
				return nil, ErrAdminGrantSuper
			}
			return nil, ErrAdminModifyScope
		}
	}

	newLevel := user.PermissionLevel
	if input.PermissionLevel != nil {
		newLevel = model.PermissionLevel(*input.PermissionLevel)
		if newLevel != model.PermissionSuperAdmin && newLevel != model.PermissionAdmin && newLevel != model.PermissionUser {
			return nil, ErrInvalidInput
		}
	}
	newDisabled := user.IsDisabled
	if input.IsDisabled != nil {
		newDisabled = *input.IsDisabled
	}

	// 最后一个可用的超级管理员不能被降级或停用
	losingSuper := user.PermissionLevel == model.PermissionSuperAdmin && !user.IsDisabled &&
		(newLevel != model.PermissionSuperAdmin || newDisabled)
	if losingSuper {
		others, err := s.userRepo.CountActiveSuperAdmins(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if others == 0 {
			return nil, ErrLastSuperAdmin
		}
	}

	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Password != nil && *input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	user.PermissionLevel = newLevel
	if input.ClearRole {
		user.RoleID = nil
	} else if input.RoleID != nil {
		role, err := s.roleRepo.GetByID(ctx, *input.RoleID)
		if err != nil {
			return nil, err
		}
		if role == nil {
			return nil, ErrRoleNotFound
		}
		user.RoleID = input.RoleID
	}
	if input.IsDisabled != nil {
		user.IsDisabled = *input.IsDisabled
		if *input.IsDisabled {
			now := timeNow()
			user.DisabledAt = &now
		} else {
			user.DisabledAt = nil
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	err = s.audit.Log(ctx, "user.update", "user", strconv.FormatInt(user.ID, 10), map[string]interface{}{
		"permission_level": user.PermissionLevel,
		"is_disabled":      user.IsDisabled,
	})
	if err != nil {
		return nil, err
	}

	info := s.toInfo(ctx, user)
	return &info, nil
}

func (s *UserService) toInfo(ctx context.Context, user *model.User) UserInfo {
	info := UserInfo{
		ID:              user.ID,
		Username:        user.Username,
		DisplayName:     user.DisplayName,
		PermissionLevel: string(user.PermissionLevel),
		RoleID:          user.RoleID,
		IsDisabled:      user.IsDisabled,
	}
	if user.RoleID != nil {
		if role, err := s.roleRepo.GetByID(ctx, *user.RoleID); err == nil && role != nil {
			info.RoleName = role.Name
		}
	}
	return info
}
