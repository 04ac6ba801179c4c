package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"zhifan_ops_v1/internal/middleware"
	"zhifan_ops_v1/internal/model"
	"zhifan_ops_v1/internal/repository"
)

// ==================== AuthService 认证服务 ====================

// TokenPair 登录/刷新的返回结果
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *UserInfo `json:"user"`
}

// UserInfo 对外暴露的用户信息
type UserInfo struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	DisplayName     string `json:"display_name"`
	PermissionLevel string `json:"permission_level"`
	RoleID          *int64 `json:"role_id"`
	RoleName        string `json:"role_name,omitempty"`
	IsDisabled      bool   `json:"is_disabled"`
}

// AuthService 认证服务
type AuthService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo repository.UserRepository, roleRepo repository.RoleRepository) *AuthService {
	return &AuthService{userRepo: userRepo, roleRepo: roleRepo}
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if user.IsDisabled {
		return nil, ErrUserDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// RefreshToken 刷新 Token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := middleware.ParseToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Subject != "refresh" {
		return nil, ErrInvalidToken
	}

	// 确认用户仍然有效
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsDisabled {
		return nil, ErrUserDisabled
	}

	return s.issueTokens(ctx, user)
}

// Profile 当前登录用户信息
func (s *AuthService) Profile(ctx context.Context, userID int64) (*UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.toUserInfo(ctx, user), nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	accessToken, refreshToken, err := middleware.GenerateTokenPair(user)
	if err != nil {
		return nil, err
	}

	cfg := middleware.GetJWTConfig()
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(cfg.AccessTokenTTL),
		User:         s.toUserInfo(ctx, user),
	}, nil
}

func (s *AuthService) toUserInfo(ctx context.Context, user *model.User) *UserInfo {
	info := &UserInfo{
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
