package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"zhifan_ops_v1/internal/model"
)

// ==================== JWT 配置 ====================

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey       string        // 签名密钥
	AccessTokenTTL  time.Duration // Access Token 有效期
	RefreshTokenTTL time.Duration // Refresh Token 有效期
	Issuer          string        // 签发者
}

// DefaultJWTConfig 默认配置
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		SecretKey:       "zhifan-ops-secret-key-change-in-production",
		AccessTokenTTL:  2 * time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "zhifan-ops",
	}
}

// 全局配置
var jwtConfig = DefaultJWTConfig()

// SetJWTConfig 设置 JWT 配置
func SetJWTConfig(cfg *JWTConfig) {
	jwtConfig = cfg
}

// GetJWTConfig 获取 JWT 配置
func GetJWTConfig() *JWTConfig {
	return jwtConfig
}

// ==================== Claims 定义 ====================

// UserClaims 用户声明
type UserClaims struct {
	UserID          int64  `json:"user_id"`
	Username        string `json:"username"`
	PermissionLevel string `json:"permission_level"`
	RoleID          *int64 `json:"role_id,omitempty"`
	jwt.RegisteredClaims
}

// ==================== Token 生成 ====================

func generateToken(user *model.User, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &UserClaims{
		UserID:          user.ID,
		Username:        user.Username,
		PermissionLevel: string(user.PermissionLevel),
		RoleID:          user.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtConfig.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtConfig.SecretKey))
}

// GenerateAccessToken 生成 Access Token
func GenerateAccessToken(user *model.User) (string, error) {
	return generateToken(user, "access", jwtConfig.AccessTokenTTL)
}

// GenerateRefreshToken 生成 Refresh Token
func GenerateRefreshToken(user *model.User) (string, error) {
	return generateToken(user, "refresh", jwtConfig.RefreshTokenTTL)
}

// GenerateTokenPair 生成 Token 对
func GenerateTokenPair(user *model.User) (accessToken, refreshToken string, err error) {
	accessToken, err = GenerateAccessToken(user)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = GenerateRefreshToken(user)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// ==================== Token 解析 ====================

// ParseToken 解析 Token
func ParseToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(jwtConfig.SecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// ==================== Gin 中间件 ====================

// Context Keys
const (
	ContextKeyUserID          = "user_id"
	ContextKeyUsername        = "username"
	ContextKeyPermissionLevel = "permission_level"
	ContextKeyClaims          = "claims"
)

// claimsFromRequest 从 Authorization 头解析 Access Token
func claimsFromRequest(c *gin.Context) *UserClaims {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil
	}

	claims, err := ParseToken(parts[1])
	if err != nil || claims.Subject != "access" {
		return nil
	}
	return claims
}

// JWTAuth JWT 认证中间件
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFromRequest(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
			c.Abort()
			return
		}

		// 注入用户信息到 Context
		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyPermissionLevel, claims.PermissionLevel)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// RequireAdmin 管理权限校验中间件（admin 或 super_admin）
func RequireAdmin() gin.HandlerFunc {
	return requirePermission(string(model.PermissionAdmin), string(model.PermissionSuperAdmin))
}

// RequireSuperAdmin 超级管理员校验中间件
func RequireSuperAdmin() gin.HandlerFunc {
	return requirePermission(string(model.PermissionSuperAdmin))
}

func requirePermission(levels ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		level, exists := c.Get(ContextKeyPermissionLevel)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "未登录"})
			c.Abort()
			return
		}

		userLevel := level.(string)
		for _, l := range levels {
			if userLevel == l {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "无权限"})
		c.Abort()
	}
}

// PageAuth 页面访问闸门：未登录跳转到登录页并带上回跳地址
func PageAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := claimsFromRequest(c); claims != nil {
			c.Next()
			return
		}
		// 页面鉴权也接受 cookie 里的 token
		if token, err := c.Cookie("access_token"); err == nil {
			if claims, err := ParseToken(token); err == nil && claims.Subject == "access" {
				c.Next()
				return
			}
		}

		c.Redirect(http.StatusFound, "/auth/login?callbackUrl="+url.QueryEscape(c.Request.URL.Path))
		c.Abort()
	}
}

// ==================== 辅助函数 ====================

// GetUserID 从 Context 获取用户 ID
func GetUserID(c *gin.Context) int64 {
	if id, exists := c.Get(ContextKeyUserID); exists {
		return id.(int64)
	}
	return 0
}

// GetUsername 从 Context 获取用户名
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		return name.(string)
	}
	return ""
}

// GetPermissionLevel 从 Context 获取权限级别
func GetPermissionLevel(c *gin.Context) string {
	if level, exists := c.Get(ContextKeyPermissionLevel); exists {
		return level.(string)
	}
	return ""
}

// GetUserClaims 从 Context 获取完整 Claims
func GetUserClaims(c *gin.Context) *UserClaims {
	if claims, exists := c.Get(ContextKeyClaims); exists {
		return claims.(*UserClaims)
	}
	return nil
}
