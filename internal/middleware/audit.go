package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// ==================== 审计上下文 ====================

// AuditContext Key
type auditContextKey struct{}

// AuditInfo 审计信息，随 request context 传到服务层
type AuditInfo struct {
	UserID    int64
	Username  string
	IP        string
	UserAgent string
}

// WithAuditInfo 注入审计信息到 context
func WithAuditInfo(ctx context.Context, info *AuditInfo) context.Context {
	return context.WithValue(ctx, auditContextKey{}, info)
}

// GetAuditInfo 从 context 获取审计信息
func GetAuditInfo(ctx context.Context) *AuditInfo {
	if info, ok := ctx.Value(auditContextKey{}).(*AuditInfo); ok {
		return info
	}
	return nil
}

// ==================== Gin 中间件 ====================

// AuditContext 审计上下文中间件
// 将用户身份与请求来源注入到 request context，供操作日志使用
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		info := &AuditInfo{
			UserID:    GetUserID(c),
			Username:  GetUsername(c),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		ctx := WithAuditInfo(c.Request.Context(), info)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
