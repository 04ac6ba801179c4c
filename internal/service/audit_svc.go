package service

import (
	"context"
	"encoding/json"
	"time"

	"zhifan_ops_v1/internal/middleware"
	"zhifan_ops_v1/internal/model"
	"zhifan_ops_v1/internal/repository"
)

// ==================== AuditService 操作日志服务 ====================

// LogEntry 日志列表项，带操作者用户名
type LogEntry struct {
	ID            int64           `json:"id"`
	ActorUserID   *int64          `json:"actor_user_id"`
	ActorUsername string          `json:"actor_username"`
	Action        string          `json:"action"`
	TargetType    string          `json:"target_type"`
	TargetID      string          `json:"target_id"`
	Detail        json.RawMessage `json:"detail,omitempty"`
	IP            string          `json:"ip"`
	UserAgent     string          `json:"user_agent"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AuditService 操作日志服务
type AuditService struct {
	logRepo  repository.OperationLogRepository
	userRepo repository.UserRepository
}

// NewAuditService 创建操作日志服务
func NewAuditService(logRepo repository.OperationLogRepository, userRepo repository.UserRepository) *AuditService {
	return &AuditService{logRepo: logRepo, userRepo: userRepo}
}

// Log 追加一条操作日志。写日志失败要让上层中止整个变更，
// 所以错误原样返回。
func (s *AuditService) Log(ctx context.Context, action, targetType, targetID string, detail interface{}) error {
	entry := model.OperationLog{
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
	}

	if info := middleware.GetAuditInfo(ctx); info != nil {
		if info.UserID > 0 {
			actorID := info.UserID
			entry.ActorUserID = &actorID
		}
		entry.IP = info.IP
		entry.UserAgent = info.UserAgent
	}

	if detail != nil {
		raw, err := json.Marshal(detail)
		if err != nil {
			return err
		}
		entry.Detail = raw
	}

	return s.logRepo.Append(ctx, &entry)
}

// HasRunToday 某动作今天是否已执行过（协作式幂等闸门），
// actorID 非空时只看该操作人
func (s *AuditService) HasRunToday(ctx context.Context, action string, actorID *int64) (bool, error) {
	return s.logRepo.HasActionToday(ctx, action, actorID)
}

// List 列出日志并补上操作者用户名
func (s *AuditService) List(ctx context.Context, filter repository.OperationLogFilter) ([]LogEntry, error) {
	logs, err := s.logRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	// 同一页里的操作者通常高度重复，按需查一次即可
	usernames := map[int64]string{}
	entries := make([]LogEntry, 0, len(logs))
	for _, l := range logs {
		entry := LogEntry{
			ID:          l.ID,
			ActorUserID: l.ActorUserID,
			Action:      l.Action,
			TargetType:  l.TargetType,
			TargetID:    l.TargetID,
			Detail:      json.RawMessage(l.Detail),
			IP:          l.IP,
			UserAgent:   l.UserAgent,
			CreatedAt:   l.CreatedAt,
		}
		if l.ActorUserID != nil {
			name, ok := usernames[*l.ActorUserID]
			if !ok {
				if user, err := s.userRepo.GetByID(ctx, *l.ActorUserID); err == nil && user != nil {
					name = user.Username
				}
				usernames[*l.ActorUserID] = name
			}
			entry.ActorUsername = name
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
