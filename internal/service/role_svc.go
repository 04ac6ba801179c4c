package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"zhifan_ops_v1/internal/menu"
	"zhifan_ops_v1/internal/model"
	"zhifan_ops_v1/internal/repository"
)

// ==================== RoleService 角色服务 ====================

// RoleInfo 对外暴露的角色信息
type RoleInfo struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MenuKeys    []string `json:"menu_keys"`
	UserCount   int64    `json:"user_count"`
}

// RoleService 角色服务
type RoleService struct {
	roleRepo repository.RoleRepository
	audit    *AuditService
}

// NewRoleService 创建角色服务
func NewRoleService(roleRepo repository.RoleRepository, audit *AuditService) *RoleService {
	return &RoleService{roleRepo: roleRepo, audit: audit}
}

// List 列出角色
func (s *RoleService) List(ctx context.Context) ([]RoleInfo, error) {
	roles, err := s.roleRepo.List(ctx, 200)
	if err != nil {
		return nil, err
	}

	infos := make([]RoleInfo, 0, len(roles))
	for i := range roles {
		info := s.toInfo(&roles[i])
		info.UserCount, _ = s.roleRepo.CountUsers(ctx, roles[i].ID)
		infos = append(infos, info)
	}
	return infos, nil
}

// Create 创建角色，菜单键里无效的条目直接丢弃
func (s *RoleService) Create(ctx context.Context, name, description string, menuKeys []string) (*RoleInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.roleRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrRoleExists
	}

	raw, err := json.Marshal(menu.FilterValidKeys(menuKeys))
	if err != nil {
		return nil, err
	}

	role := model.Role{
		Name:        name,
		Description: strings.TrimSpace(description),
		MenuKeys:    raw,
	}
	if err := s.roleRepo.Create(ctx, &role); err != nil {
		return nil, err
	}

	err = s.audit.Log(ctx, "role.create", "role", strconv.FormatInt(role.ID, 10), map[string]interface{}{
		"name": role.Name,
	})
	if err != nil {
		return nil, err
	}

	info := s.toInfo(&role)
	return &info, nil
}

// Update 更新角色，menuKeys 传 nil 表示不改动
func (s *RoleService) Update(ctx context.Context, id int64, name, description *string, menuKeys []string) (*RoleInfo, error) {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, ErrInvalidInput
		}
		if trimmed != role.Name {
			existing, err := s.roleRepo.GetByName(ctx, trimmed)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != role.ID {
				return nil, ErrRoleExists
			}
			role.Name = trimmed
		}
	}
	if description != nil {
		role.Description = strings.TrimSpace(*description)
	}
	if menuKeys != nil {
		raw, err := json.Marshal(menu.FilterValidKeys(menuKeys))
		if err != nil {
			return nil, err
		}
		role.MenuKeys = raw
	}

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}

	err = s.audit.Log(ctx, "role.update", "role", strconv.FormatInt(role.ID, 10), map[string]interface{}{
		"name": role.Name,
	})
	if err != nil {
		return nil, err
	}

	info := s.toInfo(role)
	return &info, nil
}

// Delete 软删除角色，角色下还挂着用户时拒绝
func (s *RoleService) Delete(ctx context.Context, id int64) error {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if role == nil {
		return ErrRoleNotFound
	}

	count, err := s.roleRepo.CountUsers(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrRoleInUse
	}

	if err := s.roleRepo.Delete(ctx, id); err != nil {
		return err
	}

	return s.audit.Log(ctx, "role.delete", "role", strconv.FormatInt(id, 10), map[string]interface{}{
		"name": role.Name,
	})
}

// ResolveAllowedMenuKeys 解析某用户可见的菜单键：
// 未绑定角色的用户看到全部菜单，角色已被删除则什么都看不到
func (s *RoleService) ResolveAllowedMenuKeys(ctx context.Context, roleID *int64) (map[string]struct{}, error) {
	if roleID == nil {
		return menu.AllKeys(), nil
	}

	role, err := s.roleRepo.GetByID(ctx, *roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return map[string]struct{}{}, nil
	}

	var keys []string
	if len(role.MenuKeys) > 0 {
		if err := json.Unmarshal(role.MenuKeys, &keys); err != nil {
			return map[string]struct{}{}, nil
		}
	}

	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		allowed[k] = struct{}{}
	}
	return allowed, nil
}

// VisibleMenus 按角色的菜单键过滤菜单分组，空分组整组隐藏
func (s *RoleService) VisibleMenus(ctx context.Context, roleID *int64) ([]menu.MenuGroup, error) {
	allowed, err := s.ResolveAllowedMenuKeys(ctx, roleID)
	if err != nil {
		return nil, err
	}

	groups := make([]menu.MenuGroup, 0, len(menu.Groups))
	for _, g := range menu.Groups {
		items := make([]menu.MenuItem, 0, len(g.Items))
		for _, it := range g.Items {
			if _, ok := allowed[it.Key]; ok {
				items = append(items, it)
			}
		}
		if len(items) == 0 {
			continue
		}
		g.Items = items
		groups = append(groups, g)
	}
	return groups, nil
}

func (s *RoleService) toInfo(role *model.Role) RoleInfo {
	info := RoleInfo{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		MenuKeys:    []string{},
	}
	if len(role.MenuKeys) > 0 {
		_ = json.Unmarshal(role.MenuKeys, &info.MenuKeys)
	}
	return info
}
