package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"zhifan_ops_v1/internal/derive"
	"zhifan_ops_v1/internal/menu"
	"zhifan_ops_v1/internal/model"
	"zhifan_ops_v1/internal/repository"
	"zhifan_ops_v1/internal/workspace"
)

// 记录时间戳字段使用的格式
const recordTimeLayout = "2006-01-02 15:04:05"

// 导出单次最多带走的行数
const exportLimit = 5000

// ==================== WorkspaceService 工作区记录服务 ====================

// WorkspaceRecordView 对外暴露的工作区记录
type WorkspaceRecordView struct {
	ID        int64             `json:"id"`
	Data      map[string]string `json:"data"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// WorkspaceService 整块 JSON 布局的工作区记录服务
type WorkspaceService struct {
	repo  repository.WorkspaceRecordRepository
	audit *AuditService
}

// NewWorkspaceService 创建工作区记录服务
func NewWorkspaceService(repo repository.WorkspaceRecordRepository, audit *AuditService) *WorkspaceService {
	return &WorkspaceService{repo: repo, audit: audit}
}

// resolveKey 校验菜单 key 并解析到实际存储分区
func (s *WorkspaceService) resolveKey(key string) (string, *workspace.Schema, error) {
	if !menu.IsValidWorkspaceKey(key) {
		return "", nil, ErrWorkspaceNotFound
	}
	storageKey := menu.StorageWorkspaceKey(key)
	return storageKey, workspace.SchemaFor(storageKey), nil
}

// SchemaFields 工作区的注册字段表，未注册返回空
func (s *WorkspaceService) SchemaFields(key string) ([]string, error) {
	_, schema, err := s.resolveKey(key)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return []string{}, nil
	}
	return schema.Fields, nil
}

// List 筛选列出工作区记录
func (s *WorkspaceService) List(ctx context.Context, key string, filter repository.WorkspaceRecordFilter) ([]WorkspaceRecordView, error) {
	storageKey, _, err := s.resolveKey(key)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.List(ctx, storageKey, filter)
	if err != nil {
		return nil, err
	}

	views := make([]WorkspaceRecordView, 0, len(records))
	for i := range records {
		views = append(views, toView(&records[i]))
	}
	return views, nil
}

// Create 创建工作区记录。已注册 schema 的工作区会做字段规整：
// 跑联动推导、盖创建时间、状态默认进行中。
func (s *WorkspaceService) Create(ctx context.Context, key string, data map[string]string) (*WorkspaceRecordView, error) {
	storageKey, schema, err := s.resolveKey(key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]string{}
	}

	if schema != nil {
		data = derive.DeriveAll(derive.DefaultRules(), schema.Fields, data)
		if schema.HasField("创建时间") && data["创建时间"] == "" {
			data["创建时间"] = time.Now().Format(recordTimeLayout)
		}
		if schema.HasField("最后更新时间") {
			data["最后更新时间"] = ""
		}
		if schema.HasField("状态") && data["状态"] == "" {
			data["状态"] = "进行中"
		}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	record := model.WorkspaceRecord{WorkspaceKey: storageKey, Data: raw}
	if err := s.repo.Create(ctx, &record); err != nil {
		return nil, err
	}

	err = s.audit.Log(ctx, "workspace.record_create", storageKey, strconv.FormatInt(record.ID, 10), nil)
	if err != nil {
		return nil, err
	}

	view := toView(&record)
	return &view, nil
}

// Update 更新工作区记录：补丁合并进现有文档后整体替换，
// schema 注册的工作区重跑推导并盖最后更新时间。
func (s *WorkspaceService) Update(ctx context.Context, key string, id int64, patch map[string]string) (*WorkspaceRecordView, error) {
	storageKey, schema, err := s.resolveKey(key)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.GetByID(ctx, storageKey, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}

	data := map[string]string{}
	if len(record.Data) > 0 {
		if err := json.Unmarshal(record.Data, &data); err != nil {
			data = map[string]string{}
		}
	}
	for k, v := range patch {
		data[k] = v
	}

	if schema != nil {
		data = derive.DeriveAll(derive.DefaultRules(), schema.Fields, data)
		if schema.HasField("最后更新时间") {
			data["最后更新时间"] = time.Now().Format(recordTimeLayout)
		}
		if schema.HasField("状态") && data["状态"] == "" {
			data["状态"] = "进行中"
		}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	record.Data = raw

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}

	err = s.audit.Log(ctx, "workspace.record_update", storageKey, strconv.FormatInt(record.ID, 10), nil)
	if err != nil {
		return nil, err
	}

	view := toView(record)
	return &view, nil
}

// Delete 软删除工作区记录
func (s *WorkspaceService) Delete(ctx context.Context, key string, id int64) error {
	storageKey, _, err := s.resolveKey(key)
	if err != nil {
		return err
	}

	record, err := s.repo.GetByID(ctx, storageKey, id)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrRecordNotFound
	}

	if err := s.repo.Delete(ctx, storageKey, id); err != nil {
		return err
	}

	return s.audit.Log(ctx, "workspace.record_delete", storageKey, strconv.FormatInt(id, 10), nil)
}

// Export 导出工作区记录为 xlsx，列按注册字段表排序；
// 未注册 schema 时按记录里字段首次出现的顺序排
func (s *WorkspaceService) Export(ctx context.Context, key string) (string, []byte, error) {
	storageKey, schema, err := s.resolveKey(key)
	if err != nil {
		return "", nil, err
	}

	records, err := s.repo.ListForExport(ctx, storageKey, exportLimit)
	if err != nil {
		return "", nil, err
	}

	rows := make([]map[string]string, 0, len(records))
	for i := range records {
		rows = append(rows, toView(&records[i]).Data)
	}

	var columns []string
	if schema != nil {
		columns = schema.Fields
	} else {
		seen := map[string]struct{}{}
		for _, row := range rows {
			for k := range row {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					columns = append(columns, k)
				}
			}
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return "", nil, err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return "", nil, err
		}
	}
	for r, row := range rows {
		for c, col := range columns {
			value := row[col]
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return "", nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return "", nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", nil, err
	}

	filename := fmt.Sprintf("%s_%s.xlsx", storageKey, time.Now().Format("20060102"))
	return filename, buf.Bytes(), nil
}

func toView(record *model.WorkspaceRecord) WorkspaceRecordView {
	view := WorkspaceRecordView{
		ID:        record.ID,
		Data:      map[string]string{},
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if len(record.Data) > 0 {
		// 非字符串值退化为原样 JSON 文本
		var loose map[string]interface{}
		if err := json.Unmarshal(record.Data, &loose); err == nil {
			for k, v := range loose {
				switch val := v.(type) {
				case string:
					view.Data[k] = val
				case nil:
					view.Data[k] = ""
				default:
					raw, _ := json.Marshal(val)
					view.Data[k] = string(raw)
				}
			}
		}
	}
	return view
}
