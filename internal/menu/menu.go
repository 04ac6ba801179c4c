package menu

// MenuItem 单个菜单项，key 同时作为工作区存储分区键
type MenuItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Href  string `json:"href"`
	Icon  string `json:"icon"`
}

// MenuGroup 菜单分组
type MenuGroup struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Icon  string     `json:"icon"`
	Items []MenuItem `json:"items"`
}

var Groups = []MenuGroup{
	{
		Key: "ops", Label: "业务运营", Icon: "folder",
		Items: []MenuItem{
			{Key: "ops.purchase", Label: "选品", Href: "/work/ops/purchase", Icon: "cart"},
			{Key: "ops.selection_candidates", Label: "选品备选表", Href: "/work/ops/selection-candidates", Icon: "tag"},
			{Key: "ops.inquiry", Label: "询价", Href: "/work/ops/inquiry", Icon: "search"},
			{Key: "ops.pricing", Label: "核价", Href: "/work/ops/pricing", Icon: "calculator"},
			{Key: "ops.confirm", Label: "确品", Href: "/work/ops/confirm", Icon: "badge-check"},
			{Key: "ops.selection", Label: "采购", Href: "/work/ops/selection", Icon: "clipboard"},
			{Key: "ops.first_leg_logistics", Label: "头程物流", Href: "/work/ops/first-leg-logistics", Icon: "truck"},
			{Key: "ops.sales_ops", Label: "销售运营", Href: "/work/ops/sales-ops", Icon: "trending-up"},
			{Key: "ops.inventory_turnover", Label: "库存周转", Href: "/work/ops/inventory-turnover", Icon: "warehouse"},
		},
	},
	{
		Key: "finance", Label: "财务分析", Icon: "chart",
		Items: []MenuItem{
			{Key: "finance.sales_data", Label: "销售数据", Href: "/work/finance/sales-data", Icon: "bar-chart"},
			{Key: "finance.warehouse_cost", Label: "仓库成本", Href: "/work/finance/warehouse-cost", Icon: "database"},
			{Key: "finance.staff_cost", Label: "人员成本", Href: "/work/finance/staff-cost", Icon: "users"},
			{Key: "finance.penalty_amount", Label: "罚款金额", Href: "/work/finance/penalty-amount", Icon: "alert"},
			{Key: "finance.roi", Label: "ROI核算", Href: "/work/finance/roi", Icon: "percent"},
			{Key: "finance.product_strategy", Label: "商品策略", Href: "/work/finance/product-strategy", Icon: "target"},
			{Key: "finance.ops_performance", Label: "运营绩效", Href: "/work/finance/ops-performance", Icon: "grid"},
		},
	},
	{
		Key: "dashboard", Label: "数据仪表盘", Icon: "grid",
		Items: []MenuItem{
			{Key: "dashboard.sku_profit", Label: "单品盈利看板", Href: "/work/dashboard/sku-profit", Icon: "chart"},
			{Key: "dashboard.selection_purchase", Label: "选品采购看板", Href: "/work/dashboard/selection-purchase", Icon: "folder"},
			{Key: "dashboard.inventory_turnover_board", Label: "库存周转率看板", Href: "/work/dashboard/inventory-turnover-board", Icon: "warehouse"},
			{Key: "dashboard.ops_review", Label: "运营复盘看板", Href: "/work/dashboard/ops-review", Icon: "repeat"},
		},
	},
	{
		Key: "settings", Label: "配置管理", Icon: "settings",
		Items: []MenuItem{
			{Key: "settings.users", Label: "用户管理", Href: "/settings/users", Icon: "user"},
			{Key: "settings.roles", Label: "角色管理", Href: "/settings/roles", Icon: "shield"},
			{Key: "settings.categories", Label: "类目配置", Href: "/settings/categories", Icon: "tag"},
			{Key: "settings.logs", Label: "操作日志", Href: "/settings/logs", Icon: "file-text"},
		},
	},
}

// AllKeys 全部菜单 key
func AllKeys() map[string]struct{} {
	keys := make(map[string]struct{})
	for _, g := range Groups {
		for _, it := range g.Items {
			keys[it.Key] = struct{}{}
		}
	}
	return keys
}

// IsValidWorkspaceKey 是否为已注册的菜单 key
func IsValidWorkspaceKey(key string) bool {
	for _, g := range Groups {
		for _, it := range g.Items {
			if it.Key == key {
				return true
			}
		}
	}
	return false
}

// StorageWorkspaceKey 解析存储分区键：询价、核价与选品共用一张底表
func StorageWorkspaceKey(key string) string {
	switch key {
	case "ops.inquiry", "ops.pricing":
		return "ops.purchase"
	default:
		return key
	}
}

// FilterValidKeys 过滤掉未注册的菜单 key，保持传入顺序并去重
func FilterValidKeys(keys []string) []string {
	all := AllKeys()
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := all[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
