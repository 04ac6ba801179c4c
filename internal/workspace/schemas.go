package workspace

// Schema 某工作区的表单结构：有 Schema 的工作区按字段表单编辑，
// 没有的退化为原始 JSON 编辑
type Schema struct {
	Key    string
	Title  string
	Fields []string
}

// SkynestPurchaseFields2025 选品表兜底字段列表（订货明细表头的落库版本）
var SkynestPurchaseFields2025 = []string{
	"产品名称",
	"所属类目",
	"参考链接",
	"产品图片",
	"是否有专利风险",
	"询价人",
	"产品尺寸-长（厘米）",
	"产品尺寸-宽（厘米）",
	"产品尺寸-高（厘米）",
	"包装尺寸-长（英寸）",
	"包装尺寸-宽（英寸）",
	"包装尺寸-高（英寸）",
	"产品体积",
	"产品重量",
	"产品实物图",
	"包裹尺寸-长（厘米）",
	"包裹尺寸-宽（厘米）",
	"包裹尺寸-高（厘米）",
	"包裹尺寸-长（英寸）",
	"包裹尺寸-宽（英寸）",
	"包裹尺寸-高（英寸）",
	"包裹体积（立方厘米）",
	"体积重系数",
	"体积重",
	"包裹实重（公斤）",
	"包裹计费重",
	"包裹计费重（磅）",
	"包裹实物包装图",
	"箱规",
	"运输包装尺寸-长（厘米）",
	"运输包装尺寸-宽（厘米）",
	"运输包装尺寸-高（厘米）",
	"运输包装体积",
	"运输包装体积系数",
	"运输包装体积重",
	"运输包装实重",
	"运输包装计费重",
	"产品单价",
	"起订量",
	"优惠政策",
	"交货周期",
	"资质情况",
	"专利情况",
	"工厂所在地",
	"工厂联系人",
	"联系人电话",
	"海外仓（卸货费）",
	"海外仓（操作费）",
	"派送费（需要测试？）",
	"美元汇率",
	"尾程成本（人民币）",
	"头程单价（人民币）？",
	"头程成本",
	"采购成本",
	"负向成本",
	"成本总计",
	"人民币报价",
	"temu核价最低标准（未加2.99）",
	"temu报价",
	"temu售价",
	"卖价",
	"状态",
	"创建时间",
	"最后更新时间",
}

// ZhifanSalesOpsFields 运营链接日常跟踪表兜底字段列表
var ZhifanSalesOpsFields = []string{
	"运营人员",
	"店铺名称",
	"产品名称",
	"链接ID",
	"链接标签",
	"上架日期",
	"日销量",
	"日销售额",
	"广告花费",
	"点击率",
	"转化率",
	"库存数量",
	"备注",
}

// InventoryTurnoverFields 库存周转表兜底字段列表
var InventoryTurnoverFields = []string{
	"运营人员",
	"店铺名称",
	"产品名称",
	"SKC",
	"SKU",
	"产品规格",
	"链接标签",
}

// TemuPenaltyAmountFields temu 违规支出兜底字段列表
var TemuPenaltyAmountFields = []string{
	"违规编号",
	"订单编号",
	"违规类型",
	"支出金额",
	"币种",
	"账务时间",
}

// WarehouseCostFields 仓库费用明细兜底字段列表
var WarehouseCostFields = []string{
	"仓库名称",
	"客户",
	"单据类型",
	"单号",
	"ERP单号",
	"运单号",
	"平台订单号",
	"计费时间",
	"流水号",
	"费用项",
	"计费策略",
	"货币",
	"计费金额",
	"核销节点",
	"核销状态",
	"出账状态",
	"关联账单",
	"账单状态",
	"货主",
}

var selectionCandidateFields = []string{
	"产品名称",
	"参考链接",
	"产品图片",
	"所属类目",
	"是否有专利风险",
	"预估售价",
	"预估成本",
	"竞品销量",
	"备注",
	"状态",
	"创建时间",
	"最后更新时间",
}

var schemas = map[string]*Schema{
	"ops.purchase":             {Key: "ops.purchase", Title: "选品", Fields: SkynestPurchaseFields2025},
	"ops.inquiry":              {Key: "ops.inquiry", Title: "询价", Fields: SkynestPurchaseFields2025},
	"ops.pricing":              {Key: "ops.pricing", Title: "核价", Fields: SkynestPurchaseFields2025},
	"ops.selection_candidates": {Key: "ops.selection_candidates", Title: "选品备选表", Fields: selectionCandidateFields},
}

// SchemaFor 返回工作区的表单结构，未注册返回 nil
func SchemaFor(workspaceKey string) *Schema {
	return schemas[workspaceKey]
}

// HasField 字段是否存在于结构中
func (s *Schema) HasField(name string) bool {
	if s == nil {
		return false
	}
	for _, f := range s.Fields {
		if f == name {
			return true
		}
	}
	return false
}
