// Package derive 实现联动字段推导：给定字段列表和当前值，
// 计算所有派生字段。纯函数、无副作用，可对同一输入反复执行。
package derive

import (
	"math"
	"strconv"
	"strings"
)

const (
	// 厘米转英寸系数
	CmToInch = 0.3937
	// 公斤转磅系数
	KgToLb = 2.2
)

// RuleKind 推导规则种类
type RuleKind int

const (
	// KindMaxOfTwo 取两个字段的较大值，仅一个有值时取该值
	KindMaxOfTwo RuleKind = iota
	// KindMultiplyCeil 乘以系数后按步长向上取整
	KindMultiplyCeil
	// KindDivide 两字段相除，除数为 0 时不产生值
	KindDivide
	// KindRangeLookup 按区间 (gt, lte] 映射为固定值，无命中不产生值
	KindRangeLookup
	// KindSumMultiplyField 多字段求和后乘以另一个字段的值
	KindSumMultiplyField
	// KindSumMultiplyConst 多字段求和后乘以常数
	KindSumMultiplyConst
	// KindMultiplyConst 乘以常数
	KindMultiplyConst
	// KindDivideConst 除以常数
	KindDivideConst
	// KindCopy 原样复制来源字段（去首尾空白）
	KindCopy
)

// Band 区间映射项，命中条件 value > Gt && value <= Lte
type Band struct {
	Gt    float64
	Lte   float64
	Value string
}

// Rule 推导规则。不同 Kind 使用不同的字段子集；
// 规则只在它读写的所有字段都在当前 schema 里时才生效。
type Rule struct {
	Kind   RuleKind
	Target string

	Source      string   // MultiplyCeil / RangeLookup / MultiplyConst / DivideConst / Copy
	A, B        string   // MaxOfTwo
	Numerator   string   // Divide
	Denominator string   // Divide
	Addends     []string // SumMultiplyField / SumMultiplyConst
	FactorField string   // SumMultiplyField

	Factor  float64 // MultiplyCeil / MultiplyConst / SumMultiplyConst
	Divisor float64 // DivideConst
	Step    float64 // MultiplyCeil
	Digits  int
	Bands   []Band // RangeLookup
}

// DefaultRules 当前生效的规则表。各规则的目标字段互不重叠，
// 表内顺序即求值顺序（被依赖的字段排在前面）。
func DefaultRules() []Rule {
	return []Rule{
		{Kind: KindDivide, Target: "体积重", Numerator: "包裹体积（立方厘米）", Denominator: "体积重系数", Digits: 4},
		{Kind: KindMaxOfTwo, Target: "包裹计费重", A: "体积重", B: "包裹实重（公斤）", Digits: 4},
		{Kind: KindMaxOfTwo, Target: "运输包装计费重", A: "运输包装体积重", B: "运输包装实重", Digits: 4},
		{Kind: KindMultiplyCeil, Target: "包裹计费重（磅）", Source: "包裹计费重", Factor: KgToLb, Step: 1},
		{
			Kind: KindRangeLookup, Target: "运输包装体积系数", Source: "运输包装体积",
			Bands: []Band{
				{Gt: 0, Lte: 5, Value: "0.6"},
				{Gt: 5, Lte: 10, Value: "0.7"},
				{Gt: 10, Lte: 20, Value: "0.8"},
			},
		},
		{
			Kind: KindSumMultiplyField, Target: "尾程成本（人民币）",
			Addends:     []string{"海外仓（卸货费）", "海外仓（操作费）", "派送费（需要测试？）"},
			FactorField: "美元汇率", Digits: 4,
		},
		{
			Kind: KindSumMultiplyConst, Target: "负向成本",
			Addends: []string{"头程成本", "采购成本", "尾程成本（人民币）"},
			Factor:  0.1, Digits: 4,
		},
		{Kind: KindMultiplyConst, Target: "人民币报价", Source: "成本总计", Factor: 1.2, Digits: 4},
		{Kind: KindDivideConst, Target: "temu核价最低标准（未加2.99）", Source: "成本总计", Divisor: 0.6, Digits: 4},
		{Kind: KindDivideConst, Target: "temu报价", Source: "temu核价最低标准（未加2.99）", Divisor: 0.6, Digits: 4},
		{Kind: KindDivideConst, Target: "temu售价", Source: "temu核价最低标准（未加2.99）", Divisor: 0.6, Digits: 4},
	}
}

// ToFiniteNumber 解析数字，空白或非法输入返回 false。
// "不产生值" 与 "产生 0" 由返回的 bool 区分。
func ToFiniteNumber(raw string) (float64, bool) {
	t := strings.TrimSpace(raw)
	if t == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// FormatDecimal 保留至多 digits 位小数，去掉末尾的 0 和小数点，"-0" 归一为 "0"
func FormatDecimal(n float64, digits int) string {
	s := strconv.FormatFloat(n, 'f', digits, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}

// CmSourceForInchField 英寸字段对应的厘米来源字段：
// 同名替换优先，包装尺寸字段允许回退到产品尺寸的厘米字段
func CmSourceForInchField(fields []string, field string) string {
	if !strings.HasSuffix(field, "（英寸）") {
		return ""
	}

	sameName := strings.TrimSuffix(field, "（英寸）") + "（厘米）"
	if sameName != field && containsField(fields, sameName) {
		return sameName
	}

	if strings.HasPrefix(field, "包装尺寸-") {
		source := "产品尺寸-" + strings.TrimPrefix(field, "包装尺寸-")
		source = strings.TrimSuffix(source, "（英寸）") + "（厘米）"
		if source != field && containsField(fields, source) {
			return source
		}
	}

	return ""
}

// CmToInchValue 厘米转英寸，来源空白或非数字时返回 false
func CmToInchValue(cmRaw string) (string, bool) {
	cm, ok := ToFiniteNumber(cmRaw)
	if !ok {
		return "", false
	}
	return FormatDecimal(cm*CmToInch, 4), true
}

// RuleFor 返回目标字段生效的规则，字段不全时规则不生效
func RuleFor(rules []Rule, fields []string, target string) *Rule {
	for i := range rules {
		r := &rules[i]
		if r.Target != target {
			continue
		}
		if r.activeFor(fields) {
			return r
		}
		return nil
	}
	return nil
}

func (r *Rule) activeFor(fields []string) bool {
	if !containsField(fields, r.Target) {
		return false
	}
	for _, f := range r.readFields() {
		if !containsField(fields, f) {
			return false
		}
	}
	return true
}

func (r *Rule) readFields() []string {
	switch r.Kind {
	case KindMaxOfTwo:
		return []string{r.A, r.B}
	case KindDivide:
		return []string{r.Numerator, r.Denominator}
	case KindSumMultiplyField:
		return append(append([]string{}, r.Addends...), r.FactorField)
	case KindSumMultiplyConst:
		return r.Addends
	default:
		return []string{r.Source}
	}
}

// Eval 对当前值求值。第二个返回值为 false 表示规则不产生值
func (r *Rule) Eval(data map[string]string) (string, bool) {
	switch r.Kind {
	case KindMaxOfTwo:
		a, okA := ToFiniteNumber(data[r.A])
		b, okB := ToFiniteNumber(data[r.B])
		switch {
		case !okA && !okB:
			return "", false
		case !okA:
			return FormatDecimal(b, r.Digits), true
		case !okB:
			return FormatDecimal(a, r.Digits), true
		default:
			return FormatDecimal(math.Max(a, b), r.Digits), true
		}

	case KindMultiplyCeil:
		v, ok := ToFiniteNumber(data[r.Source])
		if !ok || r.Step <= 0 {
			return "", false
		}
		out := math.Ceil(v*r.Factor/r.Step) * r.Step
		if r.Step == 1 {
			return strconv.FormatFloat(out, 'f', -1, 64), true
		}
		return FormatDecimal(out, 4), true

	case KindDivide:
		a, okA := ToFiniteNumber(data[r.Numerator])
		b, okB := ToFiniteNumber(data[r.Denominator])
		if !okA || !okB || b == 0 {
			return "", false
		}
		return FormatDecimal(a/b, r.Digits), true

	case KindRangeLookup:
		v, ok := ToFiniteNumber(data[r.Source])
		if !ok {
			return "", false
		}
		for _, band := range r.Bands {
			if v > band.Gt && v <= band.Lte {
				return band.Value, true
			}
		}
		return "", false

	case KindSumMultiplyField:
		factor, ok := ToFiniteNumber(data[r.FactorField])
		if !ok {
			return "", false
		}
		sum, any := sumAddends(data, r.Addends)
		if !any {
			return "", false
		}
		return FormatDecimal(sum*factor, r.Digits), true

	case KindSumMultiplyConst:
		sum, any := sumAddends(data, r.Addends)
		if !any {
			return "", false
		}
		return FormatDecimal(sum*r.Factor, r.Digits), true

	case KindMultiplyConst:
		v, ok := ToFiniteNumber(data[r.Source])
		if !ok {
			return "", false
		}
		return FormatDecimal(v*r.Factor, r.Digits), true

	case KindDivideConst:
		v, ok := ToFiniteNumber(data[r.Source])
		if !ok || r.Divisor == 0 {
			return "", false
		}
		return FormatDecimal(v/r.Divisor, r.Digits), true

	case KindCopy:
		v := strings.TrimSpace(data[r.Source])
		if v == "" {
			return "", false
		}
		return v, true
	}
	return "", false
}

// DeriveAll 重算所有派生字段：先做英寸换算，再按规则表顺序求值。
// 命中规则但输入不全的目标字段会被置为 ""；未命中任何规则的字段原样保留。
func DeriveAll(rules []Rule, fields []string, data map[string]string) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = v
	}

	for _, f := range fields {
		source := CmSourceForInchField(fields, f)
		if source == "" {
			continue
		}
		if computed, ok := CmToInchValue(out[source]); ok {
			out[f] = computed
		}
	}

	for i := range rules {
		r := &rules[i]
		if !r.activeFor(fields) {
			continue
		}
		v, ok := r.Eval(out)
		if !ok {
			v = ""
		}
		out[r.Target] = v
	}

	return out
}

func sumAddends(data map[string]string, addends []string) (float64, bool) {
	sum := 0.0
	any := false
	for _, f := range addends {
		v, ok := ToFiniteNumber(data[f])
		if !ok {
			continue
		}
		any = true
		sum += v
	}
	return sum, any
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
