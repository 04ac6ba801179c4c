package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NormalizeHeaderCell 清洗表头单元格：去掉 BOM 和换行，压缩连续空白
func NormalizeHeaderCell(cell string) string {
	s := strings.TrimPrefix(cell, "\uFEFF")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.Join(strings.Fields(s), " ")
}

// MergeHeaderRows 合并两行表头：两行都有值且不同拼成 "上-下"，
// 否则取非空的那一行
func MergeHeaderRows(top, bottom []string) []string {
	n := len(top)
	if len(bottom) > n {
		n = len(bottom)
	}
	merged := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var a, b string
		if i < len(top) {
			a = NormalizeHeaderCell(top[i])
		}
		if i < len(bottom) {
			b = NormalizeHeaderCell(bottom[i])
		}
		switch {
		case a != "" && b != "" && a != b:
			merged = append(merged, a+"-"+b)
		case b != "":
			merged = append(merged, b)
		default:
			merged = append(merged, a)
		}
	}
	return merged
}

// DedupeHeader 去掉空列名，重名列追加 "（n）" 后缀（从 2 开始）
func DedupeHeader(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		seen[name]++
		if seen[name] > 1 {
			name = fmt.Sprintf("%s（%d）", name, seen[name])
		}
		out = append(out, name)
	}
	return out
}

// ParseCSVHeader 读取 CSV 文件前 headerRows 行并合并为列名列表。
// headerRows 只支持 1 或 2。
func ParseCSVHeader(path string, headerRows int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	top, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}

	if headerRows <= 1 {
		names := make([]string, len(top))
		for i, c := range top {
			names[i] = NormalizeHeaderCell(c)
		}
		return DedupeHeader(names), nil
	}

	bottom, err := r.Read()
	if err != nil {
		// 只有一行时按单行表头处理
		bottom = nil
	}
	return DedupeHeader(MergeHeaderRows(top, bottom)), nil
}

// FindDataFile 在工作目录及其上一级查找数据文件，找不到返回空串
func FindDataFile(name string) string {
	for _, dir := range []string{".", ".."} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
