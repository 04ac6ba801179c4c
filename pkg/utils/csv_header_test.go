package utils

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestNormalizeHeaderCell(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"\uFEFF店铺名称", "店铺名称"},
		{"费用\r\n项目", "费用 项目"},
		{"  多   个  空格 ", "多 个 空格"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeHeaderCell(c.in); got != c.want {
			t.Errorf("NormalizeHeaderCell(%q) = %q, 期望 %q", c.in, got, c.want)
		}
	}
}

func TestMergeHeaderRows(t *testing.T) {
	got := MergeHeaderRows(
		[]string{"店铺", "链接", "", "状态"},
		[]string{"名称", "地址", "备注", "状态"},
	)
	want := []string{"店铺-名称", "链接-地址", "备注", "状态"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("合并结果 %v, 期望 %v", got, want)
	}
}

func TestDedupeHeader(t *testing.T) {
	got := DedupeHeader([]string{"链接-地址", "", "链接-地址", "链接-地址"})
	want := []string{"链接-地址", "链接-地址（2）", "链接-地址（3）"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("去重结果 %v, 期望 %v", got, want)
	}
}

func TestParseCSVHeaderTwoRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "表格.csv")
	content := "店铺,链接,链接\n名称,地址,地址\n第一行,数据,数据\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}

	got, err := ParseCSVHeader(path, 2)
	if err != nil {
		t.Fatalf("解析表头失败: %v", err)
	}
	want := []string{"店铺-名称", "链接-地址", "链接-地址（2）"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("表头 %v, 期望 %v", got, want)
	}
}

func TestParseCSVHeaderSingleRow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "单行.csv")
	if err := os.WriteFile(path, []byte("\uFEFF违规编号,订单编号,支出金额\n"), 0644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}

	got, err := ParseCSVHeader(path, 1)
	if err != nil {
		t.Fatalf("解析表头失败: %v", err)
	}
	want := []string{"违规编号", "订单编号", "支出金额"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("表头 %v, 期望 %v", got, want)
	}
}

func TestTTLCache(t *testing.T) {
	clock := time.Now()
	cache := NewTTLCache(3*time.Second, func() time.Time { return clock })

	if _, ok := cache.Get("k"); ok {
		t.Error("空缓存不应命中")
	}

	cache.Set("k", []string{"a", "b"})
	if v, ok := cache.Get("k"); !ok || !reflect.DeepEqual(v, []string{"a", "b"}) {
		t.Errorf("缓存命中失败: %v %v", v, ok)
	}

	clock = clock.Add(4 * time.Second)
	if _, ok := cache.Get("k"); ok {
		t.Error("过期后不应命中")
	}
}
