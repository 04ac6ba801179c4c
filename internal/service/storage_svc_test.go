package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func setupUploadSvc(t *testing.T) *UploadService {
	store, err := NewLocalStorage(&StorageConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("创建本地存储失败: %v", err)
	}
	return NewUploadService(store)
}

// 最小可被嗅探为 image/png 的字节序列
var pngMagic = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestSaveImageRejectsEmptyBody(t *testing.T) {
	svc := setupUploadSvc(t)

	if _, err := svc.SaveImage(context.Background(), nil, ""); err != ErrInvalidInput {
		t.Errorf("空文件应报参数错误, 实际: %v", err)
	}
	if _, err := svc.SaveImage(context.Background(), []byte{}, "image/png"); err != ErrInvalidInput {
		t.Errorf("零字节文件应报参数错误, 实际: %v", err)
	}
}

func TestSaveImageRejectsOversize(t *testing.T) {
	svc := setupUploadSvc(t)

	big := bytes.Repeat([]byte{0xFF}, maxImageSize+1)
	if _, err := svc.SaveImage(context.Background(), big, "image/jpeg"); err != ErrImageTooLarge {
		t.Errorf("超限文件应报过大, 实际: %v", err)
	}
}

func TestSaveImageRejectsUnsupportedType(t *testing.T) {
	svc := setupUploadSvc(t)

	// 没带 Content-Type 时按内容嗅探，纯文本会被拒
	if _, err := svc.SaveImage(context.Background(), []byte("hello world"), ""); err != ErrUnsupportedImage {
		t.Errorf("文本内容应报不支持的格式, 实际: %v", err)
	}
	if _, err := svc.SaveImage(context.Background(), pngMagic, "application/pdf"); err != ErrUnsupportedImage {
		t.Errorf("声明的类型不在白名单时应拒绝, 实际: %v", err)
	}
}

func TestSaveImageAcceptsPNG(t *testing.T) {
	svc := setupUploadSvc(t)

	url, err := svc.SaveImage(context.Background(), pngMagic, "")
	if err != nil {
		t.Fatalf("保存 PNG 失败: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/") {
		t.Errorf("本地存储应返回 /uploads/ 相对路径: %q", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Errorf("扩展名应按类型推断为 .png: %q", url)
	}
}
