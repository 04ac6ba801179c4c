package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"zhifan_ops_v1/internal/service"
)

// UploadController 图片上传接口
type UploadController struct {
	uploadService *service.UploadService
}

// NewUploadController 创建上传控制器
func NewUploadController(s *service.UploadService) *UploadController {
	return &UploadController{uploadService: s}
}

// Image multipart 表单上传图片，字段名 file
func (ctrl *UploadController) Image(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}
	if fileHeader.Size > 10<<20 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "图片大小不能超过 10MB"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	uploadedURL, err := ctrl.uploadService.SaveImage(c.Request.Context(), data, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": uploadedURL})
}
