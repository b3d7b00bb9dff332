package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Thinhtran42/mtls-capstone-sub001/internal/service"
	"github.com/Thinhtran42/mtls-capstone-sub001/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportCourseOutline 导出课程大纲
// GET /api/v1/export/courses/:id/outline
func (h *ExportHandler) ExportCourseOutline(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportCourseOutline(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 16101, "课程不存在")
	case errors.Is(err, service.ErrExportNoModules):
		response.BadRequest(c, 16102, "该课程暂无模块")
	default:
		response.InternalError(c)
	}
}
