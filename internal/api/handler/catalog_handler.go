package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Thinhtran42/mtls-capstone-sub001/internal/dto"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/service"
	"github.com/Thinhtran42/mtls-capstone-sub001/pkg/response"
)

// CatalogHandler 目录查询 HTTP 处理器
type CatalogHandler struct {
	catalogSvc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// ListCourses 课程列表
// GET /api/v1/catalog/courses
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.catalogSvc.ListCourses(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, courses)
}

// ListModules 课程下的模块
// GET /api/v1/catalog/courses/:id/modules
func (h *CatalogHandler) ListModules(c *gin.Context) {
	modules, err := h.catalogSvc.ListModules(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.NotFound(c, 13001, "课程不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, modules)
}

// ListSections 模块下的章节，可按 type 过滤
// GET /api/v1/catalog/modules/:id/sections?type=Reading&type=Video
func (h *CatalogHandler) ListSections(c *gin.Context) {
	var q dto.SectionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	sections, err := h.catalogSvc.ListSections(c.Request.Context(), c.Param("id"), q.Types)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSectionType) {
			response.BadRequest(c, 13002, "未知的章节类型")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, sections)
}
