package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Avstn1/shearworkWEB-sub002/internal/dto"
	"github.com/Avstn1/shearworkWEB-sub002/internal/service"
	"github.com/Avstn1/shearworkWEB-sub002/pkg/response"
)

// AvailabilityHandler 可预约时段模块 HTTP 处理器
type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
}

// NewAvailabilityHandler 创建 AvailabilityHandler
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc}
}

// PullAvailability 拉取并聚合当前商家的可预约时段
// POST /api/v1/availability/pull
//
// 请求体可为空，此时等同于拉取本周；部分平台失败时仍返回 200，
// 由 data.success 与 data.errors 表达
func (h *AvailabilityHandler) PullAvailability(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.PullAvailabilityRequest
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	result, err := h.availabilitySvc.PullAvailability(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, result)
}

// GetSlotLength 获取当前商家的标准时段长度
// GET /api/v1/availability/slot-length
func (h *AvailabilityHandler) GetSlotLength(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	minutes, err := h.availabilitySvc.ResolveSlotLength(c.Request.Context(), userID)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, dto.SlotLengthResponse{SlotLengthMinutes: minutes})
}

func (h *AvailabilityHandler) handleAvailabilityError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, service.ErrInvalidTimezone):
		response.ErrorWithDetails(c, http.StatusInternalServerError, 20002, "业务时区配置无效", err.Error())
	default:
		response.InternalError(c)
	}
}
