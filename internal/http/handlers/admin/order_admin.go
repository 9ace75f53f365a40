package admin

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poshpearl/poshpearl/internal/http/response"
	"github.com/poshpearl/poshpearl/internal/repository"
)

// GetOrders 订单列表
func (h *Handler) GetOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	result, err := h.OrderService.ListAdmin(repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		OrderNo:       strings.TrimSpace(c.Query("order_no")),
		Email:         strings.TrimSpace(c.Query("email")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list orders", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"orders": result.Orders}, response.Pagination{
		Page:      result.Page,
		PageSize:  result.PageSize,
		Total:     result.Total,
		TotalPage: (result.Total + int64(result.PageSize) - 1) / int64(result.PageSize),
	})
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetByID(id)
	if err != nil {
		respondServiceError(c, err, "failed to load order")
		return
	}
	response.Success(c, gin.H{
		"order":      order,
		"admin_note": order.AdminNote,
	})
}

// UpdateOrderStatus 调整履约状态
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	order, err := h.OrderService.UpdateStatus(id, req.Status)
	if err != nil {
		respondServiceError(c, err, "failed to update order status")
		return
	}
	staffID, _ := getStaffID(c)
	requestLog(c).Infow("admin_order_status_updated", "order_id", id, "status", req.Status, "staff_id", staffID)
	response.Success(c, order)
}

// UpdateOrderPaymentStatus 调整支付状态（退款标记等）
func (h *Handler) UpdateOrderPaymentStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		PaymentStatus string `json:"payment_status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	order, err := h.OrderService.UpdatePaymentStatus(id, req.PaymentStatus)
	if err != nil {
		respondServiceError(c, err, "failed to update payment status")
		return
	}
	staffID, _ := getStaffID(c)
	requestLog(c).Infow("admin_order_payment_status_updated", "order_id", id, "payment_status", req.PaymentStatus, "staff_id", staffID)
	response.Success(c, order)
}

// UpdateOrderNote 员工备注
func (h *Handler) UpdateOrderNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	if err := h.OrderService.UpdateAdminNote(id, req.Note); err != nil {
		respondServiceError(c, err, "failed to update note")
		return
	}
	response.Success(c, gin.H{"updated": true})
}
