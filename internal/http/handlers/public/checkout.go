package public

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poshpearl/poshpearl/internal/http/response"
	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/service"
)

// CheckoutRequest 结账请求
type CheckoutRequest struct {
	OrderID  uint   `json:"order_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
}

func (h *Handler) beginCheckout(c *gin.Context, req CheckoutRequest) (*models.Order, bool) {
	identity, ok := cartIdentity(c)
	if !ok {
		return nil, false
	}
	input := service.CheckoutInput{
		Identity: identity,
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
		City:     req.City,
		State:    req.State,
		ClientIP: c.ClientIP(),
	}
	if uid := optionalUserID(c); uid > 0 {
		input.UserID = &uid
	}
	order, err := h.CheckoutService.BeginCheckout(input)
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "checkout failed")
		return nil, false
	}
	return order, true
}

// Checkout 从购物车创建订单（不触发支付）
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	order, ok := h.beginCheckout(c, req)
	if !ok {
		return
	}
	response.Success(c, gin.H{"order": order})
}

// InitPayment 创建订单（或复用已有订单）并初始化网关交易
func (h *Handler) InitPayment(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	orderID := req.OrderID
	if orderID == 0 {
		order, ok := h.beginCheckout(c, req)
		if !ok {
			return
		}
		orderID = order.ID
	}
	result, err := h.CheckoutService.InitializePayment(c.Request.Context(), orderID)
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "payment initialization failed")
		return
	}
	response.Success(c, result)
}

// TrackOrder 匿名订单查询（订单号 + 下单邮箱）
func (h *Handler) TrackOrder(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	email := strings.TrimSpace(c.Query("email"))
	if orderNo == "" || email == "" {
		respondError(c, response.CodeBadRequest, "order_no and email are required", nil)
		return
	}
	order, err := h.OrderService.GetByOrderNoForEmail(orderNo, email)
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
		}, response.CodeInternal, "failed to load order")
		return
	}
	response.Success(c, order)
}
