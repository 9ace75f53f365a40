package public

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/poshpearl/poshpearl/internal/http/handlers/shared"
	"github.com/poshpearl/poshpearl/internal/http/response"
	"github.com/poshpearl/poshpearl/internal/service"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Company   string `json:"company_name"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// Register 用户注册（注册后匿名购物车并入账户）
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	user, token, expiresAt, err := h.AuthService.Register(service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		CompanyName: req.Company,
	}, sessionKey(c))
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "registration failed")
		return
	}
	response.Success(c, gin.H{
		"user":       user,
		"token":      token,
		"expires_at": expiresAt,
	})
}

// Login 用户登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	user, token, expiresAt, err := h.AuthService.Login(req.Email, req.Password, sessionKey(c), req.RememberMe)
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeUnauthorized, "login failed")
		return
	}
	response.Success(c, gin.H{
		"user":       user,
		"token":      token,
		"expires_at": expiresAt,
	})
}

// RequestPasswordReset 申请密码重置。
// 无论邮箱是否存在都返回成功，避免账号枚举。
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	if err := h.AuthService.RequestPasswordReset(req.Email); err != nil {
		shared.RequestLog(c).Warnw("password_reset_request_failed", "error", err)
	}
	response.SuccessWithMsg(c, "if the email exists, a reset link has been sent", nil)
}

// ResetPassword 使用重置令牌设置新密码
func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	if err := h.AuthService.ResetPassword(req.Token, req.Password); err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "password reset failed")
		return
	}
	response.SuccessWithMsg(c, "password updated", nil)
}

// ChangePassword 登录用户修改密码
func (h *Handler) ChangePassword(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	if err := h.AuthService.ChangePassword(uid, req.OldPassword, req.NewPassword); err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "password change failed")
		return
	}
	response.SuccessWithMsg(c, "password updated", nil)
}

// Me 当前用户信息
func (h *Handler) Me(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.AuthService.GetUserByID(uid)
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "user not found"},
		}, response.CodeInternal, "failed to load user")
		return
	}
	response.Success(c, user)
}

// MyOrders 当前用户订单列表
func (h *Handler) MyOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	result, err := h.OrderService.ListForUser(uid, page, pageSize)
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

// MyOrder 当前用户订单详情
func (h *Handler) MyOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", err)
		return
	}
	order, err := h.OrderService.GetForUser(uint(orderID), uid)
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
		}, response.CodeInternal, "failed to load order")
		return
	}
	response.Success(c, order)
}
