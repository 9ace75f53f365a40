package admin

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poshpearl/poshpearl/internal/cache"
	"github.com/poshpearl/poshpearl/internal/constants"
	"github.com/poshpearl/poshpearl/internal/http/response"
	"github.com/poshpearl/poshpearl/internal/repository"
)

// GetUsers 顾客列表
func (h *Handler) GetUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	users, total, err := h.UserRepo.List(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list users", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"users": users}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// UpdateUserStatus 启用/停用顾客账户。
// 停用后清除鉴权缓存，令已签发的令牌在校验时立即失效。
func (h *Handler) UpdateUserStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status        string `json:"status" binding:"required"`
		IsDistributor *bool  `json:"is_distributor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	if req.Status != constants.UserStatusActive && req.Status != constants.UserStatusDisabled {
		respondError(c, response.CodeBadRequest, "invalid status", nil)
		return
	}

	user, err := h.UserRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load user", err)
		return
	}
	if user == nil {
		respondError(c, response.CodeNotFound, "user not found", nil)
		return
	}
	updates := map[string]interface{}{"status": req.Status}
	if req.IsDistributor != nil {
		updates["is_distributor"] = *req.IsDistributor
	}
	if err := h.UserRepo.UpdateFields(id, updates); err != nil {
		respondError(c, response.CodeInternal, "failed to update user status", err)
		return
	}
	if err := cache.DelUserAuthState(c.Request.Context(), id); err != nil {
		requestLog(c).Warnw("admin_user_auth_state_evict_failed", "user_id", id, "error", err)
	}

	staffID, _ := getStaffID(c)
	requestLog(c).Infow("admin_user_status_updated", "user_id", id, "status", req.Status, "staff_id", staffID)
	response.Success(c, gin.H{"updated": true})
}
