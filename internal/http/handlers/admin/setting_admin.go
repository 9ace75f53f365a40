package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/poshpearl/poshpearl/internal/http/response"
)

// GetSetting 读取站点设置
func (h *Handler) GetSetting(c *gin.Context) {
	key := c.Param("key")
	value, err := h.SettingService.GetByKey(key)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load setting", err)
		return
	}
	response.Success(c, gin.H{"key": key, "value": value})
}

// UpdateSetting 更新站点设置
func (h *Handler) UpdateSetting(c *gin.Context) {
	key := c.Param("key")
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	value, err := h.SettingService.Update(c.Request.Context(), key, req)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to update setting", err)
		return
	}
	staffID, _ := getStaffID(c)
	requestLog(c).Infow("admin_setting_updated", "key", key, "staff_id", staffID)
	response.Success(c, gin.H{"key": key, "value": value})
}
