package public

import (
	"github.com/gin-gonic/gin"

	"github.com/poshpearl/poshpearl/internal/http/handlers/shared"
	"github.com/poshpearl/poshpearl/internal/http/response"
	"github.com/poshpearl/poshpearl/internal/service"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	shared.RespondError(c, code, msg, err)
}

func getUserID(c *gin.Context) (uint, bool) {
	return shared.GetContextUint(c, "user_id")
}

// optionalUserID 读取登录用户ID，未登录返回 0
func optionalUserID(c *gin.Context) uint {
	if value, ok := c.Get("user_id"); ok {
		if id, ok := value.(uint); ok {
			return id
		}
	}
	return 0
}

func sessionKey(c *gin.Context) string {
	if value, ok := c.Get("session_key"); ok {
		if key, ok := value.(string); ok {
			return key
		}
	}
	return ""
}

// cartIdentity 解析当前请求的购物车归属：登录用户优先，其次匿名会话。
func cartIdentity(c *gin.Context) (service.CartIdentity, bool) {
	identity := service.CartIdentity{UserID: optionalUserID(c), SessionKey: sessionKey(c)}
	if !identity.Valid() {
		respondError(c, response.CodeBadRequest, "missing cart identity", nil)
		return identity, false
	}
	return identity, true
}
