package admin

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	handlershared "github.com/poshpearl/poshpearl/internal/http/handlers/shared"
	"github.com/poshpearl/poshpearl/internal/http/response"
	"github.com/poshpearl/poshpearl/internal/service"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// respondServiceError 把业务错误映射为接口错误响应。
func respondServiceError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrWishlistItemNotFound):
		respondError(c, response.CodeNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrProductSlugTaken),
		errors.Is(err, service.ErrCategorySlugTaken),
		errors.Is(err, service.ErrInvalidPriceTier),
		errors.Is(err, service.ErrImageLimitExceeded),
		errors.Is(err, service.ErrImageInvalid),
		errors.Is(err, service.ErrInvalidOrderStatus),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword):
		respondError(c, response.CodeBadRequest, err.Error(), nil)
	default:
		respondError(c, response.CodeInternal, fallbackMsg, err)
	}
}
