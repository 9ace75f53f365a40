package public

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/poshpearl/poshpearl/internal/http/response"
	"github.com/poshpearl/poshpearl/internal/service"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrInvalidCartItem, code: response.CodeBadRequest, msg: "invalid cart item"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, msg: "cart item not found"},
	{target: service.ErrStockInsufficient, code: response.CodeBadRequest, msg: "insufficient stock"},
	{target: service.ErrPriceUnavailable, code: response.CodeBadRequest, msg: "product price unavailable"},
	{target: service.ErrCartNotFound, code: response.CodeBadRequest, msg: "cart not found"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: service.ErrStockInsufficient, code: response.CodeBadRequest, msg: "insufficient stock"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "invalid email"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderAlreadyPaid, code: response.CodeBadRequest, msg: "order already paid"},
	{target: service.ErrOrderNotPayable, code: response.CodeBadRequest, msg: "order not payable"},
}

var authErrorRules = []mappedHandlerError{
	{target: service.ErrEmailTaken, code: response.CodeBadRequest, msg: "email already registered"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "invalid email"},
	{target: service.ErrWeakPassword, code: response.CodeBadRequest, msg: "password too weak"},
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, msg: "invalid credentials"},
	{target: service.ErrUserDisabled, code: response.CodeForbidden, msg: "account disabled"},
	{target: service.ErrResetTokenInvalid, code: response.CodeBadRequest, msg: "reset token invalid or expired"},
}

var wishlistErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrWishlistItemNotFound, code: response.CodeNotFound, msg: "wishlist item not found"},
}
