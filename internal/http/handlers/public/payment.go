package public

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/poshpearl/poshpearl/internal/constants"
	"github.com/poshpearl/poshpearl/internal/http/handlers/shared"
	"github.com/poshpearl/poshpearl/internal/http/response"
	"github.com/poshpearl/poshpearl/internal/payment/paystack"
	"github.com/poshpearl/poshpearl/internal/service"
)

// PaymentCallback 浏览器回跳核销。
// 主动向网关核验交易后落账，成功时清空当前身份的购物车。
func (h *Handler) PaymentCallback(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		reference = c.Query("trxref")
	}

	identity := service.CartIdentity{UserID: optionalUserID(c), SessionKey: sessionKey(c)}
	result, err := h.CheckoutService.ReconcileCallback(c.Request.Context(), reference, identity)
	if err != nil {
		respondWithMappedError(c, err, append([]mappedHandlerError{
			{target: service.ErrPaymentRefUnknown, code: response.CodeNotFound, msg: "payment reference unknown"},
			{target: paystack.ErrRequestFailed, code: response.CodeInternal, msg: "gateway verification failed"},
		}, checkoutErrorRules...), response.CodeInternal, "payment verification failed")
		return
	}
	response.Success(c, result)
}

// PaymentWebhook 网关异步推送。
// 先校验 X-Paystack-Signature，再核销；未知引用也返回 200 防止网关重试风暴。
func (h *Handler) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		shared.RequestLog(c).Warnw("webhook_read_body_failed", "error", err)
		c.Status(http.StatusBadRequest)
		return
	}

	signature := c.GetHeader(constants.PaystackSignatureHeader)
	if err := h.Paystack.VerifySignature(body, signature); err != nil {
		shared.RequestLog(c).Warnw("webhook_signature_rejected", "error", err)
		c.Status(http.StatusUnauthorized)
		return
	}

	event, err := paystack.ParseWebhook(body)
	if err != nil {
		shared.RequestLog(c).Warnw("webhook_parse_failed", "error", err)
		c.Status(http.StatusBadRequest)
		return
	}

	if _, err := h.CheckoutService.ReconcileWebhook(c.Request.Context(), event); err != nil {
		shared.RequestLog(c).Errorw("webhook_reconcile_failed", "event", event.Event, "reference", event.Data.Reference, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}
