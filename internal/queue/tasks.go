package queue

import (
	"encoding/json"

	"github.com/poshpearl/poshpearl/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderConfirmationEmail 下单确认邮件任务
	TaskOrderConfirmationEmail = constants.TaskTypeOrderConfirmationEmail
	// TaskPaymentConfirmedEmail 支付确认邮件任务
	TaskPaymentConfirmedEmail = constants.TaskTypePaymentConfirmedEmail
	// TaskWelcomeEmail 欢迎邮件任务
	TaskWelcomeEmail = constants.TaskTypeWelcomeEmail
	// TaskPasswordResetEmail 密码重置邮件任务
	TaskPasswordResetEmail = constants.TaskTypePasswordResetEmail
)

// OrderEmailPayload 订单相关邮件任务载荷
type OrderEmailPayload struct {
	OrderID uint `json:"order_id"`
}

// WelcomeEmailPayload 欢迎邮件任务载荷
type WelcomeEmailPayload struct {
	UserID uint `json:"user_id"`
}

// PasswordResetEmailPayload 密码重置邮件任务载荷
type PasswordResetEmailPayload struct {
	UserID     uint   `json:"user_id"`
	ResetToken string `json:"reset_token"`
}

// NewOrderConfirmationEmailTask 创建下单确认邮件任务
func NewOrderConfirmationEmailTask(payload OrderEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderConfirmationEmail, body), nil
}

// NewPaymentConfirmedEmailTask 创建支付确认邮件任务
func NewPaymentConfirmedEmailTask(payload OrderEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentConfirmedEmail, body), nil
}

// NewWelcomeEmailTask 创建欢迎邮件任务
func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWelcomeEmail, body), nil
}

// NewPasswordResetEmailTask 创建密码重置邮件任务
func NewPasswordResetEmailTask(payload PasswordResetEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPasswordResetEmail, body), nil
}
