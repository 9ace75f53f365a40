package worker

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/poshpearl/poshpearl/internal/constants"
	"github.com/poshpearl/poshpearl/internal/logger"
	"github.com/poshpearl/poshpearl/internal/provider"
	"github.com/poshpearl/poshpearl/internal/queue"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{Container: c}
}

// Register 注册任务处理器
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(constants.TaskTypeOrderConfirmationEmail, c.handleOrderConfirmationEmail)
	mux.HandleFunc(constants.TaskTypePaymentConfirmedEmail, c.handlePaymentConfirmedEmail)
	mux.HandleFunc(constants.TaskTypeWelcomeEmail, c.handleWelcomeEmail)
	mux.HandleFunc(constants.TaskTypePasswordResetEmail, c.handlePasswordResetEmail)
}

func (c *Consumer) handleOrderConfirmationEmail(_ context.Context, task *asynq.Task) error {
	var payload queue.OrderEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_confirmation_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_confirmation_skip_invalid_payload")
		return nil
	}
	if err := c.NotificationService.SendOrderConfirmation(payload.OrderID); err != nil {
		logger.Warnw("worker_order_confirmation_send_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handlePaymentConfirmedEmail(_ context.Context, task *asynq.Task) error {
	var payload queue.OrderEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payment_confirmed_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_payment_confirmed_skip_invalid_payload")
		return nil
	}
	if err := c.NotificationService.SendPaymentConfirmed(payload.OrderID); err != nil {
		logger.Warnw("worker_payment_confirmed_send_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleWelcomeEmail(_ context.Context, task *asynq.Task) error {
	var payload queue.WelcomeEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_welcome_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 {
		logger.Debugw("worker_welcome_skip_invalid_payload")
		return nil
	}
	if err := c.NotificationService.SendWelcome(payload.UserID); err != nil {
		logger.Warnw("worker_welcome_send_failed", "user_id", payload.UserID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handlePasswordResetEmail(_ context.Context, task *asynq.Task) error {
	var payload queue.PasswordResetEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_password_reset_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 || payload.ResetToken == "" {
		logger.Debugw("worker_password_reset_skip_invalid_payload")
		return nil
	}
	if err := c.NotificationService.SendPasswordReset(payload.UserID, payload.ResetToken); err != nil {
		logger.Warnw("worker_password_reset_send_failed", "user_id", payload.UserID, "error", err)
		return err
	}
	return nil
}
