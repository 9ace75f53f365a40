package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/poshpearl/poshpearl/internal/constants"
	"github.com/poshpearl/poshpearl/internal/logger"
	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/queue"
	"github.com/poshpearl/poshpearl/internal/repository"
)

// NotificationService 通知服务。
// 邮件按「未发送标记」幂等：同一订单的同类邮件最多发送一次，
// 队列至少一次投递下重复任务会在标记检查处落空。
type NotificationService struct {
	orderRepo      repository.OrderRepository
	userRepo       repository.UserRepository
	settingService *SettingService
	emailService   *EmailService
	queueClient    *queue.Client
	siteURL        string
}

// NewNotificationService 创建通知服务
func NewNotificationService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	settingService *SettingService,
	emailService *EmailService,
	queueClient *queue.Client,
	siteURL string,
) *NotificationService {
	return &NotificationService{
		orderRepo:      orderRepo,
		userRepo:       userRepo,
		settingService: settingService,
		emailService:   emailService,
		queueClient:    queueClient,
		siteURL:        strings.TrimRight(strings.TrimSpace(siteURL), "/"),
	}
}

// NotifyOrderConfirmation 触发下单确认邮件（队列优先，未启用时同步发送）
func (s *NotificationService) NotifyOrderConfirmation(orderID uint) {
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueOrderConfirmationEmail(queue.OrderEmailPayload{OrderID: orderID}); err != nil {
			logger.Warnw("enqueue_order_confirmation_failed", "order_id", orderID, "error", err)
		}
		return
	}
	if err := s.SendOrderConfirmation(orderID); err != nil {
		logger.Warnw("send_order_confirmation_failed", "order_id", orderID, "error", err)
	}
}

// NotifyPaymentConfirmed 触发支付确认邮件
func (s *NotificationService) NotifyPaymentConfirmed(orderID uint) {
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueuePaymentConfirmedEmail(queue.OrderEmailPayload{OrderID: orderID}); err != nil {
			logger.Warnw("enqueue_payment_confirmed_failed", "order_id", orderID, "error", err)
		}
		return
	}
	if err := s.SendPaymentConfirmed(orderID); err != nil {
		logger.Warnw("send_payment_confirmed_failed", "order_id", orderID, "error", err)
	}
}

// NotifyWelcome 触发欢迎邮件
func (s *NotificationService) NotifyWelcome(userID uint) {
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueWelcomeEmail(queue.WelcomeEmailPayload{UserID: userID}); err != nil {
			logger.Warnw("enqueue_welcome_email_failed", "user_id", userID, "error", err)
		}
		return
	}
	if err := s.SendWelcome(userID); err != nil {
		logger.Warnw("send_welcome_email_failed", "user_id", userID, "error", err)
	}
}

// NotifyPasswordReset 触发密码重置邮件
func (s *NotificationService) NotifyPasswordReset(userID uint, resetToken string) {
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueuePasswordResetEmail(queue.PasswordResetEmailPayload{UserID: userID, ResetToken: resetToken}); err != nil {
			logger.Warnw("enqueue_password_reset_failed", "user_id", userID, "error", err)
		}
		return
	}
	if err := s.SendPasswordReset(userID, resetToken); err != nil {
		logger.Warnw("send_password_reset_failed", "user_id", userID, "error", err)
	}
}

// SendOrderConfirmation 发送下单确认邮件（幂等）
func (s *NotificationService) SendOrderConfirmation(orderID uint) error {
	if !s.settingService.EmailFlagEnabled(constants.SettingKeyOrderEmailOn) {
		return nil
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.ConfirmationSentAt != nil {
		return nil
	}

	if err := s.emailService.SendOrderConfirmation(order.Email, buildOrderEmailInput(order)); err != nil {
		return s.swallowDisabled(err, "order_confirmation", order.ID)
	}
	if _, err := s.orderRepo.MarkConfirmationSent(order.ID); err != nil {
		return err
	}
	return nil
}

// SendPaymentConfirmed 发送支付确认邮件（幂等）
func (s *NotificationService) SendPaymentConfirmed(orderID uint) error {
	if !s.settingService.EmailFlagEnabled(constants.SettingKeyPaymentEmailOn) {
		return nil
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.PaymentConfirmationSentAt != nil {
		return nil
	}

	if err := s.emailService.SendPaymentConfirmed(order.Email, buildOrderEmailInput(order)); err != nil {
		return s.swallowDisabled(err, "payment_confirmed", order.ID)
	}
	if _, err := s.orderRepo.MarkPaymentConfirmationSent(order.ID); err != nil {
		return err
	}
	return nil
}

// SendWelcome 发送欢迎邮件（幂等）
func (s *NotificationService) SendWelcome(userID uint) error {
	if !s.settingService.EmailFlagEnabled(constants.SettingKeyWelcomeEmailOn) {
		return nil
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.WelcomeSentAt != nil {
		return nil
	}

	if err := s.emailService.SendWelcome(user.Email, user.FirstName); err != nil {
		return s.swallowDisabled(err, "welcome", user.ID)
	}
	if _, err := s.userRepo.MarkWelcomeSent(user.ID); err != nil {
		return err
	}
	return nil
}

// SendPasswordReset 发送密码重置邮件
func (s *NotificationService) SendPasswordReset(userID uint, resetToken string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.siteURL, resetToken)
	err = s.emailService.SendPasswordReset(user.Email, resetURL)
	return s.swallowDisabled(err, "password_reset", user.ID)
}

// swallowDisabled 邮件服务未启用不算业务错误
func (s *NotificationService) swallowDisabled(err error, kind string, id uint) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrEmailServiceDisabled) || errors.Is(err, ErrEmailServiceNotConfigured) {
		logger.Debugw("email_skipped_service_disabled", "kind", kind, "id", id)
		return nil
	}
	return err
}

func buildOrderEmailInput(order *models.Order) OrderEmailInput {
	return OrderEmailInput{
		OrderNo:  order.OrderNo,
		FullName: order.FullName,
		Amount:   order.TotalAmount,
		Currency: order.Currency,
		Items:    order.Items,
	}
}
