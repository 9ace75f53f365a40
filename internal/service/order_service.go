package service

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/poshpearl/poshpearl/internal/constants"
	"github.com/poshpearl/poshpearl/internal/logger"
	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/repository"
)

// statusTransitions 履约状态允许的流转
var statusTransitions = map[string][]string{
	constants.OrderStatusNew:        {constants.OrderStatusProcessing, constants.OrderStatusCancelled},
	constants.OrderStatusProcessing: {constants.OrderStatusFulfilled, constants.OrderStatusShipped, constants.OrderStatusCancelled},
	constants.OrderStatusFulfilled:  {constants.OrderStatusShipped, constants.OrderStatusDelivered},
	constants.OrderStatusShipped:    {constants.OrderStatusDelivered},
}

// paymentStatusTransitions 员工可手动调整的支付状态流转。
// 已支付订单只允许标记退款，绝不允许回退为失败或待支付。
var paymentStatusTransitions = map[string][]string{
	constants.PaymentStatusPending: {constants.PaymentStatusPaid, constants.PaymentStatusFailed},
	constants.PaymentStatusFailed:  {constants.PaymentStatusPending},
	constants.PaymentStatusPaid:    {constants.PaymentStatusRefunded},
}

// OrderListResult 订单分页结果
type OrderListResult struct {
	Orders   []models.Order `json:"orders"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// OrderService 订单查询与员工操作
type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo, productRepo: productRepo}
}

// GetForUser 获取用户自己的订单
func (s *OrderService) GetForUser(orderID uint, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByOrderNoForEmail 游客通过订单号+邮箱查询
func (s *OrderService) GetByOrderNoForEmail(orderNo string, email string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(strings.TrimSpace(orderNo))
	if err != nil {
		return nil, err
	}
	if order == nil || !strings.EqualFold(order.Email, strings.TrimSpace(email)) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListForUser 用户订单列表
func (s *OrderService) ListForUser(userID uint, page, pageSize int) (*OrderListResult, error) {
	page, pageSize = normalizePage(page, pageSize)
	orders, total, err := s.orderRepo.ListByUser(repository.OrderListFilter{Page: page, PageSize: pageSize, UserID: userID})
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListAdmin 员工订单列表
func (s *OrderService) ListAdmin(filter repository.OrderListFilter) (*OrderListResult, error) {
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	orders, total, err := s.orderRepo.ListAdmin(filter)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// GetByID 员工查看订单详情
func (s *OrderService) GetByID(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus 员工调整履约状态。
// 取消未支付订单时回补库存并记录取消时间。
func (s *OrderService) UpdateStatus(orderID uint, status string) (*models.Order, error) {
	order, err := s.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(statusTransitions, order.Status, status) {
		return nil, ErrInvalidOrderStatus
	}

	updates := map[string]interface{}{"status": status}
	if status == constants.OrderStatusCancelled {
		updates["canceled_at"] = time.Now()
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).UpdateFields(order.ID, updates); err != nil {
			return err
		}
		if status == constants.OrderStatusCancelled && order.PaymentStatus != constants.PaymentStatusPaid {
			productRepo := s.productRepo.WithTx(tx)
			for _, item := range order.Items {
				if err := productRepo.IncrementStock(item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.SW("order_id", order.ID, "order_no", order.OrderNo).Infow("order_status_updated",
		"from", order.Status, "to", status)
	return s.GetByID(orderID)
}

// UpdatePaymentStatus 员工调整支付状态（退款标记等）
func (s *OrderService) UpdatePaymentStatus(orderID uint, paymentStatus string) (*models.Order, error) {
	order, err := s.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(paymentStatusTransitions, order.PaymentStatus, paymentStatus) {
		return nil, ErrInvalidOrderStatus
	}

	updates := map[string]interface{}{"payment_status": paymentStatus}
	if paymentStatus == constants.PaymentStatusPaid && order.PaidAt == nil {
		updates["paid_at"] = time.Now()
	}
	if err := s.orderRepo.UpdateFields(order.ID, updates); err != nil {
		return nil, err
	}

	logger.SW("order_id", order.ID, "order_no", order.OrderNo).Infow("order_payment_status_updated",
		"from", order.PaymentStatus, "to", paymentStatus)
	return s.GetByID(orderID)
}

// UpdateAdminNote 员工备注
func (s *OrderService) UpdateAdminNote(orderID uint, note string) error {
	order, err := s.GetByID(orderID)
	if err != nil {
		return err
	}
	return s.orderRepo.UpdateFields(order.ID, map[string]interface{}{"admin_note": note})
}

func transitionAllowed(table map[string][]string, from, to string) bool {
	for _, allowed := range table[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
