package repository

import (
	"errors"
	"time"

	"github.com/poshpearl/poshpearl/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndUser(id uint, userID uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	GetByPaymentReference(reference string) (*models.Order, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	Update(order *models.Order) error
	UpdateFields(id uint, updates map[string]interface{}) error
	UpdatePaymentStatusIf(id uint, expected string, updates map[string]interface{}) (int64, error)
	MarkConfirmationSent(id uint) (int64, error)
	MarkPaymentConfirmationSent(id uint) (int64, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 获取用户订单详情
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单编号获取订单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").
		Where("order_no = ?", orderNo).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByPaymentReference 根据支付引用获取订单
func (r *GormOrderRepository) GetByPaymentReference(reference string) (*models.Order, error) {
	if reference == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Preload("Items").
		Where("payment_reference = ?", reference).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) applyListFilter(query *gorm.DB, filter OrderListFilter) *gorm.DB {
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}
	if filter.Email != "" {
		query = query.Where("email = ?", filter.Email)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	return query
}

// ListByUser 用户订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.applyListFilter(r.db.Model(&models.Order{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := applyPagination(query.Preload("Items"), filter.Page, filter.PageSize).
		Order("id desc").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListAdmin 后台订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	return r.ListByUser(filter)
}

// Update 保存订单
func (r *GormOrderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

// UpdateFields 按字段更新订单
func (r *GormOrderRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// UpdatePaymentStatusIf 仅当支付状态等于 expected 时应用更新，返回影响行数。
// 回调与 webhook 竞争时输掉的一方拿到 0 行，不做任何改动。
func (r *GormOrderRepository) UpdatePaymentStatusIf(id uint, expected string, updates map[string]interface{}) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, expected).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// MarkConfirmationSent 标记下单确认邮件已发送，仅首次生效，返回影响行数
func (r *GormOrderRepository) MarkConfirmationSent(id uint) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND confirmation_sent_at IS NULL", id).
		Update("confirmation_sent_at", time.Now())
	return result.RowsAffected, result.Error
}

// MarkPaymentConfirmationSent 标记支付确认邮件已发送，仅首次生效，返回影响行数
func (r *GormOrderRepository) MarkPaymentConfirmationSent(id uint) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND payment_confirmation_sent_at IS NULL", id).
		Update("payment_confirmation_sent_at", time.Now())
	return result.RowsAffected, result.Error
}
