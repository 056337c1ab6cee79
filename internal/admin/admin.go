package admin

import (
	"context"
	"errors"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrValidation = errors.New("validation")

type OrderFilter struct {
	Status models.OrderStatus
	UserID uuid.UUID
}

type StatusCount struct {
	Status models.OrderStatus `json:"status"`
	Count  int64              `json:"count"`
}

type LowStock struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Stock int64  `json:"stock"`
}

type Dashboard struct {
	OrdersByStatus   []StatusCount `json:"orders_by_status"`
	Revenue          int64         `json:"revenue"`
	UnitsSold        int64         `json:"units_sold"`
	PendingCartValue int64         `json:"pending_cart_value"`
	Customers        int64         `json:"customers"`
	Products         int64         `json:"products"`
	LowStock         []LowStock    `json:"low_stock"`
}

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter, offset, limit int) (int64, []models.Order, error) {
	filtered := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.Order{})
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.UserID != uuid.Nil {
			q = q.Where("user_id = ?", f.UserID)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, limit)
	if err := filtered().Preload("Product").Order("id DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *GormRepo) ListPayments(ctx context.Context, offset, limit int) (int64, []models.Payment, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Payment{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	payments := make([]models.Payment, 0, limit)
	if err := r.DB.WithContext(ctx).Order("id DESC").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return 0, nil, err
	}
	return total, payments, nil
}

// ListCheckouts pages through gateway checkout attempts, newest first.
// An empty status lists every attempt.
func (r *GormRepo) ListCheckouts(ctx context.Context, status models.PaymentStatus, offset, limit int) (int64, []models.CheckoutAttempt, error) {
	filtered := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.CheckoutAttempt{})
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	attempts := make([]models.CheckoutAttempt, 0, limit)
	if err := filtered().Order("id DESC").Offset(offset).Limit(limit).Find(&attempts).Error; err != nil {
		return 0, nil, err
	}
	return total, attempts, nil
}

func (r *GormRepo) Dashboard(ctx context.Context, lowStockThreshold int64) (*Dashboard, error) {
	d := &Dashboard{OrdersByStatus: []StatusCount{}, LowStock: []LowStock{}}
	tx := r.DB.WithContext(ctx)

	if err := tx.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&d.OrdersByStatus).Error; err != nil {
		return nil, err
	}

	var sold struct {
		Revenue int64
		Units   int64
	}
	if err := tx.Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS revenue, COALESCE(SUM(quantity), 0) AS units").
		Where("status IN ?", []models.OrderStatus{models.OrderShipped, models.OrderDelivered}).
		Scan(&sold).Error; err != nil {
		return nil, err
	}
	d.Revenue, d.UnitsSold = sold.Revenue, sold.Units

	if err := tx.Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0)").
		Where("status = ?", models.OrderPending).
		Scan(&d.PendingCartValue).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(&models.Order{}).Distinct("user_id").Count(&d.Customers).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Product{}).Count(&d.Products).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(&models.Product{}).
		Select("id, name, stock").
		Where("stock <= ?", lowStockThreshold).
		Order("stock ASC, id ASC").
		Scan(&d.LowStock).Error; err != nil {
		return nil, err
	}
	return d, nil
}

type AdminService struct {
	Repo              *GormRepo
	LowStockThreshold int64
}

func (s *AdminService) ListOrders(ctx context.Context, status, userID string, offset, limit int) (int64, []models.Order, error) {
	var f OrderFilter
	if status != "" {
		st, err := models.ParseOrderStatus(status)
		if err != nil {
			return 0, nil, errors.Join(ErrValidation, err)
		}
		f.Status = st
	}
	if userID != "" {
		id, err := uuid.Parse(userID)
		if err != nil {
			return 0, nil, errors.Join(ErrValidation, err)
		}
		f.UserID = id
	}
	return s.Repo.ListOrders(ctx, f, offset, limit)
}

func (s *AdminService) ListPayments(ctx context.Context, offset, limit int) (int64, []models.Payment, error) {
	return s.Repo.ListPayments(ctx, offset, limit)
}

func (s *AdminService) ListCheckouts(ctx context.Context, status string, offset, limit int) (int64, []models.CheckoutAttempt, error) {
	var st models.PaymentStatus
	if status != "" {
		parsed, err := models.ParsePaymentStatus(status)
		if err != nil {
			return 0, nil, errors.Join(ErrValidation, err)
		}
		st = parsed
	}
	return s.Repo.ListCheckouts(ctx, st, offset, limit)
}

func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	return s.Repo.Dashboard(ctx, s.LowStockThreshold)
}
