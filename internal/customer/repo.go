package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Stats is what a customer has bought so far. Only shipped and delivered
// lines count.
type Stats struct {
	Orders int64 `json:"orders"`
	Spent  int64 `json:"spent"`
}

type Summary struct {
	models.Customer
	Stats
}

type GormRepo struct {
	DB *gorm.DB
}

var purchased = []models.OrderStatus{models.OrderShipped, models.OrderDelivered}

func (r *GormRepo) Get(ctx context.Context, userID uuid.UUID) (*models.Customer, error) {
	var c models.Customer
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}

// Save creates the profile or overwrites every editable field of it. An email
// held by another customer is refused.
func (r *GormRepo) Save(ctx context.Context, c *models.Customer) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.Customer{}).
			Where("email = ? AND user_id <> ?", c.Email, c.UserID).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return fmt.Errorf("email %s: %w", c.Email, ErrEmailTaken)
		}

		var existing models.Customer
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", c.UserID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(c).Error
		case err != nil:
			return err
		}
		c.CreatedAt = existing.CreatedAt
		return tx.Save(c).Error
	})
}

func (r *GormRepo) List(ctx context.Context, offset, limit int) (int64, []Summary, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Customer{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var page []models.Customer
	if err := r.DB.WithContext(ctx).Order("created_at DESC, user_id").Offset(offset).Limit(limit).Find(&page).Error; err != nil {
		return 0, nil, err
	}
	if len(page) == 0 {
		return total, []Summary{}, nil
	}

	ids := make([]uuid.UUID, 0, len(page))
	for _, c := range page {
		ids = append(ids, c.UserID)
	}
	var rows []struct {
		UserID uuid.UUID
		Orders int64
		Spent  int64
	}
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("user_id, COUNT(*) AS orders, COALESCE(SUM(total), 0) AS spent").
		Where("user_id IN ? AND status IN ?", ids, purchased).
		Group("user_id").
		Scan(&rows).Error; err != nil {
		return 0, nil, err
	}
	stats := make(map[uuid.UUID]Stats, len(rows))
	for _, row := range rows {
		stats[row.UserID] = Stats{Orders: row.Orders, Spent: row.Spent}
	}

	out := make([]Summary, 0, len(page))
	for _, c := range page {
		out = append(out, Summary{Customer: c, Stats: stats[c.UserID]})
	}
	return total, out, nil
}

func (r *GormRepo) Stats(ctx context.Context, userID uuid.UUID) (Stats, error) {
	var s Stats
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("COUNT(*) AS orders, COALESCE(SUM(total), 0) AS spent").
		Where("user_id = ? AND status IN ?", userID, purchased).
		Scan(&s).Error
	return s, err
}
