package ledger

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var forUpdate = clause.Locking{Strength: "UPDATE"}

type GormRepo struct {
	DB *gorm.DB
}

func lockProduct(tx *gorm.DB, productID uint) (*models.Product, error) {
	var p models.Product
	if err := tx.Clauses(forUpdate).First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

// reserve takes qty units out of stock. The WHERE guard keeps stock >= 0 even
// on stores where the row lock is a no-op.
func reserve(tx *gorm.DB, p *models.Product, qty int64) error {
	if qty > p.Stock {
		return &InsufficientStockError{ProductID: p.ID, Requested: qty, Available: p.Stock}
	}
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", p.ID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &InsufficientStockError{ProductID: p.ID, Requested: qty, Available: p.Stock}
	}
	p.Stock -= qty
	return nil
}

func release(tx *gorm.DB, p *models.Product, qty int64) error {
	if err := tx.Model(&models.Product{}).
		Where("id = ?", p.ID).
		Update("stock", gorm.Expr("stock + ?", qty)).Error; err != nil {
		return err
	}
	p.Stock += qty
	return nil
}

func lockPendingLine(tx *gorm.DB, userID uuid.UUID, productID uint) (*models.Order, error) {
	var line models.Order
	err := tx.Clauses(forUpdate).
		Where("pending_key = ?", *models.PendingKey(userID, productID)).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *GormRepo) AddToCart(ctx context.Context, userID uuid.UUID, productID uint, qty int64) (*models.Order, error) {
	var line *models.Order

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProduct(tx, productID)
		if err != nil {
			return err
		}
		if err := reserve(tx, p, qty); err != nil {
			return err
		}

		line, err = lockPendingLine(tx, userID, productID)
		switch {
		case err == nil:
			line.Quantity += qty
			line.UnitPrice = p.Price
			line.Total = line.Quantity * p.Price
			if err := tx.Model(line).Updates(map[string]any{
				"quantity":   line.Quantity,
				"unit_price": line.UnitPrice,
				"total":      line.Total,
			}).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			line = &models.Order{
				UserID:     userID,
				ProductID:  productID,
				Quantity:   qty,
				UnitPrice:  p.Price,
				Total:      qty * p.Price,
				Status:     models.OrderPending,
				PendingKey: models.PendingKey(userID, productID),
			}
			if err := tx.Create(line).Error; err != nil {
				return err
			}
		default:
			return err
		}

		line.Product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// SetQuantity moves the pending line to qty, reserving or releasing the
// difference. qty 0 cancels the line. Returns the line as it ends up.
func (r *GormRepo) SetQuantity(ctx context.Context, userID uuid.UUID, productID uint, qty int64) (*models.Order, error) {
	var line *models.Order

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProduct(tx, productID)
		if err != nil {
			return err
		}
		line, err = lockPendingLine(tx, userID, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("no pending line for product %d: %w", productID, ErrNotFound)
			}
			return err
		}

		if qty == 0 {
			if err := release(tx, p, line.Quantity); err != nil {
				return err
			}
			if err := cancelLine(tx, line); err != nil {
				return err
			}
			line.Product = p
			return nil
		}

		switch delta := qty - line.Quantity; {
		case delta > 0:
			if err := reserve(tx, p, delta); err != nil {
				return err
			}
		case delta < 0:
			if err := release(tx, p, -delta); err != nil {
				return err
			}
		}

		line.Quantity = qty
		line.UnitPrice = p.Price
		line.Total = qty * p.Price
		if err := tx.Model(line).Updates(map[string]any{
			"quantity":   line.Quantity,
			"unit_price": line.UnitPrice,
			"total":      line.Total,
		}).Error; err != nil {
			return err
		}
		line.Product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func cancelLine(tx *gorm.DB, line *models.Order) error {
	if err := tx.Model(line).Updates(map[string]any{
		"status":      models.OrderCancelled,
		"pending_key": nil,
	}).Error; err != nil {
		return err
	}
	line.Status = models.OrderCancelled
	line.PendingKey = nil
	return nil
}

func findOrder(tx *gorm.DB, orderID uint, owner uuid.UUID, lock bool) (*models.Order, error) {
	q := tx
	if lock {
		q = q.Clauses(forUpdate)
	}
	if owner != uuid.Nil {
		q = q.Where("user_id = ?", owner)
	}
	var o models.Order
	if err := q.First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, err
	}
	return &o, nil
}

// Cancel moves a pending line to Cancelled and puts its quantity back in stock.
// owner == uuid.Nil matches any owner.
func (r *GormRepo) Cancel(ctx context.Context, orderID uint, owner uuid.UUID) (*models.Order, error) {
	var line *models.Order

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// product row is locked before the order row, same as AddToCart
		peek, err := findOrder(tx, orderID, owner, false)
		if err != nil {
			return err
		}
		p, err := lockProduct(tx, peek.ProductID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		line, err = findOrder(tx, orderID, owner, true)
		if err != nil {
			return err
		}
		if !line.Status.CanTransition(models.OrderCancelled) {
			return &InvalidTransitionError{OrderID: line.ID, From: line.Status, To: models.OrderCancelled}
		}

		if p != nil {
			if err := release(tx, p, line.Quantity); err != nil {
				return err
			}
		}
		if err := cancelLine(tx, line); err != nil {
			return err
		}
		line.Product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (r *GormRepo) PendingLines(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var lines []models.Order
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.OrderPending).
		Order("id ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormRepo) ProductsByID(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func lockPendingLines(tx *gorm.DB, userID uuid.UUID) ([]models.Order, error) {
	var lines []models.Order
	if err := tx.Clauses(forUpdate).
		Where("user_id = ? AND status = ?", userID, models.OrderPending).
		Order("id ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	return lines, nil
}

func linesTotal(lines []models.Order) int64 {
	var total int64
	for _, l := range lines {
		total += l.Total
	}
	return total
}

// OpenCheckout records the gateway order opened for the user's cart. amount
// must equal the cart total at this moment.
func (r *GormRepo) OpenCheckout(ctx context.Context, userID uuid.UUID, gatewayOrderID string, amount int64, currency string) (*models.CheckoutAttempt, error) {
	var attempt *models.CheckoutAttempt

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines, err := lockPendingLines(tx, userID)
		if err != nil {
			return err
		}
		if total := linesTotal(lines); total != amount {
			return &CheckoutMismatchError{GatewayOrderID: gatewayOrderID, Amount: amount, CartTotal: total}
		}

		attempt = &models.CheckoutAttempt{
			UserID:         userID,
			GatewayOrderID: gatewayOrderID,
			Amount:         amount,
			Currency:       currency,
			Status:         models.PaymentUnpaid,
		}
		return tx.Create(attempt).Error
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

func lockAttempt(tx *gorm.DB, gatewayOrderID string, userID uuid.UUID) (*models.CheckoutAttempt, error) {
	var a models.CheckoutAttempt
	err := tx.Clauses(forUpdate).
		Where("gateway_order_id = ? AND user_id = ?", gatewayOrderID, userID).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("checkout %s: %w", gatewayOrderID, ErrNotFound)
		}
		return nil, err
	}
	return &a, nil
}

// settle moves an unpaid attempt to its final status. A gateway payment id
// finalizes at most one attempt.
func settle(tx *gorm.DB, a *models.CheckoutAttempt, to models.PaymentStatus, paymentID, reason string) error {
	if !a.Status.CanTransition(to) {
		return &PaymentTransitionError{GatewayOrderID: a.GatewayOrderID, From: a.Status, To: to}
	}

	reason = clip(reason, 255)
	updates := map[string]any{"status": to, "reason": reason}
	if to == models.PaymentSuccess {
		var used int64
		if err := tx.Model(&models.CheckoutAttempt{}).
			Where("gateway_payment_id = ?", paymentID).
			Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return fmt.Errorf("gateway payment %s already used: %w", paymentID, ErrCheckoutMismatch)
		}
		updates["gateway_payment_id"] = paymentID
		a.GatewayPaymentID = &paymentID
	}

	res := tx.Model(&models.CheckoutAttempt{}).
		Where("id = ? AND status = ?", a.ID, a.Status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("checkout %s changed during settlement: %w", a.GatewayOrderID, ErrConcurrencyConflict)
	}
	a.Status = to
	a.Reason = reason
	return nil
}

// clip shortens s to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// FailCheckout marks the attempt as declined. The cart is not touched.
func (r *GormRepo) FailCheckout(ctx context.Context, userID uuid.UUID, gatewayOrderID, reason string) (*models.CheckoutAttempt, error) {
	var attempt *models.CheckoutAttempt

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if attempt, err = lockAttempt(tx, gatewayOrderID, userID); err != nil {
			return err
		}
		return settle(tx, attempt, models.PaymentFailed, "", reason)
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

type CheckoutDetails struct {
	Address          string
	Note             string
	GatewayOrderID   string
	GatewayPaymentID string
}

// Checkout settles the user's open attempt and ships every pending line with
// one successful payment per line, all or nothing. The attempt must still be
// unpaid and its amount must equal the cart total.
func (r *GormRepo) Checkout(ctx context.Context, userID uuid.UUID, d CheckoutDetails) ([]models.Order, error) {
	var lines []models.Order

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := lockAttempt(tx, d.GatewayOrderID, userID)
		if err != nil {
			return err
		}
		if !attempt.Status.CanTransition(models.PaymentSuccess) {
			return &PaymentTransitionError{GatewayOrderID: attempt.GatewayOrderID, From: attempt.Status, To: models.PaymentSuccess}
		}

		if lines, err = lockPendingLines(tx, userID); err != nil {
			return err
		}
		if total := linesTotal(lines); total != attempt.Amount {
			return &CheckoutMismatchError{GatewayOrderID: attempt.GatewayOrderID, Amount: attempt.Amount, CartTotal: total}
		}
		if err := settle(tx, attempt, models.PaymentSuccess, d.GatewayPaymentID, ""); err != nil {
			return err
		}

		for i := range lines {
			if !lines[i].Status.CanTransition(models.OrderShipped) {
				return &InvalidTransitionError{OrderID: lines[i].ID, From: lines[i].Status, To: models.OrderShipped}
			}
			res := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", lines[i].ID, lines[i].Status).
				Updates(map[string]any{
					"status":      models.OrderShipped,
					"pending_key": nil,
					"address":     d.Address,
					"note":        d.Note,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return fmt.Errorf("order %d changed during checkout: %w", lines[i].ID, ErrConcurrencyConflict)
			}
			lines[i].Status = models.OrderShipped
			lines[i].PendingKey = nil
			lines[i].Address = d.Address
			lines[i].Note = d.Note

			pay := models.Payment{
				OrderID:          lines[i].ID,
				CheckoutID:       attempt.ID,
				UserID:           userID,
				Status:           attempt.Status,
				Amount:           lines[i].Total,
				Currency:         attempt.Currency,
				GatewayOrderID:   attempt.GatewayOrderID,
				GatewayPaymentID: d.GatewayPaymentID,
			}
			if err := tx.Create(&pay).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Advance applies a forward status change to a finalized order.
func (r *GormRepo) Advance(ctx context.Context, orderID uint, to models.OrderStatus) (*models.Order, error) {
	var o *models.Order

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		o, err = findOrder(tx, orderID, uuid.Nil, true)
		if err != nil {
			return err
		}
		// pending lines only leave the cart through Checkout or Cancel
		if o.Status == models.OrderPending || !o.Status.CanTransition(to) {
			return &InvalidTransitionError{OrderID: o.ID, From: o.Status, To: to}
		}
		if err := tx.Model(o).Update("status", to).Error; err != nil {
			return err
		}
		o.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *GormRepo) Orders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ? AND status <> ?", userID, models.OrderPending).
		Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) Product(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}
