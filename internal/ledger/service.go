package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/google/uuid"
)

// Confirmation is the payment gateway's verdict for a checkout attempt. The
// ledger trusts it as given.
type Confirmation struct {
	Success          bool
	Reason           string
	GatewayOrderID   string
	GatewayPaymentID string
}

type SummaryLine struct {
	OrderID   uint   `json:"order_id"`
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	PackSize  string `json:"pack_size,omitempty"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Total     int64  `json:"total"`
}

type CartSummary struct {
	Lines         []SummaryLine `json:"lines"`
	TotalAmount   int64         `json:"total_amount"`
	TotalQuantity int64         `json:"total_quantity"`
}

type Service struct {
	Repo     *GormRepo
	Events   events.Publisher
	Currency string
}

func isConflict(err error) bool {
	return err != nil && (errors.Is(err, ErrConcurrencyConflict) || db.IsConflict(err))
}

// retryOnce runs fn again after a lock or serialization conflict. A second
// conflict is reported as ErrConcurrencyConflict.
func retryOnce[T any](ctx context.Context, op string, fn func() (T, error)) (T, error) {
	v, err := fn()
	if !isConflict(err) {
		return v, err
	}
	logging.FromContext(ctx).Warn("ledger_conflict_retry", "op", op, "error", err)

	v, err = fn()
	if isConflict(err) {
		var zero T
		return zero, fmt.Errorf("%s: %w: %v", op, ErrConcurrencyConflict, err)
	}
	return v, err
}

func (s *Service) publish(ctx context.Context, topic string, userID uuid.UUID, ev map[string]any) {
	if s.Events == nil {
		return
	}
	ev["user_id"] = userID.String()
	ev["occurred_at"] = time.Now().UTC()
	if err := s.Events.PublishEvent(ctx, topic, userID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", topic, "type", ev["type"], "error", err)
	}
}

func validateLineKey(userID uuid.UUID, productID uint) error {
	if userID == uuid.Nil {
		return fmt.Errorf("user id required: %w", ErrValidation)
	}
	if productID == 0 {
		return fmt.Errorf("product id required: %w", ErrValidation)
	}
	return nil
}

// AddToCart reserves quantity units of the product for the user's cart,
// merging into the pending line if there is one.
func (s *Service) AddToCart(ctx context.Context, userID uuid.UUID, productID uint, quantity int64) (*models.Order, error) {
	if err := validateLineKey(userID, productID); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be more than zero: %w", ErrValidation)
	}

	line, err := retryOnce(ctx, "add_to_cart", func() (*models.Order, error) {
		return s.Repo.AddToCart(ctx, userID, productID, quantity)
	})
	if err != nil {
		return nil, err
	}

	ev := map[string]any{
		"type":          "cart_item_added",
		"order_id":      line.ID,
		"product_id":    productID,
		"quantity":      quantity,
		"line_quantity": line.Quantity,
	}
	if line.Product != nil {
		ev["stock_left"] = line.Product.Stock
	}
	s.publish(ctx, events.TopicCart, userID, ev)
	return line, nil
}

// UpdateQuantity sets the pending line to quantity. Zero removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID uuid.UUID, productID uint, quantity int64) (*models.Order, error) {
	if err := validateLineKey(userID, productID); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative: %w", ErrValidation)
	}

	line, err := retryOnce(ctx, "update_quantity", func() (*models.Order, error) {
		return s.Repo.SetQuantity(ctx, userID, productID, quantity)
	})
	if err != nil {
		return nil, err
	}

	typ := "cart_item_updated"
	if line.Status == models.OrderCancelled {
		typ = "cart_line_cancelled"
	}
	s.publish(ctx, events.TopicCart, userID, map[string]any{
		"type":       typ,
		"order_id":   line.ID,
		"product_id": productID,
		"quantity":   quantity,
	})
	return line, nil
}

// Remove drops the user's pending line for the product and releases its stock.
func (s *Service) Remove(ctx context.Context, userID uuid.UUID, productID uint) (*models.Order, error) {
	return s.UpdateQuantity(ctx, userID, productID, 0)
}

// Cancel moves a pending line to Cancelled and restores its stock. owner ==
// uuid.Nil skips the ownership check.
func (s *Service) Cancel(ctx context.Context, orderID uint, owner uuid.UUID) (*models.Order, error) {
	if orderID == 0 {
		return nil, fmt.Errorf("order id required: %w", ErrValidation)
	}

	line, err := retryOnce(ctx, "cancel", func() (*models.Order, error) {
		return s.Repo.Cancel(ctx, orderID, owner)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TopicCart, line.UserID, map[string]any{
		"type":       "cart_line_cancelled",
		"order_id":   line.ID,
		"product_id": line.ProductID,
		"quantity":   line.Quantity,
	})
	return line, nil
}

// BuildCartSummary lists the user's pending lines in creation order. Lines
// whose product no longer exists are left out.
func (s *Service) BuildCartSummary(ctx context.Context, userID uuid.UUID) (*CartSummary, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required: %w", ErrValidation)
	}

	lines, err := s.Repo.PendingLines(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.Repo.ProductsByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	sum := &CartSummary{Lines: make([]SummaryLine, 0, len(lines))}
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			logging.FromContext(ctx).Warn("cart_line_product_missing", "order_id", l.ID, "product_id", l.ProductID)
			continue
		}
		sum.Lines = append(sum.Lines, SummaryLine{
			OrderID:   l.ID,
			ProductID: p.ID,
			Name:      p.Name,
			PackSize:  p.BaseSize(),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.Total,
		})
		sum.TotalAmount += l.Total
		sum.TotalQuantity += l.Quantity
	}
	return sum, nil
}

// OpenCheckout remembers the gateway order created for the user's cart so
// the confirmation can be matched against it. amount is what the gateway
// will collect and must equal the current cart total.
func (s *Service) OpenCheckout(ctx context.Context, userID uuid.UUID, gatewayOrderID string, amount int64) (*models.CheckoutAttempt, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required: %w", ErrValidation)
	}
	gatewayOrderID = strings.TrimSpace(gatewayOrderID)
	if gatewayOrderID == "" {
		return nil, fmt.Errorf("gateway order id required: %w", ErrValidation)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be more than zero: %w", ErrValidation)
	}

	attempt, err := retryOnce(ctx, "open_checkout", func() (*models.CheckoutAttempt, error) {
		return s.Repo.OpenCheckout(ctx, userID, gatewayOrderID, amount, s.Currency)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TopicOrder, userID, map[string]any{
		"type":             "checkout_started",
		"gateway_order_id": gatewayOrderID,
		"amount":           amount,
	})
	return attempt, nil
}

// Checkout finalizes the user's cart once the gateway confirmed the payment
// for an attempt opened with OpenCheckout. A declined payment settles the
// attempt as failed and leaves the cart untouched.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, conf Confirmation, address, note string) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required: %w", ErrValidation)
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("address required: %w", ErrValidation)
	}
	if conf.GatewayOrderID == "" {
		return nil, fmt.Errorf("gateway order id required: %w", ErrValidation)
	}

	if !conf.Success {
		if _, err := retryOnce(ctx, "fail_checkout", func() (*models.CheckoutAttempt, error) {
			return s.Repo.FailCheckout(ctx, userID, conf.GatewayOrderID, conf.Reason)
		}); err != nil {
			return nil, err
		}
		s.publish(ctx, events.TopicOrder, userID, map[string]any{
			"type":             "checkout_payment_failed",
			"reason":           conf.Reason,
			"gateway_order_id": conf.GatewayOrderID,
		})
		return nil, &PaymentFailedError{Reason: conf.Reason}
	}
	if conf.GatewayPaymentID == "" {
		return nil, fmt.Errorf("gateway payment id required: %w", ErrValidation)
	}

	details := CheckoutDetails{
		Address:          address,
		Note:             strings.TrimSpace(note),
		GatewayOrderID:   conf.GatewayOrderID,
		GatewayPaymentID: conf.GatewayPaymentID,
	}
	orders, err := retryOnce(ctx, "checkout", func() ([]models.Order, error) {
		return s.Repo.Checkout(ctx, userID, details)
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(orders))
	var total int64
	for _, o := range orders {
		ids = append(ids, o.ID)
		total += o.Total
	}
	s.publish(ctx, events.TopicOrder, userID, map[string]any{
		"type":             "checkout_completed",
		"order_ids":        ids,
		"amount":           total,
		"gateway_order_id": conf.GatewayOrderID,
	})
	return orders, nil
}

// Advance moves a finalized order forward, e.g. Shipped to Delivered.
// Cancellation goes through Cancel so stock is restored.
func (s *Service) Advance(ctx context.Context, orderID uint, to models.OrderStatus) (*models.Order, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", to, ErrValidation)
	}
	if to == models.OrderCancelled {
		return s.Cancel(ctx, orderID, uuid.Nil)
	}

	o, err := retryOnce(ctx, "advance", func() (*models.Order, error) {
		return s.Repo.Advance(ctx, orderID, to)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TopicOrder, o.UserID, map[string]any{
		"type":     "order_status_changed",
		"order_id": o.ID,
		"status":   o.Status,
	})
	return o, nil
}

func (s *Service) Orders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required: %w", ErrValidation)
	}
	return s.Repo.Orders(ctx, userID, limit, offset)
}
