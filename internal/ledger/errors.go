package ledger

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/models"
)

var (
	ErrValidation             = errors.New("validation")   // 400
	ErrNotFound               = errors.New("not found")    // 404
	ErrEmptyCart              = errors.New("cart is empty") // 409
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrPaymentFailed          = errors.New("payment failed")
	ErrConcurrencyConflict    = errors.New("concurrency conflict")
	ErrCheckoutMismatch       = errors.New("checkout does not match cart") // 409
)

type InsufficientStockError struct {
	ProductID uint
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type InvalidTransitionError struct {
	OrderID uint
	From    models.OrderStatus
	To      models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %d: cannot move from %s to %s", e.OrderID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidStateTransition }

type PaymentFailedError struct {
	Reason string
}

func (e *PaymentFailedError) Error() string {
	if e.Reason == "" {
		return "payment failed"
	}
	return "payment failed: " + e.Reason
}

func (e *PaymentFailedError) Is(target error) bool { return target == ErrPaymentFailed }

// PaymentTransitionError reports a checkout attempt that was already settled.
type PaymentTransitionError struct {
	GatewayOrderID string
	From           models.PaymentStatus
	To             models.PaymentStatus
}

func (e *PaymentTransitionError) Error() string {
	return fmt.Sprintf("checkout %s: cannot move payment from %s to %s", e.GatewayOrderID, e.From, e.To)
}

func (e *PaymentTransitionError) Is(target error) bool { return target == ErrInvalidStateTransition }

// CheckoutMismatchError means the gateway order was opened for a different
// amount than the cart now totals.
type CheckoutMismatchError struct {
	GatewayOrderID string
	Amount         int64
	CartTotal      int64
}

func (e *CheckoutMismatchError) Error() string {
	return fmt.Sprintf("checkout %s was opened for %d but the cart totals %d", e.GatewayOrderID, e.Amount, e.CartTotal)
}

func (e *CheckoutMismatchError) Is(target error) bool { return target == ErrCheckoutMismatch }
