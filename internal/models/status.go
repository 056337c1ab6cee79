package models

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderCancelled OrderStatus = "Cancelled"
	OrderShipped   OrderStatus = "Shipped"
	OrderDelivered OrderStatus = "Delivered"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderCancelled, OrderShipped},
	OrderShipped: {OrderDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCancelled, OrderShipped, OrderDelivered:
		return true
	}
	return false
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range []OrderStatus{OrderPending, OrderCancelled, OrderShipped, OrderDelivered} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "Unpaid"
	PaymentSuccess PaymentStatus = "Success"
	PaymentFailed  PaymentStatus = "Failed"
)

// CanTransition reports whether a payment may settle from s to to. Only an
// unpaid payment settles, and only once.
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	return s == PaymentUnpaid && (to == PaymentSuccess || to == PaymentFailed)
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	for _, st := range []PaymentStatus{PaymentUnpaid, PaymentSuccess, PaymentFailed} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown payment status %q", s)
}
