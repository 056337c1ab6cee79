package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_CanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderShipped, true},
		{OrderShipped, OrderDelivered, true},
		{OrderPending, OrderDelivered, false},
		{OrderShipped, OrderPending, false},
		{OrderShipped, OrderCancelled, false},
		{OrderCancelled, OrderPending, false},
		{OrderCancelled, OrderCancelled, false},
		{OrderDelivered, OrderShipped, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	s, err := ParseOrderStatus("delivered")
	require.NoError(t, err)
	assert.Equal(t, OrderDelivered, s)

	_, err = ParseOrderStatus("returned")
	assert.Error(t, err)

	p, err := ParsePaymentStatus("SUCCESS")
	require.NoError(t, err)
	assert.Equal(t, PaymentSuccess, p)

	assert.True(t, PaymentUnpaid.CanTransition(PaymentFailed))
	assert.False(t, PaymentSuccess.CanTransition(PaymentFailed))
	assert.False(t, PaymentFailed.CanTransition(PaymentUnpaid))
}

func TestPendingKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "00000000-0000-0000-0000-000000000000:7", *PendingKey(uuid.Nil, 7))
}
