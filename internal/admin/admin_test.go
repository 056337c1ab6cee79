package admin

import (
	"context"
	"testing"

	"github.com/Skotchmaster/storefront/internal/ledger"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	admin  *AdminService
	ledger *ledger.Service
	db     *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := db.OpenMemory(context.Background(), "admin_"+uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(models.All()...))
	t.Cleanup(func() { _ = db.Close(gdb) })

	return &fixture{
		admin:  &AdminService{Repo: &GormRepo{DB: gdb}, LowStockThreshold: 5},
		ledger: &ledger.Service{Repo: &ledger.GormRepo{DB: gdb}, Currency: "INR"},
		db:     gdb,
	}
}

func (f *fixture) product(t *testing.T, name string, price, stock int64) models.Product {
	t.Helper()
	p := models.Product{Name: name, MRP: price, Price: price, Stock: stock, PackSizes: datatypes.JSONSlice[string]{"100g"}}
	require.NoError(t, f.db.Create(&p).Error)
	return p
}

func (f *fixture) checkout(t *testing.T, user uuid.UUID, gatewayOrderID string) {
	t.Helper()

	ctx := context.Background()
	sum, err := f.ledger.BuildCartSummary(ctx, user)
	require.NoError(t, err)
	_, err = f.ledger.OpenCheckout(ctx, user, gatewayOrderID, sum.TotalAmount)
	require.NoError(t, err)
	conf := ledger.Confirmation{Success: true, GatewayOrderID: gatewayOrderID, GatewayPaymentID: "pay_" + gatewayOrderID}
	_, err = f.ledger.Checkout(ctx, user, conf, "addr", "")
	require.NoError(t, err)
}

func TestDashboard(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	ghee := f.product(t, "Homemade Ghee", 450, 30)
	snacks := f.product(t, "Chettinad Snacks", 80, 6)
	f.product(t, "Rasam Powder", 120, 2)

	alice, bob := uuid.New(), uuid.New()
	_, err := f.ledger.AddToCart(ctx, alice, ghee.ID, 2)
	require.NoError(t, err)
	_, err = f.ledger.AddToCart(ctx, alice, snacks.ID, 1)
	require.NoError(t, err)
	f.checkout(t, alice, "o1")

	_, err = f.ledger.AddToCart(ctx, bob, snacks.ID, 3)
	require.NoError(t, err)
	line, err := f.ledger.AddToCart(ctx, bob, ghee.ID, 1)
	require.NoError(t, err)
	_, err = f.ledger.Cancel(ctx, line.ID, bob)
	require.NoError(t, err)

	d, err := f.admin.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(980), d.Revenue)
	assert.Equal(t, int64(3), d.UnitsSold)
	assert.Equal(t, int64(240), d.PendingCartValue)
	assert.Equal(t, int64(2), d.Customers)
	assert.Equal(t, int64(3), d.Products)

	counts := map[models.OrderStatus]int64{}
	for _, c := range d.OrdersByStatus {
		counts[c.Status] = c.Count
	}
	assert.Equal(t, map[models.OrderStatus]int64{
		models.OrderShipped:   2,
		models.OrderPending:   1,
		models.OrderCancelled: 1,
	}, counts)

	// snacks: 6 - 1 - 3 = 2, rasam: 2
	require.Len(t, d.LowStock, 2)
	assert.Equal(t, int64(2), d.LowStock[0].Stock)
	assert.Equal(t, int64(2), d.LowStock[1].Stock)
}

func TestListOrders(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	p := f.product(t, "Sambar Powder", 120, 50)
	alice, bob := uuid.New(), uuid.New()
	_, err := f.ledger.AddToCart(ctx, alice, p.ID, 1)
	require.NoError(t, err)
	f.checkout(t, alice, "o1")
	_, err = f.ledger.AddToCart(ctx, bob, p.ID, 2)
	require.NoError(t, err)

	total, orders, err := f.admin.ListOrders(ctx, "", "", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, orders, 2)
	assert.Equal(t, bob, orders[0].UserID)
	require.NotNil(t, orders[0].Product)
	assert.Equal(t, "Sambar Powder", orders[0].Product.Name)

	total, orders, err = f.admin.ListOrders(ctx, "shipped", "", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, alice, orders[0].UserID)

	total, _, err = f.admin.ListOrders(ctx, "", bob.String(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, _, err = f.admin.ListOrders(ctx, "lost", "", 0, 10)
	assert.ErrorIs(t, err, ErrValidation)
	_, _, err = f.admin.ListOrders(ctx, "", "not-a-uuid", 0, 10)
	assert.ErrorIs(t, err, ErrValidation)

	total, payments, err := f.admin.ListPayments(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, models.PaymentSuccess, payments[0].Status)
}

func TestListCheckouts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	p := f.product(t, "Sambar Powder", 120, 50)
	alice, bob := uuid.New(), uuid.New()
	_, err := f.ledger.AddToCart(ctx, alice, p.ID, 1)
	require.NoError(t, err)
	f.checkout(t, alice, "o1")

	_, err = f.ledger.AddToCart(ctx, bob, p.ID, 2)
	require.NoError(t, err)
	_, err = f.ledger.OpenCheckout(ctx, bob, "o2", 240)
	require.NoError(t, err)
	_, err = f.ledger.Checkout(ctx, bob, ledger.Confirmation{GatewayOrderID: "o2", Reason: "declined"}, "addr", "")
	require.ErrorIs(t, err, ledger.ErrPaymentFailed)
	_, err = f.ledger.OpenCheckout(ctx, bob, "o3", 240)
	require.NoError(t, err)

	tests := []struct {
		status string
		want   []string
	}{
		{"", []string{"o3", "o2", "o1"}},
		{"success", []string{"o1"}},
		{"FAILED", []string{"o2"}},
		{"unpaid", []string{"o3"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run("status="+tt.status, func(t *testing.T) {
			total, attempts, err := f.admin.ListCheckouts(ctx, tt.status, 0, 10)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			got := make([]string, 0, len(attempts))
			for _, a := range attempts {
				got = append(got, a.GatewayOrderID)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, _, err = f.admin.ListCheckouts(ctx, "refunded", 0, 10)
	assert.ErrorIs(t, err, ErrValidation)
}
