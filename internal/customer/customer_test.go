package customer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	gdb, err := db.OpenMemory(context.Background(), "customer_"+uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(models.All()...))
	t.Cleanup(func() { _ = db.Close(gdb) })

	return &Service{Repo: &GormRepo{DB: gdb}}, gdb
}

func order(t *testing.T, gdb *gorm.DB, userID uuid.UUID, productID uint, total int64, status models.OrderStatus) {
	t.Helper()
	o := models.Order{UserID: userID, ProductID: productID, Quantity: 1, UnitPrice: total, Total: total, Status: status}
	require.NoError(t, gdb.Create(&o).Error)
}

func TestSaveProfile(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.Profile(ctx, user)
	assert.ErrorIs(t, err, ErrNotFound)

	c, err := svc.SaveProfile(ctx, user, transport.ProfileRequest{
		Name:     " Meena Raman ",
		Email:    "Meena@Example.com",
		Phone:    "+91 98400 12345",
		Address1: "4 North Mada Street",
	})
	require.NoError(t, err)
	assert.Equal(t, "Meena Raman", c.Name)
	assert.Equal(t, "meena@example.com", c.Email)

	created := c.CreatedAt
	c, err = svc.SaveProfile(ctx, user, transport.ProfileRequest{Name: "Meena R", Email: "meena@example.com"})
	require.NoError(t, err)
	assert.Empty(t, c.Address1)

	got, err := svc.Profile(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Meena R", got.Name)
	assert.Empty(t, got.Phone)
	assert.WithinDuration(t, created, got.CreatedAt, time.Second)
}

func TestSaveProfile_EmailTaken(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SaveProfile(ctx, uuid.New(), transport.ProfileRequest{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = svc.SaveProfile(ctx, uuid.New(), transport.ProfileRequest{Name: "B", Email: "A@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSaveProfile_Validation(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	tests := []struct {
		name string
		user uuid.UUID
		req  transport.ProfileRequest
	}{
		{"no user", uuid.Nil, transport.ProfileRequest{Name: "A", Email: "a@example.com"}},
		{"no name", uuid.New(), transport.ProfileRequest{Name: " ", Email: "a@example.com"}},
		{"bad email", uuid.New(), transport.ProfileRequest{Name: "A", Email: "not-an-email"}},
		{"display name in email", uuid.New(), transport.ProfileRequest{Name: "A", Email: "A <a@example.com>"}},
		{"bad phone", uuid.New(), transport.ProfileRequest{Name: "A", Email: "a@example.com", Phone: "call me"}},
		{"long address", uuid.New(), transport.ProfileRequest{Name: "A", Email: "a@example.com", Address1: strings.Repeat("x", 201)}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SaveProfile(context.Background(), tt.user, tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestListAndGet(t *testing.T) {
	t.Parallel()
	svc, gdb := newTestService(t)
	ctx := context.Background()

	p := models.Product{Name: "Ghee", MRP: 450, Price: 450, Stock: 10}
	require.NoError(t, gdb.Create(&p).Error)

	alice, bob := uuid.New(), uuid.New()
	_, err := svc.SaveProfile(ctx, alice, transport.ProfileRequest{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	_, err = svc.SaveProfile(ctx, bob, transport.ProfileRequest{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	order(t, gdb, alice, p.ID, 450, models.OrderShipped)
	order(t, gdb, alice, p.ID, 900, models.OrderDelivered)
	order(t, gdb, alice, p.ID, 100, models.OrderCancelled)
	order(t, gdb, bob, p.ID, 300, models.OrderPending)

	total, list, err := svc.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	byName := map[string]Stats{}
	for _, s := range list {
		byName[s.Name] = s.Stats
	}
	assert.Equal(t, Stats{Orders: 2, Spent: 1350}, byName["Alice"])
	assert.Equal(t, Stats{}, byName["Bob"])

	got, err := svc.Get(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, int64(1350), got.Spent)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, list, err = svc.List(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
