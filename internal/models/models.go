package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Product struct {
	ID          uint                        `gorm:"primaryKey;autoIncrement"        json:"id"`
	Name        string                      `gorm:"size:200;not null;index"         json:"name"`
	Description string                      `gorm:"type:text"                       json:"description"`
	Category    string                      `gorm:"size:100;index"                  json:"category"`
	MRP         int64                       `gorm:"not null;default:0"              json:"mrp"`
	Price       int64                       `gorm:"not null;check:price >= 0"       json:"price"`
	PackSizes   datatypes.JSONSlice[string] `                                       json:"pack_sizes"`
	Stock       int64                       `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	CreatedAt   time.Time                   `                                       json:"created_at"`
	UpdatedAt   time.Time                   `                                       json:"updated_at"`
}

// BaseSize is the pack size Price refers to.
func (p *Product) BaseSize() string {
	if len(p.PackSizes) == 0 {
		return ""
	}
	return p.PackSizes[0]
}

// Order is a cart line while Pending and a finalized order afterwards.
// PendingKey is set only while Pending; its unique index allows one pending
// line per (user, product).
type Order struct {
	ID         uint        `gorm:"primaryKey;autoIncrement"             json:"id"`
	UserID     uuid.UUID   `gorm:"size:36;index;not null"               json:"user_id"`
	ProductID  uint        `gorm:"index;not null"                       json:"product_id"`
	Product    *Product    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity   int64       `gorm:"not null;check:quantity > 0"          json:"quantity"`
	UnitPrice  int64       `gorm:"not null"                             json:"unit_price"`
	Total      int64       `gorm:"not null"                             json:"total"`
	Address    string      `gorm:"type:text"                            json:"address,omitempty"`
	Note       string      `gorm:"type:text"                            json:"note,omitempty"`
	Status     OrderStatus `gorm:"size:16;index;not null"               json:"status"`
	PendingKey *string     `gorm:"size:80;uniqueIndex"                  json:"-"`
	CreatedAt  time.Time   `                                            json:"created_at"`
	UpdatedAt  time.Time   `                                            json:"updated_at"`
}

func PendingKey(userID uuid.UUID, productID uint) *string {
	k := fmt.Sprintf("%s:%d", userID, productID)
	return &k
}

// CheckoutAttempt is one gateway order opened for a user's cart. It records
// the amount the gateway was asked to collect and is settled at most once.
// GatewayPaymentID is set only on success; its unique index lets a gateway
// payment finalize a single attempt.
type CheckoutAttempt struct {
	ID               uint          `gorm:"primaryKey;autoIncrement"       json:"id"`
	UserID           uuid.UUID     `gorm:"size:36;index;not null"         json:"user_id"`
	GatewayOrderID   string        `gorm:"size:64;uniqueIndex;not null"   json:"gateway_order_id"`
	GatewayPaymentID *string       `gorm:"size:64;uniqueIndex"            json:"gateway_payment_id,omitempty"`
	Amount           int64         `gorm:"not null;check:amount > 0"      json:"amount"`
	Currency         string        `gorm:"size:8"                         json:"currency"`
	Status           PaymentStatus `gorm:"size:16;index;not null"         json:"status"`
	Reason           string        `gorm:"size:255"                       json:"reason,omitempty"`
	CreatedAt        time.Time     `                                      json:"created_at"`
	UpdatedAt        time.Time     `                                      json:"updated_at"`
}

type Payment struct {
	ID               uint             `gorm:"primaryKey;autoIncrement"   json:"id"`
	OrderID          uint             `gorm:"uniqueIndex;not null"       json:"order_id"`
	Order            *Order           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CheckoutID       uint             `gorm:"index;not null"             json:"checkout_id"`
	Checkout         *CheckoutAttempt `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	UserID           uuid.UUID        `gorm:"size:36;index;not null"     json:"user_id"`
	Status           PaymentStatus    `gorm:"size:16;index;not null"     json:"status"`
	Amount           int64            `gorm:"not null"                   json:"amount"`
	Currency         string           `gorm:"size:8"                     json:"currency"`
	GatewayOrderID   string           `gorm:"size:64;index"              json:"gateway_order_id"`
	GatewayPaymentID string           `gorm:"size:64"                    json:"gateway_payment_id"`
	CreatedAt        time.Time        `                                  json:"created_at"`
	UpdatedAt        time.Time        `                                  json:"updated_at"`
}

// Banner is a storefront promotion. Image is a URL or a path served by the
// static host; files are not stored here.
type Banner struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:150;not null"        json:"name"`
	Image     string    `gorm:"size:255;not null"        json:"image"`
	CreatedAt time.Time `                                json:"created_at"`
	UpdatedAt time.Time `                                json:"updated_at"`
}

// Customer is the shop-side profile of an identity from the access token.
// Credentials live with the identity provider.
type Customer struct {
	UserID    uuid.UUID `gorm:"primaryKey;size:36"  json:"user_id"`
	Name      string    `gorm:"size:100;not null"   json:"name"`
	Email     string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Phone     string    `gorm:"size:20"             json:"phone,omitempty"`
	Address1  string    `gorm:"size:200"            json:"address1,omitempty"`
	Address2  string    `gorm:"size:200"            json:"address2,omitempty"`
	Note      string    `gorm:"type:text"           json:"note,omitempty"`
	CreatedAt time.Time `                           json:"created_at"`
	UpdatedAt time.Time `                           json:"updated_at"`
}

// All lists every table the service owns, in migration order.
func All() []any {
	return []any{&Product{}, &Order{}, &CheckoutAttempt{}, &Payment{}, &Banner{}, &Customer{}}
}
