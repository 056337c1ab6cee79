package transport

type CreateProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	MRP         int64    `json:"mrp"`
	Price       int64    `json:"price"`
	PackSizes   []string `json:"pack_sizes"`
	Stock       int64    `json:"stock"`
}

type PatchProductRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	MRP         *int64    `json:"mrp"`
	Price       *int64    `json:"price"`
	PackSizes   *[]string `json:"pack_sizes"`
}

type RestockRequest struct {
	Delta int64 `json:"delta"`
}

type QuoteResponse struct {
	ProductID uint   `json:"product_id"`
	BaseSize  string `json:"base_size"`
	BasePrice int64  `json:"base_price"`
	Size      string `json:"size"`
	Price     int64  `json:"price"`
	Exact     bool   `json:"exact"`
}

type AddToCartRequest struct {
	ProductID uint  `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type UpdateCartItemRequest struct {
	ProductID uint  `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type RemoveCartItemRequest struct {
	ProductID uint `json:"product_id" query:"product_id"`
}

type CheckoutResponse struct {
	GatewayOrderID string `json:"gateway_order_id"`
	KeyID          string `json:"key_id,omitempty"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
}

type ConfirmCheckoutRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	Signature        string `json:"razorpay_signature"`
	Address          string `json:"address"`
	Note             string `json:"note"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type BannerRequest struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

type PatchBannerRequest struct {
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

type ProfileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	Note     string `json:"note"`
}
