package domain

import "github.com/shopspring/decimal"

// Payment methods accepted at checkout.
const (
	PaymentCard   = "card"
	PaymentPayPal = "paypal"
	PaymentCOD    = "cod"
)

// OrderItem is the per-line payload sent to the orders backend.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

// ShippingAddress is where a placed order is delivered.
type ShippingAddress struct {
	FullName   string `json:"fullName" validate:"required,max=200"`
	Address    string `json:"address" validate:"required,max=500"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
}

// Order is an order as returned by the orders backend.
type Order struct {
	ID              string          `json:"_id"`
	UserID          string          `json:"userId"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          string          `json:"status"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	UpdatedAt       string          `json:"updatedAt,omitempty"`
}

// OrderItems converts the cart lines into order items.
func (ls Lines) OrderItems() []OrderItem {
	items := make([]OrderItem, len(ls))
	for i, l := range ls {
		items[i] = OrderItem{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
			Image:     l.Product.Image,
		}
	}
	return items
}
