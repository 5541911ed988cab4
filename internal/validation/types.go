package validation

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// OrderItem is a single line of POST /orders.
type OrderItem struct {
	ProductID int64            `json:"productId" validate:"required,gt=0"`
	Quantity  int              `json:"quantity" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unitPrice" validate:"required,gte=0"`
}

// CreateOrderRequest is the payload for POST /orders.
type CreateOrderRequest struct {
	CustomerID    int64            `json:"customerId" validate:"required,gt=0"`
	Total         *decimal.Decimal `json:"total,omitempty"` // optional, must match the items when sent
	Items         []OrderItem      `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string           `json:"paymentMethod" validate:"max=60"`
}

// CustomerRequest is the payload for POST and PUT /customers.
type CustomerRequest struct {
	Name  string `json:"name" validate:"required,max=160"`
	Email string `json:"email" validate:"required,email,max=254"`
	Phone string `json:"phone" validate:"omitempty,max=40"`
}

// ProductRequest is the payload for POST and PUT /products.
// Price is accepted as a JSON number or a numeric string.
type ProductRequest struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Price       interface{} `json:"price"`
	Description string      `json:"description" validate:"max=1000"`
}

// PriceDecimal parses Price. ok is false when the value is missing or not numeric.
func (r ProductRequest) PriceDecimal() (decimal.Decimal, bool) {
	if r.Price == nil {
		return decimal.Zero, false
	}
	s, err := cast.ToStringE(r.Price)
	if err != nil {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(s, ",", ".")))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
