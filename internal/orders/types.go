package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/matsalen/desafio-procion/internal/domain"
)

// DraftLine is one cart entry submitted by the client.
type DraftLine struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// Draft is a complete cart submitted in one call.
// Total is optional; when present it must match the recomputed sum.
type Draft struct {
	CustomerID     int64
	PaymentMethod  string
	Total          *decimal.Decimal
	IdempotencyKey string
	Lines          []DraftLine
}

// Result is returned by Compose. Replayed is set when the idempotency key
// matched an order created earlier.
type Result struct {
	Order    *domain.Order
	Replayed bool
}

// LineRow is one line of the orders CSV report.
type LineRow struct {
	OrderID       int64     `csv:"order_id"`
	CreatedAt     time.Time `csv:"created_at"`
	CustomerID    int64     `csv:"customer_id"`
	Customer      string    `csv:"customer"`
	PaymentMethod string    `csv:"payment_method"`
	ProductID     int64     `csv:"product_id"`
	Product       string    `csv:"product"`
	Quantity      int       `csv:"quantity"`
	UnitPrice     string    `csv:"unit_price"`
	Subtotal      string    `csv:"subtotal"`
	OrderTotal    string    `csv:"order_total"`
}
