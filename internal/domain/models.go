package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money goes over the wire as a JSON number, not a quoted string.
	decimal.MarshalJSONWithoutQuotes = true
}

// Customer is a buyer. Deleting through the API only flips Active.
type Customer struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:160;not null"`
	Email     string    `json:"email" gorm:"size:254;not null;uniqueIndex"`
	Phone     string    `json:"phone" gorm:"size:40"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Customer) TableName() string { return "customers" }

// Product is a sellable item. Price is the current list price; orders keep their own copy.
type Product struct {
	ID          int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string          `json:"name" gorm:"size:200;not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Description string          `json:"description" gorm:"size:1000"`
	Active      bool            `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (Product) TableName() string { return "products" }

// Order is written once, together with all of its lines, and never updated.
type Order struct {
	ID             int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	CustomerID     int64           `json:"customerId" gorm:"not null;index"`
	Customer       *Customer       `json:"customer,omitempty" gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Total          decimal.Decimal `json:"total" gorm:"type:numeric(12,2);not null"`
	PaymentMethod  string          `json:"paymentMethod" gorm:"size:60;not null"`
	IdempotencyKey *string         `json:"-" gorm:"size:128;uniqueIndex"`
	RequestHash    string          `json:"-" gorm:"size:64"` // fingerprint of the request that used IdempotencyKey
	CreatedAt      time.Time       `json:"createdAt" gorm:"index"`
	Lines          []OrderLine     `json:"items" gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Order) TableName() string { return "orders" }

// CustomerName returns the customer's name, or fallback when the customer was not loaded.
func (o Order) CustomerName(fallback string) string {
	if o.Customer == nil || o.Customer.Name == "" {
		return fallback
	}
	return o.Customer.Name
}

// CustomerEmail is empty when the customer is missing or has no address.
func (o Order) CustomerEmail() string {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.Email
}

// OrderLine captures quantity and unit price at the time of purchase.
type OrderLine struct {
	ID        int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   int64           `json:"orderId" gorm:"not null;index"`
	ProductID int64           `json:"productId" gorm:"not null;index"`
	Product   *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unitPrice" gorm:"type:numeric(12,2);not null"`
	Subtotal  decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2);not null"`
}

func (OrderLine) TableName() string { return "order_lines" }

// ProductName returns the product's name, or fallback when it was not loaded.
func (l OrderLine) ProductName(fallback string) string {
	if l.Product == nil || l.Product.Name == "" {
		return fallback
	}
	return l.Product.Name
}
