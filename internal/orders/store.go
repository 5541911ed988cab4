package orders

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/matsalen/desafio-procion/internal/apperr"
	"github.com/matsalen/desafio-procion/internal/database"
	"github.com/matsalen/desafio-procion/internal/domain"
)

// Store composes and reads orders.
type Store struct {
	db             *gorm.DB
	defaultPayment string
	nowFunc        func() time.Time
}

// NewStore returns a Store. defaultPayment is used when a draft has no payment method.
func NewStore(db *gorm.DB, defaultPayment string) *Store {
	return &Store{
		db:             db,
		defaultPayment: defaultPayment,
		nowFunc:        time.Now,
	}
}

// Compose validates the draft, recomputes every subtotal and the total, and
// writes the order with all its lines in one transaction. The returned order
// is hydrated with its customer and each line's product.
func (s *Store) Compose(ctx context.Context, d Draft) (*Result, error) {
	order, err := s.build(d)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	if order.IdempotencyKey != nil {
		existing, err := s.FindByIdempotencyKey(ctx, *order.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return replay(existing, order)
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := ensureCustomer(tx, order.CustomerID); err != nil {
			return err
		}
		if err := ensureProducts(tx, order.Lines); err != nil {
			return err
		}
		return tx.Create(order).Error
	})

	switch {
	case err == nil:
	case apperr.KindOf(err) != apperr.KindPersistence:
		return nil, err
	case order.IdempotencyKey != nil && database.IsDuplicateKey(err):
		// lost a race against a request carrying the same key
		existing, ferr := s.FindByIdempotencyKey(ctx, *order.IdempotencyKey)
		if ferr != nil {
			return nil, ferr
		}
		if existing != nil {
			return replay(existing, order)
		}
		return nil, apperr.Persistence("create order", err)
	case database.IsForeignKeyViolation(err):
		return nil, apperr.Validation("items", "order references a customer or product that no longer exists")
	default:
		return nil, apperr.Persistence("create order", err)
	}

	saved, err := s.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &Result{Order: saved}, nil
}

func (s *Store) build(d Draft) (*domain.Order, error) {
	if d.CustomerID <= 0 {
		return nil, apperr.Validation("customerId", "customerId is required")
	}
	if len(d.Lines) == 0 {
		return nil, apperr.Validation("items", "order must have at least one item")
	}

	lines := make([]domain.OrderLine, 0, len(d.Lines))
	for i, l := range d.Lines {
		field := fmt.Sprintf("items[%d]", i)
		switch {
		case l.ProductID <= 0:
			return nil, apperr.Validation(field+".productId", "productId is required")
		case l.Quantity <= 0:
			return nil, apperr.Validation(field+".quantity", "quantity must be greater than zero")
		case l.UnitPrice.IsNegative():
			return nil, apperr.Validation(field+".unitPrice", "unitPrice must not be negative")
		}
		price := l.UnitPrice.Round(2)
		lines = append(lines, domain.OrderLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: price,
			Subtotal:  domain.LineSubtotal(l.Quantity, price),
		})
	}

	total := domain.SumLines(lines)
	if d.Total != nil && !domain.SameCents(*d.Total, total) {
		return nil, apperr.Validation("total", fmt.Sprintf("total %s does not match items sum %s",
			d.Total.StringFixed(2), total.StringFixed(2)))
	}

	payment := strings.TrimSpace(d.PaymentMethod)
	if payment == "" {
		payment = s.defaultPayment
	}

	order := &domain.Order{
		CustomerID:    d.CustomerID,
		Total:         total,
		PaymentMethod: payment,
		CreatedAt:     s.nowFunc().UTC(),
		Lines:         lines,
	}
	if key := strings.TrimSpace(d.IdempotencyKey); key != "" {
		order.IdempotencyKey = &key
		order.RequestHash = fingerprint(order)
	}
	return order, nil
}

// replay returns the order stored under the key, refusing a request that
// differs from the one that created it.
func replay(existing, incoming *domain.Order) (*Result, error) {
	if existing.RequestHash != "" && existing.RequestHash != incoming.RequestHash {
		return nil, apperr.Conflict("idempotency_key_reused",
			"Idempotency-Key was already used for a different order")
	}
	return &Result{Order: existing, Replayed: true}, nil
}

// fingerprint hashes the normalized order: customer, payment method and every
// line in submission order.
func fingerprint(o *domain.Order) string {
	h := sha256.New()
	fmt.Fprintf(h, "c=%d;p=%s;", o.CustomerID, o.PaymentMethod)
	for _, l := range o.Lines {
		fmt.Fprintf(h, "l=%d:%d:%s;", l.ProductID, l.Quantity, l.UnitPrice.StringFixed(2))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func ensureCustomer(tx *gorm.DB, id int64) error {
	var n int64
	if err := tx.Model(&domain.Customer{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return apperr.Persistence("load customer", err)
	}
	if n == 0 {
		return apperr.NotFound("customer", id)
	}
	return nil
}

func ensureProducts(tx *gorm.DB, lines []domain.OrderLine) error {
	ids := make([]int64, 0, len(lines))
	seen := map[int64]bool{}
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}

	var found []int64
	if err := tx.Model(&domain.Product{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return apperr.Persistence("load products", err)
	}
	present := make(map[int64]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	for _, id := range ids {
		if !present[id] {
			return apperr.NotFound("product", id)
		}
	}
	return nil
}

func hydrated(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Customer").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("order_lines.id ASC") }).
		Preload("Lines.Product")
}

// List returns every order, newest first, hydrated.
func (s *Store) List(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	if err := hydrated(s.db.WithContext(ctx)).Order("orders.id DESC").Find(&out).Error; err != nil {
		return nil, apperr.Persistence("list orders", err)
	}
	return out, nil
}

// Get returns one hydrated order.
func (s *Store) Get(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	err := hydrated(s.db.WithContext(ctx)).Where("orders.id = ?", id).First(&o).Error
	if database.IsNotFound(err) {
		return nil, apperr.NotFound("order", id)
	} else if err != nil {
		return nil, apperr.Persistence("load order", err)
	}
	return &o, nil
}

// FindByIdempotencyKey returns (nil, nil) when no order carries the key.
func (s *Store) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	var o domain.Order
	err := hydrated(s.db.WithContext(ctx)).Where("orders.idempotency_key = ?", key).First(&o).Error
	if database.IsNotFound(err) {
		return nil, nil
	} else if err != nil {
		return nil, apperr.Persistence("load order by idempotency key", err)
	}
	return &o, nil
}

// VerifyTotals reports whether the stored total equals the sum of its lines at cent precision.
func VerifyTotals(o domain.Order) bool {
	return domain.SameCents(o.Total, domain.SumLines(o.Lines))
}

// ExportRows flattens every order into one row per line, newest order first.
func (s *Store) ExportRows(ctx context.Context, placeholder string) ([]LineRow, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]LineRow, 0, len(list))
	for _, o := range list {
		for _, l := range o.Lines {
			rows = append(rows, LineRow{
				OrderID:       o.ID,
				CreatedAt:     o.CreatedAt,
				CustomerID:    o.CustomerID,
				Customer:      o.CustomerName(placeholder),
				PaymentMethod: o.PaymentMethod,
				ProductID:     l.ProductID,
				Product:       l.ProductName(""),
				Quantity:      l.Quantity,
				UnitPrice:     l.UnitPrice.StringFixed(2),
				Subtotal:      l.Subtotal.StringFixed(2),
				OrderTotal:    o.Total.StringFixed(2),
			})
		}
	}
	return rows, nil
}
