package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/matsalen/desafio-procion/internal/apperr"
	"github.com/matsalen/desafio-procion/internal/database"
	"github.com/matsalen/desafio-procion/internal/domain"
)

type fixture struct {
	db       *gorm.DB
	store    *Store
	ana      domain.Customer
	mouse    domain.Product
	keyboard domain.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(database.Options{Type: "sqlite", DSN: database.MemoryDSN(uuid.NewString())})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	f := &fixture{db: db, store: NewStore(db, "Not informed")}
	f.ana = domain.Customer{Name: "Ana", Email: "ana@example.com", Active: true}
	f.mouse = domain.Product{Name: "Mouse", Price: dec("49.90"), Active: true}
	f.keyboard = domain.Product{Name: "Keyboard", Price: dec("120.00"), Active: true}
	require.NoError(t, db.Create(&f.ana).Error)
	require.NoError(t, db.Create(&f.mouse).Error)
	require.NoError(t, db.Create(&f.keyboard).Error)
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func TestCompose_HydratedOrder(t *testing.T) {
	f := newFixture(t)
	total := dec("99.80")

	res, err := f.store.Compose(context.Background(), Draft{
		CustomerID:    f.ana.ID,
		PaymentMethod: "Pix",
		Total:         &total,
		Lines:         []DraftLine{{ProductID: f.mouse.ID, Quantity: 2, UnitPrice: dec("49.90")}},
	})
	require.NoError(t, err)
	require.False(t, res.Replayed)

	o := res.Order
	assert.True(t, o.Total.Equal(dec("99.80")))
	assert.Equal(t, "Pix", o.PaymentMethod)
	require.NotNil(t, o.Customer)
	assert.Equal(t, "Ana", o.Customer.Name)
	require.Len(t, o.Lines, 1)
	require.NotNil(t, o.Lines[0].Product)
	assert.Equal(t, "Mouse", o.Lines[0].Product.Name)
	assert.True(t, o.Lines[0].Subtotal.Equal(dec("99.80")))
	assert.True(t, VerifyTotals(*o))
}

func TestCompose_LinesKeepInsertionOrder(t *testing.T) {
	f := newFixture(t)

	res, err := f.store.Compose(context.Background(), Draft{
		CustomerID: f.ana.ID,
		Lines: []DraftLine{
			{ProductID: f.keyboard.ID, Quantity: 1, UnitPrice: dec("120")},
			{ProductID: f.mouse.ID, Quantity: 3, UnitPrice: dec("45.5")},
			{ProductID: f.keyboard.ID, Quantity: 1, UnitPrice: dec("100")},
		},
	})
	require.NoError(t, err)

	lines := res.Order.Lines
	require.Len(t, lines, 3)
	assert.Equal(t, f.keyboard.ID, lines[0].ProductID)
	assert.Equal(t, f.mouse.ID, lines[1].ProductID)
	assert.True(t, lines[2].UnitPrice.Equal(dec("100")))
	assert.True(t, res.Order.Total.Equal(dec("356.50")))
	assert.Equal(t, "Not informed", res.Order.PaymentMethod)
}

func TestCompose_RejectsInvalidDrafts(t *testing.T) {
	f := newFixture(t)
	wrong := dec("10.00")

	cases := map[string]Draft{
		"no customer":   {Lines: []DraftLine{{ProductID: f.mouse.ID, Quantity: 1}}},
		"no lines":      {CustomerID: f.ana.ID},
		"zero quantity": {CustomerID: f.ana.ID, Lines: []DraftLine{{ProductID: f.mouse.ID, Quantity: 0, UnitPrice: dec("1")}}},
		"negative price": {CustomerID: f.ana.ID, Lines: []DraftLine{
			{ProductID: f.mouse.ID, Quantity: 1, UnitPrice: dec("-0.01")}}},
		"total mismatch": {CustomerID: f.ana.ID, Total: &wrong, Lines: []DraftLine{
			{ProductID: f.mouse.ID, Quantity: 2, UnitPrice: dec("49.90")}}},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.store.Compose(context.Background(), d)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Zero(t, f.count(t, &domain.Order{}))
}

func TestCompose_UnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Compose(ctx, Draft{CustomerID: 999, Lines: []DraftLine{{ProductID: f.mouse.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.store.Compose(ctx, Draft{CustomerID: f.ana.ID, Lines: []DraftLine{
		{ProductID: f.mouse.ID, Quantity: 1},
		{ProductID: 777, Quantity: 1},
	}})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	e, _ := apperr.As(err)
	assert.Equal(t, "product_not_found", e.Code)

	assert.Zero(t, f.count(t, &domain.Order{}))
	assert.Zero(t, f.count(t, &domain.OrderLine{}))
}

func TestCompose_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_lines", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "order_lines" {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	_, err = f.store.Compose(context.Background(), Draft{
		CustomerID: f.ana.ID,
		Lines:      []DraftLine{{ProductID: f.mouse.ID, Quantity: 2, UnitPrice: dec("49.90")}},
	})
	require.ErrorIs(t, err, apperr.ErrPersistence)
	assert.NotContains(t, err.(*apperr.Error).Msg, "disk full")

	assert.Zero(t, f.count(t, &domain.Order{}))
	assert.Zero(t, f.count(t, &domain.OrderLine{}))
}

func TestCompose_IdempotencyKeyReplays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := Draft{
		CustomerID:     f.ana.ID,
		IdempotencyKey: "cart-1",
		Lines:          []DraftLine{{ProductID: f.mouse.ID, Quantity: 1, UnitPrice: dec("49.90")}},
	}

	first, err := f.store.Compose(ctx, d)
	require.NoError(t, err)
	second, err := f.store.Compose(ctx, d)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.EqualValues(t, 1, f.count(t, &domain.Order{}))
}

func TestCompose_IdempotencyKeyRejectsDifferentRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := Draft{
		CustomerID:     f.ana.ID,
		IdempotencyKey: "cart-2",
		Lines:          []DraftLine{{ProductID: f.mouse.ID, Quantity: 1, UnitPrice: dec("49.90")}},
	}
	first, err := f.store.Compose(ctx, d)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Order.RequestHash)

	changed := map[string]Draft{
		"quantity": {CustomerID: f.ana.ID, IdempotencyKey: "cart-2",
			Lines: []DraftLine{{ProductID: f.mouse.ID, Quantity: 2, UnitPrice: dec("49.90")}}},
		"product": {CustomerID: f.ana.ID, IdempotencyKey: "cart-2",
			Lines: []DraftLine{{ProductID: f.keyboard.ID, Quantity: 1, UnitPrice: dec("49.90")}}},
		"payment": {CustomerID: f.ana.ID, IdempotencyKey: "cart-2", PaymentMethod: "Card",
			Lines: []DraftLine{{ProductID: f.mouse.ID, Quantity: 1, UnitPrice: dec("49.90")}}},
	}
	for name, other := range changed {
		t.Run(name, func(t *testing.T) {
			_, err := f.store.Compose(ctx, other)
			require.ErrorIs(t, err, apperr.ErrConflict)
			assert.Equal(t, "idempotency_key_reused", err.(*apperr.Error).Code)
		})
	}

	// same cart written differently still replays
	same := d
	same.Lines = []DraftLine{{ProductID: f.mouse.ID, Quantity: 1, UnitPrice: dec("49.9")}}
	res, err := f.store.Compose(ctx, same)
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.EqualValues(t, 1, f.count(t, &domain.Order{}))
}

func TestList_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	var ids []int64
	for i := 0; i < 3; i++ {
		f.store.nowFunc = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		res, err := f.store.Compose(ctx, Draft{
			CustomerID: f.ana.ID,
			Lines:      []DraftLine{{ProductID: f.mouse.ID, Quantity: i + 1, UnitPrice: dec("1.00")}},
		})
		require.NoError(t, err)
		ids = append(ids, res.Order.ID)
	}

	list, err := f.store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{ids[2], ids[1], ids[0]}, []int64{list[0].ID, list[1].ID, list[2].ID})
	for _, o := range list {
		require.NotNil(t, o.Customer)
		require.NotEmpty(t, o.Lines)
		require.NotNil(t, o.Lines[0].Product)
		assert.True(t, VerifyTotals(o))
	}
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Get(context.Background(), 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUnitPriceSurvivesProductRepricing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.store.Compose(ctx, Draft{
		CustomerID: f.ana.ID,
		Lines:      []DraftLine{{ProductID: f.mouse.ID, Quantity: 1, UnitPrice: dec("49.90")}},
	})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&f.mouse).Update("price", dec("10.00")).Error)

	o, err := f.store.Get(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.True(t, o.Lines[0].UnitPrice.Equal(dec("49.90")))
	assert.True(t, o.Lines[0].Product.Price.Equal(dec("10")))
}

func TestExportRows(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Compose(context.Background(), Draft{
		CustomerID:    f.ana.ID,
		PaymentMethod: "Card",
		Lines: []DraftLine{
			{ProductID: f.mouse.ID, Quantity: 2, UnitPrice: dec("49.90")},
			{ProductID: f.keyboard.ID, Quantity: 1, UnitPrice: dec("120")},
		},
	})
	require.NoError(t, err)

	rows, err := f.store.ExportRows(context.Background(), "Customer")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Mouse", rows[0].Product)
	assert.Equal(t, "99.80", rows[0].Subtotal)
	assert.Equal(t, "219.80", rows[1].OrderTotal)
	assert.Equal(t, "Ana", rows[1].Customer)
}
