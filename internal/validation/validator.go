package validation

import (
	"fmt"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// New returns a configured validator with the custom struct-level rules registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// lets gt/gte/lte tags work on decimal fields, pointers included
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})
	v.RegisterStructValidation(productStructValidation, ProductRequest{})

	return v
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// createOrderStructValidation verifies a submitted total equals the items sum (in cents).
func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)
	if req.Total == nil {
		return
	}

	sum := decimal.Zero
	for _, it := range req.Items {
		if it.UnitPrice == nil {
			// reported by the item's required tag
			return
		}
		sum = sum.Add(it.UnitPrice.Round(2).Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2))
	}

	if !sum.Round(2).Equal(req.Total.Round(2)) {
		sl.ReportError(req.Total, "total", "Total", "total_match_items",
			fmt.Sprintf("items sum %s != total %s", sum.StringFixed(2), req.Total.StringFixed(2)))
	}
}

func productStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(ProductRequest)

	price, ok := req.PriceDecimal()
	if !ok {
		sl.ReportError(req.Price, "price", "Price", "numeric", "")
		return
	}
	if !price.IsPositive() {
		sl.ReportError(req.Price, "price", "Price", "gt", "0")
	}
}
