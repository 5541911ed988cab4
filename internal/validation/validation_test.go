package validation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestCreateOrderRequest_Valid(t *testing.T) {
	v := New()
	total := dec("99.80")

	req := CreateOrderRequest{
		CustomerID:    1,
		Items:         []OrderItem{{ProductID: 1, Quantity: 2, UnitPrice: decp("49.90")}},
		Total:         &total,
		PaymentMethod: "Pix",
	}

	assert.NoError(t, v.Struct(req))
}

func TestCreateOrderRequest_TotalOptional(t *testing.T) {
	v := New()

	req := CreateOrderRequest{
		CustomerID: 1,
		Items:      []OrderItem{{ProductID: 1, Quantity: 1, UnitPrice: decp("0")}},
	}

	assert.NoError(t, v.Struct(req))
}

func TestCreateOrderRequest_InvalidTotalMismatch(t *testing.T) {
	v := New()
	total := dec("99.79")

	req := CreateOrderRequest{
		CustomerID: 1,
		Items:      []OrderItem{{ProductID: 1, Quantity: 2, UnitPrice: decp("49.90")}},
		Total:      &total,
	}

	err := v.Struct(req)
	require.Error(t, err)
	assert.Contains(t, validationErrorsToMap(err), "CreateOrderRequest.total")
}

func TestCreateOrderRequest_MissingFields(t *testing.T) {
	v := New()

	err := v.Struct(CreateOrderRequest{Items: []OrderItem{}})
	require.Error(t, err)

	fields := validationErrorsToMap(err)
	assert.Equal(t, "required", fields["CreateOrderRequest.customerId"])
	assert.Equal(t, "min", fields["CreateOrderRequest.items"])
}

func TestCreateOrderRequest_ItemRules(t *testing.T) {
	v := New()

	req := CreateOrderRequest{
		CustomerID: 1,
		Items: []OrderItem{
			{ProductID: 1, Quantity: 0, UnitPrice: decp("1")},
			{ProductID: 2, Quantity: 1, UnitPrice: decp("-1")},
			{ProductID: 3, Quantity: 1},
		},
	}

	err := v.Struct(req)
	require.Error(t, err)
	var ve validatorv10.ValidationErrors
	require.ErrorAs(t, err, &ve)

	fields := validationErrorsToMap(err)
	assert.Contains(t, fields, "CreateOrderRequest.items[0].quantity")
	assert.Equal(t, "gte", fields["CreateOrderRequest.items[1].unitPrice"])
	assert.Equal(t, "required", fields["CreateOrderRequest.items[2].unitPrice"])
}

func TestCreateOrderRequest_MissingUnitPriceWithTotal(t *testing.T) {
	v := New()
	total := dec("0")

	err := v.Struct(CreateOrderRequest{
		CustomerID: 1,
		Items:      []OrderItem{{ProductID: 1, Quantity: 1}},
		Total:      &total,
	})
	require.Error(t, err)

	fields := validationErrorsToMap(err)
	assert.Equal(t, "required", fields["CreateOrderRequest.items[0].unitPrice"])
	assert.NotContains(t, fields, "CreateOrderRequest.total")
}

func TestProductRequest_PriceForms(t *testing.T) {
	v := New()

	for _, price := range []interface{}{49.9, "49.90", "49,90", json.Number("49.9")} {
		req := ProductRequest{Name: "Mouse", Price: price}
		require.NoError(t, v.Struct(req), "price %v", price)
		d, ok := req.PriceDecimal()
		require.True(t, ok)
		assert.True(t, d.Equal(dec("49.9")))
	}

	for _, price := range []interface{}{nil, "abc", 0, "-3", true} {
		err := v.Struct(ProductRequest{Name: "Mouse", Price: price})
		assert.Error(t, err, "price %v", price)
	}
}

func TestCustomerRequest_Email(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(CustomerRequest{Name: "Ana", Email: "ana@example.com"}))
	assert.Error(t, v.Struct(CustomerRequest{Name: "Ana", Email: "ana"}))
	assert.Error(t, v.Struct(CustomerRequest{Email: "ana@example.com"}))
}

func TestBindAndValidate_WritesBadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := New()

	cases := map[string]struct {
		body string
		code string
	}{
		"malformed json": {`{"customerId":`, "invalid_request_body"},
		"wrong type":     {`{"customerId":"one","items":[]}`, "invalid_request_body"},
		"empty items":    {`{"customerId":1,"items":[]}`, "validation_failed"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tc.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req CreateOrderRequest
			err := BindAndValidate(c, &req, v)

			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["error"])
		})
	}
}
