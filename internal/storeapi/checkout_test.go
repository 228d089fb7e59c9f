package storeapi

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/corethreads/commerce/internal/checkout"
	"github.com/corethreads/commerce/internal/domain"
	"github.com/corethreads/commerce/internal/webserver"
)

type testEnv struct {
	db     *gorm.DB
	engine *checkout.Engine
	echo   *echo.Echo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Tables...))

	return &testEnv{
		db:     db,
		engine: checkout.NewEngine(db, nil, nil),
		echo:   echo.New(),
	}
}

// invoke runs a handler the way the route middleware would, with the db and
// engine injected into the request context.
func (env *testEnv) invoke(t *testing.T, handler echo.HandlerFunc, method, target, body string, configure func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.echo.NewContext(req, rec)
	c.Set(webserver.ContextDBKey, env.db)
	c.Set(webserver.ContextEngineKey, env.engine)
	if configure != nil {
		configure(c)
	}
	require.NoError(t, handler(c))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func seedCatalog(t *testing.T, db *gorm.DB, stock int64) (*domain.Customer, *domain.Product) {
	t.Helper()
	customer := &domain.Customer{
		Username: "walker",
		Email:    "walker@test.local",
		Balance:  decimal.RequireFromString("1000"),
		Status:   "enabled",
	}
	require.NoError(t, db.Create(customer).Error)

	product := &domain.Product{
		Name:        "Core Tee",
		Price:       decimal.RequireFromString("49.99"),
		ProductCode: "CORE-TEE",
		IsActive:    true,
	}
	require.NoError(t, db.Create(product).Error)
	require.NoError(t, db.Create(&domain.ProductVariant{
		ProductID: product.ID,
		Size:      "M",
		Sku:       "TEE-M",
		Stock:     stock,
	}).Error)
	require.NoError(t, db.Model(product).Update("stock", stock).Error)
	return customer, product
}

func TestPostCheckoutCreatesOrder(t *testing.T) {
	env := newTestEnv(t)
	customer, product := seedCatalog(t, env.db, 10)

	body := `{"customerId": ` + strconv.FormatInt(customer.ID, 10) +
		`, "items": [{"productId": ` + strconv.FormatInt(product.ID, 10) +
		`, "size": "M", "quantity": 2}]}`
	rec := env.invoke(t, postCheckout, http.MethodPost, "/api/orders/checkout", body, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, domain.OrderStatusDelivered, resp["status"])
	assert.Contains(t, resp["orderNumber"], "ORD-")
	assert.Equal(t, "99.98", resp["totalAmount"])
	assert.Equal(t, "900.02", resp["remainingBalance"])
}

func TestPostCheckoutInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	customer, product := seedCatalog(t, env.db, 5)

	body := `{"customerId": ` + strconv.FormatInt(customer.ID, 10) +
		`, "items": [{"productId": ` + strconv.FormatInt(product.ID, 10) +
		`, "size": "M", "quantity": 10}]}`
	rec := env.invoke(t, postCheckout, http.MethodPost, "/api/orders/checkout", body, nil)

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "Some items failed validation", resp["error"])
	failures, okCast := resp["failures"].([]interface{})
	require.True(t, okCast)
	require.Len(t, failures, 1)
	failure := failures[0].(map[string]interface{})
	assert.Equal(t, checkout.ReasonInsufficientStock, failure["reason"])
	assert.EqualValues(t, 5, failure["available"])
	assert.EqualValues(t, 10, failure["requested"])
}

func TestPostCheckoutInsufficientBalance(t *testing.T) {
	env := newTestEnv(t)
	customer, product := seedCatalog(t, env.db, 10)
	require.NoError(t, env.db.Model(customer).Update("balance", "10").Error)

	body := `{"customerId": ` + strconv.FormatInt(customer.ID, 10) +
		`, "items": [{"productId": ` + strconv.FormatInt(product.ID, 10) +
		`, "size": "M", "quantity": 2}]}`
	rec := env.invoke(t, postCheckout, http.MethodPost, "/api/orders/checkout", body, nil)

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, checkout.ReasonInsufficientBalance, resp["error"])
}

func TestPostCheckoutDisabledCustomer(t *testing.T) {
	env := newTestEnv(t)
	customer, product := seedCatalog(t, env.db, 10)
	require.NoError(t, env.db.Model(customer).Update("status", "disabled").Error)

	body := `{"customerId": ` + strconv.FormatInt(customer.ID, 10) +
		`, "items": [{"productId": ` + strconv.FormatInt(product.ID, 10) +
		`, "size": "M", "quantity": 1}]}`
	rec := env.invoke(t, postCheckout, http.MethodPost, "/api/orders/checkout", body, nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, rec)["code"])
}

func TestPostCheckoutUnknownCustomer(t *testing.T) {
	env := newTestEnv(t)
	_, product := seedCatalog(t, env.db, 10)

	body := `{"customerId": 424242, "items": [{"productId": ` +
		strconv.FormatInt(product.ID, 10) + `, "quantity": 1}]}`
	rec := env.invoke(t, postCheckout, http.MethodPost, "/api/orders/checkout", body, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec)["code"])
}

func TestPostCheckoutValidation(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(t, env.db, 10)

	cases := []struct {
		name string
		body string
	}{
		{"missing customer", `{"items": [{"productId": 1, "quantity": 1}]}`},
		{"empty items", `{"customerId": 1, "items": []}`},
		{"malformed json", `{"customerId": `},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.invoke(t, postCheckout, http.MethodPost, "/api/orders/checkout", tc.body, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_REQUEST", decode(t, rec)["code"])
		})
	}
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	customer, product := seedCatalog(t, env.db, 10)

	body := `{"customerId": ` + strconv.FormatInt(customer.ID, 10) +
		`, "items": [{"productId": ` + strconv.FormatInt(product.ID, 10) +
		`, "size": "M", "quantity": 1}]}`
	rec := env.invoke(t, postCheckout, http.MethodPost, "/api/orders/checkout", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID, okCast := decode(t, rec)["orderId"].(string)
	require.True(t, okCast)

	// Instant fulfillment leaves the order DELIVERED, a terminal state.
	rec = env.invoke(t, updateOrderStatus, http.MethodPatch, "/api/orders/0/status?status=PROCESSING", "", func(c echo.Context) {
		c.SetParamNames("id")
		c.SetParamValues(orderID)
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode(t, rec)["code"])

	rec = env.invoke(t, getOrder, http.MethodGet, "/api/orders/0", "", func(c echo.Context) {
		c.SetParamNames("id")
		c.SetParamValues("99999999")
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}
