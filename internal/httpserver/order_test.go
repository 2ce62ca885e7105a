package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kmerkulov/storefront/internal/config"
	authmw "github.com/kmerkulov/storefront/internal/middleware/auth"
	"github.com/kmerkulov/storefront/internal/models"
	"github.com/kmerkulov/storefront/internal/repo"
	authsvc "github.com/kmerkulov/storefront/internal/service/auth"
	"github.com/kmerkulov/storefront/internal/service/catalog"
	ordersvc "github.com/kmerkulov/storefront/internal/service/order"
)

var testSecret = []byte("test-jwt-secret")

type testEnv struct {
	E  *echo.Echo
	DB *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.AutoMigrate(db))

	gormRepo := &repo.GormRepo{DB: db}

	e := echo.New()
	Register(e, &Deps{
		AuthHandler:    &AuthHTTP{Svc: &authsvc.AuthService{Repo: gormRepo, JWTSecret: testSecret, RefreshSecret: []byte("test-refresh-secret")}},
		ProductHandler: &ProductHTTP{Svc: &catalog.CatalogService{Repo: gormRepo}},
		OrderHandler:   &OrderHTTP{Svc: &ordersvc.OrderService{Repo: gormRepo}},
		Guard:          &authmw.Guard{JWTSecret: testSecret},
	})

	return &testEnv{E: e, DB: db}
}

func (env *testEnv) createUser(t *testing.T, email, role string) models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, env.DB.Create(&user).Error)
	return user
}

func (env *testEnv) createProduct(t *testing.T, price string, stock int) models.Product {
	t.Helper()
	product := models.Product{
		Name:          "test_product",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, env.DB.Create(&product).Error)
	return product
}

func signToken(t *testing.T, user models.User) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(15 * time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func TestPlaceOrder_HTTPStatusMapping(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "customer@test.com", "user")
	product := env.createProduct(t, "99.99", 100)
	token := signToken(t, user)

	// success
	rec := env.do(t, http.MethodPost, "/api/v1/orders", token, map[string]any{
		"items":            []map[string]any{{"product_id": product.ID, "quantity": 2}},
		"shipping_address": "Teststreet 123, 12345 Testcity",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var placed models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))
	assert.True(t, decimal.RequireFromString("199.98").Equal(placed.Total))
	assert.Equal(t, models.OrderStatusPending, placed.Status)

	// stale cart: insufficient stock is a conflict, not a server error
	rec = env.do(t, http.MethodPost, "/api/v1/orders", token, map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 1000}},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// unknown product
	rec = env.do(t, http.MethodPost, "/api/v1/orders", token, map[string]any{
		"items": []map[string]any{{"product_id": 99999, "quantity": 1}},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// empty cart
	rec = env.do(t, http.MethodPost, "/api/v1/orders", token, map[string]any{
		"items": []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrders_AuthGuard(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "customer@test.com", "user")

	// no credential at all
	rec := env.do(t, http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// garbage token
	rec = env.do(t, http.MethodGet, "/api/v1/orders", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// regular user on an admin route
	rec = env.do(t, http.MethodGet, "/api/v1/orders/admin/all", signToken(t, user), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetOrder_ForeignOrderLooksMissing(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@test.com", "user")
	other := env.createUser(t, "other@test.com", "user")
	product := env.createProduct(t, "5.00", 10)

	rec := env.do(t, http.MethodPost, "/api/v1/orders", signToken(t, owner), map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var placed models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))

	path := fmt.Sprintf("/api/v1/orders/%d", placed.ID)

	rec = env.do(t, http.MethodGet, path, signToken(t, other), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, path, signToken(t, owner), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateOrderStatus_Admin(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "customer@test.com", "user")
	admin := env.createUser(t, "admin@test.com", "admin")
	product := env.createProduct(t, "5.00", 10)

	rec := env.do(t, http.MethodPost, "/api/v1/orders", signToken(t, user), map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var placed models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))

	path := fmt.Sprintf("/api/v1/orders/admin/%d/status", placed.ID)

	rec = env.do(t, http.MethodPatch, path, signToken(t, admin), map[string]any{"status": "shipped"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, models.OrderStatusShipped, updated.Status)

	// invalid enum value leaves the order untouched
	rec = env.do(t, http.MethodPatch, path, signToken(t, admin), map[string]any{"status": "invalid_status"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var check models.Order
	require.NoError(t, env.DB.First(&check, placed.ID).Error)
	assert.Equal(t, models.OrderStatusShipped, check.Status)
}
