package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"market/internal/database"
	"market/internal/handlers"
	"market/internal/middleware"
	"market/internal/models"
	"market/internal/repositories"
	"market/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

// setupApp builds a Fiber app over a private in-memory SQLite database.
func setupApp(t *testing.T, authRequired bool) *fiber.App {
	t.Helper()
	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	productRepo := repositories.NewGORMProductRepository(db)
	saleRepo := repositories.NewGORMSaleRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	productService := services.NewProductService(productRepo)
	saleService := services.NewSaleService(saleRepo, productRepo, repositories.NewGORMTransactor(db), nil)
	authService := services.NewAuthService(userRepo, "test_jwt_secret", time.Hour)

	app := fiber.New()
	api := app.Group("/api")
	handlers.NewAuthHandler(authService).RegisterRoutes(api)

	var guards []fiber.Handler
	if authRequired {
		guards = append(guards, middleware.AuthRequired(authService))
	}
	handlers.NewProductHandler(productService).RegisterRoutes(api, guards...)
	handlers.NewSaleHandler(saleService).RegisterRoutes(api, guards...)
	handlers.NewHealthHandler(func() error { return database.Ping(db) }, "disabled").RegisterRoutes(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func createProduct(t *testing.T, app *fiber.App, name string, price float64, stock int) models.Product {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"name":            name,
		"description":     name + " for testing",
		"price":           price,
		"quantityInStock": stock,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p models.Product
	decode(t, resp, &p)
	return p
}

func TestProductEndpoints(t *testing.T) {
	app := setupApp(t, false)

	resp := doJSON(t, app, http.MethodGet, "/api/products", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	created := createProduct(t, app, "Smartphone", 799.99, 50)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Smartphone", created.Name)
	assert.True(t, created.Active)
	assert.True(t, created.Price.Equal(decimal.RequireFromString("799.99")))

	resp = doJSON(t, app, http.MethodGet, "/api/products/"+created.ID, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Product
	decode(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, 50, fetched.QuantityInStock)

	resp = doJSON(t, app, http.MethodGet, "/api/products", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.Product
	decode(t, resp, &list)
	assert.Len(t, list, 1)

	resp = doJSON(t, app, http.MethodPut, "/api/products/"+created.ID, map[string]interface{}{
		"name":            "Smartphone Pro",
		"description":     "Pro edition",
		"price":           899.99,
		"quantityInStock": 45,
	}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Product
	decode(t, resp, &updated)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Smartphone Pro", updated.Name)
	assert.Equal(t, 45, updated.QuantityInStock)

	resp = doJSON(t, app, http.MethodDelete, "/api/products/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/products/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductEndpoints_NotFoundAndValidation(t *testing.T) {
	app := setupApp(t, false)

	resp := doJSON(t, app, http.MethodDelete, "/api/products/does-not-exist", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPut, "/api/products/does-not-exist", map[string]interface{}{
		"name": "Ghost", "price": 1, "quantityInStock": 1,
	}, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"name": "Broken", "price": -5, "quantityInStock": -1,
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "Validation failed", body.Message)
	assert.Contains(t, body.Errors, "Price")
	assert.Contains(t, body.Errors, "QuantityInStock")

	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	raw, err := app.Test(req, -1)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestSaleEndpoints(t *testing.T) {
	app := setupApp(t, false)
	product := createProduct(t, app, "Keyboard", 100, 50)

	resp := doJSON(t, app, http.MethodGet, "/api/sales", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/sales", map[string]interface{}{
		"idProduct":       product.ID,
		"quantityProduct": 21,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sale map[string]interface{}
	decode(t, resp, &sale)
	saleID, _ := sale["id"].(string)
	assert.NotEmpty(t, saleID)
	assert.Equal(t, product.ID, sale["idProduct"])
	assert.EqualValues(t, 21, sale["quantityProduct"])
	assert.EqualValues(t, 1890, sale["saleValue"])
	dateSale, _ := sale["dateSale"].(string)
	_, err := time.Parse(models.SaleDateLayout, dateSale)
	assert.NoError(t, err, "dateSale %q", dateSale)

	resp = doJSON(t, app, http.MethodGet, "/api/products/"+product.ID, nil, "")
	var afterSale models.Product
	decode(t, resp, &afterSale)
	assert.Equal(t, 29, afterSale.QuantityInStock)

	resp = doJSON(t, app, http.MethodGet, "/api/sales/"+saleID, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.SaleResponse
	decode(t, resp, &fetched)
	assert.Equal(t, saleID, fetched.ID)
	assert.Equal(t, 21, fetched.QuantityProduct)

	// Stock (29) covers the previous quantity (21), so the update applies.
	resp = doJSON(t, app, http.MethodPut, "/api/sales/"+saleID, map[string]interface{}{
		"idProduct":       product.ID,
		"quantityProduct": 11,
	}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.SaleResponse
	decode(t, resp, &updated)
	assert.Equal(t, 11, updated.QuantityProduct)
	assert.True(t, updated.SaleValue.Equal(decimal.NewFromInt(1045)), "got %s", updated.SaleValue)

	resp = doJSON(t, app, http.MethodGet, "/api/products/"+product.ID, nil, "")
	var afterUpdate models.Product
	decode(t, resp, &afterUpdate)
	assert.Equal(t, 39, afterUpdate.QuantityInStock)

	resp = doJSON(t, app, http.MethodGet, "/api/sales", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.SaleResponse
	decode(t, resp, &list)
	assert.Len(t, list, 1)

	resp = doJSON(t, app, http.MethodDelete, "/api/sales/"+saleID, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/api/sales/"+saleID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSaleEndpoints_NoResult(t *testing.T) {
	app := setupApp(t, false)
	product := createProduct(t, app, "Mouse", 25, 3)

	cases := []map[string]interface{}{
		{"idProduct": product.ID, "quantityProduct": 4},
		{"idProduct": product.ID, "quantityProduct": 0},
		{"idProduct": "unknown", "quantityProduct": 1},
	}
	for i, body := range cases {
		resp := doJSON(t, app, http.MethodPost, "/api/sales", body, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, fmt.Sprintf("case %d", i))
	}

	resp := doJSON(t, app, http.MethodPost, "/api/sales", map[string]interface{}{"quantityProduct": 1}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPut, "/api/sales/unknown", map[string]interface{}{
		"idProduct": product.ID, "quantityProduct": 1,
	}, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/products/"+product.ID, nil, "")
	var p models.Product
	decode(t, resp, &p)
	assert.Equal(t, 3, p.QuantityInStock)
}

func TestAuthRegisterLoginAndGuard(t *testing.T) {
	app := setupApp(t, true)

	resp := doJSON(t, app, http.MethodGet, "/api/products", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = doJSON(t, app, http.MethodPost, "/api/sales", map[string]interface{}{"idProduct": "x", "quantityProduct": 1}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = doJSON(t, app, http.MethodGet, "/api/products", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	user := map[string]string{"username": "authuser", "email": "auth@example.com", "password": "securepassword"}
	resp = doJSON(t, app, http.MethodPost, "/api/auth/register", user, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var registered struct {
		Message string      `json:"message"`
		User    models.User `json:"user"`
	}
	decode(t, resp, &registered)
	assert.Equal(t, "User registered successfully", registered.Message)
	assert.Empty(t, registered.User.Password)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/register", user, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{"username": "authuser", "password": "nope-nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{"username": "authuser", "password": "securepassword"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login map[string]string
	decode(t, resp, &login)
	token := login["token"]
	require.NotEmpty(t, token)

	resp = doJSON(t, app, http.MethodGet, "/api/products", nil, token)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	app := setupApp(t, false)

	resp := doJSON(t, app, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "up", body["database"])
	assert.Equal(t, "disabled", body["broker"])
}
