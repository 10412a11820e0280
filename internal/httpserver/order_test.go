package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shophub/storefront/internal/models"
	"github.com/shophub/storefront/internal/repo"
	"github.com/shophub/storefront/internal/service"
	"github.com/shophub/storefront/internal/storetest"
	"github.com/shophub/storefront/internal/transport"
	"github.com/shophub/storefront/pkg/metrics"
	"github.com/shophub/storefront/pkg/tokens"
)

var testSecret = []byte("test-secret")

type testEnv struct {
	e  *echo.Echo
	db *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := storetest.NewDB(t)
	r := &repo.GormRepo{DB: gdb}
	reg := prometheus.NewRegistry()

	e := echo.New()
	Register(e, &Deps{
		OrderHandler: &OrderHTTP{
			CheckoutSvc: &service.CheckoutService{Repo: r, MaxLines: 100, Metrics: metrics.NewCheckoutMetrics(reg)},
			Orders:      &service.OrderService{Repo: r},
		},
		JWTSecret: testSecret,
		DB:        gdb,
		Gatherer:  reg,
	})
	return &testEnv{e: e, db: gdb}
}

func token(t *testing.T, userID int64, role string) string {
	t.Helper()
	tok, err := tokens.NewAccessToken(testSecret, userID, role, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return tok
}

func (env *testEnv) do(t *testing.T, method, path, body, tok string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if tok != "" {
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: tok, Path: "/"})
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestCheckoutHTTP_Created(t *testing.T) {
	env := newTestEnv(t)
	p := storetest.SeedProduct(t, env.db, "Notebook", "10.00", 5)

	body := `{"items":[{"productId":` + itoa(p.ID) + `,"qty":2}],"shippingFee":5}`
	rec := env.do(t, http.MethodPost, "/api/orders/checkout", body, token(t, 42, tokens.RoleUser))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp transport.CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotZero(t, resp.OrderID)
	assert.Equal(t, "20.00", resp.Subtotal)
	assert.Equal(t, "5.00", resp.ShippingFee)
	assert.Equal(t, "25.00", resp.Total)

	metricsRec := env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), `shophub_checkout_total{outcome="success"} 1`)
}

func TestCheckoutHTTP_Errors(t *testing.T) {
	env := newTestEnv(t)
	p := storetest.SeedProduct(t, env.db, "Mug", "7.50", 4)
	user := token(t, 1, tokens.RoleUser)
	pid := itoa(p.ID)

	tests := []struct {
		name    string
		body    string
		tok     string
		status  int
		message string
	}{
		{"no token", `{"items":[{"productId":` + pid + `,"qty":1}]}`, "", http.StatusUnauthorized, ""},
		{"bad token", `{"items":[{"productId":` + pid + `,"qty":1}]}`, "garbage", http.StatusUnauthorized, ""},
		{"invalid json", `{"items":`, user, http.StatusBadRequest, "invalid body"},
		{"empty cart", `{"items":[]}`, user, http.StatusBadRequest, ""},
		{"negative fee", `{"items":[{"productId":` + pid + `,"qty":1}],"shippingFee":-1}`, user, http.StatusBadRequest, ""},
		{"unknown product", `{"items":[{"productId":99999,"qty":1}]}`, user, http.StatusBadRequest, "one or more products not found"},
		{
			"aggregate demand",
			`{"items":[{"productId":` + pid + `,"qty":2},{"productId":` + pid + `,"qty":3}]}`,
			user, http.StatusConflict, "insufficient stock: Mug (available: 4, requested: 5)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/orders/checkout", tt.body, tt.tok)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.message != "" {
				assert.Equal(t, tt.message, message(t, rec))
			}
		})
	}

	orders, items := storetest.CountOrders(t, env.db)
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.Equal(t, int64(4), storetest.Stock(t, env.db, p.ID))
}

func TestCheckoutHTTP_StoreFailureIsGeneric(t *testing.T) {
	env := newTestEnv(t)
	p := storetest.SeedProduct(t, env.db, "Lamp", "3.00", 1)

	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	rec := env.do(t, http.MethodPost, "/api/orders/checkout",
		`{"items":[{"productId":`+itoa(p.ID)+`,"qty":1}]}`, token(t, 1, tokens.RoleUser))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", message(t, rec))
	assert.NotContains(t, rec.Body.String(), "closed")

	ready := env.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, ready.Code)
}

func TestOrdersHTTP(t *testing.T) {
	env := newTestEnv(t)
	p := storetest.SeedProduct(t, env.db, "Book", "8.00", 10)
	owner := token(t, 1, tokens.RoleUser)
	stranger := token(t, 2, tokens.RoleUser)
	admin := token(t, 99, tokens.RoleAdmin)

	rec := env.do(t, http.MethodPost, "/api/orders/checkout",
		`{"items":[{"productId":`+itoa(p.ID)+`,"qty":3}],"shippingFee":"1.5"}`, owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created transport.CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	orderPath := "/api/orders/" + itoa(created.OrderID)

	t.Run("my orders", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/orders/my", "", owner)
		require.Equal(t, http.StatusOK, rec.Code)
		var list []transport.OrderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, "25.50", list[0].Total)

		rec = env.do(t, http.MethodGet, "/api/orders/my", "", stranger)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("get order", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, orderPath, "", owner)
		require.Equal(t, http.StatusOK, rec.Code)
		var o transport.OrderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
		require.Len(t, o.Items, 1)
		assert.Equal(t, "8.00", o.Items[0].UnitPrice)
		assert.Equal(t, "24.00", o.Items[0].LineTotal)
		assert.Equal(t, "Book", o.Items[0].ProductName)
		assert.Equal(t, string(models.OrderStatusPending), o.Status)

		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, orderPath, "", stranger).Code)
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, orderPath, "", admin).Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/orders/424242", "", owner).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/orders/abc", "", owner).Code)
	})

	t.Run("admin listing", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/orders", "", owner).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/orders?status=lost", "", admin).Code)

		rec := env.do(t, http.MethodGet, "/api/orders?status=all", "", admin)
		require.Equal(t, http.StatusOK, rec.Code)
		var list []transport.OrderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Len(t, list, 1)
	})

	t.Run("status update", func(t *testing.T) {
		statusPath := orderPath + "/status"
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPatch, statusPath, `{"status":"paid"}`, owner).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPatch, statusPath, `{"status":"lost"}`, admin).Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPatch, "/api/orders/424242/status", `{"status":"paid"}`, admin).Code)
		require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPatch, statusPath, `{"status":"shipped"}`, admin).Code)

		rec := env.do(t, http.MethodGet, "/api/orders?status=shipped", "", admin)
		require.Equal(t, http.StatusOK, rec.Code)
		var list []transport.OrderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, created.OrderID, list[0].ID)
	})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", "", "").Code)
}
