package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/shophub/storefront/pkg/db"
	"github.com/shophub/storefront/pkg/metrics"
	middleware "github.com/shophub/storefront/pkg/middleware/auth"
)

type Deps struct {
	OrderHandler *OrderHTTP
	JWTSecret    []byte
	DB           *gorm.DB
	Gatherer     prometheus.Gatherer
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB != nil {
			if err := db.Ping(c.Request().Context(), d.DB); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(d.Gatherer)))
	}

	authMW := middleware.NewJWTAuth(d.JWTSecret)

	orders := e.Group("/api/orders")
	orders.POST("/checkout", d.OrderHandler.Checkout, authMW.RequireAuth)
	orders.GET("/my", d.OrderHandler.MyOrders, authMW.RequireAuth)
	orders.GET("/:id", d.OrderHandler.GetOrder, authMW.RequireAuth)

	orders.GET("", d.OrderHandler.ListOrders, authMW.RequireAdmin)
	orders.PATCH("/:id/status", d.OrderHandler.UpdateStatus, authMW.RequireAdmin)
}
