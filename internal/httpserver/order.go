package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/shophub/storefront/internal/service"
	"github.com/shophub/storefront/internal/transport"
	"github.com/shophub/storefront/pkg/logging"
	middleware "github.com/shophub/storefront/pkg/middleware/auth"
)

type OrderHTTP struct {
	CheckoutSvc *service.CheckoutService
	Orders      *service.OrderService
}

func callerFromContext(c echo.Context) (service.Caller, bool) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		return service.Caller{}, false
	}
	return service.Caller{UserID: id.UserID, Admin: id.IsAdmin()}, true
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	return id, nil
}

// httpError maps a service error to the response status. Storage details are
// logged and never sent to the client.
func httpError(c echo.Context, l *slog.Logger, event string, err error) error {
	var ise *service.InsufficientStockError
	switch {
	case errors.As(err, &ise):
		l.Info(event, "status", http.StatusConflict, "reason", "insufficient stock", "product_id", ise.ProductID)
		return echo.NewHTTPError(http.StatusConflict, ise.Error())
	case errors.Is(err, service.ErrValidation):
		l.Info(event, "status", http.StatusBadRequest, "reason", "validation", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		l.Warn(event, "status", http.StatusUnauthorized, "reason", "unauthorized")
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, service.ErrNotFound):
		l.Info(event, "status", http.StatusBadRequest, "reason", "product not found", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "one or more products not found")
	case errors.Is(err, service.ErrForbidden):
		l.Warn(event, "status", http.StatusForbidden, "reason", "forbidden")
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrOrderNotFound):
		l.Info(event, "status", http.StatusNotFound, "reason", "order not found")
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrTransient):
		l.Error(event, "status", http.StatusInternalServerError, "reason", "transient", "error", err)
		c.Response().Header().Set("Retry-After", "1")
		return echo.NewHTTPError(http.StatusInternalServerError, "temporarily unavailable, please retry")
	default:
		l.Error(event, "status", http.StatusInternalServerError, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	caller, ok := callerFromContext(c)
	if !ok {
		l.Warn("checkout_error", "status", 401, "reason", "no identity")
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Info("checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.CheckoutSvc.Checkout(ctx, caller.UserID, req.ShippingFee, req.Lines())
	if err != nil {
		return httpError(c, l, "checkout_error", err)
	}

	l.Info("checkout_success", "order_id", res.OrderID)
	return c.JSON(http.StatusCreated, transport.NewCheckoutResponse(res))
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_orders")

	caller, ok := callerFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, err := h.Orders.MyOrders(ctx, caller)
	if err != nil {
		return httpError(c, l, "my_orders_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderList(orders))
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	caller, ok := callerFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	order, err := h.Orders.GetOrder(ctx, caller, id)
	if err != nil {
		return httpError(c, l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderResponse(*order))
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	caller, ok := callerFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, err := h.Orders.ListOrders(ctx, caller, c.QueryParam("status"))
	if err != nil {
		return httpError(c, l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderList(orders))
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	caller, ok := callerFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Orders.UpdateStatus(ctx, caller, id, req.Status); err != nil {
		return httpError(c, l, "update_status_error", err)
	}

	l.Info("update_status_success", "order_id", id, "status", req.Status)
	return c.NoContent(http.StatusNoContent)
}
