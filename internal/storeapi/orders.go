package storeapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/corethreads/commerce/internal/order"
	"github.com/corethreads/commerce/internal/webserver"
)

// registerOrderRoutes registers order read and lifecycle endpoints
func registerOrderRoutes() {
	webserver.ApiGET("/orders", listOrders)
	webserver.ApiGET("/orders/number/:orderNumber", getOrderByNumber)
	webserver.ApiGET("/orders/customer/:customerId", listCustomerOrders)
	webserver.ApiGET("/orders/:id", getOrder)
	webserver.ApiPATCH("/orders/:id/status", updateOrderStatus)
	webserver.ApiDELETE("/orders/:id", cancelOrder)
}

func listOrders(c echo.Context) error {
	page, pageSize := parsePagination(c)
	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))

	rows, total, err := order.NewService(GetDB(c)).List(c.Request().Context(), status, page, pageSize)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getOrder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}

	o, err := order.NewService(GetDB(c)).Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order", err.Error())
	}
	return ok(c, o)
}

func getOrderByNumber(c echo.Context) error {
	number := strings.TrimSpace(c.Param("orderNumber"))
	if number == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Order number is required", nil)
	}

	o, err := order.NewService(GetDB(c)).GetByNumber(c.Request().Context(), number)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order", err.Error())
	}
	return ok(c, o)
}

func listCustomerOrders(c echo.Context) error {
	customerID, err := strconv.ParseInt(c.Param("customerId"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}

	rows, err := order.NewService(GetDB(c)).ListByCustomer(c.Request().Context(), customerID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return ok(c, rows)
}

func updateOrderStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	if status == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Status is required", nil)
	}

	o, err := order.NewService(GetDB(c)).UpdateStatus(c.Request().Context(), id, status)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
		case errors.Is(err, order.ErrInvalidTransition):
			return fail(c, http.StatusConflict, "INVALID_TRANSITION", "Invalid status transition", err.Error())
		default:
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order", err.Error())
		}
	}
	return ok(c, o)
}

func cancelOrder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}

	o, err := order.NewService(GetDB(c)).Cancel(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
		case errors.Is(err, order.ErrInvalidTransition):
			return fail(c, http.StatusConflict, "INVALID_TRANSITION", "Order is in a terminal state", err.Error())
		default:
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to cancel order", err.Error())
		}
	}
	return ok(c, o)
}
