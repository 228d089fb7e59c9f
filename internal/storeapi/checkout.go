package storeapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/corethreads/commerce/internal/checkout"
	"github.com/corethreads/commerce/internal/webserver"
)

type checkoutPayload struct {
	CustomerID int64           `json:"customerId"`
	Items      []checkout.Item `json:"items"`
}

// registerCheckoutRoutes registers the checkout endpoint
func registerCheckoutRoutes() {
	webserver.ApiPOST("/orders/checkout", postCheckout)
}

// postCheckout converts a requested item list into a committed order. The
// customer id arrives as an explicit field; session resolution is the
// caller's concern.
func postCheckout(c echo.Context) error {
	var payload checkoutPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse checkout request", err.Error())
	}
	if payload.CustomerID <= 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "customerId is required", nil)
	}
	if len(payload.Items) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No items to checkout", nil)
	}

	result, err := GetEngine(c).Checkout(c.Request().Context(), payload.CustomerID, payload.Items)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrCustomerNotFound):
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
		case errors.Is(err, checkout.ErrCustomerDisabled):
			return fail(c, http.StatusForbidden, "FORBIDDEN", "Customer account is disabled", nil)
		case errors.Is(err, checkout.ErrNoItems):
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No items to checkout", nil)
		case errors.Is(err, checkout.ErrCommitConflict):
			return fail(c, http.StatusConflict, "CHECKOUT_CONFLICT", "Checkout conflicted with concurrent requests, retry", nil)
		default:
			return fail(c, http.StatusInternalServerError, "CHECKOUT_FAILED", "Checkout failed", err.Error())
		}
	}

	if !result.OK() {
		message := "Some items failed validation"
		if result.BalanceFailure() != nil {
			message = checkout.ReasonInsufficientBalance
		}
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error":    message,
			"failures": result.Failures,
		})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"orderId":          strconv.FormatInt(result.Order.ID, 10),
		"orderNumber":      result.Order.OrderNumber,
		"status":           result.Order.Status,
		"totalAmount":      result.Order.TotalAmount,
		"remainingBalance": result.RemainingBalance,
	})
}
