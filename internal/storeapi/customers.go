package storeapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/corethreads/commerce/internal/ledger"
	"github.com/corethreads/commerce/internal/webserver"
)

type depositPayload struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// registerCustomerRoutes registers customer balance endpoints
func registerCustomerRoutes() {
	webserver.ApiGET("/customers/:id", getCustomer)
	webserver.ApiPOST("/customers/:id/deposits", createDeposit)
	webserver.ApiGET("/customers/:id/transactions", listTransactions)
}

func getCustomer(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}

	customer, err := ledger.NewService(GetDB(c)).GetCustomer(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrCustomerNotFound) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query customer", err.Error())
	}
	return ok(c, customer)
}

func createDeposit(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}

	var payload depositPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse deposit", err.Error())
	}

	customer, err := ledger.NewService(GetDB(c)).Deposit(c.Request().Context(), id, payload.Amount, payload.Description)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrCustomerNotFound):
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Customer not found", nil)
		case errors.Is(err, ledger.ErrInvalidAmount):
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Amount must be positive", nil)
		default:
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create deposit", err.Error())
		}
	}
	return ok(c, customer)
}

func listTransactions(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	page, pageSize := parsePagination(c)

	rows, total, err := ledger.NewService(GetDB(c)).ListTransactions(c.Request().Context(), id, page, pageSize)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query transactions", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}
