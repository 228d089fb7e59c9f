package storeapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/corethreads/commerce/internal/checkout"
	"github.com/corethreads/commerce/internal/domain"
	"github.com/corethreads/commerce/internal/webserver"
)

type variantPayload struct {
	Size  string           `json:"size"`
	Color *string          `json:"color"`
	Sku   string           `json:"sku"`
	Stock int64            `json:"stock"`
	Price *decimal.Decimal `json:"price"`
}

// registerVariantRoutes registers variant endpoints nested under products
func registerVariantRoutes() {
	webserver.ApiGET("/products/:id/variants", listVariants)
	webserver.ApiPOST("/products/:id/variants", createVariant)
	webserver.ApiPUT("/variants/:id", updateVariant)
	webserver.ApiDELETE("/variants/:id", deleteVariant)
}

func listVariants(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var variants []domain.ProductVariant
	if err := GetDB(c).Where("product_id = ?", productID).Order("id ASC").Find(&variants).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query variants", err.Error())
	}
	return ok(c, variants)
}

func createVariant(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var product domain.Product
	if err := GetDB(c).Where("id = ?", productID).First(&product).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}

	var payload variantPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse variant", err.Error())
	}
	payload.Sku = strings.TrimSpace(payload.Sku)
	if payload.Sku == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Sku is required", nil)
	}
	if payload.Stock < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Stock must be >= 0", nil)
	}

	now := time.Now()
	v := domain.ProductVariant{
		ProductID: productID,
		Size:      strings.TrimSpace(payload.Size),
		Color:     payload.Color,
		Sku:       payload.Sku,
		Stock:     payload.Stock,
		Price:     payload.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	db := GetDB(c)
	if err := db.Create(&v).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create variant", err.Error())
	}

	// Keep the product aggregate in step with its variants.
	if err := checkout.NewGormInventoryStore(db).ResyncProductStock(c.Request().Context(), productID); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to resync product stock", err.Error())
	}
	return ok(c, v)
}

func updateVariant(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid variant ID", nil)
	}
	var v domain.ProductVariant
	if err := GetDB(c).Where("id = ?", id).First(&v).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Variant not found", nil)
	}

	var payload variantPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse variant", err.Error())
	}
	payload.Sku = strings.TrimSpace(payload.Sku)
	if payload.Sku == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Sku is required", nil)
	}
	if payload.Stock < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Stock must be >= 0", nil)
	}

	v.Size = strings.TrimSpace(payload.Size)
	v.Color = payload.Color
	v.Sku = payload.Sku
	v.Stock = payload.Stock
	v.Price = payload.Price
	v.UpdatedAt = time.Now()

	db := GetDB(c)
	if err := db.Save(&v).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update variant", err.Error())
	}
	if err := checkout.NewGormInventoryStore(db).ResyncProductStock(c.Request().Context(), v.ProductID); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to resync product stock", err.Error())
	}
	return ok(c, v)
}

func deleteVariant(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid variant ID", nil)
	}
	var v domain.ProductVariant
	if err := GetDB(c).Where("id = ?", id).First(&v).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Variant not found", nil)
	}

	db := GetDB(c)
	if err := db.Delete(&domain.ProductVariant{}, id).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete variant", err.Error())
	}
	if err := checkout.NewGormInventoryStore(db).ResyncProductStock(c.Request().Context(), v.ProductID); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to resync product stock", err.Error())
	}
	return ok(c, map[string]interface{}{"id": id})
}
