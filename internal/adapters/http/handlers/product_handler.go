package handlers

import (
	"errors"
	"strconv"

	"escolapay/internal/core/services"
	"escolapay/internal/pkg/response"
	"escolapay/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles product administration endpoints
type ProductHandler struct {
	productService *services.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// Create registers a product
// @Summary Create product
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ProductInput true "Product data"
// @Success 201 {object} response.Response
// @Router /admin/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req services.ProductInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if fields := validate.Struct(req); fields != nil {
		return response.ValidationFailed(c, fields)
	}

	product, err := h.productService.CreateProduct(c.Context(), &req)
	if err != nil {
		return response.InternalServerError(c, "Failed to create product")
	}

	return response.Created(c, "Product created successfully", product)
}

// List lists products
// @Summary List products
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	products, err := h.productService.ListProducts(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list products")
	}
	return response.Success(c, "Products retrieved successfully", products)
}

// Get fetches one product
// @Summary Get product
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/products/{id} [get]
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid product ID")
	}

	product, err := h.productService.GetProduct(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return response.NotFound(c, "Product not found")
		}
		return response.InternalServerError(c, "Failed to get product")
	}

	return response.Success(c, "Product retrieved successfully", product)
}

// Update patches product metadata
// @Summary Update product
// @Description Patch name, description or active flag. Price changes go
// @Description through the price endpoint because they ripple to students.
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param body body services.UpdateProductInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid product ID")
	}

	var req services.UpdateProductInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	product, err := h.productService.UpdateProduct(c.Context(), uint(id), &req)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return response.NotFound(c, "Product not found")
		}
		return response.InternalServerError(c, "Failed to update product")
	}

	return response.Success(c, "Product updated successfully", product)
}

// UpdatePrice changes the current price and recalculates student totals
// @Summary Update product price
// @Description Set the new current price; every referencing student's total
// @Description is scaled by the configured recalculation percentage
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param body body services.UpdatePriceInput true "New price"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/products/{id}/price [put]
func (h *ProductHandler) UpdatePrice(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid product ID")
	}

	var req services.UpdatePriceInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if fields := validate.Struct(req); fields != nil {
		return response.ValidationFailed(c, fields)
	}

	result, err := h.productService.UpdatePrice(c.Context(), uint(id), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			return response.NotFound(c, "Product not found")
		case errors.Is(err, services.ErrInvalidRecalcSetting):
			return response.InternalServerError(c, "Recalculation percentage setting is broken")
		default:
			return response.InternalServerError(c, "Failed to update price")
		}
	}

	return response.Success(c, "Price updated successfully", result)
}

// Delete removes a product
// @Summary Delete product
// @Description Refused while students reference the product
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid product ID")
	}

	if err := h.productService.DeleteProduct(c.Context(), uint(id)); err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			return response.NotFound(c, "Product not found")
		case errors.Is(err, services.ErrHasStudents):
			return response.Conflict(c, "Product still has students")
		default:
			return response.InternalServerError(c, "Failed to delete product")
		}
	}

	return response.Success(c, "Product deleted successfully", nil)
}
