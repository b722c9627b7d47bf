package handlers

import (
	"errors"

	"market/internal/models"
	"market/internal/repositories"
	"market/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the product routes under /products.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, guards ...fiber.Handler) {
	productRoutes := router.Group("/products", guards...)
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts lists all products, or answers 204 when there are none.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("error getting all products")
		return errorResponse(c, fiber.StatusInternalServerError, "Could not retrieve products", err)
	}
	if len(products) == 0 {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id := c.Params("id")
	product, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		return h.failure(c, id, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req models.ProductRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	product, err := h.service.CreateProduct(c.UserContext(), req)
	if err != nil {
		log.Error().Err(err).Msg("error creating product")
		return errorResponse(c, fiber.StatusInternalServerError, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces the editable fields of a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	var req models.ProductRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	product, err := h.service.UpdateProduct(c.UserContext(), id, req)
	if err != nil {
		return h.failure(c, id, "Could not update product", err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product and answers 204.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return h.failure(c, id, "Could not delete product", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) failure(c *fiber.Ctx, id, message string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return errorResponse(c, fiber.StatusNotFound, "Product with ID "+id+" not found", nil)
	}
	log.Error().Err(err).Str("product_id", id).Msg(message)
	return errorResponse(c, fiber.StatusInternalServerError, message, err)
}
