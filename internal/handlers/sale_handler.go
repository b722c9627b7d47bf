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

// SaleHandler handles HTTP requests for sales.
type SaleHandler struct {
	service  *services.SaleService
	validate *validator.Validate
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(service *services.SaleService) *SaleHandler {
	return &SaleHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the sale routes under /sales.
func (h *SaleHandler) RegisterRoutes(router fiber.Router, guards ...fiber.Handler) {
	saleRoutes := router.Group("/sales", guards...)
	saleRoutes.Get("/", h.HandleGetSales)
	saleRoutes.Get("/:id", h.HandleGetSaleByID)
	saleRoutes.Post("/", h.HandleCreateSale)
	saleRoutes.Put("/:id", h.HandleUpdateSale)
	saleRoutes.Delete("/:id", h.HandleDeleteSale)
}

// HandleGetSales lists all sales, or answers 204 when there are none.
func (h *SaleHandler) HandleGetSales(c *fiber.Ctx) error {
	sales, err := h.service.GetAllSales(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("error getting all sales")
		return errorResponse(c, fiber.StatusInternalServerError, "Could not retrieve sales", err)
	}
	if len(sales) == 0 {
		return c.SendStatus(fiber.StatusNoContent)
	}
	resp := make([]models.SaleResponse, 0, len(sales))
	for _, s := range sales {
		resp = append(resp, s.ToResponse())
	}
	return c.JSON(resp)
}

// HandleGetSaleByID retrieves a single sale by its ID.
func (h *SaleHandler) HandleGetSaleByID(c *fiber.Ctx) error {
	id := c.Params("id")
	sale, err := h.service.GetSaleByID(c.UserContext(), id)
	if err != nil {
		return h.failure(c, id, "Could not retrieve sale", err)
	}
	return c.JSON(sale.ToResponse())
}

// HandleCreateSale registers a sale. Requests that cannot produce a sale
// (bad quantity, unknown product, not enough stock) answer 404.
func (h *SaleHandler) HandleCreateSale(c *fiber.Ctx) error {
	var req models.SaleRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	sale, err := h.service.CreateSale(c.UserContext(), req)
	if err != nil {
		return h.failure(c, "", "Could not create sale", err)
	}
	return c.Status(fiber.StatusCreated).JSON(sale.ToResponse())
}

// HandleUpdateSale changes the product, quantity and date of a sale.
func (h *SaleHandler) HandleUpdateSale(c *fiber.Ctx) error {
	id := c.Params("id")
	var req models.SaleRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	sale, err := h.service.UpdateSale(c.UserContext(), id, req)
	if err != nil {
		return h.failure(c, id, "Could not update sale", err)
	}
	return c.JSON(sale.ToResponse())
}

// HandleDeleteSale deletes a sale and answers 204.
func (h *SaleHandler) HandleDeleteSale(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteSale(c.UserContext(), id); err != nil {
		return h.failure(c, id, "Could not delete sale", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SaleHandler) failure(c *fiber.Ctx, id, message string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return errorResponse(c, fiber.StatusNotFound, "Sale with ID "+id+" not found", nil)
	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrInsufficientStock):
		log.Info().Err(err).Str("sale_id", id).Msg("sale not processed")
		return errorResponse(c, fiber.StatusNotFound, "Sale could not be processed", err)
	}
	log.Error().Err(err).Str("sale_id", id).Msg(message)
	return errorResponse(c, fiber.StatusInternalServerError, message, err)
}
