package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// newValidator returns a validator that also understands decimal amounts.
func newValidator() *validator.Validate {
	v := validator.New()
	// "nonnegative" only accepts decimal.Decimal fields that are >= 0.
	_ = v.RegisterValidation("nonnegative", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		return ok && !d.IsNegative()
	})
	return v
}

// parseAndValidate binds the JSON body into dst and validates it. When it
// returns false the error response has already been written.
func parseAndValidate(c *fiber.Ctx, v *validator.Validate, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		log.Debug().Err(err).Str("path", c.Path()).Msg("invalid request body")
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := v.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, errorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
		}
		errorMessages := make(map[string]string, len(validationErrors))
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return true, nil
}

func errorResponse(c *fiber.Ctx, status int, message string, err error) error {
	body := fiber.Map{"message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	return c.Status(status).JSON(body)
}
