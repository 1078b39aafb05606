package validation

import (
	"errors"
	"fmt"
	"strings"

	"restaurant-orders/internal/models"
)

// ValidateOrder checks what can be checked without the catalog
func ValidateOrder(order *models.Order) error {
	if order == nil {
		return &models.ValidationError{Field: "order", Message: "order is required"}
	}

	if err := validateOrderID(order.ID); err != nil {
		return err
	}

	if err := validateLines(order.Lines); err != nil {
		return err
	}

	return nil
}

func validateOrderID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &models.ValidationError{
			Field:   "id",
			Message: "order id is required",
		}
	}

	if len(id) > models.MaxOrderIDLength {
		return &models.ValidationError{
			Field:   "id",
			Token:   id,
			Message: fmt.Sprintf("order id must not exceed %d characters", models.MaxOrderIDLength),
		}
	}
	return nil
}

func validateLines(lines []models.OrderLine) error {
	if len(lines) == 0 {
		return &models.ValidationError{
			Field:   "lines",
			Message: "order must contain at least one line",
		}
	}

	for i, line := range lines {
		if err := validateLine(line, i); err != nil {
			return err
		}
	}
	return nil
}

func validateLine(line models.OrderLine, index int) error {
	if strings.TrimSpace(line.DishID) == "" {
		return &models.ValidationError{
			Field:   fmt.Sprintf("lines[%d].dish_id", index),
			Message: "dish id is required",
		}
	}

	if !line.Quantity.IsPositive() {
		return &models.ValidationError{
			Field:   fmt.Sprintf("lines[%d].quantity", index),
			Token:   line.Quantity.String(),
			Message: "quantity must be greater than 0",
		}
	}

	if err := models.CheckQuantityPrecision(line.Quantity); err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			ve.Field = fmt.Sprintf("lines[%d].quantity", index)
		}
		return err
	}
	return nil
}
