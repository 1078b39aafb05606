// Package orderinput turns "code:qty;code:qty" input into order lines.
package orderinput

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"restaurant-orders/internal/models"
)

const (
	pairSeparator  = ";"
	fieldSeparator = ":"
)

// Parse reads input against catalog and returns one line per pair in input
// order. The first invalid pair stops parsing.
func Parse(input string, catalog []models.Dish) ([]models.OrderLine, error) {
	var lines []models.OrderLine

	for _, segment := range strings.Split(input, pairSeparator) {
		pair := strings.TrimSpace(segment)
		if pair == "" {
			continue
		}

		line, err := parsePair(pair, catalog)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return nil, &models.ValidationError{Field: "input", Token: input, Message: "order is empty"}
	}
	return lines, nil
}

func parsePair(pair string, catalog []models.Dish) (models.OrderLine, error) {
	fields := strings.Split(pair, fieldSeparator)
	if len(fields) != 2 {
		return models.OrderLine{}, &models.ValidationError{
			Field:   "pair",
			Token:   pair,
			Message: "expected code:quantity",
		}
	}
	code := strings.TrimSpace(fields[0])
	rawQty := strings.TrimSpace(fields[1])
	if code == "" || rawQty == "" {
		return models.OrderLine{}, &models.ValidationError{
			Field:   "pair",
			Token:   pair,
			Message: "expected code:quantity",
		}
	}

	qty, err := parseQuantity(code, rawQty)
	if err != nil {
		return models.OrderLine{}, err
	}

	dish, err := lookup(code, catalog)
	if err != nil {
		return models.OrderLine{}, err
	}

	if err := models.CheckLineQuantity(dish, qty); err != nil {
		return models.OrderLine{}, err
	}
	return models.OrderLine{DishID: dish.ID, Quantity: qty}, nil
}

// parseQuantity accepts plain decimal numbers with '.' as separator
func parseQuantity(code, raw string) (decimal.Decimal, error) {
	invalid := &models.ValidationError{
		Field:   "quantity",
		Token:   raw,
		Message: fmt.Sprintf("quantity for %s must be a number greater than 0", code),
	}

	for _, r := range raw {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' {
			return decimal.Decimal{}, invalid
		}
	}
	q, err := decimal.NewFromString(raw)
	if err != nil || !q.IsPositive() {
		return decimal.Decimal{}, invalid
	}
	return q, nil
}

func lookup(code string, catalog []models.Dish) (models.Dish, error) {
	if d, ok := models.FindDishByCode(catalog, code); ok {
		return d, nil
	}
	return models.Dish{}, &models.ValidationError{
		Field:   "code",
		Token:   code,
		Message: fmt.Sprintf("dish %s not found, valid codes: %s", code, strings.Join(models.DishCodes(catalog), ", ")),
	}
}

// Format renders lines in the form accepted by Parse
func Format(lines []models.OrderLine, catalog []models.Dish) (string, error) {
	byID := make(map[string]models.Dish, len(catalog))
	for _, d := range catalog {
		byID[d.ID] = d
	}

	pairs := make([]string, 0, len(lines))
	for _, l := range lines {
		d, ok := byID[l.DishID]
		if !ok {
			return "", &models.ValidationError{Field: "dish_id", Token: l.DishID, Message: "dish is not in the catalog"}
		}
		pairs = append(pairs, d.Code+fieldSeparator+l.Quantity.String())
	}
	return strings.Join(pairs, pairSeparator), nil
}
