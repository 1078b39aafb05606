package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaxOrderIDLength bounds client generated order identities
const MaxOrderIDLength = 64

// OrderLine is one dish with its quantity inside an order
type OrderLine struct {
	DishID   string          `json:"Id"`
	Quantity decimal.Decimal `json:"Quantity"`
}

// Order represents a client order. ID is generated by the client and
// identifies the order across resubmissions.
type Order struct {
	ID        string      `json:"Id"`
	CreatedAt time.Time   `json:"CreatedAt,omitempty"`
	Lines     []OrderLine `json:"OrderItems"`
}

// OrderDetails is a stored order with its lines resolved against the catalog
type OrderDetails struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Lines     []OrderLineDetail `json:"lines"`
	Total     decimal.Decimal   `json:"total"`
}

// OrderLineDetail is a stored order line joined with its dish
type OrderLineDetail struct {
	LineNo     int             `json:"line_no"`
	DishID     string          `json:"dish_id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	IsWeighted bool            `json:"is_weighted"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// CalculateTotal sums price * quantity over the lines
func (o *OrderDetails) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Price.Mul(l.Quantity))
	}
	return total
}

// IsIntegral reports whether q has no fractional part
func IsIntegral(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(0))
}

// Stored quantities and prices are NUMERIC(12,3) and NUMERIC(12,2)
const (
	QuantityScale = 3
	PriceScale    = 2
)

var (
	// MaxQuantity and MaxPrice are exclusive upper bounds
	MaxQuantity = decimal.New(1, 12-QuantityScale)
	MaxPrice    = decimal.New(1, 12-PriceScale)
)

// CheckQuantityPrecision verifies q can be stored without rounding
func CheckQuantityPrecision(q decimal.Decimal) error {
	return checkPrecision("quantity", "quantity", q, QuantityScale, MaxQuantity)
}

// CheckPricePrecision verifies p can be stored without rounding
func CheckPricePrecision(p decimal.Decimal) error {
	return checkPrecision("price", "price", p, PriceScale, MaxPrice)
}

func checkPrecision(field, subject string, v decimal.Decimal, scale int32, limit decimal.Decimal) error {
	if !v.Equal(v.Truncate(scale)) {
		return &ValidationError{
			Field:   field,
			Token:   v.String(),
			Message: fmt.Sprintf("%s must have at most %d decimal places", subject, scale),
		}
	}
	if v.Abs().GreaterThanOrEqual(limit) {
		return &ValidationError{
			Field:   field,
			Token:   v.String(),
			Message: fmt.Sprintf("%s must be less than %s", subject, limit.String()),
		}
	}
	return nil
}

// CheckLineQuantity verifies a quantity is allowed for the given dish
func CheckLineQuantity(d Dish, q decimal.Decimal) error {
	if !q.IsPositive() {
		return &ValidationError{Field: "quantity", Token: q.String(), Message: fmt.Sprintf("quantity for %s must be greater than 0", d.Code)}
	}
	if err := checkPrecision("quantity", "quantity for "+d.Code, q, QuantityScale, MaxQuantity); err != nil {
		return err
	}
	if !d.IsWeighted && !IsIntegral(q) {
		return &ValidationError{
			Field:   "quantity",
			Token:   q.String(),
			Message: fmt.Sprintf("dish %s is not sold by weight, quantity must be a whole number", d.Code),
		}
	}
	return nil
}

func fieldIndex(collection string, i int, field string) string {
	return fmt.Sprintf("%s[%d].%s", collection, i, field)
}

// CheckOrderLines verifies every line references a dish of the active
// catalog with a quantity that dish allows
func CheckOrderLines(lines []OrderLine, active map[string]Dish) error {
	for i, l := range lines {
		d, ok := active[l.DishID]
		if !ok {
			return &ValidationError{
				Field:   fieldIndex("lines", i, "dish_id"),
				Token:   l.DishID,
				Message: "dish is not in the current menu",
			}
		}
		if err := CheckLineQuantity(d, l.Quantity); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Field = fieldIndex("lines", i, "quantity")
			}
			return err
		}
	}
	return nil
}

// LineDishIDs returns the distinct dish ids referenced by lines
func LineDishIDs(lines []OrderLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.DishID]; ok {
			continue
		}
		seen[l.DishID] = struct{}{}
		ids = append(ids, l.DishID)
	}
	return ids
}
