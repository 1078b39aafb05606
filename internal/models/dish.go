package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Dish represents a menu item of the restaurant catalog.
// JSON names follow the envelope used by the HTTP endpoint.
type Dish struct {
	ID         string          `json:"Id"`
	Code       string          `json:"Article"`
	Name       string          `json:"Name"`
	Price      decimal.Decimal `json:"Price"`
	IsWeighted bool            `json:"IsWeighted"`
	FullPath   string          `json:"FullPath,omitempty"`
}

// FindDishByCode returns the dish whose code matches code ignoring case.
// ok is false unless exactly one dish matches.
func FindDishByCode(catalog []Dish, code string) (dish Dish, ok bool) {
	matches := 0
	for _, d := range catalog {
		if strings.EqualFold(d.Code, code) {
			dish = d
			matches++
		}
	}
	if matches != 1 {
		return Dish{}, false
	}
	return dish, true
}

// DishCodes returns the codes of the catalog in catalog order
func DishCodes(catalog []Dish) []string {
	codes := make([]string, 0, len(catalog))
	for _, d := range catalog {
		codes = append(codes, d.Code)
	}
	return codes
}

// ValidateCatalog checks a full menu before it replaces the stored one
func ValidateCatalog(dishes []Dish) error {
	ids := make(map[string]struct{}, len(dishes))
	codes := make(map[string]struct{}, len(dishes))

	for i, d := range dishes {
		switch {
		case strings.TrimSpace(d.ID) == "":
			return &ValidationError{Field: fieldIndex("dishes", i, "id"), Message: "dish id is required"}
		case strings.TrimSpace(d.Code) == "":
			return &ValidationError{Field: fieldIndex("dishes", i, "code"), Token: d.ID, Message: "dish code is required"}
		case strings.TrimSpace(d.Name) == "":
			return &ValidationError{Field: fieldIndex("dishes", i, "name"), Token: d.Code, Message: "dish name is required"}
		case d.Price.IsNegative():
			return &ValidationError{Field: fieldIndex("dishes", i, "price"), Token: d.Price.String(), Message: "dish price must not be negative"}
		}
		if err := CheckPricePrecision(d.Price); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Field = fieldIndex("dishes", i, "price")
			}
			return err
		}

		if _, dup := ids[d.ID]; dup {
			return &ValidationError{Field: fieldIndex("dishes", i, "id"), Token: d.ID, Message: "duplicate dish id"}
		}
		ids[d.ID] = struct{}{}

		key := strings.ToLower(d.Code)
		if _, dup := codes[key]; dup {
			return &ValidationError{Field: fieldIndex("dishes", i, "code"), Token: d.Code, Message: "duplicate dish code"}
		}
		codes[key] = struct{}{}
	}
	return nil
}

// SampleDishes returns the starter menu used to seed an empty catalog
func SampleDishes(newID func() string) []Dish {
	dish := func(code, name string, price int64, weighted bool, path string) Dish {
		return Dish{
			ID:         newID(),
			Code:       code,
			Name:       name,
			Price:      decimal.NewFromInt(price),
			IsWeighted: weighted,
			FullPath:   path,
		}
	}
	return []Dish{
		dish("A01", "Салат Цезарь", 250, false, "Салаты/Цезарь"),
		dish("A02", "Суп Борщ", 150, true, "Супы/Борщ"),
		dish("A03", "Пицца Маргарита", 500, false, "Пицца/Маргарита"),
		dish("A04", "Котлета по-киевски", 300, false, "Горячие блюда/Котлета"),
		dish("A05", "Компот из сухофруктов", 100, false, "Напитки/Компот"),
		dish("A06", "Картофель фри", 120, true, "Гарниры/Картофель"),
		dish("A07", "Оливье", 200, true, "Салаты/Оливье"),
		dish("A08", "Чай черный", 80, false, "Напитки/Чай"),
		dish("A09", "Блинчики с творогом", 180, false, "Десерты/Блинчики"),
		dish("A10", "Кофе эспрессо", 150, false, "Напитки/Кофе"),
	}
}
