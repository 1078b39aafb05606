package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"restaurant-orders/internal/models"
)

type menuFile struct {
	Dishes []struct {
		ID         string `yaml:"id"`
		Code       string `yaml:"code"`
		Name       string `yaml:"name"`
		Price      string `yaml:"price"`
		IsWeighted bool   `yaml:"is_weighted"`
		FullPath   string `yaml:"full_path"`
	} `yaml:"dishes"`
}

// LoadMenu reads a dish list from a YAML file
func LoadMenu(filename string) ([]models.Dish, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open menu file: %w", err)
	}

	var f menuFile
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("failed to parse menu file: %w", err)
	}

	dishes := make([]models.Dish, 0, len(f.Dishes))
	for i, d := range f.Dishes {
		price, err := decimal.NewFromString(d.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price of dish %d: %w", i, err)
		}
		dishes = append(dishes, models.Dish{
			ID:         d.ID,
			Code:       d.Code,
			Name:       d.Name,
			Price:      price,
			IsWeighted: d.IsWeighted,
			FullPath:   d.FullPath,
		})
	}
	return dishes, nil
}
