// Package validation содержит функции валидации входных данных.
package validation

import (
	"errors"
	"fmt"

	"github.com/mmeshcher/cartshop/internal/model"
)

const maxItemIDLength = 64

// ErrInvalidDiscount возвращается для скидки, которую нельзя применить к магазину.
var ErrInvalidDiscount = errors.New("invalid discount")

// IsValidItemID проверяет идентификатор товара: строчные латинские буквы, цифры, '-' и '_'.
func IsValidItemID(id string) bool {
	if id == "" || len(id) > maxItemIDLength {
		return false
	}

	for i := 0; i < len(id); i++ {
		ch := id[i]
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= '0' && ch <= '9':
		case ch == '-' || ch == '_':
		default:
			return false
		}
	}

	return true
}

// ValidateDiscount проверяет параметры скидки относительно каталога магазина.
func ValidateDiscount(d model.Discount, shop *model.Shop) error {
	switch v := d.(type) {
	case model.Fixed:
		if v.Amount == 0 {
			return fmt.Errorf("%w: fixed amount must be positive", ErrInvalidDiscount)
		}
	case model.Percentage:
		if v.Value == 0 || v.Value > 100 {
			return fmt.Errorf("%w: percentage %d out of range 1..100", ErrInvalidDiscount, v.Value)
		}
	case model.Bundle:
		if v.Get == 0 {
			return fmt.Errorf("%w: bundle must get at least one item", ErrInvalidDiscount)
		}
		if v.Pay > v.Get {
			return fmt.Errorf("%w: bundle pays %d for %d items", ErrInvalidDiscount, v.Pay, v.Get)
		}
		if _, ok := shop.Item(v.ItemID); !ok {
			return fmt.Errorf("%w: bundle item %q not in shop", ErrInvalidDiscount, v.ItemID)
		}
	default:
		return fmt.Errorf("%w: %T", ErrInvalidDiscount, d)
	}

	return nil
}
