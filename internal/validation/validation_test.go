package validation

import (
	"errors"
	"testing"

	"github.com/mmeshcher/cartshop/internal/model"
)

func TestIsValidItemID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{
			name:  "simple",
			id:    "apple",
			valid: true,
		},
		{
			name:  "with digits and separators",
			id:    "t-shirt_42",
			valid: true,
		},
		{
			name:  "upper case",
			id:    "Apple",
			valid: false,
		},
		{
			name:  "contains slash",
			id:    "a/b",
			valid: false,
		},
		{
			name:  "empty string",
			id:    "",
			valid: false,
		},
		{
			name:  "too long",
			id:    "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidItemID(tt.id)
			if got != tt.valid {
				t.Fatalf("IsValidItemID(%q) = %v, want %v", tt.id, got, tt.valid)
			}
		})
	}
}

func TestValidateDiscount(t *testing.T) {
	shop, err := model.NewShop("test", []model.Product{
		{Item: model.Item{ID: "apple", Name: "Apple"}, Price: 100},
	})
	if err != nil {
		t.Fatalf("new shop: %v", err)
	}

	tests := []struct {
		name     string
		discount model.Discount
		valid    bool
	}{
		{name: "fixed", discount: model.Fixed{Amount: 500}, valid: true},
		{name: "fixed zero", discount: model.Fixed{}, valid: false},
		{name: "percentage", discount: model.Percentage{Value: 100}, valid: true},
		{name: "percentage zero", discount: model.Percentage{}, valid: false},
		{name: "percentage over 100", discount: model.Percentage{Value: 101}, valid: false},
		{name: "bundle", discount: model.Bundle{ItemID: "apple", Get: 3, Pay: 2}, valid: true},
		{name: "bundle get zero", discount: model.Bundle{ItemID: "apple"}, valid: false},
		{name: "bundle pay more than get", discount: model.Bundle{ItemID: "apple", Get: 2, Pay: 3}, valid: false},
		{name: "bundle unknown item", discount: model.Bundle{ItemID: "kiwi", Get: 2, Pay: 1}, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDiscount(tt.discount, shop)
			if tt.valid && err != nil {
				t.Fatalf("ValidateDiscount(%+v) unexpected error: %v", tt.discount, err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidDiscount) {
				t.Fatalf("ValidateDiscount(%+v) = %v, want ErrInvalidDiscount", tt.discount, err)
			}
		})
	}
}
