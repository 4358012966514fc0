// Package model содержит доменные сущности магазина: цены, товары, скидки и корзину.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount возвращается, если денежную сумму не удалось разобрать.
var ErrInvalidAmount = errors.New("invalid amount")

// Euro хранит сумму в евроцентах. Отрицательных сумм не бывает: вычитание насыщается на нуле.
type Euro uint64

// Cents возвращает сумму в центах.
func Cents(c uint64) Euro {
	return Euro(c)
}

// Add складывает две суммы.
func (e Euro) Add(other Euro) Euro {
	return e + other
}

// Sub вычитает сумму, но никогда не уходит ниже нуля.
func (e Euro) Sub(other Euro) Euro {
	if other >= e {
		return 0
	}
	return e - other
}

// Times умножает цену на количество.
func (e Euro) Times(qty uint32) Euro {
	return e * Euro(qty)
}

// Decimal возвращает сумму десятичной строкой без знака валюты, например "12.34".
func (e Euro) Decimal() string {
	return decimal.New(int64(e), -2).StringFixed(2)
}

// String форматирует сумму как "12.34 €".
func (e Euro) String() string {
	return e.Decimal() + " €"
}

// ParseEuro разбирает десятичную строку вида "2.49" в центы без потери точности.
func ParseEuro(s string) (Euro, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative %q", ErrInvalidAmount, s)
	}

	cents := d.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("%w: more than two fraction digits in %q", ErrInvalidAmount, s)
	}

	return Euro(cents.IntPart()), nil
}
