package model

import (
	"errors"
	"fmt"
)

// ErrUnknownDiscountType возвращается для описания скидки с неизвестным типом.
var ErrUnknownDiscountType = errors.New("unknown discount type")

// Discount описывает скидку одного из видов Fixed, Percentage или Bundle.
// Скидки сравниваются по значению, поэтому все варианты являются сравнимыми структурами.
type Discount interface {
	isDiscount()
}

// Fixed уменьшает сумму на фиксированную величину.
type Fixed struct {
	Amount Euro
}

// Percentage уменьшает текущую сумму на Value процентов (0–100).
type Percentage struct {
	Value uint8
}

// Bundle задаёт акцию "возьми Get, заплати за Pay" для одного товара.
type Bundle struct {
	ItemID string
	Get    uint32
	Pay    uint32
}

func (Fixed) isDiscount()      {}
func (Percentage) isDiscount() {}
func (Bundle) isDiscount()     {}

// DiscountType задаёт вид скидки во внешнем представлении.
type DiscountType string

const (
	DiscountFixed      DiscountType = "fixed"
	DiscountPercentage DiscountType = "percentage"
	DiscountBundle     DiscountType = "bundle"
)

// DiscountSpec задаёт представление скидки в JSON и YAML.
type DiscountSpec struct {
	Type   DiscountType `json:"type" yaml:"type"`
	Amount string       `json:"amount,omitempty" yaml:"amount,omitempty"`
	Value  uint8        `json:"value,omitempty" yaml:"value,omitempty"`
	Item   string       `json:"item,omitempty" yaml:"item,omitempty"`
	Get    uint32       `json:"get,omitempty" yaml:"get,omitempty"`
	Pay    uint32       `json:"pay,omitempty" yaml:"pay,omitempty"`
}

// Discount превращает описание в значение скидки.
func (s DiscountSpec) Discount() (Discount, error) {
	switch s.Type {
	case DiscountFixed:
		amount, err := ParseEuro(s.Amount)
		if err != nil {
			return nil, fmt.Errorf("fixed discount: %w", err)
		}
		return Fixed{Amount: amount}, nil
	case DiscountPercentage:
		return Percentage{Value: s.Value}, nil
	case DiscountBundle:
		return Bundle{ItemID: s.Item, Get: s.Get, Pay: s.Pay}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDiscountType, s.Type)
	}
}

// Spec возвращает внешнее представление скидки.
func Spec(d Discount) DiscountSpec {
	switch v := d.(type) {
	case Fixed:
		return DiscountSpec{Type: DiscountFixed, Amount: v.Amount.Decimal()}
	case Percentage:
		return DiscountSpec{Type: DiscountPercentage, Value: v.Value}
	case Bundle:
		return DiscountSpec{Type: DiscountBundle, Item: v.ItemID, Get: v.Get, Pay: v.Pay}
	default:
		panic(fmt.Sprintf("model: unhandled discount %T", d))
	}
}
