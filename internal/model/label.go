package model

import (
	"fmt"
	"strconv"
)

// badgeLimit задаёт наибольшее число, которое значок корзины показывает без "+".
const badgeLimit = 99

// BadgeText возвращает подпись для значка корзины: пусто для нуля, "99+" сверх предела.
func BadgeText(count uint32) string {
	switch {
	case count == 0:
		return ""
	case count > badgeLimit:
		return strconv.FormatUint(badgeLimit, 10) + "+"
	default:
		return strconv.FormatUint(uint64(count), 10)
	}
}

// Describe возвращает человекочитаемое описание скидки.
func Describe(d Discount, shop *Shop) string {
	switch v := d.(type) {
	case Fixed:
		return v.Amount.String() + " off"
	case Percentage:
		return fmt.Sprintf("%d%% off", v.Value)
	case Bundle:
		name := v.ItemID
		if it, ok := shop.Item(v.ItemID); ok && it.Name != "" {
			name = it.Name
		}
		return fmt.Sprintf("Buy %d %s, pay %d", v.Get, name, v.Pay)
	default:
		return fmt.Sprintf("%v", d)
	}
}
