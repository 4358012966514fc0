package model

import (
	"errors"
	"fmt"
)

// MaxQuantity ограничивает количество одного товара в корзине.
const MaxQuantity uint32 = 99

var (
	// ErrUnknownItem возвращается при обращении к товару, которого нет в каталоге.
	ErrUnknownItem = errors.New("unknown item")
	// ErrEmptyCart возвращается при попытке оплатить корзину без товаров.
	ErrEmptyCart = errors.New("cart has no items")
)

// Cart хранит корзину одной сессии покупок. Значение неизменяемое: каждая операция
// возвращает новую корзину и не трогает исходную.
type Cart struct {
	shop      *Shop
	items     map[string]uint32
	discounts []Discount
}

// Line описывает строку корзины: товар, количество и сумму по строке.
type Line struct {
	Item      Item
	Quantity  uint32
	UnitPrice Euro
	Total     Euro
}

// Step описывает применение одной скидки к промежуточной сумме.
type Step struct {
	Discount Discount
	Before   Euro
	Saving   Euro
	After    Euro
}

// NewCart создаёт пустую корзину для магазина.
func NewCart(shop *Shop) Cart {
	return Cart{shop: shop}
}

// Shop возвращает магазин, к которому привязана корзина.
func (c Cart) Shop() *Shop {
	return c.shop
}

// AddItem увеличивает количество товара на единицу. На пределе MaxQuantity ничего не меняется.
func (c Cart) AddItem(id string) (Cart, error) {
	if _, ok := c.shop.Item(id); !ok {
		return c, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	qty := c.items[id]
	if qty >= MaxQuantity {
		return c, nil
	}
	return c.withQuantity(id, qty+1), nil
}

// DecreaseItem уменьшает количество товара на единицу и убирает строку, когда остаётся ноль.
func (c Cart) DecreaseItem(id string) Cart {
	qty, ok := c.items[id]
	if !ok || qty == 0 {
		return c
	}
	return c.withQuantity(id, qty-1)
}

// SetItemQuantity задаёт количество напрямую: 0 удаляет товар, значения выше MaxQuantity обрезаются.
func (c Cart) SetItemQuantity(id string, qty uint32) (Cart, error) {
	if _, ok := c.shop.Item(id); !ok {
		return c, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if qty > MaxQuantity {
		qty = MaxQuantity
	}
	return c.withQuantity(id, qty), nil
}

func (c Cart) withQuantity(id string, qty uint32) Cart {
	items := make(map[string]uint32, len(c.items)+1)
	for k, v := range c.items {
		items[k] = v
	}
	if qty == 0 {
		delete(items, id)
	} else {
		items[id] = qty
	}

	next := c
	next.items = items
	return next
}

// AddDiscount добавляет скидку, если такой же ещё нет.
func (c Cart) AddDiscount(d Discount) Cart {
	if c.HasDiscount(d) {
		return c
	}
	discounts := make([]Discount, 0, len(c.discounts)+1)
	discounts = append(discounts, c.discounts...)
	discounts = append(discounts, d)

	next := c
	next.discounts = discounts
	return next
}

// RemoveDiscount убирает первую совпадающую скидку.
func (c Cart) RemoveDiscount(d Discount) Cart {
	for i, existing := range c.discounts {
		if existing == d {
			return c.RemoveDiscountAt(i)
		}
	}
	return c
}

// RemoveDiscountAt убирает скидку по позиции. Позиция вне диапазона игнорируется.
func (c Cart) RemoveDiscountAt(pos int) Cart {
	if pos < 0 || pos >= len(c.discounts) {
		return c
	}
	discounts := make([]Discount, 0, len(c.discounts)-1)
	discounts = append(discounts, c.discounts[:pos]...)
	discounts = append(discounts, c.discounts[pos+1:]...)

	next := c
	next.discounts = discounts
	return next
}

// Pay имитирует оплату: возвращает пустую корзину того же магазина.
func (c Cart) Pay() (Cart, error) {
	if !c.HasItems() {
		return c, ErrEmptyCart
	}
	return NewCart(c.shop), nil
}

// Quantity возвращает количество товара в корзине.
func (c Cart) Quantity(id string) uint32 {
	return c.items[id]
}

// Items возвращает строки корзины в порядке каталога.
func (c Cart) Items() []Line {
	lines := make([]Line, 0, len(c.items))
	for _, it := range c.shop.Items() {
		qty, ok := c.items[it.ID]
		if !ok {
			continue
		}
		price, _ := c.shop.Price(it.ID)
		lines = append(lines, Line{
			Item:      it,
			Quantity:  qty,
			UnitPrice: price,
			Total:     price.Times(qty),
		})
	}
	return lines
}

// Discounts возвращает применённые скидки в порядке добавления.
func (c Cart) Discounts() []Discount {
	out := make([]Discount, len(c.discounts))
	copy(out, c.discounts)
	return out
}

// HasDiscount сообщает, применена ли уже такая скидка.
func (c Cart) HasDiscount(d Discount) bool {
	for _, existing := range c.discounts {
		if existing == d {
			return true
		}
	}
	return false
}

// ItemCount возвращает суммарное количество товаров.
func (c Cart) ItemCount() uint32 {
	var n uint32
	for _, qty := range c.items {
		n += qty
	}
	return n
}

// HasItems сообщает, можно ли оплатить корзину.
func (c Cart) HasItems() bool {
	return c.ItemCount() > 0
}

// IsEmpty истинно, только если нет ни товаров, ни скидок.
func (c Cart) IsEmpty() bool {
	return len(c.items) == 0 && len(c.discounts) == 0
}

// Subtotal возвращает сумму по товарам до скидок.
func (c Cart) Subtotal() Euro {
	var total Euro
	for id, qty := range c.items {
		price, _ := c.shop.Price(id)
		total = total.Add(price.Times(qty))
	}
	return total
}

// Price возвращает итог к оплате после всех скидок.
func (c Cart) Price() Euro {
	_, total := c.PriceBreakdown()
	return total
}

// PriceBreakdown применяет скидки по очереди к промежуточной сумме и возвращает каждый шаг.
// Каждая скидка считается от результата предыдущей, а не от исходной суммы.
func (c Cart) PriceBreakdown() ([]Step, Euro) {
	running := c.Subtotal()
	steps := make([]Step, 0, len(c.discounts))

	for _, d := range c.discounts {
		saving := c.saving(d, running)
		after := running.Sub(saving)
		steps = append(steps, Step{
			Discount: d,
			Before:   running,
			Saving:   running - after,
			After:    after,
		})
		running = after
	}

	return steps, running
}

func (c Cart) saving(d Discount, running Euro) Euro {
	switch v := d.(type) {
	case Fixed:
		return v.Amount
	case Percentage:
		pct := uint64(v.Value)
		if pct > 100 {
			pct = 100
		}
		return Euro(uint64(running) * pct / 100)
	case Bundle:
		if v.Get == 0 || v.Pay >= v.Get {
			return 0
		}
		price, _ := c.shop.Price(v.ItemID)
		groups := c.items[v.ItemID] / v.Get
		return price.Times(groups * (v.Get - v.Pay))
	default:
		panic(fmt.Sprintf("model: unhandled discount %T", d))
	}
}
