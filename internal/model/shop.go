package model

import (
	"errors"
	"fmt"
)

// ErrDuplicateItem возвращается, если в каталоге встречается повторный идентификатор товара.
var ErrDuplicateItem = errors.New("duplicate item")

// Item описывает товар каталога. Два товара с одинаковым ID взаимозаменяемы.
type Item struct {
	ID    string
	Name  string
	Image string
}

// Product связывает товар с его ценой за единицу.
type Product struct {
	Item  Item
	Price Euro
}

// Shop хранит неизменяемый каталог магазина: товары в порядке каталога и их цены.
type Shop struct {
	name   string
	items  []Item
	prices map[string]Euro
	byID   map[string]Item
}

// NewShop создаёт каталог из списка товаров.
func NewShop(name string, products []Product) (*Shop, error) {
	s := &Shop{
		name:   name,
		items:  make([]Item, 0, len(products)),
		prices: make(map[string]Euro, len(products)),
		byID:   make(map[string]Item, len(products)),
	}

	for _, p := range products {
		if _, ok := s.byID[p.Item.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, p.Item.ID)
		}
		s.items = append(s.items, p.Item)
		s.prices[p.Item.ID] = p.Price
		s.byID[p.Item.ID] = p.Item
	}

	return s, nil
}

// Name возвращает название магазина.
func (s *Shop) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Items возвращает товары в порядке каталога.
func (s *Shop) Items() []Item {
	if s == nil {
		return nil
	}
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Item ищет товар по идентификатору.
func (s *Shop) Item(id string) (Item, bool) {
	if s == nil {
		return Item{}, false
	}
	it, ok := s.byID[id]
	return it, ok
}

// Price возвращает цену товара за единицу.
func (s *Shop) Price(id string) (Euro, bool) {
	if s == nil {
		return 0, false
	}
	p, ok := s.prices[id]
	return p, ok
}
