package model

import (
	"time"

	"github.com/google/uuid"
)

// ReceiptLine описывает позицию оплаченной корзины.
type ReceiptLine struct {
	ItemID    string `json:"item"`
	Name      string `json:"name"`
	Quantity  uint32 `json:"quantity"`
	UnitPrice Euro   `json:"unit_price"`
	Total     Euro   `json:"total"`
}

// Receipt фиксирует состояние корзины в момент оплаты.
type Receipt struct {
	ID        uuid.UUID      `json:"id"`
	SessionID string         `json:"session_id"`
	Lines     []ReceiptLine  `json:"lines"`
	Discounts []DiscountSpec `json:"discounts"`
	Subtotal  Euro           `json:"subtotal"`
	Total     Euro           `json:"total"`
	PaidAt    time.Time      `json:"paid_at"`
}

// NewReceipt строит чек по содержимому корзины.
func NewReceipt(sessionID string, c Cart, now time.Time) Receipt {
	r := Receipt{
		ID:        uuid.New(),
		SessionID: sessionID,
		Subtotal:  c.Subtotal(),
		Total:     c.Price(),
		PaidAt:    now,
	}

	for _, l := range c.Items() {
		r.Lines = append(r.Lines, ReceiptLine{
			ItemID:    l.Item.ID,
			Name:      l.Item.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.Total,
		})
	}
	for _, d := range c.discounts {
		r.Discounts = append(r.Discounts, Spec(d))
	}

	return r
}
