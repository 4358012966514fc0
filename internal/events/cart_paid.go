// Package events публикует события об оплаченных корзинах.
package events

import (
	"time"

	"github.com/mmeshcher/cartshop/internal/model"
)

// CartPaidQueue задаёт очередь, в которую публикуются события CartPaid.
const CartPaidQueue = "cart.paid"

// CartPaid описывает оплаченную корзину.
type CartPaid struct {
	EventType string               `json:"eventType"`
	ReceiptID string               `json:"receiptId"`
	SessionID string               `json:"sessionId"`
	Items     []CartPaidItem       `json:"items"`
	Discounts []model.DiscountSpec `json:"discounts"`
	Subtotal  uint64               `json:"subtotalCents"`
	Total     uint64               `json:"totalCents"`
	Timestamp time.Time            `json:"timestamp"`
}

// CartPaidItem описывает позицию оплаченной корзины.
type CartPaidItem struct {
	ItemID    string `json:"itemId"`
	Quantity  uint32 `json:"quantity"`
	UnitPrice uint64 `json:"unitPriceCents"`
}

// NewCartPaid строит событие по чеку.
func NewCartPaid(rc model.Receipt) CartPaid {
	ev := CartPaid{
		EventType: "CartPaid",
		ReceiptID: rc.ID.String(),
		SessionID: rc.SessionID,
		Discounts: rc.Discounts,
		Subtotal:  uint64(rc.Subtotal),
		Total:     uint64(rc.Total),
		Timestamp: rc.PaidAt.UTC(),
	}
	for _, l := range rc.Lines {
		ev.Items = append(ev.Items, CartPaidItem{
			ItemID:    l.ItemID,
			Quantity:  l.Quantity,
			UnitPrice: uint64(l.UnitPrice),
		})
	}
	return ev
}
