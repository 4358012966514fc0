package handler

import "github.com/mmeshcher/cartshop/internal/model"

type moneyResponse struct {
	Cents     uint64 `json:"cents"`
	Formatted string `json:"formatted"`
}

func money(e model.Euro) moneyResponse {
	return moneyResponse{Cents: uint64(e), Formatted: e.String()}
}

type shopItemResponse struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Image  string        `json:"image,omitempty"`
	Price  moneyResponse `json:"price"`
	InCart uint32        `json:"inCart"`
}

type shopResponse struct {
	Name  string             `json:"name"`
	Items []shopItemResponse `json:"items"`
}

func newShopResponse(shop *model.Shop, c model.Cart) shopResponse {
	resp := shopResponse{
		Name:  shop.Name(),
		Items: make([]shopItemResponse, 0, len(shop.Items())),
	}
	for _, it := range shop.Items() {
		price, _ := shop.Price(it.ID)
		resp.Items = append(resp.Items, shopItemResponse{
			ID:     it.ID,
			Name:   it.Name,
			Image:  it.Image,
			Price:  money(price),
			InCart: c.Quantity(it.ID),
		})
	}
	return resp
}

type offerResponse struct {
	model.DiscountSpec
	Label   string `json:"label"`
	Applied bool   `json:"applied"`
}

func newOffersResponse(offers []model.Discount, c model.Cart) []offerResponse {
	resp := make([]offerResponse, 0, len(offers))
	for _, d := range offers {
		resp = append(resp, offerResponse{
			DiscountSpec: model.Spec(d),
			Label:        model.Describe(d, c.Shop()),
			Applied:      c.HasDiscount(d),
		})
	}
	return resp
}

type lineResponse struct {
	ItemID    string        `json:"itemId"`
	Name      string        `json:"name"`
	Image     string        `json:"image,omitempty"`
	Quantity  uint32        `json:"quantity"`
	UnitPrice moneyResponse `json:"unitPrice"`
	Total     moneyResponse `json:"total"`
}

type appliedDiscountResponse struct {
	model.DiscountSpec
	Position int           `json:"position"`
	Label    string        `json:"label"`
	Before   moneyResponse `json:"before"`
	Saving   moneyResponse `json:"saving"`
	After    moneyResponse `json:"after"`
}

type cartResponse struct {
	Lines     []lineResponse            `json:"lines"`
	Discounts []appliedDiscountResponse `json:"discounts"`
	ItemCount uint32                    `json:"itemCount"`
	Badge     string                    `json:"badge"`
	Subtotal  moneyResponse             `json:"subtotal"`
	Total     moneyResponse             `json:"total"`
	HasItems  bool                      `json:"hasItems"`
	IsEmpty   bool                      `json:"isEmpty"`
}

func newCartResponse(c model.Cart) cartResponse {
	steps, total := c.PriceBreakdown()
	count := c.ItemCount()

	resp := cartResponse{
		Lines:     make([]lineResponse, 0),
		Discounts: make([]appliedDiscountResponse, 0, len(steps)),
		ItemCount: count,
		Badge:     model.BadgeText(count),
		Subtotal:  money(c.Subtotal()),
		Total:     money(total),
		HasItems:  c.HasItems(),
		IsEmpty:   c.IsEmpty(),
	}

	for _, l := range c.Items() {
		resp.Lines = append(resp.Lines, lineResponse{
			ItemID:    l.Item.ID,
			Name:      l.Item.Name,
			Image:     l.Item.Image,
			Quantity:  l.Quantity,
			UnitPrice: money(l.UnitPrice),
			Total:     money(l.Total),
		})
	}

	for i, s := range steps {
		resp.Discounts = append(resp.Discounts, appliedDiscountResponse{
			DiscountSpec: model.Spec(s.Discount),
			Position:     i,
			Label:        model.Describe(s.Discount, c.Shop()),
			Before:       money(s.Before),
			Saving:       money(s.Saving),
			After:        money(s.After),
		})
	}

	return resp
}
