package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	custommiddleware "github.com/mmeshcher/cartshop/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware магазина.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(h.sessions.Middleware)

		r.Get("/shop", h.GetShop)
		r.Get("/discounts", h.GetDiscounts)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)

			r.Post("/items/{itemID}", h.AddItem)
			r.Delete("/items/{itemID}", h.DecreaseItem)
			r.Put("/items/{itemID}", h.SetItemQuantity)

			r.Post("/discounts", h.AddDiscount)
			r.Delete("/discounts/{position}", h.RemoveDiscount)

			r.Post("/pay", h.Pay)
		})

		r.Get("/receipts", h.GetReceipts)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
