// Package handler содержит HTTP-обработчики API магазина.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/cartshop/internal/middleware"
	"github.com/mmeshcher/cartshop/internal/model"
	"github.com/mmeshcher/cartshop/internal/service"
	"github.com/mmeshcher/cartshop/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Shop() *model.Shop
	Discounts() []model.Discount
	Cart(sessionID string) model.Cart
	AddItem(sessionID, itemID string) (model.Cart, error)
	DecreaseItem(sessionID, itemID string) model.Cart
	SetItemQuantity(sessionID, itemID string, qty uint32) (model.Cart, error)
	AddDiscount(sessionID string, d model.Discount) (model.Cart, error)
	RemoveDiscountAt(sessionID string, pos int) model.Cart
	Pay(ctx context.Context, sessionID string) (model.Receipt, error)
	Receipts(ctx context.Context, sessionID string) ([]model.Receipt, error)
}

// Handler реализует HTTP-обработчики API магазина.
type Handler struct {
	service  Service
	logger   *zap.Logger
	sessions *middleware.SessionMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, sessions *middleware.SessionMiddleware) *Handler {
	return &Handler{
		service:  s,
		logger:   logger,
		sessions: sessions,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func sessionFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID, ok := middleware.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	}
	return sessionID, ok
}

// itemFromRequest возвращает идентификатор товара из пути, отвечая 400 или 404, если он не подходит.
func (h *Handler) itemFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	itemID := chi.URLParam(r, "itemID")
	if !validation.IsValidItemID(itemID) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return "", false
	}
	if _, ok := h.service.Shop().Item(itemID); !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return "", false
	}
	return itemID, true
}

// GetShop возвращает каталог магазина с количеством каждого товара в корзине.
func (h *Handler) GetShop(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, newShopResponse(h.service.Shop(), h.service.Cart(sessionID)))
}

// GetDiscounts возвращает предлагаемые скидки с отметкой о применении.
func (h *Handler) GetDiscounts(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, newOffersResponse(h.service.Discounts(), h.service.Cart(sessionID)))
}

// GetCart возвращает корзину текущей сессии.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, newCartResponse(h.service.Cart(sessionID)))
}

// AddItem добавляет в корзину одну единицу товара.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	itemID, ok := h.itemFromRequest(w, r)
	if !ok {
		return
	}

	c, err := h.service.AddItem(sessionID, itemID)
	if err != nil {
		if errors.Is(err, model.ErrUnknownItem) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("add item error", zap.Error(err), zap.String("item", itemID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, newCartResponse(c))
}

// DecreaseItem убирает из корзины одну единицу товара.
func (h *Handler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	itemID, ok := h.itemFromRequest(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, newCartResponse(h.service.DecreaseItem(sessionID, itemID)))
}

type quantityRequest struct {
	Quantity *uint32 `json:"quantity"`
}

// SetItemQuantity задаёт количество товара в корзине.
func (h *Handler) SetItemQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	itemID, ok := h.itemFromRequest(w, r)
	if !ok {
		return
	}

	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	c, err := h.service.SetItemQuantity(sessionID, itemID, *req.Quantity)
	if err != nil {
		if errors.Is(err, model.ErrUnknownItem) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("set item quantity error", zap.Error(err), zap.String("item", itemID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, newCartResponse(c))
}

// AddDiscount применяет к корзине одну из предлагаемых скидок.
func (h *Handler) AddDiscount(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	var spec model.DiscountSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	d, err := spec.Discount()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	c, err := h.service.AddDiscount(sessionID, d)
	if err != nil {
		if errors.Is(err, validation.ErrInvalidDiscount) || errors.Is(err, service.ErrDiscountNotOffered) {
			http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("add discount error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, newCartResponse(c))
}

// RemoveDiscount снимает скидку по её позиции в корзине.
func (h *Handler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	pos, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil || pos < 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, newCartResponse(h.service.RemoveDiscountAt(sessionID, pos)))
}

// Pay оплачивает корзину и возвращает чек.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	rc, err := h.service.Pay(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, model.ErrEmptyCart) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		}
		h.logger.Error("pay error", zap.Error(err), zap.String("sessionID", sessionID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.logger.Info("cart paid",
		zap.String("receiptID", rc.ID.String()),
		zap.Stringer("total", rc.Total),
	)
	h.writeJSON(w, rc)
}

// GetReceipts возвращает чеки текущей сессии.
func (h *Handler) GetReceipts(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	receipts, err := h.service.Receipts(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("get receipts error", zap.Error(err), zap.String("sessionID", sessionID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(receipts) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, receipts)
}
