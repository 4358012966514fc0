// Package service реализует бизнес-логику магазина: корзины сессий, скидки и оплату.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/cartshop/internal/catalog"
	"github.com/mmeshcher/cartshop/internal/model"
	"github.com/mmeshcher/cartshop/internal/session"
	"github.com/mmeshcher/cartshop/internal/validation"
)

const sweepInterval = time.Minute

// ErrDiscountNotOffered возвращается при попытке применить скидку, которой нет в каталоге.
var ErrDiscountNotOffered = errors.New("discount is not offered")

// Repository описывает контракт хранилища чеков, используемый сервисом.
type Repository interface {
	Close() error
	SaveReceipt(ctx context.Context, rc model.Receipt) error
	ReceiptsBySession(ctx context.Context, sessionID string) ([]model.Receipt, error)
}

// Publisher публикует события об оплаченных корзинах.
type Publisher interface {
	PublishCartPaid(ctx context.Context, rc model.Receipt) error
	Close() error
}

// Service содержит бизнес-логику магазина.
type Service struct {
	catalog    *catalog.Catalog
	carts      *session.Store
	repo       Repository
	publisher  Publisher
	logger     *zap.Logger
	sessionTTL time.Duration
	now        func() time.Time
}

// NewService создаёт сервис поверх каталога, хранилища чеков и издателя событий.
func NewService(cat *catalog.Catalog, repo Repository, pub Publisher, logger *zap.Logger, sessionTTL time.Duration) *Service {
	return &Service{
		catalog:    cat,
		carts:      session.NewStore(cat.Shop),
		repo:       repo,
		publisher:  pub,
		logger:     logger,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	var errs []error
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.repo != nil {
		errs = append(errs, s.repo.Close())
	}
	return errors.Join(errs...)
}

// Shop возвращает каталог товаров магазина.
func (s *Service) Shop() *model.Shop {
	return s.catalog.Shop
}

// Discounts возвращает список предлагаемых скидок.
func (s *Service) Discounts() []model.Discount {
	out := make([]model.Discount, len(s.catalog.Discounts))
	copy(out, s.catalog.Discounts)
	return out
}

// Cart возвращает текущую корзину сессии.
func (s *Service) Cart(sessionID string) model.Cart {
	return s.carts.Get(sessionID)
}

// AddItem добавляет в корзину одну единицу товара.
func (s *Service) AddItem(sessionID, itemID string) (model.Cart, error) {
	return s.carts.Update(sessionID, func(c model.Cart) (model.Cart, error) {
		return c.AddItem(itemID)
	})
}

// DecreaseItem убирает из корзины одну единицу товара.
func (s *Service) DecreaseItem(sessionID, itemID string) model.Cart {
	c, _ := s.carts.Update(sessionID, func(c model.Cart) (model.Cart, error) {
		return c.DecreaseItem(itemID), nil
	})
	return c
}

// SetItemQuantity задаёт количество товара в корзине.
func (s *Service) SetItemQuantity(sessionID, itemID string, qty uint32) (model.Cart, error) {
	return s.carts.Update(sessionID, func(c model.Cart) (model.Cart, error) {
		return c.SetItemQuantity(itemID, qty)
	})
}

// AddDiscount применяет к корзине скидку из списка предложений.
func (s *Service) AddDiscount(sessionID string, d model.Discount) (model.Cart, error) {
	if err := validation.ValidateDiscount(d, s.catalog.Shop); err != nil {
		return model.Cart{}, err
	}
	if !s.catalog.Offers(d) {
		return model.Cart{}, ErrDiscountNotOffered
	}

	return s.carts.Update(sessionID, func(c model.Cart) (model.Cart, error) {
		return c.AddDiscount(d), nil
	})
}

// RemoveDiscountAt снимает скидку, стоящую на указанной позиции.
func (s *Service) RemoveDiscountAt(sessionID string, pos int) model.Cart {
	c, _ := s.carts.Update(sessionID, func(c model.Cart) (model.Cart, error) {
		return c.RemoveDiscountAt(pos), nil
	})
	return c
}

// Pay оплачивает корзину: сохраняет чек, публикует событие и очищает корзину.
// Ошибка публикации только логируется: чек уже сохранён.
func (s *Service) Pay(ctx context.Context, sessionID string) (model.Receipt, error) {
	var rc model.Receipt

	_, err := s.carts.Update(sessionID, func(c model.Cart) (model.Cart, error) {
		next, err := c.Pay()
		if err != nil {
			return c, err
		}

		rc = model.NewReceipt(sessionID, c, s.now())
		if err := s.repo.SaveReceipt(ctx, rc); err != nil {
			return c, fmt.Errorf("save receipt: %w", err)
		}
		return next, nil
	})
	if err != nil {
		return model.Receipt{}, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishCartPaid(ctx, rc); err != nil {
			s.logger.Warn("publish cart paid event failed",
				zap.Error(err),
				zap.String("receiptID", rc.ID.String()),
			)
		}
	}

	return rc, nil
}

// Receipts возвращает чеки сессии.
func (s *Service) Receipts(ctx context.Context, sessionID string) ([]model.Receipt, error) {
	return s.repo.ReceiptsBySession(ctx, sessionID)
}

// StartSessionSweeper запускает фоновую очистку корзин неактивных сессий.
func (s *Service) StartSessionSweeper(ctx context.Context) {
	if s.sessionTTL <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepSessions()
			}
		}
	}()
}

func (s *Service) sweepSessions() int {
	removed := s.carts.Sweep(s.sessionTTL)
	if removed > 0 {
		s.logger.Info("idle carts evicted",
			zap.Int("removed", removed),
			zap.Int("active", s.carts.Len()),
		)
	}
	return removed
}
