// Package session хранит корзины активных сессий покупок в памяти процесса.
package session

import (
	"sync"
	"time"

	"github.com/mmeshcher/cartshop/internal/model"
)

type entry struct {
	cart    model.Cart
	touched time.Time
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// Store хранит корзины сессий. Каждая запись заменяется целиком.
// Изменения одной сессии выполняются по очереди, разные сессии друг друга не ждут.
type Store struct {
	shop *model.Shop
	now  func() time.Time

	mu    sync.Mutex
	carts map[string]entry
	locks map[string]*sessionLock
}

// NewStore создаёт хранилище корзин для магазина.
func NewStore(shop *model.Shop) *Store {
	return &Store{
		shop:  shop,
		now:   time.Now,
		carts: make(map[string]entry),
		locks: make(map[string]*sessionLock),
	}
}

// Get возвращает корзину сессии или пустую корзину, если сессия ещё ничего не меняла.
func (s *Store) Get(id string) model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.carts[id]
	if !ok {
		return model.NewCart(s.shop)
	}
	e.touched = s.now()
	s.carts[id] = e
	return e.cart
}

// Update атомарно применяет fn к корзине сессии. При ошибке сохранённая корзина не меняется.
// fn выполняется под блокировкой только этой сессии и может обращаться к внешним системам.
func (s *Store) Update(id string, fn func(model.Cart) (model.Cart, error)) (model.Cart, error) {
	unlock := s.lockSession(id)
	defer unlock()

	s.mu.Lock()
	current := model.NewCart(s.shop)
	if e, ok := s.carts[id]; ok {
		current = e.cart
	}
	s.mu.Unlock()

	next, err := fn(current)
	if err != nil {
		return current, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if next.IsEmpty() {
		delete(s.carts, id)
	} else {
		s.carts[id] = entry{cart: next, touched: s.now()}
	}
	return next, nil
}

func (s *Store) lockSession(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// Sweep удаляет корзины, не изменявшиеся дольше ttl, и возвращает их число.
func (s *Store) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := s.now().Add(-ttl)
	removed := 0
	for id, e := range s.carts {
		if e.touched.Before(deadline) {
			delete(s.carts, id)
			removed++
		}
	}
	return removed
}

// Len возвращает число сессий с непустыми корзинами.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}
