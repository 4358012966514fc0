package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mmeshcher/cartshop/internal/model"
)

// MemoryRepository хранит чеки в памяти процесса. Используется, когда БД не настроена.
type MemoryRepository struct {
	mu       sync.RWMutex
	receipts map[uuid.UUID]model.Receipt
}

// NewMemoryRepository создаёт пустое хранилище чеков в памяти.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		receipts: make(map[uuid.UUID]model.Receipt),
	}
}

// Close ничего не делает.
func (r *MemoryRepository) Close() error {
	return nil
}

// SaveReceipt сохраняет чек.
func (r *MemoryRepository) SaveReceipt(_ context.Context, rc model.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.receipts[rc.ID]; ok {
		return fmt.Errorf("%w: %s", ErrReceiptExists, rc.ID)
	}
	r.receipts[rc.ID] = rc
	return nil
}

// ReceiptsBySession возвращает чеки сессии, начиная с последнего.
func (r *MemoryRepository) ReceiptsBySession(_ context.Context, sessionID string) ([]model.Receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var res []model.Receipt
	for _, rc := range r.receipts {
		if rc.SessionID == sessionID {
			res = append(res, rc)
		}
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].PaidAt.After(res[j].PaidAt)
	})
	return res, nil
}
