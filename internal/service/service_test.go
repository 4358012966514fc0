package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/cartshop/internal/catalog"
	"github.com/mmeshcher/cartshop/internal/model"
	"github.com/mmeshcher/cartshop/internal/validation"
)

type stubRepo struct {
	saved   []model.Receipt
	saveErr error

	receipts    []model.Receipt
	receiptsErr error
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) SaveReceipt(ctx context.Context, rc model.Receipt) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, rc)
	return nil
}

func (s *stubRepo) ReceiptsBySession(ctx context.Context, sessionID string) ([]model.Receipt, error) {
	return s.receipts, s.receiptsErr
}

type stubPublisher struct {
	published  []model.Receipt
	publishErr error
	closed     bool
}

func (p *stubPublisher) PublishCartPaid(ctx context.Context, rc model.Receipt) error {
	p.published = append(p.published, rc)
	return p.publishErr
}

func (p *stubPublisher) Close() error {
	p.closed = true
	return nil
}

const testCatalog = `
name: Test Shop
items:
  - id: apple
    name: Apple
    price: "3.00"
  - id: banana
    name: Banana
    price: "10.00"
discounts:
  - type: fixed
    amount: "5.00"
  - type: percentage
    value: 10
  - type: bundle
    item: apple
    get: 3
    pay: 2
`

func newTestService(t *testing.T, repo Repository, pub Publisher) *Service {
	t.Helper()

	cat, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)

	svc := NewService(cat, repo, pub, zap.NewNop(), time.Minute)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestAddAndDecreaseItem(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, &stubPublisher{})

	_, err := svc.AddItem("s1", "apple")
	require.NoError(t, err)
	c, err := svc.AddItem("s1", "apple")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), c.Quantity("apple"))

	c = svc.DecreaseItem("s1", "apple")
	assert.Equal(t, uint32(1), c.Quantity("apple"))
	assert.Equal(t, uint32(1), svc.Cart("s1").Quantity("apple"))

	assert.True(t, svc.Cart("s2").IsEmpty(), "sessions must not share carts")
}

func TestAddItem_Unknown(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, &stubPublisher{})

	_, err := svc.AddItem("s1", "durian")
	assert.ErrorIs(t, err, model.ErrUnknownItem)
	assert.True(t, svc.Cart("s1").IsEmpty())
}

func TestSetItemQuantity(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, &stubPublisher{})

	c, err := svc.SetItemQuantity("s1", "banana", 150)
	require.NoError(t, err)
	assert.Equal(t, model.MaxQuantity, c.Quantity("banana"))

	c, err = svc.SetItemQuantity("s1", "banana", 0)
	require.NoError(t, err)
	assert.False(t, c.HasItems())
}

func TestAddDiscount(t *testing.T) {
	tests := []struct {
		name    string
		d       model.Discount
		wantErr error
	}{
		{name: "offered fixed", d: model.Fixed{Amount: 500}},
		{name: "offered bundle", d: model.Bundle{ItemID: "apple", Get: 3, Pay: 2}},
		{name: "not offered", d: model.Percentage{Value: 50}, wantErr: ErrDiscountNotOffered},
		{name: "invalid", d: model.Percentage{Value: 150}, wantErr: validation.ErrInvalidDiscount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, &stubRepo{}, &stubPublisher{})

			c, err := svc.AddDiscount("s1", tt.d)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, svc.Cart("s1").Discounts())
				return
			}
			require.NoError(t, err)
			assert.True(t, c.HasDiscount(tt.d))
		})
	}
}

func TestRemoveDiscountAt(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, &stubPublisher{})

	_, err := svc.AddDiscount("s1", model.Fixed{Amount: 500})
	require.NoError(t, err)
	_, err = svc.AddDiscount("s1", model.Percentage{Value: 10})
	require.NoError(t, err)

	c := svc.RemoveDiscountAt("s1", 0)
	assert.Equal(t, []model.Discount{model.Percentage{Value: 10}}, c.Discounts())

	c = svc.RemoveDiscountAt("s1", 5)
	assert.Len(t, c.Discounts(), 1)
}

func TestPay(t *testing.T) {
	repo := &stubRepo{}
	pub := &stubPublisher{}
	svc := newTestService(t, repo, pub)

	for i := 0; i < 3; i++ {
		_, err := svc.AddItem("s1", "apple")
		require.NoError(t, err)
	}
	_, err := svc.AddDiscount("s1", model.Bundle{ItemID: "apple", Get: 3, Pay: 2})
	require.NoError(t, err)

	rc, err := svc.Pay(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, "s1", rc.SessionID)
	assert.Equal(t, model.Euro(900), rc.Subtotal)
	assert.Equal(t, model.Euro(600), rc.Total)
	assert.Equal(t, svc.now(), rc.PaidAt)

	require.Len(t, repo.saved, 1)
	assert.Equal(t, rc.ID, repo.saved[0].ID)
	require.Len(t, pub.published, 1)
	assert.Equal(t, rc.ID, pub.published[0].ID)

	assert.True(t, svc.Cart("s1").IsEmpty())
}

func TestPay_EmptyCart(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, &stubPublisher{})

	_, err := svc.AddDiscount("s1", model.Fixed{Amount: 500})
	require.NoError(t, err)

	_, err = svc.Pay(context.Background(), "s1")
	assert.ErrorIs(t, err, model.ErrEmptyCart)
	assert.Empty(t, repo.saved)
	assert.Len(t, svc.Cart("s1").Discounts(), 1)
}

func TestPay_SaveErrorKeepsCart(t *testing.T) {
	boom := errors.New("db down")
	pub := &stubPublisher{}
	svc := newTestService(t, &stubRepo{saveErr: boom}, pub)

	_, err := svc.AddItem("s1", "banana")
	require.NoError(t, err)

	_, err = svc.Pay(context.Background(), "s1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint32(1), svc.Cart("s1").Quantity("banana"))
	assert.Empty(t, pub.published)
}

func TestPay_PublishErrorStillPays(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, &stubPublisher{publishErr: errors.New("broker down")})

	_, err := svc.AddItem("s1", "banana")
	require.NoError(t, err)

	_, err = svc.Pay(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, repo.saved, 1)
	assert.True(t, svc.Cart("s1").IsEmpty())
}

type blockingRepo struct {
	stubRepo
	saving  chan struct{}
	release chan struct{}
}

func (r *blockingRepo) SaveReceipt(ctx context.Context, rc model.Receipt) error {
	close(r.saving)
	<-r.release
	return r.stubRepo.SaveReceipt(ctx, rc)
}

func TestPay_SlowSaveDoesNotBlockOtherSessions(t *testing.T) {
	repo := &blockingRepo{saving: make(chan struct{}), release: make(chan struct{})}
	svc := newTestService(t, repo, &stubPublisher{})

	_, err := svc.AddItem("payer", "apple")
	require.NoError(t, err)

	payDone := make(chan error, 1)
	go func() {
		_, err := svc.Pay(context.Background(), "payer")
		payDone <- err
	}()
	<-repo.saving

	otherDone := make(chan struct{})
	go func() {
		defer close(otherDone)
		_, _ = svc.AddItem("other", "banana")
		_ = svc.Cart("third")
	}()

	select {
	case <-otherDone:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("other sessions waited while a receipt was being saved")
	}

	close(repo.release)
	require.NoError(t, <-payDone)

	assert.True(t, svc.Cart("payer").IsEmpty())
	assert.Equal(t, uint32(1), svc.Cart("other").Quantity("banana"))
	assert.Len(t, repo.saved, 1)
}

func TestPay_ConcurrentPaymentsOfOneCart(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, &stubPublisher{})

	_, err := svc.AddItem("s1", "apple")
	require.NoError(t, err)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Pay(context.Background(), "s1")
			errs <- err
		}()
	}

	var paid, empty int
	for i := 0; i < 2; i++ {
		err := <-errs
		switch {
		case err == nil:
			paid++
		case errors.Is(err, model.ErrEmptyCart):
			empty++
		}
	}
	assert.Equal(t, 1, paid)
	assert.Equal(t, 1, empty)
	assert.Len(t, repo.saved, 1)
}

func TestReceipts(t *testing.T) {
	want := []model.Receipt{{SessionID: "s1", Total: 100}}
	svc := newTestService(t, &stubRepo{receipts: want}, nil)

	got, err := svc.Receipts(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSweepSessions(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, &stubPublisher{})

	_, err := svc.AddItem("s1", "apple")
	require.NoError(t, err)

	assert.Equal(t, 0, svc.sweepSessions())

	svc.sessionTTL = -time.Second
	assert.Equal(t, 1, svc.sweepSessions())
	assert.True(t, svc.Cart("s1").IsEmpty())
}

func TestClose(t *testing.T) {
	pub := &stubPublisher{}
	svc := newTestService(t, &stubRepo{}, pub)

	require.NoError(t, svc.Close())
	assert.True(t, pub.closed)
}
