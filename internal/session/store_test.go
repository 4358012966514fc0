package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/cartshop/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	shop, err := model.NewShop("test", []model.Product{
		{Item: model.Item{ID: "apple"}, Price: 100},
	})
	require.NoError(t, err)
	return NewStore(shop)
}

func addApple(c model.Cart) (model.Cart, error) {
	return c.AddItem("apple")
}

func TestStore_GetUnknownSession(t *testing.T) {
	s := newTestStore(t)

	c := s.Get("nobody")
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, s.Len())
}

func TestStore_Update(t *testing.T) {
	s := newTestStore(t)

	c, err := s.Update("s1", addApple)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), c.Quantity("apple"))
	assert.Equal(t, uint32(1), s.Get("s1").Quantity("apple"))
	assert.True(t, s.Get("s2").IsEmpty(), "sessions are isolated")
}

func TestStore_UpdateErrorKeepsCart(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Update("s1", addApple)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Update("s1", func(c model.Cart) (model.Cart, error) {
		c, _ = c.AddItem("apple")
		return c, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint32(1), s.Get("s1").Quantity("apple"))
}

func TestStore_EmptyCartIsDropped(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Update("s1", addApple)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	_, err = s.Update("s1", func(c model.Cart) (model.Cart, error) {
		return c.Pay()
	})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Sweep(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.Update("old", addApple)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = s.Update("fresh", addApple)
	require.NoError(t, err)

	removed := s.Sweep(30 * time.Minute)
	assert.Equal(t, 1, removed)
	assert.True(t, s.Get("old").IsEmpty())
	assert.False(t, s.Get("fresh").IsEmpty())
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Update("s1", addApple)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint32(50), s.Get("s1").Quantity("apple"))
}

func TestStore_SlowUpdateDoesNotBlockOtherSessions(t *testing.T) {
	s := newTestStore(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	slowDone := make(chan struct{})

	go func() {
		defer close(slowDone)
		_, _ = s.Update("slow", func(c model.Cart) (model.Cart, error) {
			close(entered)
			<-release
			return c.AddItem("apple")
		})
	}()
	<-entered

	otherDone := make(chan struct{})
	go func() {
		defer close(otherDone)
		_, _ = s.Update("other", addApple)
		_ = s.Get("third")
		_ = s.Get("slow")
		_ = s.Sweep(time.Hour)
	}()

	select {
	case <-otherDone:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("operations on other sessions waited for a slow update")
	}

	close(release)
	<-slowDone

	assert.Equal(t, uint32(1), s.Get("slow").Quantity("apple"))
	assert.Equal(t, uint32(1), s.Get("other").Quantity("apple"))
	assert.Empty(t, s.locks)
}

func TestStore_UpdatesOfOneSessionAreSerialized(t *testing.T) {
	s := newTestStore(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan struct{})

	go func() {
		defer close(firstDone)
		_, _ = s.Update("s1", func(c model.Cart) (model.Cart, error) {
			close(entered)
			<-release
			return c.AddItem("apple")
		})
	}()
	<-entered

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		_, _ = s.Update("s1", addApple)
	}()

	select {
	case <-secondDone:
		t.Fatal("second update of the same session ran before the first finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-firstDone
	<-secondDone

	assert.Equal(t, uint32(2), s.Get("s1").Quantity("apple"))
}
