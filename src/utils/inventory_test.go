package utils

import (
	"context"
	"sync"
	"testing"
	"time"

	"ticketr/src/models"
	"ticketr/src/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestReserveUpToCapacity(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 5, "org_1", time.Now().Add(48*time.Hour))

	soldOut := 0
	for i := 0; i < 20; i++ {
		_, err := ReserveTicket(context.Background(), event.ID, "buyer_1")
		if err != nil {
			require.ErrorIs(t, err, types.ErrCapacityExceeded)
			soldOut++
		}
	}
	assert.Equal(t, 15, soldOut)

	stored, actual, err := ReconcileIssued(event.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(5), stored)
	assert.Equal(t, int64(5), actual)
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 10, "org_1", time.Now().Add(48*time.Hour))

	var wg sync.WaitGroup
	var mu sync.Mutex
	reserved := 0
	soldOut := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ReserveTicket(context.Background(), event.ID, "buyer_1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				reserved++
			case assert.ErrorIs(t, err, types.ErrCapacityExceeded):
				soldOut++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, reserved)
	assert.Equal(t, 40, soldOut)

	stored, actual, err := ReconcileIssued(event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(stored), actual)
	assert.Equal(t, int64(10), actual)
}

func TestReserveCancelledEvent(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 5, "org_1", time.Now().Add(48*time.Hour))
	require.NoError(t, d.Model(&models.Event{}).Where("id = ?", event.ID).Update("is_cancelled", true).Error)

	_, err := ReserveTicket(context.Background(), event.ID, "buyer_1")
	assert.ErrorIs(t, err, types.ErrEventCancelled)
}

func TestReserveUnknownEvent(t *testing.T) {
	newTestDB(t)
	_, err := ReserveTicket(context.Background(), 999, "buyer_1")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestReleaseFreesOneSlot(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 2, "org_1", time.Now().Add(48*time.Hour))

	first := reserveValid(t, event.ID, "buyer_1")
	reserveValid(t, event.ID, "buyer_2")

	_, err := ReserveTicket(context.Background(), event.ID, "buyer_3")
	require.ErrorIs(t, err, types.ErrCapacityExceeded)

	err = d.Transaction(func(tx *gorm.DB) error {
		released, err := Release(tx, first.ID)
		require.NoError(t, err)
		require.True(t, released)
		return nil
	})
	require.NoError(t, err)

	// The freed slot is reservable again, and releasing twice frees nothing.
	reserveValid(t, event.ID, "buyer_3")
	err = d.Transaction(func(tx *gorm.DB) error {
		released, err := Release(tx, first.ID)
		require.NoError(t, err)
		require.False(t, released)
		return nil
	})
	require.NoError(t, err)

	stored, actual, err := ReconcileIssued(event.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(2), stored)
	assert.Equal(t, int64(2), actual)
}
