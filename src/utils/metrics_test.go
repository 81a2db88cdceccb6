package utils

import (
	"context"
	"testing"
	"time"

	"ticketr/src/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEventMetrics(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 10, "org_1", time.Now().Add(-time.Hour))

	// pending: counts toward issued but not sold
	reserveValid(t, event.ID, "buyer_1")

	valid := reserveValid(t, event.ID, "buyer_2")
	confirmValid(t, valid, "pi_valid")

	used := reserveValid(t, event.ID, "buyer_3")
	confirmValid(t, used, "pi_used")
	_, err := MarkTicketUsed(used.ID)
	require.NoError(t, err)

	refunded := reserveValid(t, event.ID, "buyer_4")
	confirmValid(t, refunded, "pi_refunded")
	err = d.Transaction(func(tx *gorm.DB) error {
		_, _, err := RefundTicket(tx, refunded.ID, types.REFUND_REQUESTED)
		return err
	})
	require.NoError(t, err)

	released := reserveValid(t, event.ID, "buyer_5")
	err = d.Transaction(func(tx *gorm.DB) error {
		_, err := Release(tx, released.ID)
		return err
	})
	require.NoError(t, err)

	metrics, err := GetEventMetrics(event.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(2), metrics.SoldTickets)
	assert.Equal(t, uint(1), metrics.RefundedTickets)
	assert.InDelta(t, 2*event.Price, metrics.Revenue, 0.001)
	assert.InDelta(t, event.Price, metrics.RefundedAmount, 0.001)
}

func TestEventMetricsEmpty(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 10, "org_1", time.Now().Add(48*time.Hour))

	metrics, err := GetEventMetrics(event.ID)
	require.NoError(t, err)
	assert.Zero(t, metrics.SoldTickets)
	assert.Zero(t, metrics.RefundedTickets)
	assert.Zero(t, metrics.Revenue)
	assert.Zero(t, metrics.RefundedAmount)
}

func TestSellerEventsMetrics(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 1, "org_1", time.Now().Add(48*time.Hour))

	winner := reserveValid(t, event.ID, "buyer_1")
	_, err := ReserveTicket(context.Background(), event.ID, "buyer_2")
	require.ErrorIs(t, err, types.ErrCapacityExceeded)
	confirmValid(t, winner, "pi_winner")

	events, err := GetSellerEvents("org_1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Metrics)
	assert.Equal(t, uint(1), events[0].Metrics.SoldTickets)
	assert.InDelta(t, event.Price, events[0].Metrics.Revenue, 0.001)

	events, err = GetSellerEvents("org_other")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSearchEvents(t *testing.T) {
	d := newTestDB(t)
	makeEvent(t, d, 10, "org_1", time.Now().Add(48*time.Hour))
	cancelled := makeEvent(t, d, 10, "org_1", time.Now().Add(72*time.Hour))
	require.NoError(t, d.Model(cancelled).Update("is_cancelled", true).Error)

	// Cancelled events still show up in search results.
	results, err := SearchEvents("GIG", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].EventDate.Before(results[1].EventDate))

	results, err = SearchEvents("nothing-here", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}
