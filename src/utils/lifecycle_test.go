package utils

import (
	"context"
	"testing"
	"time"

	"ticketr/src/models"
	"ticketr/src/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestConfirmPurchase(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 3, "org_1", time.Now().Add(48*time.Hour))
	ticket := reserveValid(t, event.ID, "buyer_1")

	confirmed := confirmValid(t, ticket, "pi_123")
	assert.Equal(t, types.TICKET_VALID, confirmed.Status)
	require.NotNil(t, confirmed.PaymentRef)
	assert.Equal(t, "pi_123", *confirmed.PaymentRef)
	assert.NotNil(t, confirmed.PurchasedAt)
	assert.Nil(t, confirmed.ReservedUntil)

	// Confirmation keeps the slot; issued still counts the valid ticket.
	stored, actual, err := ReconcileIssued(event.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), stored)
	assert.Equal(t, int64(1), actual)
}

func TestConfirmPurchaseTwice(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 3, "org_1", time.Now().Add(48*time.Hour))
	ticket := reserveValid(t, event.ID, "buyer_1")
	confirmValid(t, ticket, "pi_123")

	usePaymentProcessor(t, &fakeProcessor{})
	_, err := ConfirmPurchase(context.Background(), ticket.ID, "pi_456")
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	var reloaded models.Ticket
	require.NoError(t, d.Where("id = ?", ticket.ID).First(&reloaded).Error)
	require.NotNil(t, reloaded.PaymentRef)
	assert.Equal(t, "pi_123", *reloaded.PaymentRef)
}

func TestConfirmPaymentFailureReleases(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 1, "org_1", time.Now().Add(48*time.Hour))
	ticket := reserveValid(t, event.ID, "buyer_1")

	usePaymentProcessor(t, &fakeProcessor{verifyErr: errPaymentDeclined})
	_, err := ConfirmPurchase(context.Background(), ticket.ID, "pi_bad")
	assert.ErrorIs(t, err, types.ErrPaymentFailed)

	var reloaded models.Ticket
	require.NoError(t, d.Where("id = ?", ticket.ID).First(&reloaded).Error)
	assert.Equal(t, types.TICKET_RELEASED, reloaded.Status)

	// The failed attempt gave its slot back.
	reserveValid(t, event.ID, "buyer_2")
}

func TestMarkTicketUsed(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 3, "org_1", time.Now().Add(-time.Hour))
	ticket := reserveValid(t, event.ID, "buyer_1")
	confirmValid(t, ticket, "pi_123")

	used, err := MarkTicketUsed(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TICKET_USED, used.Status)

	// Scanning the same ticket again is rejected.
	_, err = MarkTicketUsed(ticket.ID)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	stored, actual, err := ReconcileIssued(event.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(0), stored)
	assert.Equal(t, int64(0), actual)
}

func TestMarkPendingTicketUsed(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 3, "org_1", time.Now().Add(-time.Hour))
	ticket := reserveValid(t, event.ID, "buyer_1")

	_, err := MarkTicketUsed(ticket.ID)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)
}

func TestScanBeforeEventDate(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 3, "org_1", time.Now().Add(48*time.Hour))
	ticket := reserveValid(t, event.ID, "buyer_1")
	confirmValid(t, ticket, "pi_123")

	_, err := MarkTicketUsed(ticket.ID)
	assert.ErrorIs(t, err, types.ErrEventNotStarted)

	t.Setenv("ADMIT_BEFORE_EVENT_DATE", "true")
	used, err := MarkTicketUsed(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TICKET_USED, used.Status)
}

func TestRefundTicketIdempotent(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 3, "org_1", time.Now().Add(48*time.Hour))
	ticket := reserveValid(t, event.ID, "buyer_1")
	confirmValid(t, ticket, "pi_123")

	var instruction *models.RefundInstruction
	err := d.Transaction(func(tx *gorm.DB) error {
		_, inst, err := RefundTicket(tx, ticket.ID, types.REFUND_REQUESTED)
		instruction = inst
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, instruction)
	assert.Equal(t, types.REFUND_QUEUED, instruction.Status)
	assert.Equal(t, ticket.Price, instruction.Amount)
	require.NotNil(t, instruction.PaymentRef)
	assert.Equal(t, "pi_123", *instruction.PaymentRef)

	// Second refund is a no-op success and queues nothing new.
	err = d.Transaction(func(tx *gorm.DB) error {
		refunded, inst, err := RefundTicket(tx, ticket.ID, types.REFUND_REQUESTED)
		require.NoError(t, err)
		assert.Nil(t, inst)
		assert.Equal(t, types.TICKET_REFUNDED, refunded.Status)
		return nil
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, d.Model(&models.RefundInstruction{}).Where("ticket_id = ?", ticket.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	stored, actual, err := ReconcileIssued(event.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(0), stored)
	assert.Equal(t, int64(0), actual)
}

func TestRefundUsedTicket(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 3, "org_1", time.Now().Add(-time.Hour))
	ticket := reserveValid(t, event.ID, "buyer_1")
	confirmValid(t, ticket, "pi_123")
	_, err := MarkTicketUsed(ticket.ID)
	require.NoError(t, err)

	err = d.Transaction(func(tx *gorm.DB) error {
		_, _, err := RefundTicket(tx, ticket.ID, types.REFUND_REQUESTED)
		return err
	})
	assert.ErrorIs(t, err, types.ErrInvalidTransition)
}

func TestReleaseExpiredTicket(t *testing.T) {
	d := newTestDB(t)
	event := makeEvent(t, d, 3, "org_1", time.Now().Add(48*time.Hour))
	ticket := reserveValid(t, event.ID, "buyer_1")

	// Still inside its window: nothing happens.
	require.NoError(t, ReleaseExpiredTicket(ticket.ID))
	var reloaded models.Ticket
	require.NoError(t, d.Where("id = ?", ticket.ID).First(&reloaded).Error)
	assert.Equal(t, types.TICKET_PENDING, reloaded.Status)

	expired := time.Now().Add(-time.Minute)
	require.NoError(t, d.Model(&models.Ticket{}).Where("id = ?", ticket.ID).Update("reserved_until", expired).Error)

	require.NoError(t, ReleaseExpiredTicket(ticket.ID))
	require.NoError(t, d.Where("id = ?", ticket.ID).First(&reloaded).Error)
	assert.Equal(t, types.TICKET_RELEASED, reloaded.Status)

	stored, actual, err := ReconcileIssued(event.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(0), stored)
	assert.Equal(t, int64(0), actual)
}
