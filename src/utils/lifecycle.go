package utils

import (
	"errors"
	"ticketr/src/config"
	"ticketr/src/db"
	"ticketr/src/models"
	"ticketr/src/monitoring"
	"ticketr/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Every transition below is a conditional UPDATE keyed by (id, expected
// status). Concurrent attempts on the same ticket resolve first-committed-wins:
// the loser's precondition no longer matches and it gets ErrInvalidTransition,
// never a blind overwrite.

func loadTicket(tx *gorm.DB, ticketId uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := tx.Where("id = ?", ticketId).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// FinalizeTicket moves pending -> valid after payment confirmation.
func FinalizeTicket(tx *gorm.DB, ticketId uuid.UUID, paymentRef string) (*models.Ticket, error) {
	if _, err := loadTicket(tx, ticketId); err != nil {
		return nil, err
	}
	now := time.Now()
	res := tx.
		Model(&models.Ticket{}).
		Where("id = ? AND status = ?", ticketId, types.TICKET_PENDING).
		Updates(map[string]any{
			"status":         types.TICKET_VALID,
			"payment_ref":    paymentRef,
			"purchased_at":   now,
			"reserved_until": nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, types.ErrInvalidTransition
	}
	monitoring.RecordTransition(string(types.TICKET_VALID))
	return loadTicket(tx, ticketId)
}

// MarkTicketUsed moves valid -> used at admission. The scan is rejected
// before the event date unless the early-admission policy is on.
func MarkTicketUsed(ticketId uuid.UUID) (*models.Ticket, error) {
	d := db.GetDb()
	var out *models.Ticket
	err := d.Transaction(func(tx *gorm.DB) error {
		ticket, err := loadTicket(tx, ticketId)
		if err != nil {
			return err
		}
		if ticket.Status != types.TICKET_VALID {
			return types.ErrInvalidTransition
		}
		var event models.Event
		if err := tx.Where(&models.Event{ID: ticket.EventID}).First(&event).Error; err != nil {
			return err
		}
		if !config.AllowEarlyAdmission() && time.Now().Before(event.EventDate) {
			return types.ErrEventNotStarted
		}
		res := tx.
			Model(&models.Ticket{}).
			Where("id = ? AND status = ?", ticketId, types.TICKET_VALID).
			Update("status", types.TICKET_USED)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrInvalidTransition
		}
		// A used ticket leaves the {pending, valid} set the counter tracks.
		if err := decrementIssued(tx, ticket.EventID); err != nil {
			return err
		}
		out, err = loadTicket(tx, ticketId)
		return err
	})
	if err != nil {
		return nil, err
	}
	monitoring.RecordTransition(string(types.TICKET_USED))
	return out, nil
}

// RefundTicket moves pending|valid -> refunded and queues exactly one refund
// instruction for the payment collaborator. Refunding an already-refunded
// ticket is a no-op success (cascades are retried), returning a nil
// instruction so no second refund is ever dispatched.
func RefundTicket(tx *gorm.DB, ticketId uuid.UUID, reason types.RefundReason) (*models.Ticket, *models.RefundInstruction, error) {
	ticket, err := loadTicket(tx, ticketId)
	if err != nil {
		return nil, nil, err
	}
	if ticket.Status == types.TICKET_REFUNDED {
		return ticket, nil, nil
	}
	if ticket.Status.Terminal() {
		return nil, nil, types.ErrInvalidTransition
	}
	res := tx.
		Model(&models.Ticket{}).
		Where("id = ? AND status IN (?)", ticketId, []types.TicketStatus{types.TICKET_PENDING, types.TICKET_VALID}).
		Updates(map[string]any{
			"status":         types.TICKET_REFUNDED,
			"refund_reason":  reason,
			"reserved_until": nil,
		})
	if res.Error != nil {
		return nil, nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil, types.ErrInvalidTransition
	}
	if err := decrementIssued(tx, ticket.EventID); err != nil {
		return nil, nil, err
	}
	instruction := models.RefundInstruction{
		TicketID:   ticket.ID,
		EventID:    ticket.EventID,
		Amount:     ticket.Price,
		Currency:   ticket.Currency,
		Reason:     reason,
		Status:     types.REFUND_QUEUED,
		PaymentRef: ticket.PaymentRef,
	}
	if err := tx.Create(&instruction).Error; err != nil {
		return nil, nil, err
	}
	ticket, err = loadTicket(tx, ticketId)
	if err != nil {
		return nil, nil, err
	}
	monitoring.RecordTransition(string(types.TICKET_REFUNDED))
	return ticket, &instruction, nil
}
