package utils

import (
	"errors"
	"log"
	"ticketr/src/db"
	"ticketr/src/lib"
	"ticketr/src/models"
	"ticketr/src/monitoring"
	"ticketr/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CancelEvent runs the organizer's cancellation cascade. Setting the
// cancellation flag is the first committed step and the point of no return;
// ticket refunds then proceed ticket-by-ticket, each in its own transaction,
// so a large event never holds the event row locked. Re-invoking on an
// already-cancelled event is a no-op success that only retries tickets still
// in a refundable state.
func CancelEvent(eventId uint, organizerId string) error {
	d := db.GetDb()
	var event models.Event
	if err := d.Where(&models.Event{ID: eventId}).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.ErrNotFound
		}
		return err
	}
	if event.OrganizerID != organizerId {
		return types.ErrNotOwner
	}

	res := d.
		Model(&models.Event{}).
		Where("id = ? AND is_cancelled = ?", eventId, false).
		Update("is_cancelled", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		monitoring.RecordEventCancellation()
		go lib.PublishChangeEvent(types.ChangeEvent{
			Kind:    types.CHANGE_EVENT_CANCELLED,
			EventID: eventId,
			At:      time.Now(),
		})
	}

	// Flag committed (or already set by an earlier run). Everything from
	// here is refund work that must not re-expose capacity on failure.
	return refundEventTickets(eventId)
}

func refundEventTickets(eventId uint) error {
	d := db.GetDb()
	var ticketIds []uuid.UUID
	err := d.
		Model(&models.Ticket{}).
		Where("event_id = ? AND status IN (?)", eventId, []types.TicketStatus{types.TICKET_PENDING, types.TICKET_VALID}).
		Pluck("id", &ticketIds).
		Error
	if err != nil {
		return err
	}

	for _, ticketId := range ticketIds {
		var instruction *models.RefundInstruction
		err := d.Transaction(func(tx *gorm.DB) error {
			_, inst, err := RefundTicket(tx, ticketId, types.REFUND_EVENT_CANCELLED)
			if err != nil {
				return err
			}
			instruction = inst
			return nil
		})
		if err != nil {
			// A ticket raced into a terminal state between the scan and
			// the transition; it no longer needs refunding.
			if errors.Is(err, types.ErrInvalidTransition) || errors.Is(err, types.ErrNotFound) {
				continue
			}
			return err
		}
		if instruction != nil {
			DispatchRefund(instruction)
			go lib.PublishChangeEvent(types.ChangeEvent{
				Kind:     types.CHANGE_TICKET_REFUNDED,
				EventID:  eventId,
				TicketID: ticketId.String(),
				At:       time.Now(),
			})
		}
	}
	return nil
}

// DispatchRefund hands a queued instruction to the refund worker topic. A
// broker failure marks the instruction failed for the retry sweep; the
// ticket's status is never rolled back.
func DispatchRefund(instruction *models.RefundInstruction) {
	payload := map[string]any{
		"instruction_id": instruction.ID.String(),
		"ticket_id":      instruction.TicketID.String(),
		"amount":         instruction.Amount,
		"currency":       instruction.Currency,
	}
	if err := lib.KafkaProduceMessage("RefundInstructionsProducer", lib.TopicRefundInstructions, payload); err != nil {
		log.Printf("Error dispatching refund instruction [%s]: %s\n", instruction.ID.String(), err.Error())
		MarkRefundFailed(instruction.ID, err)
		monitoring.RecordRefundDispatch("failed")
		return
	}
	monitoring.RecordRefundDispatch("queued")
}

// MarkRefundFailed flags an instruction for the retry sweep.
func MarkRefundFailed(instructionId uuid.UUID, cause error) {
	d := db.GetDb()
	msg := cause.Error()
	err := d.
		Model(&models.RefundInstruction{}).
		Where("id = ?", instructionId).
		Updates(map[string]any{
			"status":     types.REFUND_FAILED,
			"attempts":   gorm.Expr("attempts + ?", 1),
			"last_error": msg,
		}).
		Error
	if err != nil {
		log.Printf("Error updating refund instruction [%s]: %s\n", instructionId.String(), err.Error())
	}
}

// RetryEventRefunds re-dispatches an event's refund instructions that have
// not completed. Tickets already refunded are untouched: retry works off
// instructions, and an instruction in dispatched state is final.
func RetryEventRefunds(eventId uint) (int, error) {
	d := db.GetDb()
	var instructions []models.RefundInstruction
	err := d.
		Where("event_id = ? AND status IN (?)", eventId, []types.RefundInstructionStatus{types.REFUND_FAILED, types.REFUND_QUEUED}).
		Find(&instructions).
		Error
	if err != nil {
		return 0, err
	}
	for i := range instructions {
		DispatchRefund(&instructions[i])
	}
	return len(instructions), nil
}

// RetryFailedRefunds is the periodic sweep over all events.
func RetryFailedRefunds() {
	d := db.GetDb()
	var instructions []models.RefundInstruction
	err := d.
		Where(&models.RefundInstruction{Status: types.REFUND_FAILED}).
		Order("updated_at asc").
		Limit(100).
		Find(&instructions).
		Error
	if err != nil {
		log.Printf("Error loading failed refund instructions: %s\n", err.Error())
		return
	}
	if len(instructions) == 0 {
		return
	}
	log.Printf("Retrying %d failed refund instructions\n", len(instructions))
	for i := range instructions {
		DispatchRefund(&instructions[i])
	}
}
