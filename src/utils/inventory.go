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

// TryReserve is the one place inventory is taken. The capacity check and the
// increment are a single conditional UPDATE, so two buyers racing for the
// last slot cannot both get past it; the pending ticket row is created inside
// the same transaction with the event's price captured as a snapshot.
func TryReserve(tx *gorm.DB, eventId uint, userId string) (*models.Ticket, error) {
	res := tx.
		Model(&models.Event{}).
		Where("id = ? AND is_cancelled = ? AND tickets_issued < total_tickets", eventId, false).
		UpdateColumn("tickets_issued", gorm.Expr("tickets_issued + ?", 1))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var event models.Event
		err := tx.
			Select("id", "is_cancelled").
			Where(&models.Event{ID: eventId}).
			First(&event).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, types.ErrNotFound
			}
			return nil, err
		}
		if event.IsCancelled {
			return nil, types.ErrEventCancelled
		}
		return nil, types.ErrCapacityExceeded
	}

	var event models.Event
	if err := tx.Where(&models.Event{ID: eventId}).First(&event).Error; err != nil {
		return nil, err
	}
	reservedUntil := time.Now().Add(config.ReservationTTL())
	ticket := models.Ticket{
		EventID:       eventId,
		UserID:        userId,
		Status:        types.TICKET_PENDING,
		Price:         event.Price,
		Currency:      event.Currency,
		ReservedUntil: &reservedUntil,
	}
	if err := tx.Create(&ticket).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Release reverts a pending reservation, freeing its slot. Idempotent: a
// ticket that already left pending is untouched and no slot is freed twice.
func Release(tx *gorm.DB, ticketId uuid.UUID) (bool, error) {
	var ticket models.Ticket
	if err := tx.Where("id = ?", ticketId).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, types.ErrNotFound
		}
		return false, err
	}
	res := tx.
		Model(&models.Ticket{}).
		Where("id = ? AND status = ?", ticketId, types.TICKET_PENDING).
		Updates(map[string]any{
			"status":         types.TICKET_RELEASED,
			"reserved_until": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	if err := decrementIssued(tx, ticket.EventID); err != nil {
		return false, err
	}
	monitoring.RecordTransition(string(types.TICKET_RELEASED))
	return true, nil
}

// decrementIssued runs inside the same transaction as the ticket transition
// it accounts for; that keeps the cached counter in lockstep with the rows.
func decrementIssued(tx *gorm.DB, eventId uint) error {
	return tx.
		Model(&models.Event{}).
		Where("id = ? AND tickets_issued > 0", eventId).
		UpdateColumn("tickets_issued", gorm.Expr("tickets_issued - ?", 1)).
		Error
}

// ReconcileIssued recomputes the issued count from ticket rows. The rows are
// ground truth; a mismatch means a mutation path skipped the counter and is
// treated as an invariant violation by tests.
func ReconcileIssued(eventId uint) (stored uint, actual int64, err error) {
	d := db.GetDb()
	var event models.Event
	if err := d.Select("id", "tickets_issued").Where(&models.Event{ID: eventId}).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, types.ErrNotFound
		}
		return 0, 0, err
	}
	var count int64
	err = d.
		Model(&models.Ticket{}).
		Where("event_id = ? AND status IN (?)", eventId, []types.TicketStatus{types.TICKET_PENDING, types.TICKET_VALID}).
		Count(&count).
		Error
	if err != nil {
		return 0, 0, err
	}
	return event.TicketsIssued, count, nil
}
