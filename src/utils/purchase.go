package utils

import (
	"context"
	"errors"
	"fmt"
	"log"
	"ticketr/src/config"
	"ticketr/src/db"
	"ticketr/src/lib"
	"ticketr/src/models"
	"ticketr/src/monitoring"
	"ticketr/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReserveTicket is a buyer's purchase attempt: take a slot from the ledger,
// create the pending ticket, schedule its expiry. Sold out terminates the
// attempt with no ticket row.
func ReserveTicket(ctx context.Context, eventId uint, userId string) (*models.Ticket, error) {
	d := db.GetDb()
	var ticket *models.Ticket
	err := d.Transaction(func(tx *gorm.DB) error {
		t, err := TryReserve(tx, eventId, userId)
		if err != nil {
			return err
		}
		ticket = t
		return nil
	})
	if err != nil {
		if errors.Is(err, types.ErrCapacityExceeded) {
			monitoring.RecordReservation("sold_out")
		} else {
			monitoring.RecordReservation("error")
		}
		return nil, err
	}
	monitoring.RecordReservation("reserved")

	scheduleExpiry(ticket)
	go lib.PublishChangeEvent(types.ChangeEvent{
		Kind:     types.CHANGE_TICKET_RESERVED,
		EventID:  eventId,
		TicketID: ticket.ID.String(),
		At:       time.Now(),
	})
	return ticket, nil
}

// scheduleExpiry persists the expiry as a JobTask so boot can recover it,
// then queues the in-process one-time job.
func scheduleExpiry(ticket *models.Ticket) {
	if ticket.ReservedUntil == nil {
		return
	}
	runsAt := *ticket.ReservedUntil
	d := db.GetDb()
	ticketId := ticket.ID
	eventId := ticket.EventID
	jobTask := models.JobTask{
		Name:     fmt.Sprintf("Ticket_%s_Expiry", ticketId.String()),
		JobType:  "ReservationExpiry",
		RunsAt:   runsAt,
		TicketID: &ticketId,
		EventID:  &eventId,
	}
	if err := d.Create(&jobTask).Error; err != nil {
		log.Printf("Error creating expiry job for Ticket [%s]: %s\n", ticketId.String(), err.Error())
		return
	}
	jobId := jobTask.ID
	_, err := lib.CreateOneTimeJob(runsAt, func() {
		if err := ReleaseExpiredTicket(ticketId); err != nil {
			log.Printf("Error releasing expired Ticket [%s]: %s\n", ticketId.String(), err.Error())
			return
		}
		markJobDone(jobId)
	})
	if err != nil {
		log.Printf("Error scheduling expiry job for Ticket [%s]: %s\n", ticketId.String(), err.Error())
	}
}

func markJobDone(jobId uuid.UUID) {
	d := db.GetDb()
	err := d.
		Model(&models.JobTask{}).
		Where("id = ? AND status = ?", jobId, "pending").
		Update("status", "done").
		Error
	if err != nil {
		log.Printf("Error updating job status [%s]: %s\n", jobId.String(), err.Error())
	}
}

// ReleaseExpiredTicket frees the slot of a reservation whose payment never
// arrived. Idempotent, and a no-op while the reservation is still inside its
// window or has already left pending.
func ReleaseExpiredTicket(ticketId uuid.UUID) error {
	d := db.GetDb()
	released := false
	var eventId uint
	err := d.Transaction(func(tx *gorm.DB) error {
		ticket, err := loadTicket(tx, ticketId)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				return nil
			}
			return err
		}
		eventId = ticket.EventID
		if ticket.Status != types.TICKET_PENDING {
			return nil
		}
		if ticket.ReservedUntil != nil && time.Now().Before(*ticket.ReservedUntil) {
			return nil
		}
		released, err = Release(tx, ticketId)
		return err
	})
	if err != nil {
		return err
	}
	if released {
		monitoring.RecordReservation("expired")
		go lib.PublishChangeEvent(types.ChangeEvent{
			Kind:     types.CHANGE_TICKET_RELEASED,
			EventID:  eventId,
			TicketID: ticketId.String(),
			At:       time.Now(),
		})
	}
	return nil
}

// ConfirmPurchase verifies the payment reference with the payment
// collaborator and finalizes the ticket. A failed payment releases the
// reservation; a ticket that is not pending is left untouched.
func ConfirmPurchase(ctx context.Context, ticketId uuid.UUID, paymentRef string) (*models.Ticket, error) {
	d := db.GetDb()

	var ticket models.Ticket
	if err := d.Where("id = ?", ticketId).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}

	pctx, cancel := context.WithTimeout(ctx, config.PaymentTimeout())
	defer cancel()
	if err := lib.GetPaymentProcessor().VerifyPayment(pctx, paymentRef); err != nil {
		log.Printf("Payment verification failed for Ticket [%s]: %s\n", ticketId.String(), err.Error())
		if ticket.Status == types.TICKET_PENDING {
			rerr := d.Transaction(func(tx *gorm.DB) error {
				_, err := Release(tx, ticketId)
				return err
			})
			if rerr != nil {
				log.Printf("Error releasing Ticket [%s] after payment failure: %s\n", ticketId.String(), rerr.Error())
			}
		}
		monitoring.RecordReservation("payment_failed")
		return nil, types.ErrPaymentFailed
	}

	var confirmed *models.Ticket
	err := d.Transaction(func(tx *gorm.DB) error {
		t, err := FinalizeTicket(tx, ticketId, paymentRef)
		if err != nil {
			return err
		}
		confirmed = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	monitoring.RecordReservation("confirmed")

	lib.CachePaymentRef(paymentRef, ticketId.String(), 24*time.Hour)
	go lib.PublishChangeEvent(types.ChangeEvent{
		Kind:     types.CHANGE_TICKET_CONFIRMED,
		EventID:  confirmed.EventID,
		TicketID: ticketId.String(),
		At:       time.Now(),
	})
	return confirmed, nil
}
