package models

import (
	"ticketr/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefundInstruction is the unit of work handed to the payment collaborator.
// Exactly one instruction exists per refunded ticket; dispatch failures flip
// the status to failed so the retry sweep can pick it up without ever
// touching the ticket's (already terminal) status again.
type RefundInstruction struct {
	ID        uuid.UUID                     `gorm:"primarykey;type:uuid" json:"id"`
	TicketID  uuid.UUID                     `gorm:"type:uuid;uniqueIndex" json:"ticket_id"`
	EventID   uint                          `gorm:"index" json:"event_id"`
	Amount    float64                       `json:"amount"`
	Currency  string                        `json:"currency,omitempty"`
	Reason    types.RefundReason            `json:"reason"`
	Status    types.RefundInstructionStatus `gorm:"default:'queued'" json:"status"`
	// PaymentRef is the original charge reference the refund is issued against.
	PaymentRef *string `json:"-"`
	Attempts   uint    `gorm:"default:0" json:"attempts"`
	LastError  *string `json:"last_error,omitempty"`

	types.Timestamps
}

func (r *RefundInstruction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
