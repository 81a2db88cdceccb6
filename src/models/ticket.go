package models

import (
	"ticketr/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Ticket struct {
	ID      uuid.UUID          `gorm:"primarykey;type:uuid" json:"id"`
	EventID uint               `gorm:"index" json:"event_id"`
	UserID  string             `gorm:"index" json:"user_id"`
	Status  types.TicketStatus `gorm:"default:'pending'" json:"status"`
	// Price and Currency are captured from the event at reservation time and
	// never touched by later event edits.
	Price         float64             `json:"price"`
	Currency      string              `json:"currency,omitempty"`
	RefundReason  *types.RefundReason `json:"refund_reason,omitempty"`
	PaymentRef    *string             `json:"-"`
	PurchasedAt   *time.Time          `json:"purchased_at,omitempty"`
	ReservedUntil *time.Time          `json:"reserved_until,omitempty"`

	Event Event `json:"event,omitempty"`

	types.Timestamps
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
