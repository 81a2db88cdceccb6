package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

// TicketStatus is the lifecycle state of a single ticket. The graph has no
// backward edges: pending -> valid -> {used, refunded}, pending -> {released, refunded}.
type TicketStatus string

const (
	TICKET_PENDING  TicketStatus = "pending"
	TICKET_VALID    TicketStatus = "valid"
	TICKET_USED     TicketStatus = "used"
	TICKET_RELEASED TicketStatus = "released"
	TICKET_REFUNDED TicketStatus = "refunded"
)

// Terminal reports whether no further transition is allowed out of s.
func (s TicketStatus) Terminal() bool {
	return s == TICKET_USED || s == TICKET_RELEASED || s == TICKET_REFUNDED
}

// RefundReason distinguishes a buyer-requested refund from one forced by an
// event cancellation, so a ticket's history is explained without joining the event.
type RefundReason string

const (
	REFUND_REQUESTED       RefundReason = "requested"
	REFUND_EVENT_CANCELLED RefundReason = "event_cancelled"
)

type RefundInstructionStatus string

const (
	REFUND_QUEUED     RefundInstructionStatus = "queued"
	REFUND_DISPATCHED RefundInstructionStatus = "dispatched"
	REFUND_FAILED     RefundInstructionStatus = "failed"
)

type CreateEventRequestBody struct {
	Name         string  `json:"name" binding:"required"`
	Description  string  `json:"description,omitempty"`
	Location     string  `json:"location" binding:"required"`
	EventDate    string  `json:"event_date" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	Price        float64 `json:"price" binding:"min=0"`
	Currency     string  `json:"currency" binding:"required"`
	TotalTickets uint    `json:"total_tickets" binding:"required,min=1"`
	ImageKey     *string `json:"image_key,omitempty"`
}

type UpdateEventRequestBody struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Location     *string  `json:"location,omitempty"`
	EventDate    *string  `json:"event_date,omitempty" binding:"omitempty,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	Price        *float64 `json:"price,omitempty" binding:"omitempty,min=0"`
	TotalTickets *uint    `json:"total_tickets,omitempty" binding:"omitempty,min=1"`
	ImageKey     *string  `json:"image_key,omitempty"`
}

type ConfirmPurchaseRequestBody struct {
	PaymentRef string `json:"payment_ref" binding:"required"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type TicketURIParams struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type SearchQueryParams struct {
	Term string `form:"q" binding:"required"`
}

type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ChangeEvent is the payload published on ticket/inventory mutations. A
// subscription layer fans these out; the engine itself never pushes to clients.
type ChangeEvent struct {
	Kind     string    `json:"kind"`
	EventID  uint      `json:"event_id,omitempty"`
	TicketID string    `json:"ticket_id,omitempty"`
	At       time.Time `json:"at"`
}

const (
	CHANGE_TICKET_RESERVED  = "ticket.reserved"
	CHANGE_TICKET_CONFIRMED = "ticket.confirmed"
	CHANGE_TICKET_RELEASED  = "ticket.released"
	CHANGE_TICKET_USED      = "ticket.used"
	CHANGE_TICKET_REFUNDED  = "ticket.refunded"
	CHANGE_EVENT_CANCELLED  = "event.cancelled"
)

type Handler func(payload string)
