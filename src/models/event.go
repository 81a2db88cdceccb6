package models

import (
	"ticketr/src/types"
	"time"
)

type Event struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Name         string    `json:"name"`
	Slug         string    `gorm:"index" json:"slug,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Location     string    `json:"location,omitempty"`
	EventDate    time.Time `json:"event_date"`
	Price        float64   `json:"price"`
	Currency     string    `json:"currency,omitempty"`
	TotalTickets uint      `json:"total_tickets"`
	// TicketsIssued caches count(tickets where status in {pending, valid}).
	// It is mutated only inside the same transaction as the ticket row it
	// accounts for; ticket rows stay the ground truth (see utils.ReconcileIssued).
	TicketsIssued uint    `gorm:"default:0" json:"tickets_issued"`
	IsCancelled   bool    `gorm:"default:false" json:"is_cancelled"`
	OrganizerID   string  `gorm:"index" json:"organizer_id,omitempty"`
	ImageKey      *string `json:"-"`

	Tickets []Ticket `json:"tickets,omitempty"`

	Metrics  *EventMetrics `gorm:"-" json:"metrics,omitempty"`
	ImageURL *string       `gorm:"-" json:"image_url,omitempty"`

	types.Timestamps
}

// EventMetrics is derived from ticket rows on every read. Never persisted.
type EventMetrics struct {
	EventID         uint    `json:"event_id,omitempty"`
	SoldTickets     uint    `json:"sold_tickets"`
	RefundedTickets uint    `json:"refunded_tickets"`
	Revenue         float64 `json:"revenue"`
	RefundedAmount  float64 `json:"refunded_amount"`
}
