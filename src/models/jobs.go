package models

import (
	"ticketr/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobTask persists a scheduled one-time action (reservation expiry) so that
// pending jobs survive a restart and can be re-queued at boot.
type JobTask struct {
	ID       uuid.UUID  `gorm:"primarykey;type:uuid" json:"id"`
	Name     string     `json:"name,omitempty"`
	JobType  string     `json:"job_type,omitempty"`
	RunsAt   time.Time  `json:"runs_at"`
	Status   string     `gorm:"default:'pending'" json:"status,omitempty"`
	TicketID *uuid.UUID `gorm:"type:uuid" json:"ticket_id,omitempty"`
	EventID  *uint      `json:"event_id,omitempty"`

	types.Timestamps
}

func (j *JobTask) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
