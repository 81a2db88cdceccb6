package models

import "ticketr/src/types"

// User mirrors the identity provider's record. The engine itself only ever
// sees the opaque ID string; this row exists for display fields on ticket views.
type User struct {
	ID    string `gorm:"primarykey" json:"id"`
	Email string `gorm:"index" json:"email,omitempty"`
	Name  string `json:"name,omitempty"`

	types.Timestamps
}
