package utils

import (
	"fmt"
	"strings"
	"ticketr/src/db"
	"ticketr/src/models"
)

// SearchEvents does a case-insensitive substring match across name,
// description and location, soonest events first. Cancelled events are
// included; the caller sees their is_cancelled flag.
func SearchEvents(term string, limit int) ([]models.Event, error) {
	d := db.GetDb()
	events := []models.Event{}
	if limit <= 0 {
		limit = 50
	}
	pattern := fmt.Sprintf("%%%s%%", strings.ToLower(term))
	err := d.
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?", pattern, pattern, pattern).
		Order("event_date asc").
		Limit(limit).
		Find(&events).
		Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
