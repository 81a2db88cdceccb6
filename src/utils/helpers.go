package utils

import (
	"errors"
	"time"

	"ticketr/src/config"
	"ticketr/src/db"
	awslib "ticketr/src/lib/aws"
	"ticketr/src/models"
	"ticketr/src/types"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func CreateNewEvent(body *types.CreateEventRequestBody, organizerId string) (*models.Event, error) {
	eventDate, err := time.Parse(config.TIME_PARSE_FORMAT, body.EventDate)
	if err != nil {
		return nil, err
	}
	event := models.Event{
		Name:         body.Name,
		Slug:         slug.Make(body.Name),
		Location:     body.Location,
		EventDate:    eventDate,
		Price:        body.Price,
		Currency:     body.Currency,
		TotalTickets: body.TotalTickets,
		OrganizerID:  organizerId,
		ImageKey:     body.ImageKey,
	}
	if body.Description != "" {
		event.Description = &body.Description
	}
	d := db.GetDb()
	if err := d.Create(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEvent applies a partial update. Capacity can never be lowered below
// the already-issued count, and a cancelled event is frozen.
func UpdateEvent(eventId uint, body *types.UpdateEventRequestBody, organizerId string) (*models.Event, error) {
	d := db.GetDb()
	var event models.Event
	if err := d.Where(&models.Event{ID: eventId}).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	if event.OrganizerID != organizerId {
		return nil, types.ErrNotOwner
	}
	if event.IsCancelled {
		return nil, types.ErrEventCancelled
	}
	updates := map[string]any{}
	if body.Name != nil {
		updates["name"] = *body.Name
		updates["slug"] = slug.Make(*body.Name)
	}
	if body.Description != nil {
		updates["description"] = *body.Description
	}
	if body.Location != nil {
		updates["location"] = *body.Location
	}
	if body.EventDate != nil {
		eventDate, err := time.Parse(config.TIME_PARSE_FORMAT, *body.EventDate)
		if err != nil {
			return nil, err
		}
		updates["event_date"] = eventDate
	}
	if body.Price != nil {
		updates["price"] = *body.Price
	}
	if body.TotalTickets != nil {
		if *body.TotalTickets < event.TicketsIssued {
			return nil, types.ErrCapacityExceeded
		}
		updates["total_tickets"] = *body.TotalTickets
	}
	if body.ImageKey != nil {
		updates["image_key"] = *body.ImageKey
	}
	if len(updates) == 0 {
		return &event, nil
	}
	err := d.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.Event{}).
			Where("id = ? AND is_cancelled = ?", eventId, false).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrEventCancelled
		}
		return tx.Where(&models.Event{ID: eventId}).First(&event).Error
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetEvent loads one event with its derived metrics and a presigned image
// URL when an asset key is set.
func GetEvent(eventId uint) (*models.Event, error) {
	d := db.GetDb()
	var event models.Event
	if err := d.Where(&models.Event{ID: eventId}).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	metrics, err := GetEventMetrics(eventId)
	if err != nil {
		return nil, err
	}
	event.Metrics = metrics
	if event.ImageKey != nil {
		event.ImageURL = awslib.PresignAssetURL(*event.ImageKey)
	}
	return &event, nil
}

func ListEvents(limit int) ([]models.Event, error) {
	d := db.GetDb()
	events := []models.Event{}
	if limit <= 0 {
		limit = 100
	}
	err := d.
		Where("is_cancelled = ?", false).
		Where("event_date > ?", time.Now()).
		Order("event_date asc").
		Limit(limit).
		Find(&events).
		Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func GetTicketDetails(ticketId uuid.UUID, userId string) (*models.Ticket, error) {
	d := db.GetDb()
	var ticket models.Ticket
	err := d.
		Preload("Event").
		Where("id = ?", ticketId).
		First(&ticket).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	if ticket.UserID != userId {
		return nil, types.ErrNotOwner
	}
	return &ticket, nil
}

func GetUserTickets(userId string) ([]models.Ticket, error) {
	d := db.GetDb()
	tickets := []models.Ticket{}
	err := d.
		Preload("Event").
		Where(&models.Ticket{UserID: userId}).
		Order("created_at desc").
		Find(&tickets).
		Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// GetSellerEvents lists an organizer's events with the derived metrics each
// one carries on a dashboard.
func GetSellerEvents(organizerId string) ([]models.Event, error) {
	d := db.GetDb()
	events := []models.Event{}
	err := d.
		Where(&models.Event{OrganizerID: organizerId}).
		Order("event_date asc").
		Find(&events).
		Error
	if err != nil {
		return nil, err
	}
	for i := range events {
		metrics, err := GetEventMetrics(events[i].ID)
		if err != nil {
			return nil, err
		}
		events[i].Metrics = metrics
	}
	return events, nil
}
