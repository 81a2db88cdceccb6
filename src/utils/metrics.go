package utils

import (
	"ticketr/src/db"
	"ticketr/src/models"
	"ticketr/src/types"
)

type statusAggregate struct {
	Status types.TicketStatus
	Cnt    int64
	Total  float64
}

// GetEventMetrics folds counts and sums over an event's ticket rows. Pure
// read, recomputed on every call; nothing here is cached, so the result
// always reflects the lifecycle store at read time.
func GetEventMetrics(eventId uint) (*models.EventMetrics, error) {
	d := db.GetDb()
	var rows []statusAggregate
	err := d.
		Model(&models.Ticket{}).
		Where("event_id = ?", eventId).
		Select("status, COUNT(id) AS cnt, COALESCE(SUM(price), 0) AS total").
		Group("status").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	metrics := models.EventMetrics{EventID: eventId}
	for _, row := range rows {
		switch row.Status {
		case types.TICKET_VALID, types.TICKET_USED:
			metrics.SoldTickets += uint(row.Cnt)
			metrics.Revenue += row.Total
		case types.TICKET_REFUNDED:
			metrics.RefundedTickets += uint(row.Cnt)
			metrics.RefundedAmount += row.Total
		}
	}
	return &metrics, nil
}
