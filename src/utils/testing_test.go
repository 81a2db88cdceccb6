package utils

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"ticketr/src/db"
	"ticketr/src/lib"
	"ticketr/src/models"
	"ticketr/src/types"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL", filepath.Join(t.TempDir(), "test.db"))
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, d.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Ticket{},
		&models.RefundInstruction{},
		&models.JobTask{},
	))
	db.NewDB(d)
	return d
}

func makeEvent(t *testing.T, d *gorm.DB, capacity uint, organizerId string, eventDate time.Time) *models.Event {
	t.Helper()
	event := models.Event{
		Name:         "Test Gig",
		Location:     "Warehouse 9",
		EventDate:    eventDate,
		Price:        25.50,
		Currency:     "usd",
		TotalTickets: capacity,
		OrganizerID:  organizerId,
	}
	require.NoError(t, d.Create(&event).Error)
	return &event
}

type fakeProcessor struct {
	verifyErr error
	refundErr error
	verified  []string
	refunded  []string
	refundSeq int
}

func (p *fakeProcessor) VerifyPayment(ctx context.Context, paymentRef string) error {
	if p.verifyErr != nil {
		return p.verifyErr
	}
	p.verified = append(p.verified, paymentRef)
	return nil
}

func (p *fakeProcessor) Refund(ctx context.Context, paymentRef string, amount float64, currency string) (string, error) {
	if p.refundErr != nil {
		return "", p.refundErr
	}
	p.refunded = append(p.refunded, paymentRef)
	p.refundSeq++
	return fmt.Sprintf("re_%d", p.refundSeq), nil
}

func usePaymentProcessor(t *testing.T, p lib.PaymentProcessor) {
	t.Helper()
	lib.NewPaymentProcessor(p)
	t.Cleanup(func() { lib.NewPaymentProcessor(nil) })
}

var errPaymentDeclined = errors.New("card declined")

func reserveValid(t *testing.T, eventId uint, userId string) *models.Ticket {
	t.Helper()
	ticket, err := ReserveTicket(context.Background(), eventId, userId)
	require.NoError(t, err)
	require.Equal(t, types.TICKET_PENDING, ticket.Status)
	return ticket
}

func confirmValid(t *testing.T, ticket *models.Ticket, paymentRef string) *models.Ticket {
	t.Helper()
	usePaymentProcessor(t, &fakeProcessor{})
	confirmed, err := ConfirmPurchase(context.Background(), ticket.ID, paymentRef)
	require.NoError(t, err)
	require.Equal(t, types.TICKET_VALID, confirmed.Status)
	return confirmed
}
