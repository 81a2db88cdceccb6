package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// ReservationTTL is how long a pending reservation may sit unpaid before it
// auto-releases its inventory slot.
func ReservationTTL() time.Duration {
	minutes, err := strconv.Atoi(os.Getenv("RESERVATION_TTL_MINUTES"))
	if err != nil || minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

// PaymentTimeout bounds every call to the payment collaborator.
func PaymentTimeout() time.Duration {
	seconds, err := strconv.Atoi(os.Getenv("PAYMENT_TIMEOUT_SECONDS"))
	if err != nil || seconds <= 0 {
		seconds = 10
	}
	return time.Duration(seconds) * time.Second
}

// AllowEarlyAdmission lets tickets be scanned before the event date.
func AllowEarlyAdmission() bool {
	allow, err := strconv.ParseBool(os.Getenv("ADMIT_BEFORE_EVENT_DATE"))
	if err != nil {
		return false
	}
	return allow
}

// RefundRetryInterval is the period of the failed-refund sweep.
func RefundRetryInterval() time.Duration {
	minutes, err := strconv.Atoi(os.Getenv("REFUND_RETRY_MINUTES"))
	if err != nil || minutes <= 0 {
		minutes = 5
	}
	return time.Duration(minutes) * time.Minute
}
