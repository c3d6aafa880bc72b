package model

import (
	"strings"
	"time"
)

const (
	TotalTables = 30
	MaxGuests   = 20

	DefaultGuestName      = "Guest"
	DefaultSubscriberName = "Newsletter Subscriber"
)

type Customer struct {
	ID               int       `json:"customer_id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Email            string    `json:"email" db:"email"`
	Phone            *string   `json:"phone" db:"phone"`
	NewsletterSignup bool      `json:"newsletter_signup" db:"newsletter_signup"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// CustomerUpdate is the upsert payload keyed by email. DefaultName is
// used only when a new row is inserted with an empty Name; updates of
// an existing row never touch it.
type CustomerUpdate struct {
	Name             string
	Email            string
	Phone            string
	NewsletterSignup bool
	DefaultName      string
}

// Reservation carries the customer columns joined in by the repository,
// matching the wire record shape.
type Reservation struct {
	ID           int       `json:"reservation_id" db:"id"`
	CustomerID   int       `json:"customer_id" db:"customer_id"`
	Timeslot     time.Time `json:"timeslot" db:"timeslot"`
	TableNumber  int       `json:"table_number" db:"table_number"`
	Guests       int       `json:"guests" db:"guests"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	CustomerName string    `json:"customer_name" db:"customer_name"`
	Email        string    `json:"email" db:"email"`
	Phone        *string   `json:"phone" db:"phone"`
}

type CreateReservationRequest struct {
	Name             string `json:"name" validate:"required"`
	Email            string `json:"email" validate:"required"`
	Phone            string `json:"phone"`
	Timeslot         string `json:"timeslot" validate:"required"`
	Guests           int    `json:"guests" validate:"required,min=1,max=20"`
	NewsletterSignup bool   `json:"newsletter_signup"`
}

type CreateReservationResponse struct {
	Message       string `json:"message"`
	ReservationID int    `json:"reservation_id"`
	TableNumber   int    `json:"table_number"`
	Timeslot      string `json:"timeslot"`
	Guests        int    `json:"guests"`
	CustomerName  string `json:"customer_name"`
}

type NewsletterRequest struct {
	Email string `json:"email" validate:"required"`
	Name  string `json:"name"`
}

type NewsletterResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

type AvailabilityResponse struct {
	Timeslot        string `json:"timeslot"`
	TotalTables     int    `json:"total_tables"`
	BookedTables    int    `json:"booked_tables"`
	AvailableTables int    `json:"available_tables"`
	IsAvailable     bool   `json:"is_available"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ValidEmail is the minimal check the booking form has always used:
// an address must contain "@" and ".". Deliberately not RFC validation.
func ValidEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

const naiveLayout = "2006-01-02T15:04:05"

// ParseTimeslot accepts RFC 3339 (a trailing Z included) and the naive
// form without an offset, which is taken as UTC. The result is
// normalized to UTC so a timeslot is a single exact-match key.
func ParseTimeslot(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse(naiveLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

// MergeCustomer applies an update onto an existing row. Name and phone
// are overwritten only when the update carries a non-empty value, and
// the newsletter flag is sticky: it flips false->true and never back.
func MergeCustomer(cur Customer, upd CustomerUpdate) Customer {
	if upd.Name != "" {
		cur.Name = upd.Name
	}
	if upd.Phone != "" {
		phone := upd.Phone
		cur.Phone = &phone
	}
	cur.NewsletterSignup = cur.NewsletterSignup || upd.NewsletterSignup
	return cur
}
