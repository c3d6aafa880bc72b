package errs

import (
	"errors"
)

var (
	ErrNotFound     = errors.New("reservation not found")
	ErrInvalidEmail = errors.New("invalid email format")
	ErrGuestCount   = errors.New("number of guests must be between 1 and 20")
	ErrBadTimeslot  = errors.New("invalid timeslot format")
	ErrPastTimeslot = errors.New("reservation must be in the future")
	ErrFullyBooked  = errors.New("all tables are booked for this time slot")
	ErrTableTaken   = errors.New("table already taken for this time slot")
)
