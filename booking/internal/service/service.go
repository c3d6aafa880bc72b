package service

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/cafe-fausse/booking-service/booking/internal/errs"
	"github.com/cafe-fausse/booking-service/booking/internal/model"
	"github.com/cafe-fausse/booking-service/booking/internal/repository"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// allocAttempts bounds the retry loop for races lost on the
// (timeslot, table_number) unique constraint.
const allocAttempts = 3

type Service struct {
	log  *zap.Logger
	repo repository.Repository
}

func NewService(repo repository.Repository, log *zap.Logger) *Service {
	return &Service{
		log:  log,
		repo: repo,
	}
}

// SubscribeNewsletter upserts a customer by email with the newsletter
// flag forced on.
func (s *Service) SubscribeNewsletter(ctx context.Context, req model.NewsletterRequest) (model.Customer, error) {
	email := strings.TrimSpace(req.Email)
	if !model.ValidEmail(email) {
		return model.Customer{}, errs.ErrInvalidEmail
	}
	return s.repo.UpsertCustomer(ctx, model.CustomerUpdate{
		Name:             strings.TrimSpace(req.Name),
		Email:            email,
		NewsletterSignup: true,
		DefaultName:      model.DefaultSubscriberName,
	})
}

// CreateReservation validates the request, then allocates one of the 30
// tables for the exact timeslot: count check, uniform random pick from
// the free set, transactional upsert+insert. A pick lost to a
// concurrent request is retried against a fresh read of the free set.
func (s *Service) CreateReservation(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error) {
	email := strings.TrimSpace(req.Email)
	if !model.ValidEmail(email) {
		return model.Reservation{}, errs.ErrInvalidEmail
	}
	if req.Guests < 1 || req.Guests > model.MaxGuests {
		return model.Reservation{}, errs.ErrGuestCount
	}
	timeslot, err := model.ParseTimeslot(req.Timeslot)
	if err != nil {
		return model.Reservation{}, errs.ErrBadTimeslot
	}
	if timeslot.Before(time.Now()) {
		return model.Reservation{}, errs.ErrPastTimeslot
	}

	upd := model.CustomerUpdate{
		Name:             strings.TrimSpace(req.Name),
		Email:            email,
		Phone:            strings.TrimSpace(req.Phone),
		NewsletterSignup: req.NewsletterSignup,
		DefaultName:      model.DefaultGuestName,
	}

	for attempt := 0; attempt < allocAttempts; attempt++ {
		count, err := s.repo.CountByTimeslot(ctx, timeslot)
		if err != nil {
			return model.Reservation{}, err
		}
		if count >= model.TotalTables {
			return model.Reservation{}, errs.ErrFullyBooked
		}

		used, err := s.repo.UsedTables(ctx, timeslot)
		if err != nil {
			return model.Reservation{}, err
		}
		free := freeTables(used)
		if len(free) == 0 {
			return model.Reservation{}, errs.ErrFullyBooked
		}
		tableNumber := free[rand.Intn(len(free))] //nolint:gosec

		res, err := s.repo.CreateReservation(ctx, upd, timeslot, tableNumber, req.Guests)
		if errors.Is(err, errs.ErrTableTaken) {
			s.log.Warn("table lost to concurrent booking, retrying",
				zap.Int("table", tableNumber),
				zap.Time("timeslot", timeslot),
				zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return model.Reservation{}, err
		}
		return res, nil
	}
	return model.Reservation{}, errs.ErrTableTaken
}

// CheckAvailability reports the booked/free table counts for the exact
// timeslot. Read-only.
func (s *Service) CheckAvailability(ctx context.Context, timeslot string) (model.AvailabilityResponse, error) {
	ts, err := model.ParseTimeslot(timeslot)
	if err != nil {
		return model.AvailabilityResponse{}, errs.ErrBadTimeslot
	}
	booked, err := s.repo.CountByTimeslot(ctx, ts)
	if err != nil {
		return model.AvailabilityResponse{}, err
	}
	return model.AvailabilityResponse{
		Timeslot:        timeslot,
		TotalTables:     model.TotalTables,
		BookedTables:    booked,
		AvailableTables: model.TotalTables - booked,
		IsAvailable:     booked < model.TotalTables,
	}, nil
}

func (s *Service) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	return s.repo.ListReservations(ctx)
}

func (s *Service) GetReservation(ctx context.Context, id int) (model.Reservation, error) {
	return s.repo.GetReservation(ctx, id)
}

func freeTables(used []int) []int {
	taken := make(map[int]struct{}, len(used))
	for _, t := range used {
		taken[t] = struct{}{}
	}
	free := make([]int, 0, model.TotalTables)
	for t := 1; t <= model.TotalTables; t++ {
		if _, ok := taken[t]; !ok {
			free = append(free, t)
		}
	}
	return free
}
