package handler

import (
	"context"

	"github.com/cafe-fausse/booking-service/booking/internal/model"
	"github.com/cafe-fausse/booking-service/booking/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookingService interface {
	SubscribeNewsletter(ctx context.Context, req model.NewsletterRequest) (model.Customer, error)
	CreateReservation(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error)
	CheckAvailability(ctx context.Context, timeslot string) (model.AvailabilityResponse, error)
	ListReservations(ctx context.Context) ([]model.Reservation, error)
	GetReservation(ctx context.Context, id int) (model.Reservation, error)
}

var _ BookingService = (*service.Service)(nil)
