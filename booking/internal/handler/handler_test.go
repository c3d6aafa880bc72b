package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cafe-fausse/booking-service/booking/internal/errs"
	"github.com/cafe-fausse/booking-service/booking/internal/handler"
	"github.com/cafe-fausse/booking-service/booking/internal/model"
	"github.com/cafe-fausse/booking-service/pkg/validate"
	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	service_mocks "github.com/cafe-fausse/booking-service/booking/internal/handler/mocks"
)

func newEcho(t *testing.T) (*echo.Echo, *service_mocks.MockBookingService) {
	t.Helper()
	c := gomock.NewController(t)
	t.Cleanup(c.Finish)
	svc := service_mocks.NewMockBookingService(c)
	log := zap.NewExample().Named("test")
	h := handler.New(svc, log)

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.GET("/health", h.Health)
	e.POST("/newsletter/signup", h.NewsletterSignup)
	e.POST("/reservations", h.CreateReservation)
	e.GET("/reservations", h.ListReservations)
	e.GET("/reservations/availability", h.CheckAvailability)
	e.GET("/reservations/:id", h.GetReservation)
	return e, svc
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, rd)
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	return w
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()
	e, _ := newEcho(t)

	w := doJSON(e, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"status":"ok","message":"Backend is running"}`, strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_CreateReservation(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
		bodyContains string
	}
	type mockBehavior func(r *service_mocks.MockBookingService)

	slot := "2026-10-01T19:00:00Z"

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: fmt.Sprintf(`{"name":"John Doe","email":"john@x.com","timeslot":"%s","guests":4}`, slot),
			mockBehavior: func(r *service_mocks.MockBookingService) {
				r.EXPECT().
					CreateReservation(context.Background(), model.CreateReservationRequest{
						Name:     "John Doe",
						Email:    "john@x.com",
						Timeslot: slot,
						Guests:   4,
					}).
					Return(model.Reservation{
						ID:           7,
						CustomerID:   1,
						TableNumber:  12,
						Guests:       4,
						CustomerName: "John Doe",
						Email:        "john@x.com",
					}, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: fmt.Sprintf(`{"message":"Reservation confirmed successfully!","reservation_id":7,"table_number":12,"timeslot":"%s","guests":4,"customer_name":"John Doe"}`, slot),
			},
		},
		{
			name:         "err. missing name",
			body:         fmt.Sprintf(`{"email":"john@x.com","timeslot":"%s","guests":4}`, slot),
			mockBehavior: func(r *service_mocks.MockBookingService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				bodyContains: "'required' tag",
			},
		},
		{
			name:         "err. guests out of range",
			body:         fmt.Sprintf(`{"name":"John Doe","email":"john@x.com","timeslot":"%s","guests":25}`, slot),
			mockBehavior: func(r *service_mocks.MockBookingService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				bodyContains: "'max' tag",
			},
		},
		{
			name: "err. past timeslot",
			body: `{"name":"John Doe","email":"john@x.com","timeslot":"2020-01-01T19:00:00Z","guests":4}`,
			mockBehavior: func(r *service_mocks.MockBookingService) {
				r.EXPECT().
					CreateReservation(context.Background(), gomock.Any()).
					Return(model.Reservation{}, errs.ErrPastTimeslot)
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"reservation must be in the future"}`,
			},
		},
		{
			name: "err. fully booked",
			body: fmt.Sprintf(`{"name":"John Doe","email":"john@x.com","timeslot":"%s","guests":4}`, slot),
			mockBehavior: func(r *service_mocks.MockBookingService) {
				r.EXPECT().
					CreateReservation(context.Background(), gomock.Any()).
					Return(model.Reservation{}, errs.ErrFullyBooked)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"all tables are booked for this time slot"}`,
			},
		},
		{
			name: "err. lost race surfaces as conflict",
			body: fmt.Sprintf(`{"name":"John Doe","email":"john@x.com","timeslot":"%s","guests":4}`, slot),
			mockBehavior: func(r *service_mocks.MockBookingService) {
				r.EXPECT().
					CreateReservation(context.Background(), gomock.Any()).
					Return(model.Reservation{}, errs.ErrTableTaken)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"all tables are booked for this time slot"}`,
			},
		},
		{
			name: "err. internal",
			body: fmt.Sprintf(`{"name":"John Doe","email":"john@x.com","timeslot":"%s","guests":4}`, slot),
			mockBehavior: func(r *service_mocks.MockBookingService) {
				r.EXPECT().
					CreateReservation(context.Background(), gomock.Any()).
					Return(model.Reservation{}, errors.New("db internal"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"internal server error"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newEcho(t)
			tt.mockBehavior(svc)

			w := doJSON(e, http.MethodPost, "/reservations", tt.body)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
			if tt.response.bodyContains != "" {
				require.Contains(t, w.Body.String(), tt.response.bodyContains)
			}
		})
	}
}

func TestHandler_NewsletterSignup(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
		bodyContains string
	}
	type mockBehavior func(r *service_mocks.MockBookingService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"email":"jane@x.com","name":"Jane"}`,
			mockBehavior: func(r *service_mocks.MockBookingService) {
				r.EXPECT().
					SubscribeNewsletter(context.Background(), model.NewsletterRequest{Email: "jane@x.com", Name: "Jane"}).
					Return(model.Customer{ID: 2, Name: "Jane", Email: "jane@x.com", NewsletterSignup: true}, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"message":"Successfully subscribed to newsletter!","email":"jane@x.com"}`,
			},
		},
		{
			name:         "err. email required",
			body:         `{"name":"Jane"}`,
			mockBehavior: func(r *service_mocks.MockBookingService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				bodyContains: "'required' tag",
			},
		},
		{
			name: "err. invalid email",
			body: `{"email":"jane-at-x"}`,
			mockBehavior: func(r *service_mocks.MockBookingService) {
				r.EXPECT().
					SubscribeNewsletter(context.Background(), model.NewsletterRequest{Email: "jane-at-x"}).
					Return(model.Customer{}, errs.ErrInvalidEmail)
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"invalid email format"}`,
			},
		},
		{
			name: "err. storage failure reported as signup failure",
			body: `{"email":"jane@x.com"}`,
			mockBehavior: func(r *service_mocks.MockBookingService) {
				r.EXPECT().
					SubscribeNewsletter(context.Background(), model.NewsletterRequest{Email: "jane@x.com"}).
					Return(model.Customer{}, errors.New("db internal"))
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"failed to subscribe, please try again"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newEcho(t)
			tt.mockBehavior(svc)

			w := doJSON(e, http.MethodPost, "/newsletter/signup", tt.body)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
			if tt.response.bodyContains != "" {
				require.Contains(t, w.Body.String(), tt.response.bodyContains)
			}
		})
	}
}

func TestHandler_ListReservations(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	slot := time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC)

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		e, svc := newEcho(t)
		svc.EXPECT().
			ListReservations(context.Background()).
			Return([]model.Reservation{
				{
					ID:           7,
					CustomerID:   1,
					Timeslot:     slot,
					TableNumber:  12,
					Guests:       4,
					CreatedAt:    created,
					CustomerName: "John Doe",
					Email:        "john@x.com",
				},
			}, nil)

		w := doJSON(e, http.MethodGet, "/reservations", "")

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t,
			`[{"reservation_id":7,"customer_id":1,"timeslot":"2026-10-01T19:00:00Z","table_number":12,"guests":4,"created_at":"2026-09-01T12:00:00Z","customer_name":"John Doe","email":"john@x.com","phone":null}]`,
			strings.Trim(w.Body.String(), "\n"))
	})

	t.Run("empty list is an array", func(t *testing.T) {
		t.Parallel()
		e, svc := newEcho(t)
		svc.EXPECT().ListReservations(context.Background()).Return(nil, nil)

		w := doJSON(e, http.MethodGet, "/reservations", "")

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, `[]`, strings.Trim(w.Body.String(), "\n"))
	})

	t.Run("err. internal", func(t *testing.T) {
		t.Parallel()
		e, svc := newEcho(t)
		svc.EXPECT().ListReservations(context.Background()).Return(nil, errors.New("db internal"))

		w := doJSON(e, http.MethodGet, "/reservations", "")

		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Equal(t, `{"message":"internal server error"}`, strings.Trim(w.Body.String(), "\n"))
	})
}

func TestHandler_GetReservation(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		e, svc := newEcho(t)
		svc.EXPECT().
			GetReservation(context.Background(), 7).
			Return(model.Reservation{
				ID:           7,
				CustomerID:   1,
				Timeslot:     time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC),
				TableNumber:  12,
				Guests:       4,
				CreatedAt:    time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
				CustomerName: "John Doe",
				Email:        "john@x.com",
			}, nil)

		w := doJSON(e, http.MethodGet, "/reservations/7", "")

		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"reservation_id":7`)
		require.Contains(t, w.Body.String(), `"table_number":12`)
	})

	t.Run("err. not found", func(t *testing.T) {
		t.Parallel()
		e, svc := newEcho(t)
		svc.EXPECT().
			GetReservation(context.Background(), 99).
			Return(model.Reservation{}, errs.ErrNotFound)

		w := doJSON(e, http.MethodGet, "/reservations/99", "")

		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, `{"message":"reservation not found"}`, strings.Trim(w.Body.String(), "\n"))
	})

	t.Run("err. non-integer id", func(t *testing.T) {
		t.Parallel()
		e, _ := newEcho(t)

		w := doJSON(e, http.MethodGet, "/reservations/abc", "")

		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("err. internal", func(t *testing.T) {
		t.Parallel()
		e, svc := newEcho(t)
		svc.EXPECT().
			GetReservation(context.Background(), 7).
			Return(model.Reservation{}, errors.New("db internal"))

		w := doJSON(e, http.MethodGet, "/reservations/7", "")

		require.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandler_CheckAvailability(t *testing.T) {
	t.Parallel()

	slot := "2026-10-01T19:00:00Z"

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		e, svc := newEcho(t)
		svc.EXPECT().
			CheckAvailability(context.Background(), slot).
			Return(model.AvailabilityResponse{
				Timeslot:        slot,
				TotalTables:     30,
				BookedTables:    0,
				AvailableTables: 30,
				IsAvailable:     true,
			}, nil)

		w := doJSON(e, http.MethodGet, "/reservations/availability?timeslot="+slot, "")

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t,
			fmt.Sprintf(`{"timeslot":"%s","total_tables":30,"booked_tables":0,"available_tables":30,"is_available":true}`, slot),
			strings.Trim(w.Body.String(), "\n"))
	})

	t.Run("err. missing timeslot", func(t *testing.T) {
		t.Parallel()
		e, _ := newEcho(t)

		w := doJSON(e, http.MethodGet, "/reservations/availability", "")

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, `{"message":"timeslot parameter is required"}`, strings.Trim(w.Body.String(), "\n"))
	})

	t.Run("err. bad timeslot", func(t *testing.T) {
		t.Parallel()
		e, svc := newEcho(t)
		svc.EXPECT().
			CheckAvailability(context.Background(), "noonish").
			Return(model.AvailabilityResponse{}, errs.ErrBadTimeslot)

		w := doJSON(e, http.MethodGet, "/reservations/availability?timeslot=noonish", "")

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, `{"message":"invalid timeslot format"}`, strings.Trim(w.Body.String(), "\n"))
	})
}
