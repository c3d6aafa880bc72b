package handler

import (
	"net/http"
	"strconv"

	md "github.com/cafe-fausse/booking-service/pkg/middleware"

	"github.com/cafe-fausse/booking-service/booking/internal/errs"
	"github.com/cafe-fausse/booking-service/booking/internal/model"
	"github.com/cafe-fausse/booking-service/pkg/validate"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Handler struct {
	bookingSvc BookingService
	log        *zap.Logger
}

func New(bookingSrv BookingService, log *zap.Logger) *Handler {
	h := &Handler{
		bookingSvc: bookingSrv,
		log:        log,
	}
	return h
}

func (h *Handler) NewRouter(allowOrigins []string) *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPost},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("/newsletter/signup", h.NewsletterSignup)
	api.POST("/reservations", h.CreateReservation)
	api.GET("/reservations", h.ListReservations)
	api.GET("/reservations/availability", h.CheckAvailability)
	api.GET("/reservations/:id", h.GetReservation)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, model.HealthResponse{
		Status:  "ok",
		Message: "Backend is running",
	})
}

func (h *Handler) NewsletterSignup(c echo.Context) error {
	var req model.NewsletterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	cust, err := h.bookingSvc.SubscribeNewsletter(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidEmail) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		// the sign-up contract reports a failed subscribe as a 400,
		// without leaking storage detail
		h.log.Error("newsletter signup", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "failed to subscribe, please try again")
	}
	return c.JSON(http.StatusCreated, model.NewsletterResponse{
		Message: "Successfully subscribed to newsletter!",
		Email:   cust.Email,
	})
}

func (h *Handler) CreateReservation(c echo.Context) error {
	var req model.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	res, err := h.bookingSvc.CreateReservation(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidEmail),
			errors.Is(err, errs.ErrGuestCount),
			errors.Is(err, errs.ErrBadTimeslot),
			errors.Is(err, errs.ErrPastTimeslot):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, errs.ErrFullyBooked), errors.Is(err, errs.ErrTableTaken):
			return echo.NewHTTPError(http.StatusConflict, errs.ErrFullyBooked.Error())
		default:
			h.log.Error("create reservation", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}
	return c.JSON(http.StatusCreated, model.CreateReservationResponse{
		Message:       "Reservation confirmed successfully!",
		ReservationID: res.ID,
		TableNumber:   res.TableNumber,
		Timeslot:      req.Timeslot,
		Guests:        res.Guests,
		CustomerName:  res.CustomerName,
	})
}

func (h *Handler) ListReservations(c echo.Context) error {
	items, err := h.bookingSvc.ListReservations(c.Request().Context())
	if err != nil {
		h.log.Error("list reservations", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	if items == nil {
		items = []model.Reservation{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetReservation(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, errs.ErrNotFound.Error())
	}
	res, err := h.bookingSvc.GetReservation(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		h.log.Error("get reservation", zap.Int("id", id), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) CheckAvailability(c echo.Context) error {
	timeslot := c.QueryParam("timeslot")
	if timeslot == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "timeslot parameter is required")
	}
	avail, err := h.bookingSvc.CheckAvailability(c.Request().Context(), timeslot)
	if err != nil {
		if errors.Is(err, errs.ErrBadTimeslot) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.log.Error("check availability", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, avail)
}
