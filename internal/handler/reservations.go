package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-reservations/internal/middleware"
	"github.com/iliyamo/community-reservations/internal/model"
	"github.com/iliyamo/community-reservations/internal/service"
)

// ReservationHandler exposes the reservation flow and booking lifecycle.
// All methods assume JWTAuth and RequireRole already ran.
type ReservationHandler struct {
	Flow *service.Reservations
	Log  *slog.Logger
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(flow *service.Reservations, log *slog.Logger) *ReservationHandler {
	if flow == nil {
		panic("nil service passed to NewReservationHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ReservationHandler{Flow: flow, Log: log}
}

type reserveRequest struct {
	AreaID         string              `json:"area_id" validate:"required"`
	Date           string              `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime      model.ClockTime     `json:"start_time" validate:"gte=0,lte=1440"`
	EndTime        model.ClockTime     `json:"end_time" validate:"gte=0,lte=1440"`
	Headcount      int                 `json:"headcount" validate:"required,min=1"`
	PaymentMethod  model.PaymentMethod `json:"payment_method" validate:"required,oneof=card transfer"`
	IdempotencyKey string              `json:"idempotency_key" validate:"max=128"`
}

// Create handles POST /v1/reservations.  The Idempotency-Key header, or
// the idempotency_key field, makes retries safe: a repeated request returns
// the original booking with 200 instead of 201.
func (h *ReservationHandler) Create(c echo.Context) error {
	who, ok := middleware.Identity(c)
	if !ok {
		return unauthorized(c)
	}
	var body reserveRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.PaymentMethod = model.PaymentMethod(strings.ToLower(strings.TrimSpace(string(body.PaymentMethod))))
	if err := c.Validate(&body); err != nil {
		return invalid(c, err)
	}
	date, err := model.ParseDate(body.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	key := strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
	if key == "" {
		key = body.IdempotencyKey
	}
	req := model.ReservationRequest{
		AreaID:         body.AreaID,
		Date:           date,
		StartTime:      body.StartTime,
		EndTime:        body.EndTime,
		Headcount:      body.Headcount,
		PaymentMethod:  body.PaymentMethod,
		IdempotencyKey: key,
	}

	out, err := h.Flow.Reserve(c.Request().Context(), who, req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if out.Rejected() {
		return writeRejection(c, out.Rejection)
	}
	status := http.StatusCreated
	if out.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, echo.Map{
		"booking":     out.Booking,
		"payment_ref": out.PaymentRef,
		"replayed":    out.Replayed,
	})
}

// ListMine handles GET /v1/my-reservations.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	who, ok := middleware.Identity(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.Flow.ListMine(c.Request().Context(), who)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	who, ok := middleware.Identity(c)
	if !ok {
		return unauthorized(c)
	}
	b, err := h.Flow.GetBooking(c.Request().Context(), who, c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel handles DELETE /v1/reservations/:id and DELETE
// /v1/admin/bookings/:id.  Ownership is checked by the service.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	who, ok := middleware.Identity(c)
	if !ok {
		return unauthorized(c)
	}
	b, err := h.Flow.Cancel(c.Request().Context(), who, c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// ListForArea handles GET /v1/admin/areas/:id/bookings?date=YYYY-MM-DD.
func (h *ReservationHandler) ListForArea(c echo.Context) error {
	who, ok := middleware.Identity(c)
	if !ok {
		return unauthorized(c)
	}
	date, err := model.ParseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	list, err := h.Flow.ListForArea(c.Request().Context(), who, c.Param("id"), date)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// Settle handles POST /v1/admin/bookings/:id/settle.  The optional body
// {"payment_ref": "..."} replaces the reference issued at creation.
func (h *ReservationHandler) Settle(c echo.Context) error {
	who, ok := middleware.Identity(c)
	if !ok {
		return unauthorized(c)
	}
	var body struct {
		PaymentRef string `json:"payment_ref"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	b, err := h.Flow.SettleDeposit(c.Request().Context(), who, c.Param("id"), body.PaymentRef)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}
