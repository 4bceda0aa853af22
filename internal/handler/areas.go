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

// AreaHandler serves the area catalog and its availability calendar.
type AreaHandler struct {
	Catalog *service.Catalog
	Flow    *service.Reservations
	Cache   *middleware.ResponseCache // purged after admin edits; may be nil
	Log     *slog.Logger
}

// NewAreaHandler constructs an AreaHandler.  Catalog and flow must be non-nil.
func NewAreaHandler(catalog *service.Catalog, flow *service.Reservations, cache *middleware.ResponseCache, log *slog.Logger) *AreaHandler {
	if catalog == nil || flow == nil {
		panic("nil service passed to NewAreaHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &AreaHandler{Catalog: catalog, Flow: flow, Cache: cache, Log: log}
}

// List handles GET /v1/areas with an optional ?type=common|private filter.
func (h *AreaHandler) List(c echo.Context) error {
	var typ *model.AreaType
	if raw := strings.TrimSpace(c.QueryParam("type")); raw != "" {
		t := model.AreaType(strings.ToLower(raw))
		typ = &t
	}
	areas, err := h.Catalog.List(c.Request().Context(), typ)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"areas": areas})
}

// Get handles GET /v1/areas/:id.
func (h *AreaHandler) Get(c echo.Context) error {
	a, err := h.Catalog.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, a)
}

// Availability handles GET /v1/areas/:id/availability?date=YYYY-MM-DD.
func (h *AreaHandler) Availability(c echo.Context) error {
	date, err := model.ParseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	view, err := h.Flow.Availability(c.Request().Context(), c.Param("id"), date)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, view)
}

type createAreaRequest struct {
	Name             string          `json:"name" validate:"required,max=120"`
	Type             model.AreaType  `json:"type" validate:"omitempty,oneof=common private"`
	Capacity         int             `json:"capacity" validate:"required,min=1"`
	DepositCents     int64           `json:"deposit_cents" validate:"min=0"`
	OpenTime         model.ClockTime `json:"open_time" validate:"gte=0,lte=1440"`
	CloseTime        model.ClockTime `json:"close_time" validate:"required,lte=1440"`
	MaxDurationHours int             `json:"max_duration_hours" validate:"required,min=1"`
	MaxAdvanceDays   int             `json:"max_advance_days" validate:"required,min=1"`
	MaxSimultaneous  *int            `json:"max_simultaneous" validate:"omitempty,min=1"`
	IsActive         *bool           `json:"is_active"`
}

// Create handles POST /v1/admin/areas.  New areas are active unless the
// body says otherwise.
func (h *AreaHandler) Create(c echo.Context) error {
	who, ok := middleware.Identity(c)
	if !ok {
		return unauthorized(c)
	}
	var body createAreaRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Type = model.AreaType(strings.ToLower(strings.TrimSpace(string(body.Type))))
	if err := c.Validate(&body); err != nil {
		return invalid(c, err)
	}
	a := model.Area{
		Name:             body.Name,
		Type:             body.Type,
		Capacity:         body.Capacity,
		DepositCents:     body.DepositCents,
		OpenTime:         body.OpenTime,
		CloseTime:        body.CloseTime,
		MaxDurationHours: body.MaxDurationHours,
		MaxAdvanceDays:   body.MaxAdvanceDays,
		MaxSimultaneous:  body.MaxSimultaneous,
		IsActive:         body.IsActive == nil || *body.IsActive,
	}
	created, err := h.Catalog.Create(c.Request().Context(), who, a)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	h.Cache.Purge(c.Request().Context())
	return c.JSON(http.StatusCreated, created)
}

// Update handles PATCH and PUT /v1/admin/areas/:id.  Both accept a partial
// body; absent fields keep their stored value.
func (h *AreaHandler) Update(c echo.Context) error {
	who, ok := middleware.Identity(c)
	if !ok {
		return unauthorized(c)
	}
	var patch model.AreaPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&patch); err != nil {
		return invalid(c, err)
	}
	updated, err := h.Catalog.Update(c.Request().Context(), who, c.Param("id"), patch)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	h.Cache.Purge(c.Request().Context())
	return c.JSON(http.StatusOK, updated)
}
