package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-reservations/internal/handler"
	"github.com/iliyamo/community-reservations/internal/middleware"
	"github.com/iliyamo/community-reservations/internal/model"
	"github.com/iliyamo/community-reservations/internal/validation"
)

// Deps carries what the route tables need.
type Deps struct {
	JWTSecret    string
	Areas        *handler.AreaHandler
	Reservations *handler.ReservationHandler
	Health       echo.HandlerFunc
	RateLimit    echo.MiddlewareFunc // applied to reservation creation only
	Cache        echo.MiddlewareFunc // applied to the area listing only
}

// RegisterRoutes registers every endpoint on e and installs the request
// validator when none is set.  /healthz is public; the rest of /v1
// requires a valid identity token, and /v1/admin additionally requires the
// ADMIN role.
func RegisterRoutes(e *echo.Echo, d Deps) {
	if e.Validator == nil {
		e.Validator = validation.Echo{}
	}
	health := d.Health
	if health == nil {
		health = handler.Health(nil)
	}
	e.GET("/healthz", health)

	rateLimit, cache := d.RateLimit, d.Cache
	if rateLimit == nil {
		rateLimit = noop
	}
	if cache == nil {
		cache = noop
	}

	v1 := e.Group("/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleResident, model.RoleAdmin),
	)
	v1.GET("/areas", d.Areas.List, cache)
	v1.GET("/areas/:id", d.Areas.Get)
	v1.GET("/areas/:id/availability", d.Areas.Availability)
	v1.POST("/reservations", d.Reservations.Create, rateLimit)
	v1.GET("/my-reservations", d.Reservations.ListMine)
	v1.GET("/reservations/:id", d.Reservations.Get)
	v1.DELETE("/reservations/:id", d.Reservations.Cancel)

	admin := v1.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.POST("/areas", d.Areas.Create)
	admin.PATCH("/areas/:id", d.Areas.Update)
	admin.PUT("/areas/:id", d.Areas.Update)
	admin.GET("/areas/:id/bookings", d.Reservations.ListForArea)
	admin.POST("/bookings/:id/settle", d.Reservations.Settle)
	admin.DELETE("/bookings/:id", d.Reservations.Cancel)
}

func noop(next echo.HandlerFunc) echo.HandlerFunc { return next }
