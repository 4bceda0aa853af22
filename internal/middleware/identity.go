package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-reservations/internal/model"
)

const identityKey = "identity"

// Identity returns the caller stored by JWTAuth.
func Identity(c echo.Context) (model.Identity, bool) {
	who, ok := c.Get(identityKey).(model.Identity)
	return who, ok
}

// userID identifies the caller for rate limit and cache keys.  It returns
// "guest" when no user is authenticated.
func userID(c echo.Context) string {
	if who, ok := Identity(c); ok && who.UserID != "" {
		return who.UserID
	}
	return "guest"
}
