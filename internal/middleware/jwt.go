package middleware // package middleware contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-reservations/internal/model"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// issued by the identity provider and injects the caller into the request
// context.  Handlers read it back with Identity(c).  The token must carry a
// string subject and one of the RESIDENT or ADMIN roles.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Only HMAC tokens are accepted; anything else is rejected
			// before the key is handed out.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			}, jwt.WithExpirationRequired())
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			who := model.Identity{
				UserID: claimString(claims, "sub"),
				Role:   strings.ToUpper(claimString(claims, "role")),
				Name:   claimString(claims, "name"),
				Unit:   claimString(claims, "unit"),
			}
			if who.UserID == "" || (who.Role != model.RoleResident && who.Role != model.RoleAdmin) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set(identityKey, who)
			c.Set("user_id", who.UserID)
			c.Set("role", who.Role)
			return next(c)
		}
	}
}

func claimString(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}
