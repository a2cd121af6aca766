package middleware // package middleware holds the echo middleware shared by the admin API

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rideshare-groups/internal/utils"
)

// JWTAuth validates a Bearer access token and stores the caller's id
// (uint64) and role (upper-cased string) in the context under the
// user_id and role keys.  The secret must match the issuer's.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            id, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set(userIDKey, id.UserID)
            c.Set(roleKey, id.Role)
            return next(c)
        }
    }
}
