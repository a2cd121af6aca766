package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rideshare-groups/internal/model"
)

// Context keys written by JWTAuth.  The logger middleware reads user_id too.
const (
    userIDKey = "user_id"
    roleKey   = "role"
)

// Actor returns the authenticated caller.  ok is false on routes that did
// not pass through JWTAuth.
func Actor(c echo.Context) (model.Actor, bool) {
    id, ok := c.Get(userIDKey).(uint64)
    if !ok || id == 0 {
        return model.Actor{}, false
    }
    role, _ := c.Get(roleKey).(string)
    return model.Actor{UserID: id, Role: role}, true
}

// callerKey identifies the caller for rate limiting: the user id when
// authenticated, otherwise the client IP.
func callerKey(c echo.Context) string {
    if a, ok := Actor(c); ok {
        return "user:" + strconv.FormatUint(a.UserID, 10)
    }
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    return "ip:" + ip
}
