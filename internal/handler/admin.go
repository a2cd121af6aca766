package handler // package handler holds the HTTP handlers of the admin API

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/rideshare-groups/internal/middleware"
    "github.com/iliyamo/rideshare-groups/internal/model"
    "github.com/iliyamo/rideshare-groups/internal/service"
)

const defaultRequestTimeout = 10 * time.Second

// AdminHandler serves the group-management endpoints under /v1/admin.
type AdminHandler struct {
    Engine       *service.GroupEngine
    Log          logrus.FieldLogger
    DismissAfter time.Duration // sent with hard errors so the UI can clear them
    Timeout      time.Duration // upper bound for each request's store work
}

// NewAdminHandler panics when engine or log is nil.
func NewAdminHandler(engine *service.GroupEngine, log logrus.FieldLogger, dismissAfter time.Duration) *AdminHandler {
    if engine == nil || log == nil {
        panic("nil dependency passed to NewAdminHandler")
    }
    return &AdminHandler{Engine: engine, Log: log, DismissAfter: dismissAfter, Timeout: defaultRequestTimeout}
}

func (h *AdminHandler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
    t := h.Timeout
    if t <= 0 {
        t = defaultRequestTimeout
    }
    return context.WithTimeout(c.Request().Context(), t)
}

// mutate runs fn on behalf of the authenticated caller.
func (h *AdminHandler) mutate(c echo.Context, fn func(ctx context.Context, a model.Actor) error) error {
    a, ok := middleware.Actor(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := h.ctx(c)
    defer cancel()
    return fn(ctx, a)
}

func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
