package router // package router wires handlers and middleware onto the echo instance

import (
    "database/sql"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/rideshare-groups/internal/config"
    "github.com/iliyamo/rideshare-groups/internal/handler"
    "github.com/iliyamo/rideshare-groups/internal/middleware"
)

// RegisterHealth exposes the unauthenticated probes.
func RegisterHealth(e *echo.Echo, db *sql.DB) {
    e.GET("/healthz", handler.Health)
    if db != nil {
        e.GET("/readyz", handler.Ready(db))
    }
}

// RegisterAdmin mounts the group-management API under /v1/admin.  Every
// route requires an ADMIN token and is rate limited per caller.  Only the
// pure vehicle-class lookup is cached, since every other view changes with
// each mutation.  rdb may be nil, which disables both Redis layers.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, cfg config.Config, rdb *redis.Client, log logrus.FieldLogger) {
    g := e.Group("/v1/admin",
        middleware.JWTAuth(cfg.JWTSecret),
        middleware.RequireRole("ADMIN"),
        middleware.NewTokenBucket(cfg.RateLimit, rdb, log),
    )

    g.GET("/groups", h.ListGroups)
    g.POST("/groups", h.CreateGroup)
    g.GET("/groups/:id", h.GetGroup)
    g.DELETE("/groups/:id", h.DeleteGroup)
    g.PUT("/groups/:id/time", h.UpdateGroupTime)
    g.PUT("/groups/:id/voucher", h.UpdateVoucher)
    g.POST("/groups/:id/email-confirmed", h.ConfirmEmail)
    g.POST("/groups/:id/riders", h.AssignRider)

    g.GET("/unmatched", h.ListUnmatched)
    g.GET("/corral", h.ListCorral)
    g.POST("/corral", h.ParkRider)
    g.DELETE("/corral/:flight_id", h.ReturnRider)

    g.POST("/flights", h.AddFlight)
    g.PATCH("/flights/:id", h.UpdateRiderDetails)

    g.GET("/changelog", h.ListChanges)
    g.GET("/window", h.PreviewWindow)
    g.GET("/vehicle-class", h.VehicleClass, middleware.NewRedisCache(cfg.Cache, rdb, log))
}
