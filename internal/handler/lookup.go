package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rideshare-groups/internal/grouping"
    "github.com/iliyamo/rideshare-groups/internal/model"
)

// VehicleClass handles GET /v1/admin/vehicle-class?size=&units=.  It is a
// pure table lookup; an unmapped combination answers with an empty class.
func (h *AdminHandler) VehicleClass(c echo.Context) error {
    size, err := strconv.Atoi(c.QueryParam("size"))
    if err != nil || size < 0 {
        return h.respondError(c, invalidField("size", c.QueryParam("size")))
    }
    units, err := strconv.Atoi(c.QueryParam("units"))
    if err != nil || units < 0 {
        return h.respondError(c, invalidField("units", c.QueryParam("units")))
    }
    class := grouping.VehicleClassFor(size, units)
    return c.JSON(http.StatusOK, echo.Map{
        "size":          size,
        "units":         units,
        "vehicle_class": string(class),
        "fits":          class != model.VehicleNone,
        "max_bag_units": grouping.MaxBagUnits(size),
    })
}

// PreviewWindow handles GET /v1/admin/window?flight_ids=1,2,3 and returns
// the pickup a group of those riders would get.  Nothing is written.
func (h *AdminHandler) PreviewWindow(c echo.Context) error {
    var ids []uint64
    for _, part := range strings.Split(c.QueryParam("flight_ids"), ",") {
        part = strings.TrimSpace(part)
        if part == "" {
            continue
        }
        id, err := strconv.ParseUint(part, 10, 64)
        if err != nil || id == 0 {
            return h.respondError(c, invalidField("flight_ids", part))
        }
        ids = append(ids, id)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()
    cons, err := h.Engine.PreviewWindow(ctx, ids)
    if err != nil {
        return h.respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "date":         cons.Date.Format(model.DateLayout),
        "time":         cons.Time,
        "start":        cons.Start,
        "earliest_end": cons.EarliestEnd,
    })
}
