package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rideshare-groups/internal/model"
)

// ListUnmatched handles GET /v1/admin/unmatched.
func (h *AdminHandler) ListUnmatched(c echo.Context) error {
    ctx, cancel := h.ctx(c)
    defer cancel()
    riders, err := h.Engine.Unmatched(ctx)
    if err != nil {
        return h.respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"riders": riderViews(riders)})
}

// ListCorral handles GET /v1/admin/corral.
func (h *AdminHandler) ListCorral(c echo.Context) error {
    ctx, cancel := h.ctx(c)
    defer cancel()
    riders, err := h.Engine.Corral(ctx)
    if err != nil {
        return h.respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"riders": riderViews(riders)})
}

// ParkRider handles POST /v1/admin/corral.  The rider may come from the
// unmatched pool or from a group.
func (h *AdminHandler) ParkRider(c echo.Context) error {
    var body struct {
        FlightID uint64 `json:"flight_id"`
    }
    if err := c.Bind(&body); err != nil || body.FlightID == 0 {
        return badRequest(c, "flight_id is required")
    }
    return h.mutate(c, func(ctx context.Context, a model.Actor) error {
        res, err := h.Engine.MoveToCorral(ctx, a, body.FlightID)
        return h.respond(c, http.StatusOK, echo.Map{"move": moveView(res)}, err)
    })
}

// ReturnRider handles DELETE /v1/admin/corral/:flight_id and sends the
// rider back where it came from.
func (h *AdminHandler) ReturnRider(c echo.Context) error {
    id, ok := pathID(c, "flight_id")
    if !ok {
        return badRequest(c, "invalid flight id")
    }
    return h.mutate(c, func(ctx context.Context, a model.Actor) error {
        res, err := h.Engine.ReturnFromCorral(ctx, a, id)
        return h.respond(c, http.StatusOK, echo.Map{"move": moveView(res)}, err)
    })
}

// AddFlight handles POST /v1/admin/flights.
func (h *AdminHandler) AddFlight(c echo.Context) error {
    var body struct {
        UserID       uint64 `json:"user_id"`
        Date         string `json:"date"`
        EarliestTime string `json:"earliest_time"`
        LatestTime   string `json:"latest_time"`
        Airport      string `json:"airport"`
        Direction    string `json:"direction"`
        CheckedBags  int    `json:"checked_bags"`
        CarryOnBags  int    `json:"carry_on_bags"`
        FlightNo     string `json:"flight_no"`
        AirlineCode  string `json:"airline_code"`
    }
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    date, err := optionalDate(body.Date)
    if err != nil {
        return h.respondError(c, err)
    }
    in := model.FlightInput{
        UserID:       body.UserID,
        Date:         date,
        EarliestTime: body.EarliestTime,
        LatestTime:   body.LatestTime,
        Airport:      body.Airport,
        Direction:    model.Direction(body.Direction),
        CheckedBags:  body.CheckedBags,
        CarryOnBags:  body.CarryOnBags,
        FlightNo:     body.FlightNo,
        AirlineCode:  body.AirlineCode,
    }
    return h.mutate(c, func(ctx context.Context, a model.Actor) error {
        res, err := h.Engine.AddFlight(ctx, a, in)
        return h.respond(c, http.StatusCreated, echo.Map{"move": moveView(res)}, err)
    })
}

// UpdateRiderDetails handles PATCH /v1/admin/flights/:id.  All four fields
// are rewritten, so clients send the full set.
func (h *AdminHandler) UpdateRiderDetails(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid flight id")
    }
    var body struct {
        EarliestTime string `json:"earliest_time"`
        LatestTime   string `json:"latest_time"`
        CheckedBags  int    `json:"checked_bags"`
        CarryOnBags  int    `json:"carry_on_bags"`
    }
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    d := model.RiderDetails{
        EarliestTime: body.EarliestTime,
        LatestTime:   body.LatestTime,
        CheckedBags:  body.CheckedBags,
        CarryOnBags:  body.CarryOnBags,
    }
    return h.mutate(c, func(ctx context.Context, a model.Actor) error {
        res, err := h.Engine.UpdateRiderDetails(ctx, a, id, d)
        return h.respond(c, http.StatusOK, echo.Map{"move": moveView(res)}, err)
    })
}
