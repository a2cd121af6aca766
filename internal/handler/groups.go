package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rideshare-groups/internal/model"
    "github.com/iliyamo/rideshare-groups/internal/service"
)

// ListGroups handles GET /v1/admin/groups.  Optional filters: date
// (YYYY-MM-DD), airport and direction.
func (h *AdminHandler) ListGroups(c echo.Context) error {
    var f model.GroupFilter
    if s := strings.TrimSpace(c.QueryParam("date")); s != "" {
        d, err := model.ParseDate(s)
        if err != nil {
            return h.respondError(c, invalidField("date", s))
        }
        f.Date = &d
    }
    f.Airport = strings.TrimSpace(c.QueryParam("airport"))
    if s := strings.TrimSpace(c.QueryParam("direction")); s != "" {
        f.Direction = model.Direction(strings.ToUpper(s))
        if !f.Direction.Valid() {
            return h.respondError(c, invalidField("direction", s))
        }
    }
    ctx, cancel := h.ctx(c)
    defer cancel()
    groups, err := h.Engine.Groups(ctx, f)
    if err != nil {
        return h.respondError(c, err)
    }
    out := make([]GroupView, 0, len(groups))
    for _, g := range groups {
        out = append(out, groupView(g))
    }
    return c.JSON(http.StatusOK, echo.Map{"groups": out})
}

// GetGroup handles GET /v1/admin/groups/:id.
func (h *AdminHandler) GetGroup(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid group id")
    }
    ctx, cancel := h.ctx(c)
    defer cancel()
    g, err := h.Engine.Group(ctx, id)
    if err != nil {
        return h.respondError(c, err)
    }
    return c.JSON(http.StatusOK, groupView(g))
}

// CreateGroup handles POST /v1/admin/groups.
func (h *AdminHandler) CreateGroup(c echo.Context) error {
    var body struct {
        FlightIDs    []uint64 `json:"flight_ids"`
        Date         string   `json:"date"`
        Time         string   `json:"time"`
        Voucher      string   `json:"voucher"`
        IsSubsidized *bool    `json:"is_subsidized"`
    }
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    date, err := optionalDate(body.Date)
    if err != nil {
        return h.respondError(c, err)
    }
    in := service.CreateGroupInput{
        FlightIDs:  body.FlightIDs,
        Date:       date,
        Time:       body.Time,
        Voucher:    body.Voucher,
        Subsidized: body.IsSubsidized,
    }
    return h.mutate(c, func(ctx context.Context, a model.Actor) error {
        res, err := h.Engine.CreateGroup(ctx, a, in)
        return h.respond(c, http.StatusCreated, groupBody(res), err)
    })
}

// DeleteGroup handles DELETE /v1/admin/groups/:id.  The members go back to
// the unmatched pool; the response carries the group as it was.
func (h *AdminHandler) DeleteGroup(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid group id")
    }
    return h.mutate(c, func(ctx context.Context, a model.Actor) error {
        res, err := h.Engine.DeleteGroup(ctx, a, id)
        return h.respond(c, http.StatusOK, groupBody(res), err)
    })
}

// UpdateGroupTime handles PUT /v1/admin/groups/:id/time.
func (h *AdminHandler) UpdateGroupTime(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid group id")
    }
    var body struct {
        Date string `json:"date"`
        Time string `json:"time"`
    }
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    date, err := optionalDate(body.Date)
    if err != nil {
        return h.respondError(c, err)
    }
    return h.mutate(c, func(ctx context.Context, a model.Actor) error {
        res, err := h.Engine.UpdateGroupTime(ctx, a, id, date, body.Time)
        return h.respond(c, http.StatusOK, groupBody(res), err)
    })
}

// UpdateVoucher handles PUT /v1/admin/groups/:id/voucher.
func (h *AdminHandler) UpdateVoucher(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid group id")
    }
    var body struct {
        Voucher string `json:"voucher"`
    }
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid request body")
    }
    return h.mutate(c, func(ctx context.Context, a model.Actor) error {
        res, err := h.Engine.UpdateVoucher(ctx, a, id, body.Voucher)
        return h.respond(c, http.StatusOK, groupBody(res), err)
    })
}

// ConfirmEmail handles POST /v1/admin/groups/:id/email-confirmed.
func (h *AdminHandler) ConfirmEmail(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid group id")
    }
    return h.mutate(c, func(ctx context.Context, a model.Actor) error {
        res, err := h.Engine.ConfirmEmail(ctx, a, id)
        return h.respond(c, http.StatusOK, groupBody(res), err)
    })
}

// AssignRider handles POST /v1/admin/groups/:id/riders, moving a corral
// rider into the group.  A 409 with requires_confirmation is answered by
// repeating the call with confirm set.
func (h *AdminHandler) AssignRider(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid group id")
    }
    var body struct {
        FlightID uint64 `json:"flight_id"`
        Confirm  bool   `json:"confirm"`
    }
    if err := c.Bind(&body); err != nil || body.FlightID == 0 {
        return badRequest(c, "flight_id is required")
    }
    return h.mutate(c, func(ctx context.Context, a model.Actor) error {
        res, err := h.Engine.AssignFromCorral(ctx, a, body.FlightID, id, body.Confirm)
        return h.respond(c, http.StatusOK, echo.Map{"move": moveView(res)}, err)
    })
}

func groupBody(res service.GroupResult) echo.Map {
    return echo.Map{"group": groupView(res.Group), "change": changeView(res.Change)}
}

func optionalDate(s string) (time.Time, error) {
    s = strings.TrimSpace(s)
    if s == "" {
        return time.Time{}, nil
    }
    d, err := model.ParseDate(s)
    if err != nil {
        return time.Time{}, invalidField("date", s)
    }
    return d, nil
}
