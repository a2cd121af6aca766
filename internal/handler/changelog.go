package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rideshare-groups/internal/model"
)

// ListChanges handles GET /v1/admin/changelog.
//
// Query parameters:
//  actor  – case-insensitive substring of the actor's name
//  action – comma-separated action list, repeatable
//  from   – inclusive lower bound, RFC 3339 or YYYY-MM-DD
//  to     – exclusive upper bound, same formats
//  sort   – date (default), actor or action
//  order  – desc (default) or asc
func (h *AdminHandler) ListChanges(c echo.Context) error {
    f := model.ChangeLogFilter{
        ActorName: strings.TrimSpace(c.QueryParam("actor")),
        SortBy:    model.SortByDate,
        Desc:      true,
    }
    for _, raw := range c.QueryParams()["action"] {
        for _, a := range strings.Split(raw, ",") {
            if a = strings.TrimSpace(a); a != "" {
                f.Actions = append(f.Actions, model.Action(strings.ToUpper(a)))
            }
        }
    }
    for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
        s := strings.TrimSpace(c.QueryParam(name))
        if s == "" {
            continue
        }
        t, err := parseInstant(s)
        if err != nil {
            return h.respondError(c, invalidField(name, s))
        }
        *dst = &t
    }
    switch s := model.ChangeLogSort(strings.ToLower(c.QueryParam("sort"))); s {
    case "":
    case model.SortByDate, model.SortByActor, model.SortByAction:
        f.SortBy = s
    default:
        return h.respondError(c, invalidField("sort", string(s)))
    }
    switch o := strings.ToLower(c.QueryParam("order")); o {
    case "", "desc":
    case "asc":
        f.Desc = false
    default:
        return h.respondError(c, invalidField("order", o))
    }

    ctx, cancel := h.ctx(c)
    defer cancel()
    entries, err := h.Engine.ChangeLog().Query(ctx, f)
    if err != nil {
        return h.respondError(c, err)
    }
    out := make([]*ChangeView, 0, len(entries))
    for i := range entries {
        out = append(out, changeView(&entries[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"entries": out})
}

func parseInstant(s string) (time.Time, error) {
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t.UTC(), nil
    }
    return model.ParseDate(s)
}
