package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/rideshare-groups/internal/repository"
    "github.com/iliyamo/rideshare-groups/internal/service"
)

// respondError maps engine and store errors onto HTTP responses.
//
//  *ValidationError  → 422, with the code and dismiss_after_ms
//  *WarningError     → 409, with the warnings and requires_confirmation
//  not found         → 404
//  wrong container   → 409
//  *UnauditedError   → 207, the change was applied but not logged
//  anything else     → 500
func (h *AdminHandler) respondError(c echo.Context, err error) error {
    var (
        verr      *service.ValidationError
        warn      *service.WarningError
        unaudited *service.UnauditedError
    )
    switch {
    case errors.As(err, &verr):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{
            "error":            verr.Error(),
            "code":             verr.Code,
            "dismiss_after_ms": h.DismissAfter.Milliseconds(),
        })
    case errors.As(err, &warn):
        return c.JSON(http.StatusConflict, echo.Map{
            "error":                 warn.Error(),
            "warnings":              warningViews(warn.Warnings),
            "requires_confirmation": true,
        })
    case errors.As(err, &unaudited):
        return c.JSON(http.StatusMultiStatus, echo.Map{
            "error":   unaudited.Error(),
            "action":  string(unaudited.Action),
            "applied": true,
        })
    case errors.Is(err, repository.ErrRiderNotFound),
        errors.Is(err, repository.ErrGroupNotFound),
        errors.Is(err, repository.ErrUserNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrWrongContainer),
        errors.Is(err, service.ErrNotInCorral),
        errors.Is(err, service.ErrRiderUnavailable):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, context.DeadlineExceeded):
        return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "request timed out"})
    case errors.Is(err, service.ErrUnknownAction):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    h.Log.WithError(err).WithField("route", c.Path()).Error("request failed")
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// respond writes body with status, or maps err.  An unaudited mutation
// still returns body because the change did happen.
func (h *AdminHandler) respond(c echo.Context, status int, body echo.Map, err error) error {
    if err == nil {
        return c.JSON(status, body)
    }
    var unaudited *service.UnauditedError
    if errors.As(err, &unaudited) {
        h.Log.WithError(err).WithField("action", unaudited.Action).Error("change log append failed")
        body["error"] = unaudited.Error()
        body["applied"] = true
        return c.JSON(http.StatusMultiStatus, body)
    }
    return h.respondError(c, err)
}

func invalidField(field, value string) error {
    return &service.ValidationError{
        Code: service.CodeInvalidInput,
        Err:  fmt.Errorf("%w: %s %q", service.ErrInvalidInput, field, value),
    }
}
