package handler_test

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus/hooks/test"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/rideshare-groups/internal/config"
    "github.com/iliyamo/rideshare-groups/internal/database"
    "github.com/iliyamo/rideshare-groups/internal/handler"
    "github.com/iliyamo/rideshare-groups/internal/model"
    "github.com/iliyamo/rideshare-groups/internal/repository"
    "github.com/iliyamo/rideshare-groups/internal/router"
    "github.com/iliyamo/rideshare-groups/internal/service"
    "github.com/iliyamo/rideshare-groups/internal/utils"
)

const (
    secret = "handler-test"
    day    = "2026-03-01"
)

type api struct {
    t     *testing.T
    e     *echo.Echo
    store *repository.SQLStore
    token string
}

func newAPI(t *testing.T) *api {
    t.Helper()
    db, err := database.OpenSQLite(":memory:")
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    require.NoError(t, database.Migrate(context.Background(), db, database.DialectSQLite))

    store := repository.NewSQLStore(db)
    log, _ := test.NewNullLogger()
    engine := service.NewGroupEngine(store, service.NewChangeLog(store), nil, log, 0)

    e := echo.New()
    router.RegisterHealth(e, db)
    router.RegisterAdmin(e, handler.NewAdminHandler(engine, log, 4*time.Second), config.Config{JWTSecret: secret}, nil, log)

    a := &api{t: t, e: e, store: store}
    adminID := a.user("Ada Admin", "ADMIN")
    tok, err := utils.NewAccessToken(secret, adminID, "ADMIN", time.Hour)
    require.NoError(t, err)
    a.token = tok.Token
    return a
}

func (a *api) user(name, role string) uint64 {
    a.t.Helper()
    id, err := a.store.Users.Create(context.Background(), model.User{Name: name, Role: role})
    require.NoError(a.t, err)
    return id
}

func (a *api) flight(earliest, latest string, checked int) uint64 {
    a.t.Helper()
    d, err := model.ParseDate(day)
    require.NoError(a.t, err)
    id, err := a.store.AddFlight(context.Background(), model.FlightInput{
        UserID:       a.user(fmt.Sprintf("rider-%s-%d", earliest, checked), "STUDENT"),
        Date:         d,
        EarliestTime: earliest,
        LatestTime:   latest,
        Airport:      "LAX",
        Direction:    model.DirectionToAirport,
        CheckedBags:  checked,
    })
    require.NoError(a.t, err)
    return id
}

func (a *api) do(method, path string, body any) (int, map[string]any) {
    a.t.Helper()
    var rd *bytes.Reader
    if body != nil {
        bs, err := json.Marshal(body)
        require.NoError(a.t, err)
        rd = bytes.NewReader(bs)
    } else {
        rd = bytes.NewReader(nil)
    }
    req := httptest.NewRequest(method, path, rd)
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if a.token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+a.token)
    }
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, req)
    out := map[string]any{}
    if rec.Body.Len() > 0 && rec.Header().Get(echo.HeaderContentType) != echo.MIMETextPlainCharsetUTF8 {
        require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
    }
    return rec.Code, out
}

// createGroup posts a group and returns its ride id.
func (a *api) createGroup(ids ...uint64) uint64 {
    a.t.Helper()
    code, body := a.do(http.MethodPost, "/v1/admin/groups", echo.Map{"flight_ids": ids, "date": day, "time": "09:00"})
    require.Equal(a.t, http.StatusCreated, code, body)
    return uint64(body["group"].(map[string]any)["ride_id"].(float64))
}

func obj(v any) map[string]any { return v.(map[string]any) }

func TestHealth(t *testing.T) {
    a := newAPI(t)
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
    assert.Equal(t, http.StatusOK, rec.Code)

    code, body := a.do(http.MethodGet, "/readyz", nil)
    assert.Equal(t, http.StatusOK, code)
    assert.Equal(t, "ready", body["status"])
}

func TestAdminRoutesNeedAdminToken(t *testing.T) {
    a := newAPI(t)
    admin := a.token

    a.token = ""
    code, _ := a.do(http.MethodGet, "/v1/admin/groups", nil)
    assert.Equal(t, http.StatusUnauthorized, code)

    tok, err := utils.NewAccessToken(secret, a.user("Sam Student", "STUDENT"), "STUDENT", time.Hour)
    require.NoError(t, err)
    a.token = tok.Token
    code, _ = a.do(http.MethodGet, "/v1/admin/groups", nil)
    assert.Equal(t, http.StatusForbidden, code)

    a.token = admin
    code, _ = a.do(http.MethodGet, "/v1/admin/groups", nil)
    assert.Equal(t, http.StatusOK, code)
}

func TestCreateGroupAndReadViews(t *testing.T) {
    a := newAPI(t)
    f1 := a.flight("08:00", "10:00", 2)
    f2 := a.flight("08:00", "10:00", 2)
    f3 := a.flight("08:00", "10:00", 0)

    code, body := a.do(http.MethodPost, "/v1/admin/groups", echo.Map{"flight_ids": []uint64{f1, f2}, "date": day, "time": "09:00"})
    require.Equal(t, http.StatusCreated, code, body)
    g := obj(body["group"])
    assert.EqualValues(t, 2, g["size"])
    assert.EqualValues(t, 8, g["total_bag_units"])
    assert.Equal(t, "XL", g["vehicle_class"])
    assert.Equal(t, false, g["is_subsidized"])
    assert.Equal(t, "CREATE_GROUP", obj(body["change"])["action"])
    rideID := uint64(g["ride_id"].(float64))

    code, body = a.do(http.MethodGet, "/v1/admin/groups?date="+day+"&airport=LAX&direction=to_airport", nil)
    require.Equal(t, http.StatusOK, code)
    assert.Len(t, body["groups"], 1)

    code, body = a.do(http.MethodGet, "/v1/admin/groups?airport=JFK", nil)
    require.Equal(t, http.StatusOK, code)
    assert.Len(t, body["groups"], 0)

    code, body = a.do(http.MethodGet, fmt.Sprintf("/v1/admin/groups/%d", rideID), nil)
    require.Equal(t, http.StatusOK, code)
    assert.Equal(t, "09:00", body["time"])
    assert.Len(t, body["riders"], 2)

    code, _ = a.do(http.MethodGet, "/v1/admin/groups/999", nil)
    assert.Equal(t, http.StatusNotFound, code)

    code, body = a.do(http.MethodGet, "/v1/admin/unmatched", nil)
    require.Equal(t, http.StatusOK, code)
    riders := body["riders"].([]any)
    require.Len(t, riders, 1)
    assert.EqualValues(t, f3, obj(riders[0])["flight_id"])
}

func TestCreateGroupRejections(t *testing.T) {
    a := newAPI(t)
    f1 := a.flight("08:00", "10:00", 0)

    code, body := a.do(http.MethodPost, "/v1/admin/groups", echo.Map{"flight_ids": []uint64{f1}, "date": day, "time": "09:00"})
    assert.Equal(t, http.StatusUnprocessableEntity, code)
    assert.Equal(t, service.CodeGroupSize, body["code"])
    assert.EqualValues(t, 4000, body["dismiss_after_ms"])

    f2 := a.flight("08:00", "10:00", 0)
    code, body = a.do(http.MethodPost, "/v1/admin/groups", echo.Map{"flight_ids": []uint64{f1, f2}, "date": "03/01/2026", "time": "09:00"})
    assert.Equal(t, http.StatusUnprocessableEntity, code)
    assert.Equal(t, service.CodeInvalidInput, body["code"])

    code, body = a.do(http.MethodPost, "/v1/admin/groups", echo.Map{"flight_ids": []uint64{f1, f2}, "date": day, "time": "11:30"})
    assert.Equal(t, http.StatusUnprocessableEntity, code)
    assert.Equal(t, service.CodePickupOutsideWindow, body["code"])

    code, body = a.do(http.MethodPost, "/v1/admin/groups", echo.Map{"flight_ids": []uint64{f1, f2}, "date": "2026-03-02", "time": "09:00"})
    assert.Equal(t, http.StatusUnprocessableEntity, code)
    assert.Equal(t, service.CodeDateMismatch, body["code"])

    late := a.flight("12:00", "14:00", 0)
    code, body = a.do(http.MethodPost, "/v1/admin/groups", echo.Map{"flight_ids": []uint64{f1, late}, "date": day, "time": "12:00"})
    assert.Equal(t, http.StatusUnprocessableEntity, code)
    assert.Equal(t, service.CodeNoOverlap, body["code"])

    code, body = a.do(http.MethodGet, "/v1/admin/groups", nil)
    require.Equal(t, http.StatusOK, code)
    assert.Len(t, body["groups"], 0)

    code, _ = a.do(http.MethodPost, "/v1/admin/groups", "not an object")
    assert.Equal(t, http.StatusBadRequest, code)
}

func TestAssignNeedsConfirmationOverAdvisoryLimit(t *testing.T) {
    a := newAPI(t)
    f1 := a.flight("08:00", "10:00", 2)
    f2 := a.flight("08:00", "10:00", 2)
    f3 := a.flight("08:00", "10:00", 2)
    rideID := a.createGroup(f1, f2)

    code, body := a.do(http.MethodPost, "/v1/admin/corral", echo.Map{"flight_id": f3})
    require.Equal(t, http.StatusOK, code, body)
    assert.Equal(t, "corral", obj(obj(body["move"])["to"])["container"])

    path := fmt.Sprintf("/v1/admin/groups/%d/riders", rideID)
    code, body = a.do(http.MethodPost, path, echo.Map{"flight_id": f3})
    require.Equal(t, http.StatusConflict, code, body)
    assert.Equal(t, true, body["requires_confirmation"])
    warnings := body["warnings"].([]any)
    require.Len(t, warnings, 1)
    assert.Equal(t, "BAG_CAPACITY", obj(warnings[0])["code"])

    code, body = a.do(http.MethodPost, path, echo.Map{"flight_id": f3, "confirm": true})
    require.Equal(t, http.StatusOK, code, body)
    move := obj(body["move"])
    assert.Equal(t, true, obj(move["change"])["ignored_error"])
    assert.EqualValues(t, rideID, obj(move["to"])["group_id"])

    code, body = a.do(http.MethodGet, fmt.Sprintf("/v1/admin/groups/%d", rideID), nil)
    require.Equal(t, http.StatusOK, code)
    assert.EqualValues(t, 3, body["size"])
    assert.EqualValues(t, 12, body["total_bag_units"])
    assert.Equal(t, "XXL", body["vehicle_class"])
    assert.Equal(t, true, body["is_subsidized"])

    code, _ = a.do(http.MethodPost, path, echo.Map{"flight_id": f3, "confirm": true})
    assert.Equal(t, http.StatusConflict, code)
}

func TestAssignHardFailure(t *testing.T) {
    a := newAPI(t)
    rideID := a.createGroup(a.flight("08:00", "09:00", 0), a.flight("08:00", "09:00", 0))
    late := a.flight("13:00", "15:00", 0)

    code, _ := a.do(http.MethodPost, "/v1/admin/corral", echo.Map{"flight_id": late})
    require.Equal(t, http.StatusOK, code)

    code, body := a.do(http.MethodPost, fmt.Sprintf("/v1/admin/groups/%d/riders", rideID), echo.Map{"flight_id": late, "confirm": true})
    assert.Equal(t, http.StatusUnprocessableEntity, code)
    assert.Equal(t, service.CodeNoOverlap, body["code"])
}

func TestReturnFromCorral(t *testing.T) {
    a := newAPI(t)
    f := a.flight("08:00", "10:00", 0)

    code, _ := a.do(http.MethodPost, "/v1/admin/corral", echo.Map{"flight_id": f})
    require.Equal(t, http.StatusOK, code)

    code, body := a.do(http.MethodGet, "/v1/admin/corral", nil)
    require.Equal(t, http.StatusOK, code)
    riders := body["riders"].([]any)
    require.Len(t, riders, 1)
    assert.Equal(t, "unmatched", obj(obj(riders[0])["origin"])["type"])

    code, body = a.do(http.MethodDelete, fmt.Sprintf("/v1/admin/corral/%d", f), nil)
    require.Equal(t, http.StatusOK, code, body)
    assert.Equal(t, "unmatched", obj(obj(body["move"])["to"])["container"])

    code, _ = a.do(http.MethodDelete, fmt.Sprintf("/v1/admin/corral/%d", f), nil)
    assert.Equal(t, http.StatusConflict, code)

    code, _ = a.do(http.MethodDelete, "/v1/admin/corral/9999", nil)
    assert.Equal(t, http.StatusNotFound, code)
}

func TestGroupEdits(t *testing.T) {
    a := newAPI(t)
    rideID := a.createGroup(a.flight("08:00", "10:00", 0), a.flight("08:00", "10:00", 0))
    base := fmt.Sprintf("/v1/admin/groups/%d", rideID)

    code, body := a.do(http.MethodPut, base+"/time", echo.Map{"date": "2026-03-02", "time": "10:15"})
    require.Equal(t, http.StatusOK, code, body)
    assert.Equal(t, "2026-03-02", obj(body["group"])["date"])
    assert.Equal(t, "10:15", obj(body["group"])["time"])

    code, body = a.do(http.MethodPut, base+"/time", echo.Map{"date": "2026-03-02"})
    assert.Equal(t, http.StatusUnprocessableEntity, code)
    assert.Equal(t, service.CodeMissingSchedule, body["code"])

    code, body = a.do(http.MethodPut, base+"/voucher", echo.Map{"voucher": "UCLA-2026"})
    require.Equal(t, http.StatusOK, code, body)
    assert.Equal(t, "UCLA-2026", obj(body["group"])["voucher"])

    code, body = a.do(http.MethodPost, base+"/email-confirmed", nil)
    require.Equal(t, http.StatusOK, code, body)
    assert.Equal(t, "EMAIL_CONFIRMED", obj(body["change"])["action"])

    code, body = a.do(http.MethodDelete, base, nil)
    require.Equal(t, http.StatusOK, code, body)
    assert.Equal(t, "DELETE_GROUP", obj(body["change"])["action"])

    code, _ = a.do(http.MethodGet, base, nil)
    assert.Equal(t, http.StatusNotFound, code)
    code, body = a.do(http.MethodGet, "/v1/admin/unmatched", nil)
    require.Equal(t, http.StatusOK, code)
    assert.Len(t, body["riders"], 2)
}

func TestFlights(t *testing.T) {
    a := newAPI(t)
    uid := a.user("Rae Rider", "STUDENT")

    req := echo.Map{
        "user_id": uid, "date": day, "earliest_time": "07:00", "latest_time": "09:00",
        "airport": "lax", "direction": "TO_AIRPORT", "checked_bags": 1, "carry_on_bags": 1,
    }
    code, body := a.do(http.MethodPost, "/v1/admin/flights", req)
    require.Equal(t, http.StatusCreated, code, body)
    move := obj(body["move"])
    assert.Equal(t, "unmatched", obj(move["to"])["container"])
    assert.Equal(t, "ADD_FLIGHT", obj(move["change"])["action"])
    id := uint64(move["flight_id"].(float64))

    req["user_id"] = 9999
    code, _ = a.do(http.MethodPost, "/v1/admin/flights", req)
    assert.Equal(t, http.StatusNotFound, code)

    path := fmt.Sprintf("/v1/admin/flights/%d", id)
    code, body = a.do(http.MethodPatch, path, echo.Map{"earliest_time": "07:30", "latest_time": "09:30", "checked_bags": 2})
    require.Equal(t, http.StatusOK, code, body)
    assert.Equal(t, "UPDATE_RIDER_DETAILS", obj(obj(body["move"])["change"])["action"])

    code, body = a.do(http.MethodPatch, path, echo.Map{"earliest_time": "7h", "latest_time": "09:30"})
    assert.Equal(t, http.StatusUnprocessableEntity, code)
    assert.Equal(t, service.CodeInvalidInput, body["code"])
}

func TestChangeLogQuery(t *testing.T) {
    a := newAPI(t)
    f := a.flight("08:00", "10:00", 0)
    a.createGroup(f, a.flight("08:00", "10:00", 0))
    code, _ := a.do(http.MethodPost, "/v1/admin/corral", echo.Map{"flight_id": f})
    require.Equal(t, http.StatusOK, code)

    code, body := a.do(http.MethodGet, "/v1/admin/changelog", nil)
    require.Equal(t, http.StatusOK, code)
    entries := body["entries"].([]any)
    require.Len(t, entries, 2)
    assert.Equal(t, "REMOVE_FROM_GROUP", obj(entries[0])["action"])
    assert.Equal(t, "Ada Admin", obj(entries[0])["actor_name"])

    code, body = a.do(http.MethodGet, "/v1/admin/changelog?action=create_group&actor=ada&order=asc", nil)
    require.Equal(t, http.StatusOK, code)
    assert.Len(t, body["entries"], 1)

    code, body = a.do(http.MethodGet, "/v1/admin/changelog?actor=nobody", nil)
    require.Equal(t, http.StatusOK, code)
    assert.Len(t, body["entries"], 0)

    code, _ = a.do(http.MethodGet, "/v1/admin/changelog?action=BOGUS", nil)
    assert.Equal(t, http.StatusBadRequest, code)
    code, _ = a.do(http.MethodGet, "/v1/admin/changelog?sort=size", nil)
    assert.Equal(t, http.StatusUnprocessableEntity, code)
    code, _ = a.do(http.MethodGet, "/v1/admin/changelog?from=yesterday", nil)
    assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestLookups(t *testing.T) {
    a := newAPI(t)

    code, body := a.do(http.MethodGet, "/v1/admin/vehicle-class?size=4&units=9", nil)
    require.Equal(t, http.StatusOK, code)
    assert.Equal(t, "XXL", body["vehicle_class"])
    assert.Equal(t, true, body["fits"])

    code, body = a.do(http.MethodGet, "/v1/admin/vehicle-class?size=7&units=0", nil)
    require.Equal(t, http.StatusOK, code)
    assert.Equal(t, "", body["vehicle_class"])
    assert.Equal(t, false, body["fits"])

    code, _ = a.do(http.MethodGet, "/v1/admin/vehicle-class?size=2&units=lots", nil)
    assert.Equal(t, http.StatusUnprocessableEntity, code)

    f1 := a.flight("08:00", "10:00", 0)
    f2 := a.flight("08:30", "11:00", 0)
    code, body = a.do(http.MethodGet, fmt.Sprintf("/v1/admin/window?flight_ids=%d,%d", f1, f2), nil)
    require.Equal(t, http.StatusOK, code, body)
    assert.Equal(t, day, body["date"])
    assert.Equal(t, "08:30", body["time"])

    code, body = a.do(http.MethodGet, fmt.Sprintf("/v1/admin/window?flight_ids=%d", f1), nil)
    assert.Equal(t, http.StatusUnprocessableEntity, code)
    assert.Equal(t, service.CodeTooFewRiders, body["code"])
}
