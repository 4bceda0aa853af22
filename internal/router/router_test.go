package router

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-reservations/internal/availability"
	"github.com/iliyamo/community-reservations/internal/handler"
	"github.com/iliyamo/community-reservations/internal/model"
	"github.com/iliyamo/community-reservations/internal/repository"
	"github.com/iliyamo/community-reservations/internal/service"
	"github.com/iliyamo/community-reservations/internal/utils"
)

const secret = "router-test-secret"

var (
	resident = model.Identity{UserID: "res-1", Name: "Ana", Unit: "A-1", Role: model.RoleResident}
	neighbor = model.Identity{UserID: "res-2", Name: "Luis", Unit: "C-7", Role: model.RoleResident}
	admin    = model.Identity{UserID: "adm-1", Name: "Admin", Role: model.RoleAdmin}
)

type api struct {
	t      *testing.T
	e      *echo.Echo
	areaID string
	now    time.Time
}

func newAPI(t *testing.T) *api {
	t.Helper()
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemoryStore(clock)
	catalog := service.NewCatalog(store, log)
	flow := service.NewReservations(service.Deps{
		Areas:  store,
		Ledger: store,
		Policy: availability.Policy{PendingTTL: 24 * time.Hour},
		Clock:  service.Clock{Now: clock, Location: time.UTC},
		Logger: log,
	})

	one := 1
	area := model.Area{
		Name: "Asador 1", Type: model.AreaCommon, Capacity: 10, DepositCents: 50000,
		OpenTime: model.MustClock("08:00"), CloseTime: model.MustClock("20:00"),
		MaxDurationHours: 5, MaxAdvanceDays: 7, MaxSimultaneous: &one, IsActive: true,
	}
	if err := store.CreateArea(context.Background(), &area); err != nil {
		t.Fatal(err)
	}

	e := echo.New()
	RegisterRoutes(e, Deps{
		JWTSecret:    secret,
		Areas:        handler.NewAreaHandler(catalog, flow, nil, log),
		Reservations: handler.NewReservationHandler(flow, log),
	})
	return &api{t: t, e: e, areaID: area.ID, now: now}
}

func (a *api) do(who *model.Identity, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if who != nil {
		tok, err := utils.NewAccessToken(secret, *who, time.Hour)
		if err != nil {
			a.t.Fatal(err)
		}
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *api) reserveBody(daysAhead int, start, end string, headcount int) string {
	date := model.DayOf(a.now).AddDate(0, 0, daysAhead).Format(model.DateLayout)
	return `{"area_id":"` + a.areaID + `","date":"` + date + `","start_time":"` + start +
		`","end_time":"` + end + `","headcount":` + itoa(headcount) + `,"payment_method":"card"}`
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestHealthIsPublic(t *testing.T) {
	a := newAPI(t)
	if rec := a.do(nil, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	if rec := a.do(nil, http.MethodGet, "/v1/areas", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous areas = %d", rec.Code)
	}
}

func TestReservationLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)

	rec := a.do(&resident, http.MethodPost, "/v1/reservations", a.reserveBody(1, "10:00", "14:00", 8), "Idempotency-Key", "k-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	created := decode(t, rec)
	booking := created["booking"].(map[string]any)
	id := booking["id"].(string)
	if booking["status"] != "pending" || booking["date"] != "2026-10-16" || booking["start_time"] != "10:00" {
		t.Fatalf("booking = %v", booking)
	}
	if ref, _ := created["payment_ref"].(string); !strings.HasPrefix(ref, "CARD-") {
		t.Fatalf("payment_ref = %v", created["payment_ref"])
	}

	// the same key replays
	rec = a.do(&resident, http.MethodPost, "/v1/reservations", a.reserveBody(1, "10:00", "14:00", 8), "Idempotency-Key", "k-1")
	if rec.Code != http.StatusOK || decode(t, rec)["replayed"] != true {
		t.Fatalf("replay = %d %s", rec.Code, rec.Body.String())
	}
	// the same key with other parameters conflicts
	rec = a.do(&resident, http.MethodPost, "/v1/reservations", a.reserveBody(1, "10:00", "13:00", 8), "Idempotency-Key", "k-1")
	if rec.Code != http.StatusConflict {
		t.Fatalf("reused key = %d", rec.Code)
	}

	// another resident cannot tell the booking exists
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec := a.do(&neighbor, method, "/v1/reservations/"+id, "")
		if rec.Code != http.StatusNotFound || decode(t, rec)["error"] != "not available" {
			t.Fatalf("neighbor %s = %d %s", method, rec.Code, rec.Body.String())
		}
	}
	rec = a.do(&resident, http.MethodGet, "/v1/my-reservations", "")
	if list := decode(t, rec)["reservations"].([]any); len(list) != 1 {
		t.Fatalf("my reservations = %v", list)
	}

	if rec := a.do(&resident, http.MethodPost, "/v1/admin/bookings/"+id+"/settle", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("resident settle = %d", rec.Code)
	}
	rec = a.do(&admin, http.MethodPost, "/v1/admin/bookings/"+id+"/settle", `{"payment_ref":"CARD-DESK-1"}`)
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != "confirmed" {
		t.Fatalf("settle = %d %s", rec.Code, rec.Body.String())
	}

	rec = a.do(&resident, http.MethodDelete, "/v1/reservations/"+id, "")
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != "cancelled" {
		t.Fatalf("cancel = %d %s", rec.Code, rec.Body.String())
	}
	if rec := a.do(&admin, http.MethodDelete, "/v1/admin/bookings/"+id, ""); rec.Code != http.StatusConflict {
		t.Fatalf("cancel twice = %d", rec.Code)
	}
	if rec := a.do(&resident, http.MethodGet, "/v1/reservations/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing = %d", rec.Code)
	}
}

func TestRejectionIsLocalized(t *testing.T) {
	a := newAPI(t)
	if rec := a.do(&resident, http.MethodPost, "/v1/reservations", a.reserveBody(1, "10:00", "14:00", 8)); rec.Code != http.StatusCreated {
		t.Fatalf("first = %d", rec.Code)
	}

	tests := []struct {
		lang    string
		message string
	}{
		{"en-US", "There is no room left in that time range."},
		{"es-MX", "Ya no hay lugar disponible en ese horario."},
		{"", "Ya no hay lugar disponible en ese horario."},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			var headers []string
			if tt.lang != "" {
				headers = []string{"Accept-Language", tt.lang}
			}
			rec := a.do(&neighbor, http.MethodPost, "/v1/reservations", a.reserveBody(1, "13:00", "15:00", 2), headers...)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("code = %d %s", rec.Code, rec.Body.String())
			}
			body := decode(t, rec)
			if body["reason"] != string(availability.ReasonNoSimultaneousSlot) || body["message"] != tt.message {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestBadInputs(t *testing.T) {
	a := newAPI(t)
	tests := []struct {
		name    string
		body    string
		code    int
		mention string
	}{
		{"malformed json", `{"area_id":`, http.StatusBadRequest, ""},
		{"bad date", `{"area_id":"` + a.areaID + `","date":"16/10/2026","start_time":"10:00","end_time":"12:00","headcount":2,"payment_method":"card"}`, http.StatusBadRequest, "date"},
		{"bad clock", `{"area_id":"` + a.areaID + `","date":"2026-10-16","start_time":"25:00","end_time":"12:00","headcount":2,"payment_method":"card"}`, http.StatusBadRequest, ""},
		{"cash", strings.Replace(a.reserveBody(1, "10:00", "12:00", 2), "card", "cash", 1), http.StatusBadRequest, "payment_method"},
		{"no headcount", a.reserveBody(1, "10:00", "12:00", 0), http.StatusBadRequest, "headcount"},
		{"no area", strings.Replace(a.reserveBody(1, "10:00", "12:00", 2), a.areaID, "", 1), http.StatusBadRequest, "area_id"},
		{"unknown area", strings.Replace(a.reserveBody(1, "10:00", "12:00", 2), a.areaID, "nope", 1), http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(&resident, http.MethodPost, "/v1/reservations", tt.body)
			if rec.Code != tt.code {
				t.Fatalf("code = %d, want %d (%s)", rec.Code, tt.code, rec.Body.String())
			}
			if tt.mention != "" && !strings.Contains(rec.Body.String(), tt.mention) {
				t.Fatalf("error does not name %s: %s", tt.mention, rec.Body.String())
			}
		})
	}
}

func TestAdminAreaEndpoints(t *testing.T) {
	a := newAPI(t)

	if rec := a.do(&resident, http.MethodPost, "/v1/admin/areas", `{"name":"Alberca"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("resident create = %d", rec.Code)
	}
	rec := a.do(&admin, http.MethodPost, "/v1/admin/areas",
		`{"name":"Alberca","type":"common","capacity":30,"open_time":"09:00","close_time":"21:00","max_duration_hours":3,"max_advance_days":7}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	pool := decode(t, rec)
	if pool["is_active"] != true || pool["max_simultaneous"] != nil || pool["open_time"] != "09:00" {
		t.Fatalf("pool = %v", pool)
	}

	if rec := a.do(&admin, http.MethodPatch, "/v1/admin/areas/"+a.areaID, `{"capacity":0}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("zero capacity = %d", rec.Code)
	}
	rec = a.do(&admin, http.MethodPost, "/v1/admin/areas",
		`{"name":"alberca","capacity":10,"open_time":"09:00","close_time":"21:00","max_duration_hours":3,"max_advance_days":7}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate create = %d %s", rec.Code, rec.Body.String())
	}
	if rec := a.do(&admin, http.MethodPatch, "/v1/admin/areas/"+a.areaID, `{"name":"Alberca"}`); rec.Code != http.StatusConflict {
		t.Fatalf("rename onto existing = %d", rec.Code)
	}
	if rec := a.do(&admin, http.MethodPost, "/v1/admin/areas", `{"name":"Cancha","capacity":0}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid create = %d", rec.Code)
	}
	rec = a.do(&admin, http.MethodPut, "/v1/admin/areas/"+a.areaID, `{"is_active":false}`)
	if rec.Code != http.StatusOK || decode(t, rec)["is_active"] != false {
		t.Fatalf("deactivate = %d %s", rec.Code, rec.Body.String())
	}
	rec = a.do(&resident, http.MethodPost, "/v1/reservations", a.reserveBody(1, "10:00", "12:00", 2), "Accept-Language", "en")
	if rec.Code != http.StatusUnprocessableEntity || decode(t, rec)["reason"] != string(availability.ReasonAreaInactive) {
		t.Fatalf("inactive area = %d %s", rec.Code, rec.Body.String())
	}

	rec = a.do(&resident, http.MethodGet, "/v1/areas?type=common", "")
	if list := decode(t, rec)["areas"].([]any); len(list) != 2 {
		t.Fatalf("areas = %v", list)
	}
	rec = a.do(&resident, http.MethodGet, "/v1/areas?type=private", "")
	if list := decode(t, rec)["areas"].([]any); len(list) != 0 {
		t.Fatalf("private areas = %v", list)
	}
	if rec := a.do(&resident, http.MethodGet, "/v1/areas?type=rooftop", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown type = %d", rec.Code)
	}
}

func TestAvailabilityAndAdminDayList(t *testing.T) {
	a := newAPI(t)
	if rec := a.do(&resident, http.MethodPost, "/v1/reservations", a.reserveBody(1, "10:00", "12:00", 2)); rec.Code != http.StatusCreated {
		t.Fatalf("create = %d", rec.Code)
	}

	rec := a.do(&resident, http.MethodGet, "/v1/areas/"+a.areaID+"/availability?date=2026-10-16", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("availability = %d %s", rec.Code, rec.Body.String())
	}
	view := decode(t, rec)
	if view["window_end"] != "2026-10-22" || view["bookable"] != true {
		t.Fatalf("view = %v", view)
	}
	if occ := view["occupied"].([]any); len(occ) != 1 {
		t.Fatalf("occupied = %v", occ)
	}
	if area := view["area"].(map[string]any); area["current_bookings"] != float64(1) {
		t.Fatalf("current_bookings = %v", area["current_bookings"])
	}
	if rec := a.do(&resident, http.MethodGet, "/v1/areas/"+a.areaID+"/availability", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing date = %d", rec.Code)
	}

	if rec := a.do(&resident, http.MethodGet, "/v1/admin/areas/"+a.areaID+"/bookings?date=2026-10-16", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("resident day list = %d", rec.Code)
	}
	rec = a.do(&admin, http.MethodGet, "/v1/admin/areas/"+a.areaID+"/bookings?date=2026-10-16", "")
	if list := decode(t, rec)["bookings"].([]any); len(list) != 1 {
		t.Fatalf("bookings = %v", list)
	}
}
