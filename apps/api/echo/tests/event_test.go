package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/kayembi/ratiba/core/event"
	"github.com/kayembi/ratiba/core/user"
)

func Test_eventApi_create(t *testing.T) {
	f := setup(t)
	admin := f.createUser(t, "Admin", "mwalimu", "", []string{user.RoleAdmin}, "")
	student := f.createUser(t, "Hero", "hero01", "", []string{user.RoleStudent}, "")
	red := f.createClass(t, "Form 1 Red")

	adminToken := f.getToken(t, admin)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/v1/events",
			body:     marchallObj(t, event.NewEvent{Type: event.TypeHoliday, Name: "Eid", StartDate: "2025-09-16", EndDate: "2025-09-16", AffectsAllSchool: true}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "admin required", method: http.MethodPost, path: "/v1/events", token: f.getToken(t, student),
			body:     marchallObj(t, event.NewEvent{Type: event.TypeHoliday, Name: "Eid", StartDate: "2025-09-16", EndDate: "2025-09-16", AffectsAllSchool: true}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "end before start", method: http.MethodPost, path: "/v1/events", token: adminToken,
			body:     marchallObj(t, event.NewEvent{Type: event.TypeVacation, Name: "Break", StartDate: "2025-12-20", EndDate: "2025-12-01", AffectsAllSchool: true}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "scoped event needs a class", method: http.MethodPost, path: "/v1/events", token: adminToken,
			body:     marchallObj(t, event.NewEvent{Type: event.TypeClassException, Name: "Trip", StartDate: "2025-09-16", EndDate: "2025-09-16"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "school-wide holiday", method: http.MethodPost, path: "/v1/events", token: adminToken,
			body:     marchallObj(t, event.NewEvent{Type: event.TypeHoliday, Name: "Eid", StartDate: "2025-09-16", EndDate: "2025-09-16", AffectsAllSchool: true}),
			wantCode: http.StatusCreated,
		},
		{
			name: "class trip", method: http.MethodPost, path: "/v1/events", token: adminToken,
			body:     marchallObj(t, event.NewEvent{Type: event.TypeClassException, Name: "Trip", StartDate: "2025-09-18", EndDate: "2025-09-19", ClassID: red.ID}),
			wantCode: http.StatusCreated,
		},
		{
			name: "shortened day gets default schedule", method: http.MethodPost, path: "/v1/events", token: adminToken,
			body:     marchallObj(t, event.NewEvent{Type: event.TypeShortenedDay, Name: "Sports Day", StartDate: "2025-09-22", EndDate: "2025-09-22", AffectsAllSchool: true}),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt)
			checkCodeAndData(t, tt, rec)

			if tt.name == "shortened day gets default schedule" {
				var evt event.Event
				if err := json.Unmarshal(rec.Body.Bytes(), &evt); err != nil {
					t.Fatalf("unmarshalling event: %v", err)
				}
				if evt.ShortenedSchedule == nil {
					t.Fatal("shortened_day event missing default schedule")
				}
				if evt.ShortenedSchedule.LessonDuration != event.DefaultLessonDuration {
					t.Errorf("lesson duration = %d, want %d", evt.ShortenedSchedule.LessonDuration, event.DefaultLessonDuration)
				}
				if evt.CreatedBy != admin.ID {
					t.Errorf("created_by = %q, want %q", evt.CreatedBy, admin.ID)
				}
			}
		})
	}
}

func Test_eventApi_queries(t *testing.T) {
	f := setup(t)
	admin := f.createUser(t, "Admin", "mwalimu", "", []string{user.RoleAdmin}, "")
	red := f.createClass(t, "Form 1 Red")

	adminToken := f.getToken(t, admin)

	create := func(t *testing.T, ne event.NewEvent) event.Event {
		t.Helper()
		rec := f.do(httpTest{method: http.MethodPost, path: "/v1/events", token: adminToken, body: marchallObj(t, ne)})
		if rec.Code != http.StatusCreated {
			t.Fatalf("seeding event failed: %v %v", rec.Code, rec.Body.String())
		}
		var evt event.Event
		if err := json.Unmarshal(rec.Body.Bytes(), &evt); err != nil {
			t.Fatalf("unmarshalling event: %v", err)
		}
		return evt
	}

	eid := create(t, event.NewEvent{Type: event.TypeHoliday, Name: "Eid", StartDate: "2025-09-16", EndDate: "2025-09-16", AffectsAllSchool: true})
	trip := create(t, event.NewEvent{Type: event.TypeClassException, Name: "Trip", StartDate: "2025-09-18", EndDate: "2025-09-19", ClassID: red.ID})
	create(t, event.NewEvent{Type: event.TypeVacation, Name: "December Break", StartDate: "2025-12-20", EndDate: "2026-01-04", AffectsAllSchool: true})

	tests := []httpTest{
		{name: "all", path: "/v1/events", token: adminToken},
		{name: "by type", path: "/v1/events?type=holiday", token: adminToken, wantData: marchallList(t, eid)},
		{name: "by class", path: "/v1/events?class_id=" + red.ID, token: adminToken, wantData: marchallList(t, trip)},
		{name: "for covered date", path: "/v1/events/date/2025-09-19", token: adminToken, wantData: marchallList(t, trip)},
		{name: "for empty date", path: "/v1/events/date/2025-09-17", token: adminToken, wantData: marchallList(t, []interface{}{}...)},
		{name: "bad date", path: "/v1/events/date/tomorrow", token: adminToken, wantCode: http.StatusBadRequest},
		{name: "range", path: "/v1/events/range?from=2025-09-15&to=2025-09-20", token: adminToken, wantData: marchallList(t, eid, trip)},
		{name: "inverted range", path: "/v1/events/range?from=2025-09-20&to=2025-09-15", token: adminToken, wantCode: http.StatusBadRequest},
		{name: "retrieve", path: "/v1/events/" + eid.ID, token: adminToken, wantData: marchallObj(t, eid)},
		{name: "retrieve unknown", path: "/v1/events/nope", token: adminToken, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, f.do(tt))
		})
	}
}

func Test_eventApi_updateDestroy(t *testing.T) {
	f := setup(t)
	admin := f.createUser(t, "Admin", "mwalimu", "", []string{user.RoleAdmin}, "")
	adminToken := f.getToken(t, admin)

	rec := f.do(httpTest{
		method: http.MethodPost, path: "/v1/events", token: adminToken,
		body: marchallObj(t, event.NewEvent{Type: event.TypeHoliday, Name: "Eid", StartDate: "2025-09-16", EndDate: "2025-09-16", AffectsAllSchool: true}),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seeding event failed: %v %v", rec.Code, rec.Body.String())
	}
	var evt event.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &evt); err != nil {
		t.Fatalf("unmarshalling event: %v", err)
	}

	upd := httpTest{
		method: http.MethodPut, path: "/v1/events/" + evt.ID, token: adminToken,
		body: marchallObj(t, map[string]string{"name": "Eid al-Fitr", "end_date": "2025-09-17"}),
	}
	rec = f.do(upd)
	if rec.Code != http.StatusOK {
		t.Fatalf("update code = %v, want 200; body %v", rec.Code, rec.Body.String())
	}
	var updated event.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("unmarshalling event: %v", err)
	}
	if updated.Name != "Eid al-Fitr" {
		t.Errorf("name = %q, want %q", updated.Name, "Eid al-Fitr")
	}
	if !updated.EndDate.After(evt.EndDate) {
		t.Errorf("end_date not extended: %v", updated.EndDate)
	}

	del := httpTest{method: http.MethodDelete, path: "/v1/events/" + evt.ID, token: adminToken}
	if rec = f.do(del); rec.Code != http.StatusNoContent {
		t.Errorf("delete code = %v, want 204", rec.Code)
	}

	// deleting it twice is a not-found, not a silent success
	del.wantCode = http.StatusNotFound
	checkCodeAndData(t, del, f.do(del))

	get := httpTest{path: "/v1/events/" + evt.ID, token: adminToken, wantCode: http.StatusNotFound}
	checkCodeAndData(t, get, f.do(get))
}
