package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/kayembi/ratiba/core/timetable"
	"github.com/kayembi/ratiba/core/user"
)

func newEntryBody(t *testing.T, classID string, day int, periods ...timetable.Period) []byte {
	t.Helper()
	return marchallObj(t, timetable.NewEntry{
		ClassID:   classID,
		DayOfWeek: &day,
		Week:      3,
		Semester:  1,
		Year:      2025,
		Periods:   periods,
	})
}

func period(start, end, subject, teacherID string) timetable.Period {
	return timetable.Period{StartTime: start, EndTime: end, Subject: subject, TeacherID: teacherID}
}

func Test_timetableApi_create(t *testing.T) {
	f := setup(t)
	admin := f.createUser(t, "Admin", "mwalimu", "", []string{user.RoleAdmin}, "")
	student := f.createUser(t, "Hero", "hero01", "", []string{user.RoleStudent}, "")
	teacher := f.createUser(t, "Mr. Banda", "ticha1", "", []string{user.RoleTeacher}, "")
	red := f.createClass(t, "Form 1 Red")
	blue := f.createClass(t, "Form 1 Blue")

	adminToken := f.getToken(t, admin)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/v1/timetable",
			body: newEntryBody(t, red.ID, 1), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "admin required", method: http.MethodPost, path: "/v1/timetable", token: f.getToken(t, student),
			body: newEntryBody(t, red.ID, 1), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "invalid period time", method: http.MethodPost, path: "/v1/timetable", token: adminToken,
			body:     newEntryBody(t, red.ID, 1, period("9am", "10am", "Math", teacher.ID)),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown class", method: http.MethodPost, path: "/v1/timetable", token: adminToken,
			body:     newEntryBody(t, "nope", 1, period("08:00", "09:00", "Math", teacher.ID)),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "ok", method: http.MethodPost, path: "/v1/timetable", token: adminToken,
			body:     newEntryBody(t, red.ID, 1, period("08:00", "09:00", "Math", teacher.ID)),
			wantCode: http.StatusCreated,
		},
		{
			name: "duplicate class slot", method: http.MethodPost, path: "/v1/timetable", token: adminToken,
			body:     newEntryBody(t, red.ID, 1, period("10:00", "11:00", "English", teacher.ID)),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: timetable.ErrEntryExists.Error()}),
		},
		{
			name: "teacher double-booked", method: http.MethodPost, path: "/v1/timetable", token: adminToken,
			body:     newEntryBody(t, blue.ID, 1, period("08:30", "09:30", "Math", teacher.ID)),
			wantCode: http.StatusConflict,
		},
		{
			name: "touching periods commit", method: http.MethodPost, path: "/v1/timetable", token: adminToken,
			body:     newEntryBody(t, blue.ID, 1, period("09:00", "10:00", "Math", teacher.ID)),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt)
			checkCodeAndData(t, tt, rec)

			if tt.name == "teacher double-booked" {
				var resp struct {
					Error     string               `json:"error"`
					Conflicts []timetable.Conflict `json:"conflicts"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling conflict response: %v", err)
				}
				if len(resp.Conflicts) != 1 {
					t.Fatalf("conflicts = %+v, want exactly 1", resp.Conflicts)
				}
				if resp.Conflicts[0].Kind != timetable.KindTeacherConflict {
					t.Errorf("conflict kind = %v, want %v", resp.Conflicts[0].Kind, timetable.KindTeacherConflict)
				}
			}
		})
	}
}

func Test_timetableApi_checkConflicts(t *testing.T) {
	f := setup(t)
	admin := f.createUser(t, "Admin", "mwalimu", "", []string{user.RoleAdmin}, "")
	teacher := f.createUser(t, "Mr. Banda", "ticha1", "", []string{user.RoleTeacher}, "")
	red := f.createClass(t, "Form 1 Red")
	blue := f.createClass(t, "Form 1 Blue")

	adminToken := f.getToken(t, admin)

	seed := httpTest{
		method: http.MethodPost, path: "/v1/timetable", token: adminToken,
		body: newEntryBody(t, red.ID, 1, period("08:00", "09:00", "Math", teacher.ID)),
	}
	if rec := f.do(seed); rec.Code != http.StatusCreated {
		t.Fatalf("seeding entry failed: %v %v", rec.Code, rec.Body.String())
	}

	probe := httpTest{
		method: http.MethodPost, path: "/v1/timetable/conflicts", token: adminToken,
		body: newEntryBody(t, blue.ID, 1, period("08:30", "09:30", "Science", teacher.ID)),
	}
	rec := f.do(probe)
	if rec.Code != http.StatusOK {
		t.Fatalf("checkConflicts() code = %v, want 200; body %v", rec.Code, rec.Body.String())
	}

	var resp struct {
		HasConflicts bool                 `json:"has_conflicts"`
		Conflicts    []timetable.Conflict `json:"conflicts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if !resp.HasConflicts || len(resp.Conflicts) != 1 {
		t.Errorf("probe = %+v, want 1 conflict", resp)
	}

	// the probe must not write anything
	list := httpTest{path: "/v1/timetable?class_id=" + blue.ID, token: adminToken}
	rec = f.do(list)
	var entries []timetable.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("unmarshalling entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("probe wrote %d entries, want none", len(entries))
	}
}

func Test_timetableApi_update(t *testing.T) {
	f := setup(t)
	admin := f.createUser(t, "Admin", "mwalimu", "", []string{user.RoleAdmin}, "")
	teacher := f.createUser(t, "Mr. Banda", "ticha1", "", []string{user.RoleTeacher}, "")
	red := f.createClass(t, "Form 1 Red")

	adminToken := f.getToken(t, admin)

	rec := f.do(httpTest{
		method: http.MethodPost, path: "/v1/timetable", token: adminToken,
		body: newEntryBody(t, red.ID, 1, period("08:00", "09:00", "Math", teacher.ID)),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seeding entry failed: %v %v", rec.Code, rec.Body.String())
	}
	var entry timetable.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshalling entry: %v", err)
	}

	// moving its own period is not a conflict with itself
	upd := httpTest{
		method: http.MethodPut, path: "/v1/timetable/" + entry.ID, token: adminToken,
		body: marchallObj(t, timetable.UpdateEntry{Periods: []timetable.Period{period("08:30", "09:30", "Math", teacher.ID)}}),
	}
	rec = f.do(upd)
	if rec.Code != http.StatusOK {
		t.Fatalf("update code = %v, want 200; body %v", rec.Code, rec.Body.String())
	}

	del := httpTest{method: http.MethodDelete, path: "/v1/timetable/" + entry.ID, token: adminToken}
	if rec = f.do(del); rec.Code != http.StatusNoContent {
		t.Errorf("delete code = %v, want 204", rec.Code)
	}

	// deleting it twice is a not-found, not a silent success
	del.wantCode = http.StatusNotFound
	checkCodeAndData(t, del, f.do(del))

	get := httpTest{path: "/v1/timetable/" + entry.ID, token: adminToken, wantCode: http.StatusNotFound}
	checkCodeAndData(t, get, f.do(get))
}
