package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/kayembi/ratiba/core/schedule"
	"github.com/kayembi/ratiba/core/user"
)

// 2025-09-16 is a Tuesday in week 3 of semester 1.
const tuesdayW3 = "2025-09-16"

func Test_scheduleApi_resolve(t *testing.T) {
	f := setup(t)
	admin := f.createUser(t, "Admin", "mwalimu", "", []string{user.RoleAdmin}, "")
	teacher := f.createUser(t, "Mr. Banda", "ticha1", "", []string{user.RoleTeacher}, "")
	red := f.createClass(t, "Form 1 Red")
	student := f.createUser(t, "Hero", "hero01", "", []string{user.RoleStudent}, red.ID)
	other := f.createUser(t, "Other", "other1", "", []string{user.RoleStudent}, red.ID)

	adminToken := f.getToken(t, admin)

	rec := f.do(httpTest{
		method: http.MethodPost, path: "/v1/timetable", token: adminToken,
		body: newEntryBody(t, red.ID, 2,
			period("08:00", "09:00", "Math", teacher.ID),
			period("09:00", "10:00", "Science", teacher.ID),
		),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seeding entry failed: %v %v", rec.Code, rec.Body.String())
	}

	path := "/v1/schedule/users/" + student.ID + "/date/" + tuesdayW3

	t.Run("student resolves own day", func(t *testing.T) {
		rec := f.do(httpTest{path: path, token: f.getToken(t, student)})
		if rec.Code != http.StatusOK {
			t.Fatalf("resolve code = %v; body %v", rec.Code, rec.Body.String())
		}
		var sched schedule.DaySchedule
		if err := json.Unmarshal(rec.Body.Bytes(), &sched); err != nil {
			t.Fatalf("unmarshalling schedule: %v", err)
		}
		if len(sched.Lessons) != 2 {
			t.Fatalf("lessons = %+v, want 2", sched.Lessons)
		}
		if sched.Lessons[0].Subject != "Math" || sched.Lessons[0].TeacherName != "Mr. Banda" {
			t.Errorf("first lesson = %+v", sched.Lessons[0])
		}
		if sched.EventType != schedule.EventTypeNormal {
			t.Errorf("event type = %q, want %q", sched.EventType, schedule.EventTypeNormal)
		}
	})

	t.Run("holiday empties the day", func(t *testing.T) {
		rec := f.do(httpTest{
			method: http.MethodPost, path: "/v1/events", token: adminToken,
			body: marchallObj(t, map[string]interface{}{
				"type": "holiday", "name": "Eid", "start_date": tuesdayW3, "end_date": tuesdayW3, "affects_all_school": true,
			}),
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("seeding event failed: %v %v", rec.Code, rec.Body.String())
		}

		rec = f.do(httpTest{path: path, token: f.getToken(t, student)})
		var sched schedule.DaySchedule
		if err := json.Unmarshal(rec.Body.Bytes(), &sched); err != nil {
			t.Fatalf("unmarshalling schedule: %v", err)
		}
		if len(sched.Lessons) != 0 {
			t.Errorf("lessons = %+v, want none", sched.Lessons)
		}
		if sched.EventType != "holiday" || sched.EventName != "Eid" {
			t.Errorf("event = %q %q, want holiday Eid", sched.EventType, sched.EventName)
		}
	})

	t.Run("cannot read another student's schedule", func(t *testing.T) {
		rec := f.do(httpTest{path: path, token: f.getToken(t, other)})
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v, want 404", rec.Code)
		}
	})

	t.Run("admin can read anyone's schedule", func(t *testing.T) {
		rec := f.do(httpTest{path: path, token: adminToken})
		if rec.Code != http.StatusOK {
			t.Errorf("code = %v, want 200", rec.Code)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		rec := f.do(httpTest{path: "/v1/schedule/users/" + student.ID + "/date/tomorrow", token: f.getToken(t, student)})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v, want 400", rec.Code)
		}
	})
}
