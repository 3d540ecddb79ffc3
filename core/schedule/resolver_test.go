package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/kayembi/ratiba/core/classroom"
	"github.com/kayembi/ratiba/core/event"
	"github.com/kayembi/ratiba/core/schedule"
	"github.com/kayembi/ratiba/core/timetable"
	"github.com/kayembi/ratiba/core/user"
	dummydb "github.com/kayembi/ratiba/storage/database/dummy"
)

// Tuesday of week 3, semester 1, academic year 2025 (the semester starts
// Sep 2; days 14-20 after that fall in week 3).
var tuesdayW3 = time.Date(2025, time.September, 16, 0, 0, 0, 0, time.UTC)

type fixture struct {
	svc     schedule.Service
	usrRepo user.Repository
	clsRepo classroom.Repository
	ttRepo  timetable.Repository
	evtRepo event.Repository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	f := &fixture{
		usrRepo: dummydb.NewUserRepository(db),
		clsRepo: dummydb.NewClassroomRepository(db),
		ttRepo:  dummydb.NewTimetableRepository(db),
		evtRepo: dummydb.NewEventRepository(db),
	}
	f.svc = schedule.NewService(f.usrRepo, f.clsRepo, f.ttRepo, f.evtRepo)
	return f
}

func (f *fixture) createUser(t *testing.T, name, role, classID string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr, err := f.usrRepo.CreateUser(context.Background(), user.User{
		Name: name, Roles: []string{role}, ClassID: classID, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (f *fixture) createClass(t *testing.T, name string) classroom.Classroom {
	t.Helper()
	now := time.Now().UTC()
	cls, err := f.clsRepo.CreateClassroom(context.Background(), classroom.Classroom{
		Name: name, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createClass() failed: %v", err)
	}
	return cls
}

func (f *fixture) createEntry(t *testing.T, classID string, day int, periods ...timetable.Period) timetable.Entry {
	t.Helper()
	now := time.Now().UTC()
	entry, err := f.ttRepo.CreateEntry(context.Background(), timetable.Entry{
		ClassID: classID, DayOfWeek: day, Week: 3, Semester: 1, Year: 2025,
		Periods: periods, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createEntry() failed: %v", err)
	}
	return entry
}

func (f *fixture) createEvent(t *testing.T, evt event.Event) event.Event {
	t.Helper()
	now := time.Now().UTC()
	evt.CreatedAt, evt.UpdatedAt = now, now
	created, err := f.evtRepo.CreateEvent(context.Background(), evt)
	if err != nil {
		t.Fatalf("createEvent() failed: %v", err)
	}
	return created
}

func period(start, end, subject, teacherID string) timetable.Period {
	return timetable.Period{StartTime: start, EndTime: end, Subject: subject, TeacherID: teacherID}
}

func TestResolve_normalDay(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	cls := f.createClass(t, "Form 1 Red")
	teacher := f.createUser(t, "Mr. Banda", user.RoleTeacher, "")
	student := f.createUser(t, "Asha", user.RoleStudent, cls.ID)
	f.createEntry(t, cls.ID, int(tuesdayW3.Weekday()),
		period("10:00", "11:00", "Physics", teacher.ID),
		period("08:00", "09:00", "Math", teacher.ID),
	)

	sched, err := f.svc.Resolve(ctx, student.ID, tuesdayW3)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if sched.EventType != schedule.EventTypeNormal || sched.EventName != "" {
		t.Errorf("EventType = %q/%q, want normal", sched.EventType, sched.EventName)
	}
	if sched.DayOfWeek != 2 {
		t.Errorf("DayOfWeek = %d, want 2 (Tuesday)", sched.DayOfWeek)
	}
	if len(sched.Lessons) != 2 {
		t.Fatalf("Lessons = %+v, want 2", sched.Lessons)
	}
	if sched.Lessons[0].Subject != "Math" || sched.Lessons[1].Subject != "Physics" {
		t.Errorf("lessons not sorted by start time: %+v", sched.Lessons)
	}
	if sched.Lessons[0].TeacherName != "Mr. Banda" {
		t.Errorf("TeacherName = %q", sched.Lessons[0].TeacherName)
	}
	if sched.Lessons[0].Status != schedule.StatusNormal {
		t.Errorf("Status = %q", sched.Lessons[0].Status)
	}
}

func TestResolve_vacationWins(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	cls := f.createClass(t, "Form 1 Red")
	teacher := f.createUser(t, "Mr. Banda", user.RoleTeacher, "")
	student := f.createUser(t, "Asha", user.RoleStudent, cls.ID)
	f.createEntry(t, cls.ID, int(tuesdayW3.Weekday()), period("08:00", "09:00", "Math", teacher.ID))
	f.createEvent(t, event.Event{
		Type: event.TypeVacation, Name: "Mid-term Break",
		StartDate: tuesdayW3.AddDate(0, 0, -1), EndDate: tuesdayW3.AddDate(0, 0, 3),
		AffectsAllSchool: true,
	})

	sched, err := f.svc.Resolve(ctx, student.ID, tuesdayW3)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if sched.EventType != string(event.TypeVacation) || sched.EventName != "Mid-term Break" {
		t.Errorf("EventType = %q/%q", sched.EventType, sched.EventName)
	}
	if len(sched.Lessons) != 0 {
		t.Errorf("vacation day still has %d lessons", len(sched.Lessons))
	}
}

func TestResolve_holidayBeatsClassException(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	cls := f.createClass(t, "Form 1 Red")
	teacher := f.createUser(t, "Mr. Banda", user.RoleTeacher, "")
	student := f.createUser(t, "Asha", user.RoleStudent, cls.ID)
	f.createEntry(t, cls.ID, int(tuesdayW3.Weekday()), period("08:00", "09:00", "Math", teacher.ID))
	f.createEvent(t, event.Event{
		Type: event.TypeClassException, Name: "Field Trip",
		StartDate: tuesdayW3, EndDate: tuesdayW3, ClassID: cls.ID,
	})
	f.createEvent(t, event.Event{
		Type: event.TypeHoliday, Name: "Eid",
		StartDate: tuesdayW3, EndDate: tuesdayW3, AffectsAllSchool: true,
	})

	sched, err := f.svc.Resolve(ctx, student.ID, tuesdayW3)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if sched.EventType != string(event.TypeHoliday) || sched.EventName != "Eid" {
		t.Errorf("EventType = %q/%q, want holiday/Eid", sched.EventType, sched.EventName)
	}
	if len(sched.Lessons) != 0 {
		t.Errorf("holiday still has %d lessons", len(sched.Lessons))
	}
}

func TestResolve_classException(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	red := f.createClass(t, "Form 1 Red")
	blue := f.createClass(t, "Form 1 Blue")
	teacher := f.createUser(t, "Mr. Banda", user.RoleTeacher, "")
	student := f.createUser(t, "Asha", user.RoleStudent, red.ID)
	bystander := f.createUser(t, "Juma", user.RoleStudent, blue.ID)
	day := int(tuesdayW3.Weekday())
	f.createEntry(t, red.ID, day, period("08:00", "09:00", "Math", teacher.ID))
	f.createEntry(t, blue.ID, day, period("10:00", "11:00", "English", teacher.ID))
	f.createEvent(t, event.Event{
		Type: event.TypeClassException, Name: "Field Trip",
		StartDate: tuesdayW3, EndDate: tuesdayW3,
		ClassID: red.ID,
	})

	t.Run("excepted student", func(t *testing.T) {
		sched, err := f.svc.Resolve(ctx, student.ID, tuesdayW3)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if sched.EventType != string(event.TypeClassException) || len(sched.Lessons) != 0 {
			t.Errorf("sched = %+v", sched)
		}
	})

	t.Run("other class unaffected", func(t *testing.T) {
		sched, err := f.svc.Resolve(ctx, bystander.ID, tuesdayW3)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if sched.EventType != schedule.EventTypeNormal || len(sched.Lessons) != 1 {
			t.Errorf("sched = %+v", sched)
		}
	})

	t.Run("teacher keeps other periods", func(t *testing.T) {
		sched, err := f.svc.Resolve(ctx, teacher.ID, tuesdayW3)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(sched.Lessons) != 2 {
			t.Fatalf("Lessons = %+v", sched.Lessons)
		}
		if sched.Lessons[0].Status != schedule.StatusCancelled {
			t.Errorf("excepted class period status = %q", sched.Lessons[0].Status)
		}
		if sched.Lessons[1].Status != schedule.StatusNormal {
			t.Errorf("other class period status = %q", sched.Lessons[1].Status)
		}
		if sched.Lessons[1].ClassName != "Form 1 Blue" {
			t.Errorf("ClassName = %q", sched.Lessons[1].ClassName)
		}
	})
}

func TestResolve_shortenedDay(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	cls := f.createClass(t, "Form 1 Red")
	teacher := f.createUser(t, "Mr. Banda", user.RoleTeacher, "")
	student := f.createUser(t, "Asha", user.RoleStudent, cls.ID)
	f.createEntry(t, cls.ID, int(tuesdayW3.Weekday()),
		period("09:00", "10:30", "Math", teacher.ID),
		period("11:00", "12:30", "Physics", teacher.ID),
		period("14:00", "15:30", "English", teacher.ID),
	)
	f.createEvent(t, event.Event{
		Type: event.TypeShortenedDay, Name: "Heat Wave",
		StartDate: tuesdayW3, EndDate: tuesdayW3,
		AffectsAllSchool:  true,
		ShortenedSchedule: &event.ShortenedSchedule{LessonDuration: 30, BreakDuration: 5},
	})

	sched, err := f.svc.Resolve(ctx, student.ID, tuesdayW3)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if sched.EventType != string(event.TypeShortenedDay) {
		t.Errorf("EventType = %q", sched.EventType)
	}
	want := [][2]string{{"08:00", "08:30"}, {"08:35", "09:05"}, {"09:10", "09:40"}}
	if len(sched.Lessons) != len(want) {
		t.Fatalf("Lessons = %+v", sched.Lessons)
	}
	for i, w := range want {
		if sched.Lessons[i].StartTime != w[0] || sched.Lessons[i].EndTime != w[1] {
			t.Errorf("lesson[%d] = %s-%s, want %s-%s",
				i, sched.Lessons[i].StartTime, sched.Lessons[i].EndTime, w[0], w[1])
		}
	}
	// subject order survives the retiming
	if sched.Lessons[0].Subject != "Math" || sched.Lessons[2].Subject != "English" {
		t.Errorf("subject order broken: %+v", sched.Lessons)
	}
}

func TestResolve_edgeCases(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	t.Run("unknown user", func(t *testing.T) {
		if _, err := f.svc.Resolve(ctx, "nope", tuesdayW3); err != user.ErrNotFound {
			t.Errorf("Resolve() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("student without class", func(t *testing.T) {
		loner := f.createUser(t, "Neo", user.RoleStudent, "")
		sched, err := f.svc.Resolve(ctx, loner.ID, tuesdayW3)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if sched.EventType != schedule.EventTypeNormal || len(sched.Lessons) != 0 {
			t.Errorf("sched = %+v", sched)
		}
	})

	t.Run("holiday without timetable entry", func(t *testing.T) {
		cls := f.createClass(t, "Form 2 Red")
		student := f.createUser(t, "Zuri", user.RoleStudent, cls.ID)
		f.createEvent(t, event.Event{
			Type: event.TypeHoliday, Name: "Unity Day",
			StartDate: tuesdayW3, EndDate: tuesdayW3,
			AffectsAllSchool: true,
		})
		sched, err := f.svc.Resolve(ctx, student.ID, tuesdayW3)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if sched.EventType != string(event.TypeHoliday) || len(sched.Lessons) != 0 {
			t.Errorf("sched = %+v", sched)
		}
	})
}
