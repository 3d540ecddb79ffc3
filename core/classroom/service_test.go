package classroom_test

import (
	"context"
	"testing"
	"time"

	"github.com/kayembi/ratiba/core"
	"github.com/kayembi/ratiba/core/classroom"
	"github.com/kayembi/ratiba/core/event"
	"github.com/kayembi/ratiba/core/timetable"
	"github.com/kayembi/ratiba/core/user"
	dummydb "github.com/kayembi/ratiba/storage/database/dummy"
)

type fixture struct {
	svc     classroom.Service
	usrRepo user.Repository
	ttRepo  timetable.Repository
	evtRepo event.Repository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	clsRepo := dummydb.NewClassroomRepository(db)
	ttRepo := dummydb.NewTimetableRepository(db)
	evtRepo := dummydb.NewEventRepository(db)
	return &fixture{
		svc:     classroom.NewService(clsRepo, usrRepo, ttRepo, evtRepo),
		usrRepo: usrRepo,
		ttRepo:  ttRepo,
		evtRepo: evtRepo,
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	cls, err := f.svc.Create(ctx, classroom.NewClassroom{Name: "Form 1 Red"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if cls.ID == "" {
		t.Error("Create() returned classroom without ID")
	}

	t.Run("duplicate name", func(t *testing.T) {
		err := f.svc.CheckNameUniqueness("Form 1 Red")
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("CheckNameUniqueness() error = %v, want validation error", err)
		}
	})
}

func TestService_Roster(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	cls, err := f.svc.Create(ctx, classroom.NewClassroom{Name: "Form 1 Red"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	now := time.Now().UTC()
	for _, name := range []string{"Asha", "Juma"} {
		_, err := f.usrRepo.CreateUser(ctx, user.User{
			Name: name, Roles: []string{user.RoleStudent}, ClassID: cls.ID,
			IsActive: true, CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	_, err = f.usrRepo.CreateUser(ctx, user.User{
		Name: "Neo", Roles: []string{user.RoleStudent},
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	roster, err := f.svc.Roster(ctx, cls.ID)
	if err != nil {
		t.Fatalf("Roster() error = %v", err)
	}
	if len(roster) != 2 {
		t.Errorf("Roster() = %d students, want 2", len(roster))
	}

	t.Run("unknown class", func(t *testing.T) {
		if _, err := f.svc.Roster(ctx, "nope"); err != classroom.ErrNotFound {
			t.Errorf("Roster() error = %v, want ErrNotFound", err)
		}
	})
}

func TestService_Delete_cascades(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	cls, err := f.svc.Create(ctx, classroom.NewClassroom{Name: "Form 1 Red"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	kept, err := f.svc.Create(ctx, classroom.NewClassroom{Name: "Form 1 Blue"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	now := time.Now().UTC()
	student, err := f.usrRepo.CreateUser(ctx, user.User{
		Name: "Asha", Roles: []string{user.RoleStudent}, ClassID: cls.ID,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	for _, classID := range []string{cls.ID, kept.ID} {
		_, err = f.ttRepo.CreateEntry(ctx, timetable.Entry{
			ClassID: classID, DayOfWeek: 1, Week: 1, Semester: 1, Year: 2025,
			Periods:   timetable.Periods{{StartTime: "08:00", EndTime: "09:00", Subject: "Math", TeacherID: "t"}},
			CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("CreateEntry() failed: %v", err)
		}
		_, err = f.evtRepo.CreateEvent(ctx, event.Event{
			Type: event.TypeClassException, Name: "Trip", ClassID: classID,
			StartDate: now, EndDate: now, CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("CreateEvent() failed: %v", err)
		}
	}

	if err = f.svc.Delete(ctx, cls.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err = f.svc.GetByID(ctx, cls.ID); err != classroom.ErrNotFound {
		t.Errorf("classroom still present after delete: %v", err)
	}

	entries, err := f.ttRepo.FilterEntries(ctx, timetable.QueryFilter{ClassID: cls.ID})
	if err != nil || len(entries) != 0 {
		t.Errorf("timetable entries not cascaded: %v, %d left", err, len(entries))
	}
	events, err := f.evtRepo.FilterEvents(ctx, event.QueryFilter{ClassID: cls.ID})
	if err != nil || len(events) != 0 {
		t.Errorf("events not cascaded: %v, %d left", err, len(events))
	}

	// the student is detached, not deleted
	usr, err := f.usrRepo.GetUserByID(ctx, student.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if usr.ClassID != "" {
		t.Errorf("student still assigned to deleted class: %q", usr.ClassID)
	}

	// the other classroom's rows survive
	entries, err = f.ttRepo.FilterEntries(ctx, timetable.QueryFilter{ClassID: kept.ID})
	if err != nil || len(entries) != 1 {
		t.Errorf("unrelated timetable entries touched: %v, %d left", err, len(entries))
	}
}
