package classroom

import (
	"context"
	"errors"
	"time"

	"github.com/kayembi/ratiba/core"
	"github.com/kayembi/ratiba/core/user"
)

var (
	// errors
	ErrNotFound   = errors.New("classroom not found")
	ErrNameExists = errors.New("a classroom with this name already exists")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string, exec ...core.DBExecutor) error
		CreateClassroom(ctx context.Context, cls Classroom, exec ...core.DBExecutor) (Classroom, error)
		QueryAllClassrooms(ctx context.Context, exec ...core.DBExecutor) ([]Classroom, error)
		GetClassroomByID(ctx context.Context, id string, exec ...core.DBExecutor) (Classroom, error)
		UpdateClassroom(ctx context.Context, cls Classroom, homeroomTeacherID *string, exec ...core.DBExecutor) (Classroom, error)
		DeleteClassroomsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	// Cascade is implemented by repositories holding rows that reference a
	// classroom and must go when the classroom goes.
	Cascade interface {
		DeleteByClassID(ctx context.Context, classID string, exec ...core.DBExecutor) error
	}

	Service interface {
		CheckNameUniqueness(name string) error
		Create(ctx context.Context, nc NewClassroom) (Classroom, error)
		Query(ctx context.Context) ([]Classroom, error)
		GetByID(ctx context.Context, id string) (Classroom, error)
		// Roster returns the students whose home class is the given classroom.
		Roster(ctx context.Context, classID string) ([]user.User, error)
		Update(ctx context.Context, id string, uc UpdateClassroom) (Classroom, error)
		// Delete removes classrooms along with their timetable entries and
		// class-scoped calendar events, and detaches affected students.
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo     Repository
		usrRepo  user.Repository
		cascades []Cascade
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository, cascades ...Cascade) Service {
	return &service{repo: repo, usrRepo: usrRepo, cascades: cascades}
}

func (svc *service) CheckNameUniqueness(name string) error {
	if err := svc.repo.CheckNameUniqueness(context.Background(), name); err != nil {
		if err == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nc NewClassroom) (Classroom, error) {
	now := time.Now().UTC()
	cls := Classroom{
		Name:              nc.Name,
		HomeroomTeacherID: nc.HomeroomTeacherID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return svc.repo.CreateClassroom(ctx, cls)
}

func (svc *service) Query(ctx context.Context) ([]Classroom, error) {
	return svc.repo.QueryAllClassrooms(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (Classroom, error) {
	return svc.repo.GetClassroomByID(ctx, id)
}

func (svc *service) Roster(ctx context.Context, classID string) ([]user.User, error) {
	if _, err := svc.repo.GetClassroomByID(ctx, classID); err != nil {
		return nil, err
	}
	return svc.usrRepo.FilterUsers(ctx, user.QueryFilter{ClassID: classID})
}

func (svc *service) Update(ctx context.Context, id string, uc UpdateClassroom) (Classroom, error) {
	cls := Classroom{
		ID:        id,
		Name:      uc.Name,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateClassroom(ctx, cls, uc.HomeroomTeacherID)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := svc.repo.GetClassroomByID(ctx, id); err != nil {
			return err
		}
		for _, casc := range svc.cascades {
			if err := casc.DeleteByClassID(ctx, id); err != nil {
				return err
			}
		}
		students, err := svc.usrRepo.FilterUsers(ctx, user.QueryFilter{ClassID: id})
		if err != nil {
			return err
		}
		detached := ""
		for _, st := range students {
			st.UpdatedAt = time.Now().UTC()
			if _, err = svc.usrRepo.UpdateUser(ctx, st, nil, &detached); err != nil {
				return err
			}
		}
	}
	return svc.repo.DeleteClassroomsByID(ctx, ids)
}
