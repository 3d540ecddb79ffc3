package event

import (
	"context"
	"errors"
	"time"

	"github.com/kayembi/ratiba/core"
	"github.com/kayembi/ratiba/core/classroom"
)

var (
	// errors
	ErrNotFound = errors.New("event not found")
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		QueryAllEvents(ctx context.Context, exec ...core.DBExecutor) ([]Event, error)
		GetEventByID(ctx context.Context, id string, exec ...core.DBExecutor) (Event, error)
		FilterEvents(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Event, error)
		// EventsForDate returns events whose inclusive date range contains date.
		EventsForDate(ctx context.Context, date time.Time, exec ...core.DBExecutor) ([]Event, error)
		// EventsInRange returns events overlapping the inclusive [from, to] range.
		EventsInRange(ctx context.Context, from, to time.Time, exec ...core.DBExecutor) ([]Event, error)
		UpdateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		DeleteEventsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
		DeleteByClassID(ctx context.Context, classID string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, ne NewEvent, createdBy string) (Event, error)
		Query(ctx context.Context) ([]Event, error)
		GetByID(ctx context.Context, id string) (Event, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Event, error)
		ForDate(ctx context.Context, date time.Time) ([]Event, error)
		InRange(ctx context.Context, from, to time.Time) ([]Event, error)
		Update(ctx context.Context, id string, ue UpdateEvent) (Event, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo    Repository
		clsRepo classroom.Repository
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)
var _ classroom.Cascade = (Repository)(nil)

func NewService(repo Repository, clsRepo classroom.Repository, logger core.Logger) Service {
	return &service{repo: repo, clsRepo: clsRepo, logger: logger}
}

func (svc *service) Create(ctx context.Context, ne NewEvent, createdBy string) (Event, error) {
	if err := svc.checkClass(ctx, ne.ClassID); err != nil {
		return Event{}, err
	}

	start, end := ne.Dates()
	now := time.Now().UTC()
	evt := Event{
		Type:              ne.Type,
		Name:              ne.Name,
		StartDate:         start,
		EndDate:           end,
		AffectsAllSchool:  ne.AffectsAllSchool,
		ClassID:           ne.ClassID,
		ShortenedSchedule: ne.ShortenedSchedule,
		CreatedBy:         createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if evt.Type == TypeShortenedDay && evt.ShortenedSchedule == nil {
		evt.ShortenedSchedule = &ShortenedSchedule{
			LessonDuration: DefaultLessonDuration,
			BreakDuration:  DefaultBreakDuration,
		}
	}

	svc.warnOnOverlap(ctx, evt)
	return svc.repo.CreateEvent(ctx, evt)
}

func (svc *service) Query(ctx context.Context) ([]Event, error) {
	return svc.repo.QueryAllEvents(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEventByID(ctx, id)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return svc.repo.FilterEvents(ctx, filter)
}

func (svc *service) ForDate(ctx context.Context, date time.Time) ([]Event, error) {
	return svc.repo.EventsForDate(ctx, core.DateOf(date))
}

func (svc *service) InRange(ctx context.Context, from, to time.Time) ([]Event, error) {
	from, to = core.DateOf(from), core.DateOf(to)
	if to.Before(from) {
		return nil, core.NewValidationError(nil, core.FieldError{
			Field: "to", Error: "range end must not be before range start",
		})
	}
	return svc.repo.EventsInRange(ctx, from, to)
}

func (svc *service) Update(ctx context.Context, id string, ue UpdateEvent) (Event, error) {
	orig, err := svc.repo.GetEventByID(ctx, id)
	if err != nil {
		return Event{}, err
	}
	merged, err := ue.Merge(orig)
	if err != nil {
		return Event{}, err
	}
	if err = svc.checkClass(ctx, merged.ClassID); err != nil {
		return Event{}, err
	}
	merged.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEvent(ctx, merged)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := svc.repo.GetEventByID(ctx, id); err != nil {
			return err
		}
	}
	return svc.repo.DeleteEventsByID(ctx, ids)
}

func (svc *service) checkClass(ctx context.Context, classID string) error {
	if classID == "" {
		return nil
	}
	if _, err := svc.clsRepo.GetClassroomByID(ctx, classID); err != nil {
		if err == classroom.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "class_id", Error: err.Error()})
		}
		return err
	}
	return nil
}

// warnOnOverlap logs when the new event overlaps an existing one of the same
// type and scope. Overlaps are allowed; the resolver applies precedence rules
// at read time, but an admin probably wants to know.
func (svc *service) warnOnOverlap(ctx context.Context, evt Event) {
	existing, err := svc.repo.EventsInRange(ctx, evt.StartDate, evt.EndDate)
	if err != nil {
		svc.logger.Warn("event overlap check failed", err)
		return
	}
	for _, ex := range existing {
		if ex.Type == evt.Type && ex.AffectsAllSchool == evt.AffectsAllSchool && ex.ClassID == evt.ClassID {
			svc.logger.Warn(
				"new event overlaps an existing event of the same type",
				map[string]interface{}{
					"name":          evt.Name,
					"existing_name": ex.Name,
					"existing_id":   ex.ID,
					"type":          evt.Type,
				},
			)
			return
		}
	}
}
