package timetable

import (
	"context"
	"errors"
	"time"

	"github.com/kayembi/ratiba/core"
	"github.com/kayembi/ratiba/core/classroom"
	"github.com/kayembi/ratiba/core/user"
)

var (
	// errors
	ErrNotFound    = errors.New("timetable entry not found")
	ErrEntryExists = errors.New("a timetable entry already exists for this class, day and week")
)

type (
	Repository interface {
		CreateEntry(ctx context.Context, entry Entry, exec ...core.DBExecutor) (Entry, error)
		QueryAllEntries(ctx context.Context, exec ...core.DBExecutor) ([]Entry, error)
		GetEntryByID(ctx context.Context, id string, exec ...core.DBExecutor) (Entry, error)
		// FilterEntries applies AND operation on available QueryFilter fields.
		// QueryFilter.TeacherID matches entries containing at least one period
		// taught by that teacher.
		FilterEntries(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Entry, error)
		UpdateEntryPeriods(ctx context.Context, id string, periods Periods, updatedAt time.Time, exec ...core.DBExecutor) (Entry, error)
		DeleteEntriesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
		DeleteByClassID(ctx context.Context, classID string, exec ...core.DBExecutor) error
		// WithDayLock runs fn while holding an exclusive lock scoped to one
		// day-of-week. Conflict detection and the subsequent write happen
		// inside fn so no second writer can slip a clashing entry in between.
		WithDayLock(ctx context.Context, dayOfWeek int, fn func(exec core.DBExecutor) error) error
	}

	Service interface {
		Create(ctx context.Context, ne NewEntry) (Entry, error)
		Query(ctx context.Context) ([]Entry, error)
		GetByID(ctx context.Context, id string) (Entry, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Entry, error)
		UpdatePeriods(ctx context.Context, id string, ue UpdateEntry) (Entry, error)
		Delete(ctx context.Context, ids ...string) error
		// DetectConflicts reports the conflicts a NewEntry would cause without
		// writing anything. excludeID leaves one entry out of the comparison,
		// for probing an update. The result is advisory; writes re-check
		// under lock.
		DetectConflicts(ctx context.Context, ne NewEntry, excludeID string) ([]Conflict, error)
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
		clsRepo classroom.Repository
	}
)

var _ Service = (*service)(nil)
var _ classroom.Cascade = (Repository)(nil)

func NewService(repo Repository, usrRepo user.Repository, clsRepo classroom.Repository) Service {
	return &service{repo: repo, usrRepo: usrRepo, clsRepo: clsRepo}
}

func (svc *service) Create(ctx context.Context, ne NewEntry) (Entry, error) {
	if err := svc.checkReferences(ctx, ne.ClassID, ne.Periods); err != nil {
		return Entry{}, err
	}

	now := time.Now().UTC()
	entry := Entry{
		ClassID:   ne.ClassID,
		DayOfWeek: *ne.DayOfWeek,
		Week:      ne.Week,
		Semester:  ne.Semester,
		Year:      ne.Year,
		Periods:   ne.Periods,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := svc.repo.WithDayLock(ctx, entry.DayOfWeek, func(exec core.DBExecutor) error {
		existing, err := svc.sameDayEntries(ctx, entry, "", exec)
		if err != nil {
			return err
		}
		for _, ex := range existing {
			if ex.ClassID == entry.ClassID {
				return ErrEntryExists
			}
		}
		if conflicts := detectConflicts(entry.ClassID, entry.Periods, existing, svc.resolver(ctx)); conflicts != nil {
			return NewConflictError(conflicts)
		}
		entry, err = svc.repo.CreateEntry(ctx, entry, exec)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	entry.SortPeriods()
	return entry, nil
}

func (svc *service) Query(ctx context.Context) ([]Entry, error) {
	entries, err := svc.repo.QueryAllEntries(ctx)
	sortAll(entries)
	return entries, err
}

func (svc *service) GetByID(ctx context.Context, id string) (Entry, error) {
	entry, err := svc.repo.GetEntryByID(ctx, id)
	entry.SortPeriods()
	return entry, err
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	entries, err := svc.repo.FilterEntries(ctx, filter)
	sortAll(entries)
	return entries, err
}

func (svc *service) UpdatePeriods(ctx context.Context, id string, ue UpdateEntry) (Entry, error) {
	entry, err := svc.repo.GetEntryByID(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if err = svc.checkReferences(ctx, entry.ClassID, ue.Periods); err != nil {
		return Entry{}, err
	}

	err = svc.repo.WithDayLock(ctx, entry.DayOfWeek, func(exec core.DBExecutor) error {
		existing, err := svc.sameDayEntries(ctx, entry, entry.ID, exec)
		if err != nil {
			return err
		}
		if conflicts := detectConflicts(entry.ClassID, ue.Periods, existing, svc.resolver(ctx)); conflicts != nil {
			return NewConflictError(conflicts)
		}
		entry, err = svc.repo.UpdateEntryPeriods(ctx, id, ue.Periods, time.Now().UTC(), exec)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	entry.SortPeriods()
	return entry, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := svc.repo.GetEntryByID(ctx, id); err != nil {
			return err
		}
	}
	return svc.repo.DeleteEntriesByID(ctx, ids)
}

func (svc *service) DetectConflicts(ctx context.Context, ne NewEntry, excludeID string) ([]Conflict, error) {
	if err := svc.checkReferences(ctx, ne.ClassID, ne.Periods); err != nil {
		return nil, err
	}
	probe := Entry{
		ClassID:   ne.ClassID,
		DayOfWeek: *ne.DayOfWeek,
		Week:      ne.Week,
		Semester:  ne.Semester,
		Year:      ne.Year,
	}
	existing, err := svc.sameDayEntries(ctx, probe, excludeID)
	if err != nil {
		return nil, err
	}
	// a pre-existing entry for the same class counts as conflicting material,
	// not as a uniqueness failure: the caller is only probing
	return detectConflicts(ne.ClassID, ne.Periods, existing, svc.resolver(ctx)), nil
}

// sameDayEntries loads every entry sharing the probe's (day, week, semester,
// year) slot, across all classes, minus the entry identified by excludeID.
func (svc *service) sameDayEntries(ctx context.Context, probe Entry, excludeID string, exec ...core.DBExecutor) ([]Entry, error) {
	day := probe.DayOfWeek
	entries, err := svc.repo.FilterEntries(ctx, QueryFilter{
		DayOfWeek: &day,
		Week:      probe.Week,
		Semester:  probe.Semester,
		Year:      probe.Year,
	}, exec...)
	if err != nil {
		return nil, err
	}
	if excludeID == "" {
		return entries, nil
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != excludeID {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

// checkReferences rejects entries naming an unknown class, an unknown teacher
// or a user who is not a teacher.
func (svc *service) checkReferences(ctx context.Context, classID string, periods []Period) error {
	if _, err := svc.clsRepo.GetClassroomByID(ctx, classID); err != nil {
		if err == classroom.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "class_id", Error: err.Error()})
		}
		return err
	}

	seen := make(map[string]bool, len(periods))
	for i, p := range periods {
		if seen[p.TeacherID] {
			continue
		}
		usr, err := svc.usrRepo.GetUserByID(ctx, p.TeacherID)
		if err != nil {
			if err == user.ErrNotFound {
				return core.NewValidationError(err, core.FieldError{
					Field: periodField(i, "teacher_id"), Error: "teacher not found",
				})
			}
			return err
		}
		if !usr.IsTeacher() {
			return core.NewValidationError(nil, core.FieldError{
				Field: periodField(i, "teacher_id"), Error: "user is not a teacher",
			})
		}
		seen[p.TeacherID] = true
	}
	return nil
}

func (svc *service) resolver(ctx context.Context) nameResolver {
	return &repoResolver{ctx: ctx, usrRepo: svc.usrRepo, clsRepo: svc.clsRepo}
}

func sortAll(entries []Entry) {
	for i := range entries {
		entries[i].SortPeriods()
	}
}

// repoResolver resolves display names for conflict messages, falling back to
// the raw ID when a lookup fails.
type repoResolver struct {
	ctx     context.Context
	usrRepo user.Repository
	clsRepo classroom.Repository
}

func (r *repoResolver) teacherName(id string) string {
	if usr, err := r.usrRepo.GetUserByID(r.ctx, id); err == nil && usr.Name != "" {
		return usr.Name
	}
	return id
}

func (r *repoResolver) className(id string) string {
	if cls, err := r.clsRepo.GetClassroomByID(r.ctx, id); err == nil && cls.Name != "" {
		return cls.Name
	}
	return id
}
