package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kayembi/ratiba/core"
	"github.com/kayembi/ratiba/core/timetable"
)

type timetableRepository struct {
	db *timetableTable
}

var _ timetable.Repository = (*timetableRepository)(nil) // interface compliance check

func NewTimetableRepository(db *DB) *timetableRepository {
	return &timetableRepository{db: db.timetable}
}

// cloneEntry copies the entry out with its own periods backing array, so
// callers can never mutate stored state through the returned value.
func cloneEntry(e *timetable.Entry) timetable.Entry {
	entry := *e
	entry.Periods = append(timetable.Periods(nil), e.Periods...)
	return entry
}

func (repo *timetableRepository) query() []timetable.Entry {
	entries := make([]timetable.Entry, 0, len(repo.db.table))
	for _, e := range repo.db.table {
		entries = append(entries, cloneEntry(e))
	}
	return entries
}

func (repo *timetableRepository) CreateEntry(ctx context.Context, entry timetable.Entry, exec ...core.DBExecutor) (timetable.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// the natural unique key, enforced here like the DB index enforces it
	for _, e := range repo.db.table {
		if e.ClassID == entry.ClassID && e.DayOfWeek == entry.DayOfWeek &&
			e.Week == entry.Week && e.Semester == entry.Semester && e.Year == entry.Year {
			return timetable.Entry{}, timetable.ErrEntryExists
		}
	}

	entry.ID = uuid.NewString()
	stored := cloneEntry(&entry)
	repo.db.table[entry.ID] = &stored
	return entry, nil
}

func (repo *timetableRepository) QueryAllEntries(ctx context.Context, exec ...core.DBExecutor) ([]timetable.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *timetableRepository) GetEntryByID(ctx context.Context, id string, exec ...core.DBExecutor) (timetable.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if entry, ok := repo.db.table[id]; ok {
		return cloneEntry(entry), nil
	}
	return timetable.Entry{}, timetable.ErrNotFound
}

func (repo *timetableRepository) FilterEntries(ctx context.Context, filter timetable.QueryFilter, exec ...core.DBExecutor) ([]timetable.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var filtered []timetable.Entry
	for _, entry := range repo.query() {
		if filter.ClassID != "" && entry.ClassID != filter.ClassID {
			continue
		}
		if filter.TeacherID != "" && !taughtBy(entry, filter.TeacherID) {
			continue
		}
		if filter.DayOfWeek != nil && entry.DayOfWeek != *filter.DayOfWeek {
			continue
		}
		if filter.Week != 0 && entry.Week != filter.Week {
			continue
		}
		if filter.Semester != 0 && entry.Semester != filter.Semester {
			continue
		}
		if filter.Year != 0 && entry.Year != filter.Year {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered, nil
}

func taughtBy(entry timetable.Entry, teacherID string) bool {
	for _, p := range entry.Periods {
		if p.TeacherID == teacherID {
			return true
		}
	}
	return false
}

func (repo *timetableRepository) UpdateEntryPeriods(ctx context.Context, id string, periods timetable.Periods, updatedAt time.Time, exec ...core.DBExecutor) (timetable.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.table[id]
	if !ok {
		return timetable.Entry{}, timetable.ErrNotFound
	}
	stored.Periods = append(timetable.Periods(nil), periods...)
	stored.UpdatedAt = updatedAt
	return cloneEntry(stored), nil
}

func (repo *timetableRepository) DeleteEntriesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *timetableRepository) DeleteByClassID(ctx context.Context, classID string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, entry := range repo.db.table {
		if entry.ClassID == classID {
			delete(repo.db.table, id)
		}
	}
	return nil
}

// WithDayLock serializes writers on a per-day mutex, mirroring the advisory
// lock the Postgres repository takes.
func (repo *timetableRepository) WithDayLock(ctx context.Context, dayOfWeek int, fn func(exec core.DBExecutor) error) error {
	mu := &repo.db.dayLocks[dayOfWeek%7]
	mu.Lock()
	defer mu.Unlock()
	return fn(nil)
}
