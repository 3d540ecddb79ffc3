package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kayembi/ratiba/core"
	"github.com/kayembi/ratiba/core/timetable"
)

const entryCols = `id, class_id, day_of_week, week, semester, year, periods, created_at, updated_at`

// lockSpace namespaces the per-day advisory locks so they cannot collide with
// any other advisory-lock user of the same database.
const lockSpace = 0x5254 // "RT"

type timetableRepository struct {
	db core.DB
}

var _ timetable.Repository = (*timetableRepository)(nil) // interface compliance check

func NewTimetableRepository(db core.DB) *timetableRepository {
	return &timetableRepository{db: db}
}

func (repo *timetableRepository) CreateEntry(ctx context.Context, entry timetable.Entry, exec ...core.DBExecutor) (timetable.Entry, error) {
	db := getExec(repo.db, exec)
	query := `INSERT INTO timetable_entries (class_id, day_of_week, week, semester, year, periods, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	err := db.QueryRowxContext(ctx, query,
		entry.ClassID, entry.DayOfWeek, entry.Week, entry.Semester, entry.Year,
		entry.Periods, entry.CreatedAt, entry.UpdatedAt,
	).Scan(&entry.ID)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return timetable.Entry{}, timetable.ErrEntryExists
		}
		return timetable.Entry{}, errors.Wrap(err, "creating timetable entry")
	}
	return entry, nil
}

func (repo *timetableRepository) QueryAllEntries(ctx context.Context, exec ...core.DBExecutor) ([]timetable.Entry, error) {
	db := getExec(repo.db, exec)
	var entries []timetable.Entry
	err := db.SelectContext(ctx, &entries,
		`SELECT `+entryCols+` FROM timetable_entries ORDER BY year, semester, week, day_of_week`)
	return entries, err
}

func (repo *timetableRepository) GetEntryByID(ctx context.Context, id string, exec ...core.DBExecutor) (timetable.Entry, error) {
	db := getExec(repo.db, exec)
	var entry timetable.Entry
	err := db.GetContext(ctx, &entry, `SELECT `+entryCols+` FROM timetable_entries WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return timetable.Entry{}, timetable.ErrNotFound
	}
	return entry, err
}

func (repo *timetableRepository) FilterEntries(ctx context.Context, filter timetable.QueryFilter, exec ...core.DBExecutor) ([]timetable.Entry, error) {
	db := getExec(repo.db, exec)

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ClassID != "" {
		conds = append(conds, fmt.Sprintf("class_id = %s", arg(filter.ClassID)))
	}
	if filter.TeacherID != "" {
		probe, err := json.Marshal([]map[string]string{{"teacher_id": filter.TeacherID}})
		if err != nil {
			return nil, err
		}
		conds = append(conds, fmt.Sprintf("periods @> %s", arg(string(probe))))
	}
	if filter.DayOfWeek != nil {
		conds = append(conds, fmt.Sprintf("day_of_week = %s", arg(*filter.DayOfWeek)))
	}
	if filter.Week != 0 {
		conds = append(conds, fmt.Sprintf("week = %s", arg(filter.Week)))
	}
	if filter.Semester != 0 {
		conds = append(conds, fmt.Sprintf("semester = %s", arg(filter.Semester)))
	}
	if filter.Year != 0 {
		conds = append(conds, fmt.Sprintf("year = %s", arg(filter.Year)))
	}

	query := `SELECT ` + entryCols + ` FROM timetable_entries`
	if conds != nil {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY year, semester, week, day_of_week"

	var entries []timetable.Entry
	err := db.SelectContext(ctx, &entries, query, args...)
	return entries, err
}

func (repo *timetableRepository) UpdateEntryPeriods(ctx context.Context, id string, periods timetable.Periods, updatedAt time.Time, exec ...core.DBExecutor) (timetable.Entry, error) {
	db := getExec(repo.db, exec)
	res, err := db.ExecContext(ctx,
		`UPDATE timetable_entries SET periods = $1, updated_at = $2 WHERE id = $3`,
		periods, updatedAt, id)
	if err != nil {
		return timetable.Entry{}, errors.Wrap(err, "updating timetable entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return timetable.Entry{}, timetable.ErrNotFound
	}
	return repo.GetEntryByID(ctx, id, db)
}

func (repo *timetableRepository) DeleteEntriesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	db := getExec(repo.db, exec)
	_, err := db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting timetable entries")
}

func (repo *timetableRepository) DeleteByClassID(ctx context.Context, classID string, exec ...core.DBExecutor) error {
	db := getExec(repo.db, exec)
	_, err := db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE class_id = $1`, classID)
	return errors.Wrap(err, "deleting class timetable entries")
}

// WithDayLock serializes writers touching the same day-of-week. The advisory
// lock is transaction scoped; it releases on commit or rollback.
func (repo *timetableRepository) WithDayLock(ctx context.Context, dayOfWeek int, fn func(exec core.DBExecutor) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning day-lock transaction")
	}

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, lockSpace, dayOfWeek); err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "acquiring day lock")
	}

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing day-lock transaction")
}
