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
	"github.com/kayembi/ratiba/core/event"
)

const eventCols = `id, type, name, start_date, end_date, affects_all_school, class_id, shortened_schedule, created_by, created_at, updated_at`

type eventRepository struct {
	db core.DB
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db core.DB) *eventRepository {
	return &eventRepository{db: db}
}

// scanEvent reads one row in eventCols order. The shortened schedule must stay
// nil when the column is NULL, so it is unmarshalled by hand.
func scanEvent(row rowScanner) (event.Event, error) {
	var evt event.Event
	var classID, createdBy sql.NullString
	var schedule []byte
	err := row.Scan(
		&evt.ID, &evt.Type, &evt.Name, &evt.StartDate, &evt.EndDate,
		&evt.AffectsAllSchool, &classID, &schedule, &createdBy,
		&evt.CreatedAt, &evt.UpdatedAt,
	)
	if err != nil {
		return event.Event{}, err
	}
	evt.ClassID = strVal(classID)
	evt.CreatedBy = strVal(createdBy)
	if schedule != nil {
		var ss event.ShortenedSchedule
		if err = json.Unmarshal(schedule, &ss); err != nil {
			return event.Event{}, errors.Wrap(err, "decoding shortened schedule")
		}
		evt.ShortenedSchedule = &ss
	}
	return evt, nil
}

func (repo *eventRepository) selectEvents(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) ([]event.Event, error) {
	rows, err := exec.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []event.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

func (repo *eventRepository) CreateEvent(ctx context.Context, evt event.Event, exec ...core.DBExecutor) (event.Event, error) {
	db := getExec(repo.db, exec)

	var schedule interface{}
	if evt.ShortenedSchedule != nil {
		schedule = *evt.ShortenedSchedule
	}

	query := `INSERT INTO school_events (type, name, start_date, end_date, affects_all_school, class_id, shortened_schedule, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`
	err := db.QueryRowxContext(ctx, query,
		evt.Type, evt.Name, evt.StartDate, evt.EndDate, evt.AffectsAllSchool,
		nullStr(evt.ClassID), schedule, nullStr(evt.CreatedBy), evt.CreatedAt, evt.UpdatedAt,
	).Scan(&evt.ID)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "creating event")
	}
	return evt, nil
}

func (repo *eventRepository) QueryAllEvents(ctx context.Context, exec ...core.DBExecutor) ([]event.Event, error) {
	db := getExec(repo.db, exec)
	return repo.selectEvents(ctx, db, `SELECT `+eventCols+` FROM school_events ORDER BY start_date`)
}

func (repo *eventRepository) GetEventByID(ctx context.Context, id string, exec ...core.DBExecutor) (event.Event, error) {
	db := getExec(repo.db, exec)
	evt, err := scanEvent(db.QueryRowxContext(ctx, `SELECT `+eventCols+` FROM school_events WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return event.Event{}, event.ErrNotFound
	}
	return evt, err
}

func (repo *eventRepository) FilterEvents(ctx context.Context, filter event.QueryFilter, exec ...core.DBExecutor) ([]event.Event, error) {
	db := getExec(repo.db, exec)

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Type != "" {
		conds = append(conds, fmt.Sprintf("type = %s", arg(filter.Type)))
	}
	if filter.ClassID != "" {
		conds = append(conds, fmt.Sprintf("class_id = %s", arg(filter.ClassID)))
	}

	query := `SELECT ` + eventCols + ` FROM school_events`
	if conds != nil {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY start_date"
	return repo.selectEvents(ctx, db, query, args...)
}

func (repo *eventRepository) EventsForDate(ctx context.Context, date time.Time, exec ...core.DBExecutor) ([]event.Event, error) {
	db := getExec(repo.db, exec)
	query := `SELECT ` + eventCols + ` FROM school_events WHERE start_date <= $1 AND end_date >= $1 ORDER BY start_date`
	return repo.selectEvents(ctx, db, query, date)
}

func (repo *eventRepository) EventsInRange(ctx context.Context, from, to time.Time, exec ...core.DBExecutor) ([]event.Event, error) {
	db := getExec(repo.db, exec)
	query := `SELECT ` + eventCols + ` FROM school_events WHERE start_date <= $2 AND end_date >= $1 ORDER BY start_date`
	return repo.selectEvents(ctx, db, query, from, to)
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, evt event.Event, exec ...core.DBExecutor) (event.Event, error) {
	db := getExec(repo.db, exec)

	var schedule interface{}
	if evt.ShortenedSchedule != nil {
		schedule = *evt.ShortenedSchedule
	}

	query := `UPDATE school_events
SET name = $1, start_date = $2, end_date = $3, affects_all_school = $4, class_id = $5, shortened_schedule = $6, updated_at = $7
WHERE id = $8`
	res, err := db.ExecContext(ctx, query,
		evt.Name, evt.StartDate, evt.EndDate, evt.AffectsAllSchool,
		nullStr(evt.ClassID), schedule, evt.UpdatedAt, evt.ID)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "updating event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return event.Event{}, event.ErrNotFound
	}
	return repo.GetEventByID(ctx, evt.ID, db)
}

func (repo *eventRepository) DeleteEventsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	db := getExec(repo.db, exec)
	_, err := db.ExecContext(ctx, `DELETE FROM school_events WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting events")
}

func (repo *eventRepository) DeleteByClassID(ctx context.Context, classID string, exec ...core.DBExecutor) error {
	db := getExec(repo.db, exec)
	_, err := db.ExecContext(ctx, `DELETE FROM school_events WHERE class_id = $1`, classID)
	return errors.Wrap(err, "deleting class events")
}
