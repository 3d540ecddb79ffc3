package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kayembi/ratiba/core"
	"github.com/kayembi/ratiba/core/classroom"
)

// homeroom_teacher_id is a nullable UUID; COALESCE keeps struct scanning viable.
const classroomCols = `id, name, COALESCE(homeroom_teacher_id::text, '') AS homeroom_teacher_id, created_at, updated_at`

type classroomRepository struct {
	db core.DB
}

var _ classroom.Repository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(db core.DB) *classroomRepository {
	return &classroomRepository{db: db}
}

func (repo *classroomRepository) CheckNameUniqueness(ctx context.Context, name string, exec ...core.DBExecutor) error {
	db := getExec(repo.db, exec)
	var exists bool
	err := db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM classrooms WHERE name = $1)`, name)
	if err != nil {
		return errors.Wrap(err, "checking classroom name")
	}
	if exists {
		return classroom.ErrNameExists
	}
	return nil
}

func (repo *classroomRepository) CreateClassroom(ctx context.Context, cls classroom.Classroom, exec ...core.DBExecutor) (classroom.Classroom, error) {
	db := getExec(repo.db, exec)
	query := `INSERT INTO classrooms (name, homeroom_teacher_id, created_at, updated_at)
VALUES ($1, $2, $3, $4)
RETURNING id`
	err := db.QueryRowxContext(ctx, query,
		cls.Name, nullStr(cls.HomeroomTeacherID), cls.CreatedAt, cls.UpdatedAt,
	).Scan(&cls.ID)
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "creating classroom")
	}
	return cls, nil
}

func (repo *classroomRepository) QueryAllClassrooms(ctx context.Context, exec ...core.DBExecutor) ([]classroom.Classroom, error) {
	db := getExec(repo.db, exec)
	var classes []classroom.Classroom
	err := db.SelectContext(ctx, &classes, `SELECT `+classroomCols+` FROM classrooms ORDER BY name`)
	return classes, err
}

func (repo *classroomRepository) GetClassroomByID(ctx context.Context, id string, exec ...core.DBExecutor) (classroom.Classroom, error) {
	db := getExec(repo.db, exec)
	var cls classroom.Classroom
	err := db.GetContext(ctx, &cls, `SELECT `+classroomCols+` FROM classrooms WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	return cls, err
}

func (repo *classroomRepository) UpdateClassroom(ctx context.Context, cls classroom.Classroom, homeroomTeacherID *string, exec ...core.DBExecutor) (classroom.Classroom, error) {
	db := getExec(repo.db, exec)

	var sets []string
	var args []interface{}
	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if cls.Name != "" {
		set("name", cls.Name)
	}
	if homeroomTeacherID != nil {
		set("homeroom_teacher_id", nullStr(*homeroomTeacherID))
	}
	set("updated_at", cls.UpdatedAt)

	args = append(args, cls.ID)
	query := fmt.Sprintf(`UPDATE classrooms SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "updating classroom")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	return repo.GetClassroomByID(ctx, cls.ID, db)
}

func (repo *classroomRepository) DeleteClassroomsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	db := getExec(repo.db, exec)
	_, err := db.ExecContext(ctx, `DELETE FROM classrooms WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting classrooms")
}
