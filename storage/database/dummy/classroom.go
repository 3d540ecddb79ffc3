package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/kayembi/ratiba/core"
	"github.com/kayembi/ratiba/core/classroom"
)

type classroomRepository struct {
	db *classroomTable
}

var _ classroom.Repository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(db *DB) *classroomRepository {
	return &classroomRepository{db: db.classroom}
}

func (repo *classroomRepository) query() []classroom.Classroom {
	classes := make([]classroom.Classroom, 0, len(repo.db.table))
	for _, cls := range repo.db.table {
		classes = append(classes, *cls)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes
}

func (repo *classroomRepository) CheckNameUniqueness(ctx context.Context, name string, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, cls := range repo.db.table {
		if cls.Name == name {
			return classroom.ErrNameExists
		}
	}
	return nil
}

func (repo *classroomRepository) CreateClassroom(ctx context.Context, cls classroom.Classroom, exec ...core.DBExecutor) (classroom.Classroom, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls.ID = uuid.NewString()
	repo.db.table[cls.ID] = &cls
	return cls, nil
}

func (repo *classroomRepository) QueryAllClassrooms(ctx context.Context, exec ...core.DBExecutor) ([]classroom.Classroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *classroomRepository) GetClassroomByID(ctx context.Context, id string, exec ...core.DBExecutor) (classroom.Classroom, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.table[id]; ok {
		return *cls, nil
	}
	return classroom.Classroom{}, classroom.ErrNotFound
}

func (repo *classroomRepository) UpdateClassroom(ctx context.Context, cls classroom.Classroom, homeroomTeacherID *string, exec ...core.DBExecutor) (classroom.Classroom, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.table[cls.ID]
	if !ok {
		return classroom.Classroom{}, classroom.ErrNotFound
	}

	if cls.Name != "" {
		stored.Name = cls.Name
	}
	if homeroomTeacherID != nil {
		stored.HomeroomTeacherID = *homeroomTeacherID
	}
	stored.UpdatedAt = cls.UpdatedAt
	return *stored, nil
}

func (repo *classroomRepository) DeleteClassroomsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
