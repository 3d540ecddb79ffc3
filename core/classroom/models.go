package classroom

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kayembi/ratiba/core"
)

// Classroom is a named group of students taught together, e.g. "Form 2 Blue".
// Timetable entries, calendar events and user home classes all reference it.
type Classroom struct {
	ID                string    `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	HomeroomTeacherID string    `json:"homeroom_teacher_id,omitempty" db:"homeroom_teacher_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NewClassroom contains information needed to create a new Classroom.
type NewClassroom struct {
	Name              string `json:"name" validate:"required"`
	HomeroomTeacherID string `json:"homeroom_teacher_id"`
}

func (nc *NewClassroom) Validate(validate *validator.Validate, svc Service) error {
	nc.Name = core.CleanString(nc.Name)
	nc.HomeroomTeacherID = core.CleanString(nc.HomeroomTeacherID)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckNameUniqueness(nc.Name)
}

// UpdateClassroom defines what information may be provided to modify an
// existing Classroom.
type UpdateClassroom struct {
	Name              string  `json:"name"`
	HomeroomTeacherID *string `json:"homeroom_teacher_id"`
}

func (uc *UpdateClassroom) Validate(orig Classroom, validate *validator.Validate, svc Service) error {
	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}

	if err := validate.Struct(uc); err != nil {
		return err
	}
	if uc.Name != orig.Name {
		return svc.CheckNameUniqueness(uc.Name)
	}
	return nil
}
