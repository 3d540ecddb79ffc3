package event

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/kayembi/ratiba/core"
)

type Type string

const (
	// TypeVacation and TypeHoliday suspend lessons entirely for their scope.
	TypeVacation Type = "vacation"
	TypeHoliday  Type = "holiday"
	// TypeShortenedDay keeps the day's lessons but recomputes their times
	// from the shortened schedule.
	TypeShortenedDay Type = "shortened_day"
	// TypeClassException cancels lessons for a single class only.
	TypeClassException Type = "class_exception"
)

var AllTypes = []Type{TypeVacation, TypeHoliday, TypeShortenedDay, TypeClassException}

const (
	DefaultLessonDuration = 45
	DefaultBreakDuration  = 10
)

// ShortenedSchedule holds the per-lesson timing of a shortened day, in
// minutes. Stored as a JSONB document alongside its event.
type ShortenedSchedule struct {
	LessonDuration int `json:"lesson_duration" validate:"required,min=1"`
	BreakDuration  int `json:"break_duration" validate:"required,min=1"`
}

func (s ShortenedSchedule) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *ShortenedSchedule) Scan(src interface{}) error {
	if src == nil {
		*s = ShortenedSchedule{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.Errorf("scanning shortened schedule: expected []byte, got %T", src)
	}
	return json.Unmarshal(b, s)
}

// Event is a calendar fact that overrides the weekly timetable for every day
// it covers. Dates are inclusive whole days; time-of-day never matters.
type Event struct {
	ID               string    `json:"id" db:"id"`
	Type             Type      `json:"type" db:"type"`
	Name             string    `json:"name" db:"name"`
	StartDate        time.Time `json:"start_date" db:"start_date"`
	EndDate          time.Time `json:"end_date" db:"end_date"`
	AffectsAllSchool bool      `json:"affects_all_school" db:"affects_all_school"`
	// ClassID scopes the event to one class; set iff AffectsAllSchool is false.
	ClassID           string             `json:"class_id,omitempty" db:"class_id"`
	ShortenedSchedule *ShortenedSchedule `json:"shortened_schedule,omitempty" db:"shortened_schedule"`
	CreatedBy         string             `json:"created_by,omitempty" db:"created_by"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"` // UTC
	UpdatedAt         time.Time          `json:"updated_at" db:"updated_at"` // UTC
}

// Covers reports whether the event is in effect on the given calendar date.
func (e *Event) Covers(date time.Time) bool {
	d := core.DateOf(date)
	return !d.Before(core.DateOf(e.StartDate)) && !d.After(core.DateOf(e.EndDate))
}

// AppliesTo reports whether the event affects the given class.
func (e *Event) AppliesTo(classID string) bool {
	return e.AffectsAllSchool || (classID != "" && e.ClassID == classID)
}

// Timing returns the event's shortened schedule, defaulted when absent.
func (e *Event) Timing() ShortenedSchedule {
	if e.ShortenedSchedule != nil {
		return *e.ShortenedSchedule
	}
	return ShortenedSchedule{LessonDuration: DefaultLessonDuration, BreakDuration: DefaultBreakDuration}
}

// NewEvent contains information needed to create a new Event.
type NewEvent struct {
	Type             Type   `json:"type" validate:"required,oneof=vacation holiday shortened_day class_exception"`
	Name             string `json:"name" validate:"required"`
	StartDate        string `json:"start_date" validate:"required"`
	EndDate          string `json:"end_date" validate:"required"`
	AffectsAllSchool bool   `json:"affects_all_school"`
	ClassID          string `json:"class_id"`

	ShortenedSchedule *ShortenedSchedule `json:"shortened_schedule" validate:"omitempty"`

	startDate time.Time
	endDate   time.Time
}

// Dates returns the parsed inclusive date range. Only valid after Validate.
func (ne *NewEvent) Dates() (time.Time, time.Time) {
	return ne.startDate, ne.endDate
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Name = core.CleanString(ne.Name)
	ne.ClassID = core.CleanString(ne.ClassID)
	ne.StartDate = core.CleanString(ne.StartDate)
	ne.EndDate = core.CleanString(ne.EndDate)

	if err := validate.Struct(ne); err != nil {
		return err
	}

	var fldErrs []core.FieldError
	var err error
	if ne.startDate, err = core.ParseDate(ne.StartDate); err != nil {
		fldErrs = append(fldErrs, core.FieldError{Field: "start_date", Error: "invalid date, expected YYYY-MM-DD"})
	}
	if ne.endDate, err = core.ParseDate(ne.EndDate); err != nil {
		fldErrs = append(fldErrs, core.FieldError{Field: "end_date", Error: "invalid date, expected YYYY-MM-DD"})
	}
	if fldErrs == nil && ne.endDate.Before(ne.startDate) {
		fldErrs = append(fldErrs, core.FieldError{Field: "end_date", Error: "end date must not be before start date"})
	}

	fldErrs = append(fldErrs, validateScope(ne.AffectsAllSchool, ne.ClassID)...)
	if ne.Type != TypeShortenedDay && ne.ShortenedSchedule != nil {
		fldErrs = append(fldErrs, core.FieldError{
			Field: "shortened_schedule", Error: "only allowed for shortened_day events",
		})
	}

	if fldErrs != nil {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}

// UpdateEvent defines what information may be provided to modify an existing
// Event. Nil / empty fields are left untouched.
type UpdateEvent struct {
	Name              string             `json:"name"`
	StartDate         string             `json:"start_date"`
	EndDate           string             `json:"end_date"`
	AffectsAllSchool  *bool              `json:"affects_all_school"`
	ClassID           *string            `json:"class_id"`
	ShortenedSchedule *ShortenedSchedule `json:"shortened_schedule" validate:"omitempty"`

	startDate time.Time
	endDate   time.Time
}

// Merge applies the update on top of an existing event and re-validates the
// variant invariants against the merged result.
func (ue *UpdateEvent) Merge(orig Event) (Event, error) {
	ue.Name = core.CleanString(ue.Name)
	ue.StartDate = core.CleanString(ue.StartDate)
	ue.EndDate = core.CleanString(ue.EndDate)

	merged := orig
	if ue.Name != "" {
		merged.Name = ue.Name
	}

	var fldErrs []core.FieldError
	var err error
	if ue.StartDate != "" {
		if ue.startDate, err = core.ParseDate(ue.StartDate); err != nil {
			fldErrs = append(fldErrs, core.FieldError{Field: "start_date", Error: "invalid date, expected YYYY-MM-DD"})
		} else {
			merged.StartDate = ue.startDate
		}
	}
	if ue.EndDate != "" {
		if ue.endDate, err = core.ParseDate(ue.EndDate); err != nil {
			fldErrs = append(fldErrs, core.FieldError{Field: "end_date", Error: "invalid date, expected YYYY-MM-DD"})
		} else {
			merged.EndDate = ue.endDate
		}
	}
	if fldErrs == nil && merged.EndDate.Before(merged.StartDate) {
		fldErrs = append(fldErrs, core.FieldError{Field: "end_date", Error: "end date must not be before start date"})
	}

	if ue.AffectsAllSchool != nil {
		merged.AffectsAllSchool = *ue.AffectsAllSchool
	}
	if ue.ClassID != nil {
		merged.ClassID = core.CleanString(*ue.ClassID)
	}
	fldErrs = append(fldErrs, validateScope(merged.AffectsAllSchool, merged.ClassID)...)

	if ue.ShortenedSchedule != nil {
		if merged.Type != TypeShortenedDay {
			fldErrs = append(fldErrs, core.FieldError{
				Field: "shortened_schedule", Error: "only allowed for shortened_day events",
			})
		} else if ue.ShortenedSchedule.LessonDuration < 1 || ue.ShortenedSchedule.BreakDuration < 1 {
			fldErrs = append(fldErrs, core.FieldError{
				Field: "shortened_schedule", Error: "durations must be positive minutes",
			})
		} else {
			merged.ShortenedSchedule = ue.ShortenedSchedule
		}
	}

	if fldErrs != nil {
		return Event{}, core.NewValidationError(nil, fldErrs...)
	}
	return merged, nil
}

// validateScope enforces the structural invariant tying ClassID to the
// event's reach: school-wide events carry no class, scoped events must name one.
func validateScope(affectsAllSchool bool, classID string) []core.FieldError {
	if affectsAllSchool && classID != "" {
		return []core.FieldError{{Field: "class_id", Error: "must be empty for school-wide events"}}
	}
	if !affectsAllSchool && classID == "" {
		return []core.FieldError{{Field: "class_id", Error: "required unless the event affects the whole school"}}
	}
	return nil
}

// QueryFilter narrows event reads. Zero values mean "any".
type QueryFilter struct {
	Type    Type   `query:"type"`
	ClassID string `query:"class_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Type == "" && qf.ClassID == ""
}

func (qf *QueryFilter) Clean() {
	qf.ClassID = core.CleanString(qf.ClassID)
}
