package timetable

import (
	"database/sql/driver"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/kayembi/ratiba/core"
)

// Day-of-week follows time.Weekday numbering: 0 = Sunday .. 6 = Saturday.
const (
	MinWeek = 1
	MaxWeek = 52
)

// Period is one subject slot within an Entry. It has no identity of its own;
// the periods list is always replaced as a batch.
type Period struct {
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
	Subject   string `json:"subject" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
	Room      string `json:"room"`
}

// TimeRange renders the period's interval as "HH:mm-HH:mm".
func (p Period) TimeRange() string {
	return p.StartTime + "-" + p.EndTime
}

// Periods is stored as a single JSONB document alongside its entry.
type Periods []Period

func (p Periods) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *Periods) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.Errorf("scanning periods: expected []byte, got %T", src)
	}
	return json.Unmarshal(b, p)
}

// Entry is the stored weekly schedule of one class for one day-of-week within
// one (semester, academic-week, academic-year). At most one Entry may exist
// per (ClassID, DayOfWeek, Week, Semester, Year).
type Entry struct {
	ID        string    `json:"id" db:"id"`
	ClassID   string    `json:"class_id" db:"class_id"`
	DayOfWeek int       `json:"day_of_week" db:"day_of_week"` // 0 = Sunday
	Week      int       `json:"week" db:"week"`
	Semester  int       `json:"semester" db:"semester"`
	Year      int       `json:"year" db:"year"` // academic year start
	Periods   Periods   `json:"periods" db:"periods"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// SortPeriods orders periods by start time ascending. Reads always return
// periods in this order; it is a display contract, not a storage order.
func (e *Entry) SortPeriods() {
	sort.SliceStable(e.Periods, func(i, j int) bool {
		return e.Periods[i].StartTime < e.Periods[j].StartTime
	})
}

// NewEntry contains information needed to create a new Entry.
type NewEntry struct {
	ClassID   string   `json:"class_id" validate:"required"`
	DayOfWeek *int     `json:"day_of_week" validate:"required,min=0,max=6"`
	Week      int      `json:"week" validate:"required,min=1,max=52"`
	Semester  int      `json:"semester" validate:"required,oneof=1 2"`
	Year      int      `json:"year" validate:"required"`
	Periods   []Period `json:"periods" validate:"omitempty,dive"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.ClassID = core.CleanString(ne.ClassID)
	for i := range ne.Periods {
		cleanPeriod(&ne.Periods[i])
	}
	if err := validate.Struct(ne); err != nil {
		return err
	}
	return validatePeriodTimes(ne.Periods)
}

// UpdateEntry replaces an Entry's periods wholesale; other fields are part of
// the natural key and cannot be changed in place.
type UpdateEntry struct {
	Periods []Period `json:"periods" validate:"omitempty,dive"`
}

func (ue *UpdateEntry) Validate(validate *validator.Validate) error {
	for i := range ue.Periods {
		cleanPeriod(&ue.Periods[i])
	}
	if err := validate.Struct(ue); err != nil {
		return err
	}
	return validatePeriodTimes(ue.Periods)
}

func cleanPeriod(p *Period) {
	p.StartTime = core.CleanString(p.StartTime)
	p.EndTime = core.CleanString(p.EndTime)
	p.Subject = core.CleanString(p.Subject)
	p.TeacherID = core.CleanString(p.TeacherID)
	p.Room = core.CleanString(p.Room)
}

// validatePeriodTimes checks that each period ends after it starts. Times are
// already known to be zero-padded HH:mm, so lexical comparison is chronological.
func validatePeriodTimes(periods []Period) error {
	var fldErrs []core.FieldError
	for i, p := range periods {
		if p.EndTime <= p.StartTime {
			fldErrs = append(fldErrs, core.FieldError{
				Field: periodField(i, "end_time"),
				Error: "end time must be after start time",
			})
		}
	}
	if fldErrs != nil {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}

func periodField(i int, name string) string {
	return "periods[" + strconv.Itoa(i) + "]." + name
}

// QueryFilter narrows entry reads. Zero values mean "any".
type QueryFilter struct {
	ClassID   string `query:"class_id"`
	TeacherID string `query:"teacher_id"`
	DayOfWeek *int   `query:"day_of_week"`
	Week      int    `query:"week"`
	Semester  int    `query:"semester"`
	Year      int    `query:"year"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.ClassID == "" && qf.TeacherID == "" && qf.DayOfWeek == nil &&
		qf.Week == 0 && qf.Semester == 0 && qf.Year == 0
}

func (qf *QueryFilter) Clean() {
	qf.ClassID = core.CleanString(qf.ClassID)
	qf.TeacherID = core.CleanString(qf.TeacherID)
}
