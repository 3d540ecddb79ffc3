package academic

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kayembi/ratiba/core"
)

// The school year runs September through June and is split into two fixed
// semesters. Week numbers are always counted from the semester start.
const (
	SemesterFirst  = 1
	SemesterSecond = 2

	// WeeksPerSemester is a display/validation constant; it is not derived
	// from the semester date span.
	WeeksPerSemester = 16
)

var (
	errSemester = core.FieldError{Field: "semester", Error: "semester must be 1 or 2"}
	errWeek     = core.FieldError{Field: "week", Error: fmt.Sprintf("week must be between 1 and %d", WeeksPerSemester)}
)

type (
	// Window is an inclusive date range, both bounds at UTC midnight. It
	// marshals date-only; a window carries no time of day.
	Window struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}

	// Config describes one academic year.
	Config struct {
		AcademicYear int    // starting calendar year, e.g. 2024 for 2024-2025
		Semester1    Window // Sep 2 .. Jan 17
		Semester2    Window // Jan 27 .. Jun 20
	}

	// Term locates an instant within the academic calendar.
	Term struct {
		AcademicYear int  `json:"academic_year"`
		Semester     int  `json:"semester"`
		Week         int  `json:"week"`
		IsVacation   bool `json:"is_vacation"`
	}

	// WeekDates holds the 7 consecutive dates of one academic week.
	WeekDates struct {
		Semester      int    `json:"semester"`
		Week          int    `json:"week"`
		WeekStartDate string `json:"week_start_date"`
		Dates         Dates  `json:"dates"`
	}

	Dates struct {
		Monday    string `json:"monday"`
		Tuesday   string `json:"tuesday"`
		Wednesday string `json:"wednesday"`
		Thursday  string `json:"thursday"`
		Friday    string `json:"friday"`
		Saturday  string `json:"saturday"`
		Sunday    string `json:"sunday"`
	}
)

func (c Config) Label() string {
	return fmt.Sprintf("%d-%d", c.AcademicYear, c.AcademicYear+1)
}

func (c Config) semester(semester int) Window {
	if semester == SemesterFirst {
		return c.Semester1
	}
	return c.Semester2
}

func (w Window) contains(date time.Time) bool {
	return !date.Before(w.Start) && !date.After(w.End)
}

func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}{w.Start.Format(core.DateFormat), w.End.Format(core.DateFormat)})
}

func (w *Window) UnmarshalJSON(b []byte) error {
	var raw struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var err error
	if w.Start, err = core.ParseDate(raw.Start); err != nil {
		return err
	}
	w.End, err = core.ParseDate(raw.End)
	return err
}

// CurrentYear returns the starting calendar year of the academic year `now`
// belongs to: the current year from September on, the previous one before.
func CurrentYear(now time.Time) int {
	now = now.UTC()
	if now.Month() >= time.September {
		return now.Year()
	}
	return now.Year() - 1
}

// YearConfig returns the semester windows of the given academic year.
func YearConfig(academicYear int) Config {
	return Config{
		AcademicYear: academicYear,
		Semester1: Window{
			Start: time.Date(academicYear, time.September, 2, 0, 0, 0, 0, time.UTC),
			End:   time.Date(academicYear+1, time.January, 17, 0, 0, 0, 0, time.UTC),
		},
		Semester2: Window{
			Start: time.Date(academicYear+1, time.January, 27, 0, 0, 0, 0, time.UTC),
			End:   time.Date(academicYear+1, time.June, 20, 0, 0, 0, 0, time.UTC),
		},
	}
}

// ConfigFor returns the academic year configuration `now` belongs to.
func ConfigFor(now time.Time) Config {
	return YearConfig(CurrentYear(now))
}

// CurrentTerm locates `now` in the academic calendar. Outside the semester
// windows it reports week 1 of the nearest semester with IsVacation set;
// no week arithmetic is attempted during vacations.
func CurrentTerm(now time.Time) Term {
	conf := ConfigFor(now)
	date := core.DateOf(now)

	var start time.Time
	term := Term{AcademicYear: conf.AcademicYear}

	switch {
	case conf.Semester1.contains(date):
		term.Semester = SemesterFirst
		start = conf.Semester1.Start
	case conf.Semester2.contains(date):
		term.Semester = SemesterSecond
		start = conf.Semester2.Start
	case date.Before(conf.Semester1.Start):
		term.Semester = SemesterFirst
		term.Week = 1
		term.IsVacation = true
		return term
	case date.After(conf.Semester1.End) && date.Before(conf.Semester2.Start):
		// winter break
		term.Semester = SemesterSecond
		term.Week = 1
		term.IsVacation = true
		return term
	default:
		// summer break; the next school year is around the corner
		term.AcademicYear++
		term.Semester = SemesterFirst
		term.Week = 1
		term.IsVacation = true
		return term
	}

	week := int(date.Sub(start)/(7*24*time.Hour)) + 1
	if week > WeeksPerSemester {
		week = WeeksPerSemester
	}
	if week < 1 {
		week = 1
	}
	term.Week = week
	return term
}

func validateTerm(semester, week int) error {
	var fldErrs []core.FieldError
	if !(semester == SemesterFirst || semester == SemesterSecond) {
		fldErrs = append(fldErrs, errSemester)
	}
	if week < 1 || week > WeeksPerSemester {
		fldErrs = append(fldErrs, errWeek)
	}
	if fldErrs != nil {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}

// WeekStartDate returns the Monday of the given academic week. The semester
// start rolls forward to the next Monday when needed (a Sunday start rolls
// forward one day, a Monday start stays put).
func WeekStartDate(now time.Time, semester, week int) (time.Time, error) {
	if err := validateTerm(semester, week); err != nil {
		return time.Time{}, err
	}

	start := ConfigFor(now).semester(semester).Start
	var daysToMonday int
	switch wd := int(start.Weekday()); wd {
	case 0: // Sunday
		daysToMonday = 1
	case 1: // Monday
		daysToMonday = 0
	default:
		daysToMonday = 8 - wd
	}
	return start.AddDate(0, 0, daysToMonday+(week-1)*7), nil
}

// WeekDatesFor returns the 7 consecutive dates of the given academic week,
// Monday first, as ISO "YYYY-MM-DD" strings.
func WeekDatesFor(now time.Time, semester, week int) (WeekDates, error) {
	monday, err := WeekStartDate(now, semester, week)
	if err != nil {
		return WeekDates{}, err
	}

	var days [7]string
	for i := range days {
		days[i] = monday.AddDate(0, 0, i).Format("2006-01-02")
	}
	return WeekDates{
		Semester:      semester,
		Week:          week,
		WeekStartDate: days[0],
		Dates: Dates{
			Monday:    days[0],
			Tuesday:   days[1],
			Wednesday: days[2],
			Thursday:  days[3],
			Friday:    days[4],
			Saturday:  days[5],
			Sunday:    days[6],
		},
	}, nil
}
