package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kayembi/ratiba/core"
	"github.com/kayembi/ratiba/core/academic"
	"github.com/kayembi/ratiba/core/classroom"
	"github.com/kayembi/ratiba/core/event"
	"github.com/kayembi/ratiba/core/timetable"
	"github.com/kayembi/ratiba/core/user"
)

const (
	StatusNormal    = "normal"
	StatusCancelled = "cancelled"

	// EventTypeNormal tags a day no calendar event touches.
	EventTypeNormal = "normal"

	// dayStart anchors shortened-day resequencing, in minutes from midnight.
	dayStart = 8 * 60
)

// Lesson is one resolved period of a user's day.
type Lesson struct {
	Subject     string `json:"subject"`
	TeacherID   string `json:"teacher_id"`
	TeacherName string `json:"teacher_name,omitempty"`
	// ClassID and ClassName are only set on the teacher view; a student
	// already knows their own class.
	ClassID   string `json:"class_id,omitempty"`
	ClassName string `json:"class_name,omitempty"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Room      string `json:"room,omitempty"`
	Status    string `json:"status"`
}

// DaySchedule is the effective schedule of one user on one calendar date,
// after calendar events have been applied to the weekly timetable.
type DaySchedule struct {
	Date      string   `json:"date"`
	DayOfWeek int      `json:"day_of_week"`
	EventType string   `json:"event_type"`
	EventName string   `json:"event_name,omitempty"`
	Lessons   []Lesson `json:"lessons"`
}

type (
	Service interface {
		// Resolve computes the effective schedule of the given user on the
		// given date. Students resolve against their home class's entry,
		// teachers against every period they teach that day.
		Resolve(ctx context.Context, userID string, date time.Time) (DaySchedule, error)
	}

	service struct {
		usrRepo user.Repository
		clsRepo classroom.Repository
		ttRepo  timetable.Repository
		evtRepo event.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(usrRepo user.Repository, clsRepo classroom.Repository, ttRepo timetable.Repository, evtRepo event.Repository) Service {
	return &service{usrRepo: usrRepo, clsRepo: clsRepo, ttRepo: ttRepo, evtRepo: evtRepo}
}

func (svc *service) Resolve(ctx context.Context, userID string, date time.Time) (DaySchedule, error) {
	usr, err := svc.usrRepo.GetUserByID(ctx, userID)
	if err != nil {
		return DaySchedule{}, err
	}

	date = core.DateOf(date)
	sched := DaySchedule{
		Date:      date.Format(core.DateFormat),
		DayOfWeek: int(date.Weekday()),
		EventType: EventTypeNormal,
		Lessons:   []Lesson{},
	}

	events, err := svc.evtRepo.EventsForDate(ctx, date)
	if err != nil {
		return DaySchedule{}, err
	}

	// A school-wide vacation/holiday empties the day before any timetable
	// lookup; the entry may well exist, it just does not happen.
	if evt := pickClosure(events, usr.ClassID); evt != nil {
		sched.EventType = string(evt.Type)
		sched.EventName = evt.Name
		return sched, nil
	}

	term := academic.CurrentTerm(date)
	if usr.IsTeacher() {
		sched.Lessons, err = svc.teacherLessons(ctx, usr.ID, sched.DayOfWeek, term)
	} else {
		sched.Lessons, err = svc.studentLessons(ctx, usr.ClassID, sched.DayOfWeek, term)
	}
	if err != nil {
		return DaySchedule{}, err
	}

	if evt := pickClassException(events, usr, &sched); evt != nil {
		sched.EventType = string(event.TypeClassException)
		sched.EventName = evt.Name
	}

	// Shortened-day timing applies on top of any per-class cancellation:
	// the remaining lessons still compress toward the morning.
	if evt := pickShortenedDay(events); evt != nil {
		resequence(sched.Lessons, evt.Timing())
		if sched.EventType == EventTypeNormal {
			sched.EventType = string(event.TypeShortenedDay)
			sched.EventName = evt.Name
		}
	}

	return sched, nil
}

// studentLessons loads the student's class entry for the resolved term. A
// student without a home class simply has no lessons.
func (svc *service) studentLessons(ctx context.Context, classID string, dayOfWeek int, term academic.Term) ([]Lesson, error) {
	if classID == "" || term.IsVacation {
		return []Lesson{}, nil
	}

	entries, err := svc.ttRepo.FilterEntries(ctx, timetable.QueryFilter{
		ClassID:   classID,
		DayOfWeek: &dayOfWeek,
		Week:      term.Week,
		Semester:  term.Semester,
		Year:      term.AcademicYear,
	})
	if err != nil {
		return nil, err
	}

	lessons := []Lesson{}
	for _, entry := range entries {
		entry.SortPeriods()
		for _, p := range entry.Periods {
			lessons = append(lessons, Lesson{
				Subject:     p.Subject,
				TeacherID:   p.TeacherID,
				TeacherName: svc.teacherName(ctx, p.TeacherID),
				StartTime:   p.StartTime,
				EndTime:     p.EndTime,
				Room:        p.Room,
				Status:      StatusNormal,
			})
		}
	}
	return lessons, nil
}

// teacherLessons collects the teacher's periods across every class that day,
// annotated with class names and sorted by start time.
func (svc *service) teacherLessons(ctx context.Context, teacherID string, dayOfWeek int, term academic.Term) ([]Lesson, error) {
	if term.IsVacation {
		return []Lesson{}, nil
	}

	entries, err := svc.ttRepo.FilterEntries(ctx, timetable.QueryFilter{
		TeacherID: teacherID,
		DayOfWeek: &dayOfWeek,
		Week:      term.Week,
		Semester:  term.Semester,
		Year:      term.AcademicYear,
	})
	if err != nil {
		return nil, err
	}

	lessons := []Lesson{}
	for _, entry := range entries {
		className := svc.className(ctx, entry.ClassID)
		for _, p := range entry.Periods {
			if p.TeacherID != teacherID {
				continue
			}
			lessons = append(lessons, Lesson{
				Subject:   p.Subject,
				TeacherID: p.TeacherID,
				ClassID:   entry.ClassID,
				ClassName: className,
				StartTime: p.StartTime,
				EndTime:   p.EndTime,
				Room:      p.Room,
				Status:    StatusNormal,
			})
		}
	}
	sortLessons(lessons)
	return lessons, nil
}

// pickClosure returns the event that shuts the whole day down for this user,
// if any: a school-wide vacation/holiday, or one scoped to the user's class.
func pickClosure(events []event.Event, classID string) *event.Event {
	for i := range events {
		evt := &events[i]
		if evt.Type != event.TypeVacation && evt.Type != event.TypeHoliday {
			continue
		}
		if evt.AppliesTo(classID) {
			return evt
		}
	}
	return nil
}

// pickClassException applies class_exception events to the already-loaded
// lessons: a student's matching day empties, a teacher's matching periods are
// marked cancelled while the rest of their day goes on.
func pickClassException(events []event.Event, usr user.User, sched *DaySchedule) *event.Event {
	var applied *event.Event
	for i := range events {
		evt := &events[i]
		if evt.Type != event.TypeClassException || evt.ClassID == "" {
			continue
		}
		if !usr.IsTeacher() {
			if usr.ClassID != "" && evt.ClassID == usr.ClassID {
				sched.Lessons = []Lesson{}
				return evt
			}
			continue
		}
		for j := range sched.Lessons {
			if sched.Lessons[j].ClassID == evt.ClassID {
				sched.Lessons[j].Status = StatusCancelled
				applied = evt
			}
		}
	}
	return applied
}

// pickShortenedDay returns the school-wide shortened_day event, if any.
func pickShortenedDay(events []event.Event) *event.Event {
	for i := range events {
		evt := &events[i]
		if evt.Type == event.TypeShortenedDay && evt.AffectsAllSchool {
			return evt
		}
	}
	return nil
}

// resequence discards the lessons' stored times and reissues them back to
// back from the day start, in the lessons' current order.
func resequence(lessons []Lesson, timing event.ShortenedSchedule) {
	start := dayStart
	for i := range lessons {
		end := start + timing.LessonDuration
		lessons[i].StartTime = clock(start)
		lessons[i].EndTime = clock(end)
		start = end + timing.BreakDuration
	}
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func sortLessons(lessons []Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].StartTime < lessons[j].StartTime
	})
}

func (svc *service) teacherName(ctx context.Context, id string) string {
	if usr, err := svc.usrRepo.GetUserByID(ctx, id); err == nil && usr.Name != "" {
		return usr.Name
	}
	return id
}

func (svc *service) className(ctx context.Context, id string) string {
	if cls, err := svc.clsRepo.GetClassroomByID(ctx, id); err == nil && cls.Name != "" {
		return cls.Name
	}
	return id
}
