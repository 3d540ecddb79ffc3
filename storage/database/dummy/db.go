package dummydb

import (
	"sync"

	"github.com/kayembi/ratiba/core/classroom"
	"github.com/kayembi/ratiba/core/event"
	"github.com/kayembi/ratiba/core/timetable"
	"github.com/kayembi/ratiba/core/user"
)

// DB is an in-memory stand-in for the real database, for tests and local
// hacking. Every table copies values in and out; nothing escapes by pointer.
type (
	DB struct {
		user      *userTable
		classroom *classroomTable
		timetable *timetableTable
		event     *eventTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	classroomTable struct {
		sync.RWMutex
		table map[string]*classroom.Classroom
	}

	timetableTable struct {
		sync.RWMutex
		table map[string]*timetable.Entry
		// dayLocks serializes writers per day-of-week, standing in for the
		// advisory locks the Postgres repository takes.
		dayLocks [7]sync.Mutex
	}

	eventTable struct {
		sync.RWMutex
		table map[string]*event.Event
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:      &userTable{table: make(map[string]*user.User)},
		classroom: &classroomTable{table: make(map[string]*classroom.Classroom)},
		timetable: &timetableTable{table: make(map[string]*timetable.Entry)},
		event:     &eventTable{table: make(map[string]*event.Event)},
	}
	return db, nil
}
