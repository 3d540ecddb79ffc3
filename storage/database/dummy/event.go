package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kayembi/ratiba/core"
	"github.com/kayembi/ratiba/core/event"
)

type eventRepository struct {
	db *eventTable
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *DB) *eventRepository {
	return &eventRepository{db: db.event}
}

// cloneEvent copies the event out with its own shortened schedule, so callers
// can never mutate stored state through the returned value.
func cloneEvent(evt *event.Event) event.Event {
	e := *evt
	if evt.ShortenedSchedule != nil {
		ss := *evt.ShortenedSchedule
		e.ShortenedSchedule = &ss
	}
	return e
}

func (repo *eventRepository) query() []event.Event {
	events := make([]event.Event, 0, len(repo.db.table))
	for _, evt := range repo.db.table {
		events = append(events, cloneEvent(evt))
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartDate.Before(events[j].StartDate) })
	return events
}

func (repo *eventRepository) CreateEvent(ctx context.Context, evt event.Event, exec ...core.DBExecutor) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	evt.ID = uuid.NewString()
	stored := cloneEvent(&evt)
	repo.db.table[evt.ID] = &stored
	return evt, nil
}

func (repo *eventRepository) QueryAllEvents(ctx context.Context, exec ...core.DBExecutor) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *eventRepository) GetEventByID(ctx context.Context, id string, exec ...core.DBExecutor) (event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if evt, ok := repo.db.table[id]; ok {
		return cloneEvent(evt), nil
	}
	return event.Event{}, event.ErrNotFound
}

func (repo *eventRepository) FilterEvents(ctx context.Context, filter event.QueryFilter, exec ...core.DBExecutor) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var filtered []event.Event
	for _, evt := range repo.query() {
		if filter.Type != "" && evt.Type != filter.Type {
			continue
		}
		if filter.ClassID != "" && evt.ClassID != filter.ClassID {
			continue
		}
		filtered = append(filtered, evt)
	}
	return filtered, nil
}

func (repo *eventRepository) EventsForDate(ctx context.Context, date time.Time, exec ...core.DBExecutor) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var matched []event.Event
	for _, evt := range repo.query() {
		if evt.Covers(date) {
			matched = append(matched, evt)
		}
	}
	return matched, nil
}

func (repo *eventRepository) EventsInRange(ctx context.Context, from, to time.Time, exec ...core.DBExecutor) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	from, to = core.DateOf(from), core.DateOf(to)
	var matched []event.Event
	for _, evt := range repo.query() {
		// inclusive whole-day overlap
		if !core.DateOf(evt.StartDate).After(to) && !core.DateOf(evt.EndDate).Before(from) {
			matched = append(matched, evt)
		}
	}
	return matched, nil
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, evt event.Event, exec ...core.DBExecutor) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[evt.ID]; !ok {
		return event.Event{}, event.ErrNotFound
	}
	stored := cloneEvent(&evt)
	repo.db.table[evt.ID] = &stored
	return evt, nil
}

func (repo *eventRepository) DeleteEventsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *eventRepository) DeleteByClassID(ctx context.Context, classID string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, evt := range repo.db.table {
		if evt.ClassID == classID {
			delete(repo.db.table, id)
		}
	}
	return nil
}
