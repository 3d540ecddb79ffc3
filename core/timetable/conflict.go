package timetable

import (
	"fmt"
	"strings"
)

type ConflictKind string

const (
	// KindTeacherConflict: the same teacher is booked in two places at
	// overlapping times, regardless of class.
	KindTeacherConflict ConflictKind = "teacher_conflict"
	// KindClassConflict: the same class is double-booked at overlapping
	// times, regardless of teacher.
	KindClassConflict ConflictKind = "class_conflict"
)

// Conflict describes one overlap between a candidate period and an existing
// one. Conflicts are computed during validation and never stored.
type Conflict struct {
	Kind    ConflictKind `json:"type"`
	Message string       `json:"message"`
	// Time is the existing period's interval, "HH:mm-HH:mm".
	Time string `json:"time"`

	Teacher string `json:"teacher,omitempty"`
	Class   string `json:"class,omitempty"`

	ConflictClass   string `json:"conflict_class,omitempty"`
	ConflictSubject string `json:"conflict_subject,omitempty"`
}

// ConflictError blocks a timetable write. The conflict list is advisory data
// for the caller; nothing is committed.
type ConflictError struct {
	Conflicts []Conflict
}

func NewConflictError(conflicts []Conflict) error {
	return &ConflictError{Conflicts: conflicts}
}

func (e *ConflictError) Error() string {
	msgs := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		msgs = append(msgs, c.Message)
	}
	return fmt.Sprintf("schedule conflicts detected: %s", strings.Join(msgs, "; "))
}

// overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Plain string comparison is chronological for
// zero-padded HH:mm times; touching endpoints do not overlap.
func overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && aEnd > bStart
}

// compareAgainst emits the conflicts between one candidate period for
// `classID` and one existing period owned by `existingClassID`. A single
// overlapping pair can yield zero, one or two conflicts: the teacher and
// class checks run independently.
func compareAgainst(classID string, candidate Period, existingClassID string, existing Period, names nameResolver) []Conflict {
	if !overlaps(candidate.StartTime, candidate.EndTime, existing.StartTime, existing.EndTime) {
		return nil
	}

	var conflicts []Conflict
	if candidate.TeacherID == existing.TeacherID {
		teacher := names.teacherName(existing.TeacherID)
		conflictClass := names.className(existingClassID)
		conflicts = append(conflicts, Conflict{
			Kind: KindTeacherConflict,
			Message: fmt.Sprintf("teacher %s is already teaching %s in %s at %s",
				teacher, existing.Subject, conflictClass, existing.TimeRange()),
			Time:          existing.TimeRange(),
			Teacher:       teacher,
			ConflictClass: conflictClass,
		})
	}
	if classID == existingClassID {
		class := names.className(existingClassID)
		conflicts = append(conflicts, Conflict{
			Kind: KindClassConflict,
			Message: fmt.Sprintf("class %s already has %s at %s",
				class, existing.Subject, existing.TimeRange()),
			Time:            existing.TimeRange(),
			Class:           class,
			ConflictSubject: existing.Subject,
		})
	}
	return conflicts
}

// detectConflicts compares every candidate period against every period of
// every existing same-day entry, and candidates against each other (a class
// must not be handed two simultaneous periods in one submission).
func detectConflicts(classID string, candidates []Period, existing []Entry, names nameResolver) []Conflict {
	var conflicts []Conflict

	for _, cand := range candidates {
		for _, entry := range existing {
			for _, p := range entry.Periods {
				conflicts = append(conflicts, compareAgainst(classID, cand, entry.ClassID, p, names)...)
			}
		}
	}

	// intra-batch: both periods belong to the submitted class
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			conflicts = append(conflicts, compareAgainst(classID, candidates[j], classID, candidates[i], names)...)
		}
	}

	return conflicts
}

// nameResolver annotates conflicts with human-readable names; lookups must
// never fail the detection itself.
type nameResolver interface {
	teacherName(id string) string
	className(id string) string
}
