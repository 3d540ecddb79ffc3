package timetable

import (
	"testing"
)

// staticNames resolves conflict display names from fixed maps, falling back
// to the raw ID like the repository-backed resolver does.
type staticNames struct {
	teachers map[string]string
	classes  map[string]string
}

func (n staticNames) teacherName(id string) string {
	if name, ok := n.teachers[id]; ok {
		return name
	}
	return id
}

func (n staticNames) className(id string) string {
	if name, ok := n.classes[id]; ok {
		return name
	}
	return id
}

var testNames = staticNames{
	teachers: map[string]string{"t1": "Mr. Banda", "t2": "Mrs. Phiri"},
	classes:  map[string]string{"c1": "Form 1 Red", "c2": "Form 1 Blue"},
}

func Test_overlaps(t *testing.T) {
	tests := []struct {
		name           string
		aStart, aEnd   string
		bStart, bEnd   string
		want           bool
	}{
		{name: "identical", aStart: "08:00", aEnd: "09:00", bStart: "08:00", bEnd: "09:00", want: true},
		{name: "partial overlap", aStart: "08:00", aEnd: "09:00", bStart: "08:30", bEnd: "09:30", want: true},
		{name: "containment", aStart: "08:00", aEnd: "10:00", bStart: "08:30", bEnd: "09:00", want: true},
		{name: "touching endpoints", aStart: "08:00", aEnd: "09:00", bStart: "09:00", bEnd: "10:00", want: false},
		{name: "touching endpoints reversed", aStart: "09:00", aEnd: "10:00", bStart: "08:00", bEnd: "09:00", want: false},
		{name: "disjoint", aStart: "08:00", aEnd: "09:00", bStart: "10:00", bEnd: "11:00", want: false},
		{name: "one minute overlap", aStart: "08:00", aEnd: "09:01", bStart: "09:00", bEnd: "10:00", want: true},
		{name: "afternoon vs morning", aStart: "13:00", aEnd: "14:00", bStart: "09:00", bEnd: "10:00", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("overlaps() = %v, want %v", got, tt.want)
			}
			// symmetry
			if got := overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); got != tt.want {
				t.Errorf("overlaps() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_detectConflicts(t *testing.T) {
	entry := func(classID string, periods ...Period) Entry {
		return Entry{ID: "e-" + classID, ClassID: classID, DayOfWeek: 1, Week: 3, Semester: 1, Year: 2025, Periods: periods}
	}
	period := func(start, end, subject, teacherID string) Period {
		return Period{StartTime: start, EndTime: end, Subject: subject, TeacherID: teacherID}
	}

	tests := []struct {
		name       string
		classID    string
		candidates []Period
		existing   []Entry
		wantKinds  []ConflictKind
	}{
		{
			name:       "no existing entries",
			classID:    "c1",
			candidates: []Period{period("08:00", "09:00", "Math", "t1")},
		},
		{
			name:       "touching periods do not conflict",
			classID:    "c1",
			candidates: []Period{period("09:00", "10:00", "Math", "t1")},
			existing:   []Entry{entry("c2", period("08:00", "09:00", "English", "t1"))},
		},
		{
			name:       "teacher double booked across classes",
			classID:    "c1",
			candidates: []Period{period("08:00", "09:00", "Math", "t1")},
			existing:   []Entry{entry("c2", period("08:30", "09:30", "English", "t1"))},
			wantKinds:  []ConflictKind{KindTeacherConflict},
		},
		{
			name:       "class double booked with different teacher",
			classID:    "c1",
			candidates: []Period{period("08:00", "09:00", "Math", "t1")},
			existing:   []Entry{entry("c1", period("08:00", "09:00", "English", "t2"))},
			wantKinds:  []ConflictKind{KindClassConflict},
		},
		{
			name:       "same teacher same class yields both kinds",
			classID:    "c1",
			candidates: []Period{period("08:00", "09:00", "Math", "t1")},
			existing:   []Entry{entry("c1", period("08:00", "09:00", "Math", "t1"))},
			wantKinds:  []ConflictKind{KindTeacherConflict, KindClassConflict},
		},
		{
			name:    "each overlapping pair reported",
			classID: "c1",
			candidates: []Period{
				period("08:00", "09:00", "Math", "t1"),
				period("09:00", "10:00", "Physics", "t1"),
			},
			existing: []Entry{
				entry("c2", period("08:30", "09:30", "English", "t1")),
			},
			wantKinds: []ConflictKind{KindTeacherConflict, KindTeacherConflict},
		},
		{
			name:    "overlapping candidates within one submission",
			classID: "c1",
			candidates: []Period{
				period("08:00", "09:00", "Math", "t1"),
				period("08:30", "09:30", "Physics", "t2"),
			},
			wantKinds: []ConflictKind{KindClassConflict},
		},
		{
			name:       "different teachers different classes overlap freely",
			classID:    "c1",
			candidates: []Period{period("08:00", "09:00", "Math", "t1")},
			existing:   []Entry{entry("c2", period("08:00", "09:00", "English", "t2"))},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectConflicts(tt.classID, tt.candidates, tt.existing, testNames)
			if len(got) != len(tt.wantKinds) {
				t.Fatalf("detectConflicts() returned %d conflicts, want %d: %+v", len(got), len(tt.wantKinds), got)
			}
			for i, c := range got {
				if c.Kind != tt.wantKinds[i] {
					t.Errorf("conflict[%d].Kind = %v, want %v", i, c.Kind, tt.wantKinds[i])
				}
				if c.Message == "" {
					t.Errorf("conflict[%d] has empty message", i)
				}
			}
		})
	}
}

func Test_detectConflicts_idempotent(t *testing.T) {
	candidates := []Period{{StartTime: "08:00", EndTime: "09:00", Subject: "Math", TeacherID: "t1"}}
	existing := []Entry{{
		ClassID: "c2",
		Periods: Periods{{StartTime: "08:00", EndTime: "09:00", Subject: "English", TeacherID: "t1"}},
	}}

	first := detectConflicts("c1", candidates, existing, testNames)
	second := detectConflicts("c1", candidates, existing, testNames)
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("detection not stable: first %d, second %d", len(first), len(second))
	}
	if first[0] != second[0] {
		t.Errorf("repeated detection differs: %+v vs %+v", first[0], second[0])
	}
}

func Test_detectConflicts_messages(t *testing.T) {
	candidates := []Period{{StartTime: "08:00", EndTime: "09:00", Subject: "Math", TeacherID: "t1"}}
	existing := []Entry{{
		ClassID: "c2",
		Periods: Periods{{StartTime: "08:30", EndTime: "09:30", Subject: "English", TeacherID: "t1"}},
	}}

	got := detectConflicts("c1", candidates, existing, testNames)
	if len(got) != 1 {
		t.Fatalf("detectConflicts() returned %d conflicts, want 1", len(got))
	}
	c := got[0]
	if want := "teacher Mr. Banda is already teaching English in Form 1 Blue at 08:30-09:30"; c.Message != want {
		t.Errorf("Message = %q, want %q", c.Message, want)
	}
	if c.Teacher != "Mr. Banda" {
		t.Errorf("Teacher = %q, want %q", c.Teacher, "Mr. Banda")
	}
	if c.ConflictClass != "Form 1 Blue" {
		t.Errorf("ConflictClass = %q, want %q", c.ConflictClass, "Form 1 Blue")
	}
	if c.Time != "08:30-09:30" {
		t.Errorf("Time = %q, want %q", c.Time, "08:30-09:30")
	}
}
