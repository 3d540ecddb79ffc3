package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/kayembi/ratiba/core/academic"
	"github.com/kayembi/ratiba/core/timetable"
)

// fillWeeks copies every timetable entry of the source week to all the other
// weeks of the semester. Each copy goes through the conflict-checked service;
// weeks that already have an entry for a class keep it untouched.
func (cli *commandLine) fillWeeks(semester, week, year int) error {
	ctx := context.Background()

	entries, err := cli.ttRepo.FilterEntries(ctx, timetable.QueryFilter{Week: week, Semester: semester, Year: year})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return errors.New("no timetable entries found for the source week")
	}

	var created, skipped int
	for target := 1; target <= academic.WeeksPerSemester; target++ {
		if target == week {
			continue
		}
		for _, entry := range entries {
			day := entry.DayOfWeek
			ne := timetable.NewEntry{
				ClassID:   entry.ClassID,
				DayOfWeek: &day,
				Week:      target,
				Semester:  semester,
				Year:      year,
				Periods:   entry.Periods,
			}
			if _, err := cli.ttSvc.Create(ctx, ne); err != nil {
				if err == timetable.ErrEntryExists {
					skipped++
					continue
				}
				var cErr *timetable.ConflictError
				if errors.As(err, &cErr) {
					return fmt.Errorf("week %d, class %s: %v", target, entry.ClassID, err)
				}
				return err
			}
			created++
		}
	}

	fmt.Printf("fillweeks: %d entries created, %d weeks already filled\n", created, skipped)
	return nil
}
