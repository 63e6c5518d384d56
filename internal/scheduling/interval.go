// Package scheduling holds the shift arithmetic shared by the task service
// and its repository: interval validation, the overlap rule and week bounds.
package scheduling

import (
	"time"

	"community-service/internal/apperr"
	"community-service/internal/models"
)

// Interval is the start and end pair of a task as the client submits it.
type Interval struct {
	StartDate models.Date
	StartTime models.Clock
	EndDate   models.Date
	EndTime   models.Clock
}

func Of(t models.Task) Interval {
	return Interval{StartDate: t.StartDate, StartTime: t.StartTime, EndDate: t.EndDate, EndTime: t.EndTime}
}

func (i Interval) Start() time.Time { return models.At(i.StartDate, i.StartTime) }

func (i Interval) End() time.Time { return models.At(i.EndDate, i.EndTime) }

// Validate rejects an interval whose end comes before its start. Zero length
// is allowed.
func (i Interval) Validate() error {
	if i.End().Before(i.Start()) {
		return apperr.New(apperr.InvalidInterval, "End time must be after start time!")
	}
	return nil
}

// Hours is the span in fractional hours.
func (i Interval) Hours() float64 {
	return i.End().Sub(i.Start()).Seconds() / 3600
}

// Overlaps compares date range and time-of-day range independently, both
// inclusive. Touching boundaries count as a conflict, and a shift that
// crosses midnight is matched by its times of day rather than its instants.
func Overlaps(existing, candidate Interval) bool {
	return existing.StartDate.Compare(candidate.EndDate) <= 0 &&
		existing.EndDate.Compare(candidate.StartDate) >= 0 &&
		existing.StartTime.Compare(candidate.EndTime) <= 0 &&
		existing.EndTime.Compare(candidate.StartTime) >= 0
}

// FirstConflict returns the first task in booked that overlaps candidate.
func FirstConflict(booked []models.Task, candidate Interval) (models.Task, bool) {
	for _, t := range booked {
		if Overlaps(Of(t), candidate) {
			return t, true
		}
	}
	return models.Task{}, false
}

// WeekBounds returns Monday and Sunday of the week containing now.
func WeekBounds(now time.Time) (models.Date, models.Date) {
	today := models.DateOf(now)
	offset := (int(today.Weekday()) + 6) % 7
	monday := today.AddDays(-offset)
	return monday, monday.AddDays(6)
}
