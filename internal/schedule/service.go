// ============================================================================
// internal/schedule/service.go
// Weekly timetable entries for a section
// ============================================================================

package schedule

import (
	"context"
	"fmt"
	"sort"

	"studentportal/internal/shared"
)

// Store is the timetable access the schedule paths depend on.
// *store.RecordStore satisfies it.
type Store interface {
	FindScheduleBySection(ctx context.Context, section string, semester int32) ([]shared.ScheduleEntry, error)
	InsertScheduleEntry(ctx context.Context, entry *shared.ScheduleEntry) error
}

// Service serves section timetables.
type Service struct {
	store Store
}

// NewService creates a schedule service over the injected store.
func NewService(st Store) *Service {
	return &Service{store: st}
}

// EntryRequest creates one timetable slot.
type EntryRequest struct {
	Section     string `json:"section" validate:"required"`
	Semester    int32  `json:"semester" validate:"required,min=1,max=12"`
	SubjectCode string `json:"subject_code" validate:"required"`
	SubjectName string `json:"subject_name"`
	Day         string `json:"day" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	Room        string `json:"room"`
	FacultyID   string `json:"faculty_id"`
}

// GetWeekly returns a section's timetable ordered by day, then start time.
// An empty timetable is shared.ErrNotFound.
func (s *Service) GetWeekly(ctx context.Context, section string, semester int32) ([]shared.ScheduleEntry, error) {
	if section == "" {
		return nil, shared.NewValidationError("section", "section is required")
	}
	if semester <= 0 {
		return nil, shared.NewValidationError("semester", "semester is required")
	}

	entries, err := s.store.FindScheduleBySection(ctx, section, semester)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, shared.ErrNotFound
	}

	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := shared.DayIndex(entries[i].Day), shared.DayIndex(entries[j].Day)
		if di != dj {
			return di < dj
		}
		return shared.TimeToMinutes(entries[i].StartTime) < shared.TimeToMinutes(entries[j].StartTime)
	})

	return entries, nil
}

// CreateEntry adds a timetable slot, rejecting same-day overlaps within the
// section.
func (s *Service) CreateEntry(ctx context.Context, req EntryRequest) (*shared.ScheduleEntry, error) {
	if req.Section == "" || req.SubjectCode == "" {
		return nil, shared.NewValidationError("section", "section and subject code are required")
	}
	if shared.DayIndex(req.Day) > 5 {
		return nil, shared.NewValidationError("day", fmt.Sprintf("unknown day: %s", req.Day))
	}
	if shared.TimeToMinutes(req.StartTime) >= shared.TimeToMinutes(req.EndTime) {
		return nil, shared.NewValidationError("start_time", "start time must be before end time")
	}

	existing, err := s.store.FindScheduleBySection(ctx, req.Section, req.Semester)
	if err != nil {
		return nil, err
	}
	for _, entry := range existing {
		if entry.Day != req.Day {
			continue
		}
		if shared.TimesOverlap(entry.StartTime, entry.EndTime, req.StartTime, req.EndTime) {
			return nil, shared.NewValidationError("start_time",
				fmt.Sprintf("slot overlaps %s (%s-%s)", entry.SubjectCode, entry.StartTime, entry.EndTime))
		}
	}

	entry := &shared.ScheduleEntry{
		ID:          shared.GenerateID("SCH"),
		Section:     req.Section,
		Semester:    req.Semester,
		SubjectCode: req.SubjectCode,
		SubjectName: req.SubjectName,
		Day:         req.Day,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Room:        req.Room,
		FacultyID:   req.FacultyID,
	}

	if err := s.store.InsertScheduleEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
