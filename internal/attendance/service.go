// ============================================================================
// internal/attendance/service.go
// Attendance reads and the batch mark-attendance write path
// ============================================================================

package attendance

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"studentportal/internal/cache"
	"studentportal/internal/metrics"
	"studentportal/internal/shared"
)

// Store is the record access the attendance paths depend on.
// *store.RecordStore satisfies it.
type Store interface {
	FindAttendanceByStudent(ctx context.Context, studentID string) ([]shared.AttendanceEvent, error)
	UpsertAttendance(ctx context.Context, key, set, setOnInsert bson.M) (string, error)
}

// Service coordinates attendance aggregation and marking.
type Service struct {
	store Store
	cache *cache.Cache
}

// NewService creates an attendance service over the injected store.
func NewService(st Store, c *cache.Cache) *Service {
	return &Service{store: st, cache: c}
}

// MarkEntry is one roster item in a mark-attendance batch.
type MarkEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

// MarkRequest is a faculty submission: one class roster for a subject/date.
type MarkRequest struct {
	SubjectCode  string      `json:"subject_code" validate:"required"`
	SubjectName  string      `json:"subject_name"`
	Date         string      `json:"date" validate:"required"` // 2006-01-02
	Session      string      `json:"session"`
	Semester     int32       `json:"semester" validate:"required,min=1,max=12"`
	AcademicYear string      `json:"academic_year"`
	Entries      []MarkEntry `json:"attendanceList" validate:"required,min=1,dive"`
}

func summaryCacheKey(studentID string) string {
	return fmt.Sprintf("attendance:summary:%s", studentID)
}

// GetStudentSummary aggregates a student's whole stored history. A student
// with no events at all is reported as shared.ErrNotFound so callers can
// distinguish "no data" from a valid zero percentage.
func (s *Service) GetStudentSummary(ctx context.Context, studentID string) (Summary, error) {
	if studentID == "" {
		return Summary{}, shared.NewValidationError("student_id", "student id is required")
	}

	var cached Summary
	if s.cache.GetJSON(ctx, summaryCacheKey(studentID), &cached) {
		return cached, nil
	}

	events, err := s.store.FindAttendanceByStudent(ctx, studentID)
	if err != nil {
		return Summary{}, err
	}
	if len(events) == 0 {
		return Summary{}, shared.ErrNotFound
	}

	summary := Summarize(events, DefaultRecentLimit)
	s.cache.SetJSON(ctx, summaryCacheKey(studentID), summary)
	return summary, nil
}

// Mark upserts one attendance event per roster item, keyed on
// (student_id, subject_code, date). Request-shape validation rejects the
// whole batch before any write; after that each item is applied
// independently and reported in its own outcome.
func (s *Service) Mark(ctx context.Context, markedBy string, req MarkRequest) ([]shared.WriteOutcome, error) {
	if err := s.validateMarkRequest(req); err != nil {
		return nil, err
	}

	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, shared.NewValidationError("date", "date must be in YYYY-MM-DD format")
	}
	day = shared.NormalizeDate(day)

	now := time.Now()
	outcomes := make([]shared.WriteOutcome, 0, len(req.Entries))

	for _, entry := range req.Entries {
		key := bson.M{
			"student_id":   entry.StudentID,
			"subject_code": req.SubjectCode,
			"date":         day,
		}
		set := bson.M{
			"status":     entry.Status,
			"marked_by":  markedBy,
			"updated_at": now,
		}
		if req.Session != "" {
			set["session"] = req.Session
		}
		setOnInsert := bson.M{
			"_id":           shared.GenerateAttendanceID(),
			"subject_name":  req.SubjectName,
			"semester":      req.Semester,
			"academic_year": req.AcademicYear,
			"created_at":    now,
		}

		action, err := s.store.UpsertAttendance(ctx, key, set, setOnInsert)
		if err != nil {
			log.Printf("WARN: attendance upsert failed for student %s: %v", entry.StudentID, err)
			outcomes = append(outcomes, shared.WriteOutcome{StudentID: entry.StudentID, Error: "store failure"})
			continue
		}

		metrics.WriteOutcomesTotal.WithLabelValues("attendance", action).Inc()
		outcomes = append(outcomes, shared.WriteOutcome{StudentID: entry.StudentID, Action: action})
		s.cache.Invalidate(ctx, summaryCacheKey(entry.StudentID))
	}

	return outcomes, nil
}

func (s *Service) validateMarkRequest(req MarkRequest) error {
	if req.SubjectCode == "" {
		return shared.NewValidationError("subject_code", "subject code is required")
	}
	if req.Date == "" {
		return shared.NewValidationError("date", "date is required")
	}
	if len(req.Entries) == 0 {
		return shared.NewValidationError("attendanceList", "attendance list cannot be empty")
	}
	for _, entry := range req.Entries {
		if entry.StudentID == "" {
			return shared.NewValidationError("student_id", "every attendance entry needs a student id")
		}
		if !shared.IsValidAttendanceStatus(entry.Status) {
			return shared.NewValidationError("status", fmt.Sprintf("invalid attendance status: %s", entry.Status))
		}
	}
	return nil
}
