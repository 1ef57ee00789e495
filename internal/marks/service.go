// ============================================================================
// internal/marks/service.go
// Internal-marks entry, registrar grading, and the marks report
// ============================================================================

package marks

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

// Store is the record access the marks paths depend on.
// *store.RecordStore satisfies it.
type Store interface {
	FindMarksByStudent(ctx context.Context, studentID string) ([]shared.MarksRecord, error)
	FindMarksByStudentAndSemester(ctx context.Context, studentID string, semester int32) ([]shared.MarksRecord, error)
	UpsertMarks(ctx context.Context, key, set, setOnInsert bson.M) (string, error)
}

// Service coordinates marks entry and aggregation.
type Service struct {
	store  Store
	cache  *cache.Cache
	scheme GradingScheme
}

// NewService creates a marks service with the given grading scheme.
func NewService(st Store, c *cache.Cache, scheme GradingScheme) *Service {
	return &Service{store: st, cache: c, scheme: scheme}
}

// InternalEntry is one roster item in an internal-marks batch. Absent
// components default to 0; out-of-range values are clamped, not rejected.
type InternalEntry struct {
	StudentID  string `json:"student_id" validate:"required"`
	CIA1       int32  `json:"cia1"`
	CIA2       int32  `json:"cia2"`
	CIA3       int32  `json:"cia3"`
	Assignment int32  `json:"assignment"`
}

// InternalRequest is a faculty submission of internal marks for one subject.
type InternalRequest struct {
	SubjectCode  string          `json:"subject_code" validate:"required"`
	SubjectName  string          `json:"subject_name"`
	Semester     int32           `json:"semester" validate:"required,min=1,max=12"`
	AcademicYear string          `json:"academic_year"`
	Credits      int32           `json:"credits"`
	Entries      []InternalEntry `json:"marksList" validate:"required,min=1,dive"`
}

// FinalRequest is the registrar write path for end-of-semester results.
// Grade, when set, must be one of the override states (P, AB, W); otherwise
// the grade and point are derived from TheoryMarks.
type FinalRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	SubjectCode string `json:"subject_code" validate:"required"`
	Semester    int32  `json:"semester" validate:"required,min=1,max=12"`
	TheoryMarks int32  `json:"theory_marks"`
	Grade       string `json:"grade"`
}

func reportCacheKey(studentID string) string {
	return fmt.Sprintf("marks:report:%s", studentID)
}

// GetReport aggregates a student's marks into semester-wise GPA. Semester 0
// means all semesters. No records at all is shared.ErrNotFound.
func (s *Service) GetReport(ctx context.Context, studentID string, semester int32) (Report, error) {
	if studentID == "" {
		return Report{}, shared.NewValidationError("student_id", "student id is required")
	}

	if semester == 0 {
		var cached Report
		if s.cache.GetJSON(ctx, reportCacheKey(studentID), &cached) {
			return cached, nil
		}
	}

	var records []shared.MarksRecord
	var err error
	if semester > 0 {
		records, err = s.store.FindMarksByStudentAndSemester(ctx, studentID, semester)
	} else {
		records, err = s.store.FindMarksByStudent(ctx, studentID)
	}
	if err != nil {
		return Report{}, err
	}
	if len(records) == 0 {
		return Report{}, shared.ErrNotFound
	}

	report := BuildReport(records)
	if semester == 0 {
		s.cache.SetJSON(ctx, reportCacheKey(studentID), report)
	}
	return report, nil
}

// EnterInternal upserts the internal block of one marks record per roster
// item, keyed on (student_id, subject_code, semester). The final block of an
// existing record is never touched, so entering internal marks cannot
// overwrite an already-graded result. New records default their final block
// to Pending.
func (s *Service) EnterInternal(ctx context.Context, enteredBy string, req InternalRequest) ([]shared.WriteOutcome, error) {
	if err := s.validateInternalRequest(req); err != nil {
		return nil, err
	}

	credits := req.Credits
	if credits <= 0 {
		credits = 3
	}

	now := time.Now()
	outcomes := make([]shared.WriteOutcome, 0, len(req.Entries))

	for _, entry := range req.Entries {
		internal := s.scheme.ClampComponents(shared.InternalMarks{
			CIA1:       entry.CIA1,
			CIA2:       entry.CIA2,
			CIA3:       entry.CIA3,
			Assignment: entry.Assignment,
		})

		key := bson.M{
			"student_id":   entry.StudentID,
			"subject_code": req.SubjectCode,
			"semester":     req.Semester,
		}
		set := bson.M{
			"internal":   internal,
			"entered_by": enteredBy,
			"updated_at": now,
		}
		setOnInsert := bson.M{
			"_id":           shared.GenerateMarksID(),
			"subject_name":  req.SubjectName,
			"academic_year": req.AcademicYear,
			"credits":       credits,
			"final": shared.FinalMarks{
				TheoryMarks: 0,
				Grade:       shared.GradeNA,
				GradePoint:  0,
				Result:      shared.ResultPending,
			},
			"created_at": now,
		}

		action, err := s.store.UpsertMarks(ctx, key, set, setOnInsert)
		if err != nil {
			log.Printf("WARN: marks upsert failed for student %s: %v", entry.StudentID, err)
			outcomes = append(outcomes, shared.WriteOutcome{StudentID: entry.StudentID, Error: "store failure"})
			continue
		}

		metrics.WriteOutcomesTotal.WithLabelValues("marks", action).Inc()
		outcomes = append(outcomes, shared.WriteOutcome{StudentID: entry.StudentID, Action: action})
		s.cache.Invalidate(ctx, reportCacheKey(entry.StudentID))
	}

	return outcomes, nil
}

// RecordFinal writes the final block for one subject. With an override grade
// (P, AB, W) the grade is taken as given with grade point 0 and the result
// forced accordingly; otherwise grade and point come from the breakpoint
// table and the result from the pass threshold.
func (s *Service) RecordFinal(ctx context.Context, gradedBy string, req FinalRequest) (string, error) {
	if req.StudentID == "" || req.SubjectCode == "" {
		return "", shared.NewValidationError("student_id", "student id and subject code are required")
	}
	if req.Semester <= 0 {
		return "", shared.NewValidationError("semester", "semester is required")
	}

	var final shared.FinalMarks
	switch {
	case req.Grade != "":
		if !shared.IsValidGrade(req.Grade) {
			return "", shared.NewValidationError("grade", fmt.Sprintf("unknown grade: %s", req.Grade))
		}
		if !shared.IsOverrideGrade(req.Grade) {
			return "", shared.NewValidationError("grade", fmt.Sprintf("grade %s cannot be set directly; only P, AB, W are override states", req.Grade))
		}
		final = shared.FinalMarks{
			TheoryMarks: req.TheoryMarks,
			Grade:       req.Grade,
			GradePoint:  0,
			Result:      overrideResult(req.Grade),
		}
	default:
		if req.TheoryMarks < 0 || req.TheoryMarks > 100 {
			return "", shared.NewValidationError("theory_marks", "theory marks must be between 0 and 100")
		}
		grade, point := s.scheme.GradeFor(req.TheoryMarks)
		final = shared.FinalMarks{
			TheoryMarks: req.TheoryMarks,
			Grade:       grade,
			GradePoint:  point,
			Result:      s.scheme.ResultFor(req.TheoryMarks),
		}
	}

	now := time.Now()
	key := bson.M{
		"student_id":   req.StudentID,
		"subject_code": req.SubjectCode,
		"semester":     req.Semester,
	}
	set := bson.M{
		"final":      final,
		"entered_by": gradedBy,
		"updated_at": now,
	}
	setOnInsert := bson.M{
		"_id":        shared.GenerateMarksID(),
		"credits":    int32(3),
		"internal":   shared.InternalMarks{},
		"created_at": now,
	}

	action, err := s.store.UpsertMarks(ctx, key, set, setOnInsert)
	if err != nil {
		return "", err
	}

	metrics.WriteOutcomesTotal.WithLabelValues("marks_final", action).Inc()
	s.cache.Invalidate(ctx, reportCacheKey(req.StudentID))
	return action, nil
}

func overrideResult(grade string) string {
	switch grade {
	case shared.GradeP:
		return shared.ResultPass
	case shared.GradeAB:
		return shared.ResultAbsent
	default: // W
		return shared.ResultFail
	}
}

func (s *Service) validateInternalRequest(req InternalRequest) error {
	if req.SubjectCode == "" {
		return shared.NewValidationError("subject_code", "subject code is required")
	}
	if req.Semester <= 0 {
		return shared.NewValidationError("semester", "semester is required")
	}
	if len(req.Entries) == 0 {
		return shared.NewValidationError("marksList", "marks list cannot be empty")
	}
	for _, entry := range req.Entries {
		if entry.StudentID == "" {
			return shared.NewValidationError("student_id", "every marks entry needs a student id")
		}
	}
	return nil
}
