// ============================================================================
// internal/marks/engine.go
// Component clamping, grade derivation, and semester GPA reduction
// ============================================================================

package marks

import (
	"studentportal/internal/shared"
)

// GradeBreakpoint maps a minimum theory mark to a grade and grade point.
type GradeBreakpoint struct {
	MinMarks   int32
	Grade      string
	GradePoint float64
}

// GradingScheme holds the clamp ceilings, the pass threshold, and the grade
// breakpoint table. The pass threshold and the breakpoints are deliberately
// two separate rules: a registrar can move the pass mark without touching
// the table.
type GradingScheme struct {
	CIAMax        int32
	AssignmentMax int32
	PassThreshold int32
	Breakpoints   []GradeBreakpoint // sorted by MinMarks descending
}

// DefaultScheme returns the scheme in effect: three 20-mark CIA tests plus a
// 10-mark assignment (internal total out of 70), pass at 50.
func DefaultScheme() GradingScheme {
	return GradingScheme{
		CIAMax:        20,
		AssignmentMax: 10,
		PassThreshold: 50,
		Breakpoints: []GradeBreakpoint{
			{MinMarks: 90, Grade: shared.GradeO, GradePoint: 10},
			{MinMarks: 80, Grade: shared.GradeAPlus, GradePoint: 9},
			{MinMarks: 70, Grade: shared.GradeA, GradePoint: 8},
			{MinMarks: 60, Grade: shared.GradeBPlus, GradePoint: 7},
			{MinMarks: 55, Grade: shared.GradeB, GradePoint: 6},
			{MinMarks: 50, Grade: shared.GradeC, GradePoint: 5},
		},
	}
}

// MaxInternal is the ceiling of the derived internal total.
func (s GradingScheme) MaxInternal() int32 {
	return 3*s.CIAMax + s.AssignmentMax
}

func clamp(v, max int32) int32 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// ClampComponents corrects each raw component into its valid range and
// derives the internal total. Out-of-range input is corrected silently,
// never rejected.
func (s GradingScheme) ClampComponents(in shared.InternalMarks) shared.InternalMarks {
	out := shared.InternalMarks{
		CIA1:       clamp(in.CIA1, s.CIAMax),
		CIA2:       clamp(in.CIA2, s.CIAMax),
		CIA3:       clamp(in.CIA3, s.CIAMax),
		Assignment: clamp(in.Assignment, s.AssignmentMax),
	}
	out.TotalInternal = out.CIA1 + out.CIA2 + out.CIA3 + out.Assignment
	return out
}

// GradeFor maps theory marks onto the breakpoint table. Marks below every
// breakpoint are F/0. The override-only grades (P, AB, W) are never produced
// here.
func (s GradingScheme) GradeFor(theoryMarks int32) (string, float64) {
	for _, bp := range s.Breakpoints {
		if theoryMarks >= bp.MinMarks {
			return bp.Grade, bp.GradePoint
		}
	}
	return shared.GradeF, 0
}

// ResultFor applies the pass threshold, independent of the grade table.
func (s GradingScheme) ResultFor(theoryMarks int32) string {
	if theoryMarks >= s.PassThreshold {
		return shared.ResultPass
	}
	return shared.ResultFail
}

// ============================================================================
// GPA Reduction
// ============================================================================

// SemesterSummary is the credit-weighted roll-up of one semester.
type SemesterSummary struct {
	Semester      int32                `json:"semester"`
	TotalCredits  int32                `json:"totalCredits"`
	EarnedCredits int32                `json:"earnedCredits"`
	GPA           string               `json:"gpa"`
	Subjects      []shared.MarksRecord `json:"subjects"`
}

// Report is the marks aggregate a student sees.
type Report struct {
	SemesterWise []SemesterSummary `json:"semesterWise"`
	CGPA         string            `json:"cgpa"`
}

// BuildReport groups marks records by semester and computes credit-weighted
// GPA per semester plus the cumulative GPA. Zero total credits resolve to
// "0.00", never NaN. Records are expected sorted by semester; group order
// follows the input.
func BuildReport(records []shared.MarksRecord) Report {
	report := Report{SemesterWise: []SemesterSummary{}}

	semesterIdx := make(map[int32]int)
	var cumulativePoints float64
	var cumulativeCredits int32

	for _, rec := range records {
		idx, seen := semesterIdx[rec.Semester]
		if !seen {
			idx = len(report.SemesterWise)
			semesterIdx[rec.Semester] = idx
			report.SemesterWise = append(report.SemesterWise, SemesterSummary{
				Semester: rec.Semester,
				Subjects: []shared.MarksRecord{},
			})
		}

		sem := &report.SemesterWise[idx]
		sem.Subjects = append(sem.Subjects, rec)
		sem.TotalCredits += rec.Credits
		if rec.Final.Result == shared.ResultPass {
			sem.EarnedCredits += rec.Credits
		}

		cumulativePoints += rec.Final.GradePoint * float64(rec.Credits)
		cumulativeCredits += rec.Credits
	}

	for i := range report.SemesterWise {
		sem := &report.SemesterWise[i]
		var points float64
		for _, rec := range sem.Subjects {
			points += rec.Final.GradePoint * float64(rec.Credits)
		}
		sem.GPA = gpaString(points, sem.TotalCredits)
	}
	report.CGPA = gpaString(cumulativePoints, cumulativeCredits)

	return report
}

func gpaString(weightedPoints float64, credits int32) string {
	if credits == 0 {
		return shared.FormatFixed2(0)
	}
	return shared.FormatFixed2(weightedPoints / float64(credits))
}
