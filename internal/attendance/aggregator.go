// ============================================================================
// internal/attendance/aggregator.go
// Pure read-side reduction of attendance events into percentages
// ============================================================================

package attendance

import (
	"sort"

	"studentportal/internal/shared"
)

// DefaultRecentLimit bounds the "recent" slice of a summary.
const DefaultRecentLimit = 10

// SubjectStats is the per-subject attendance roll-up.
type SubjectStats struct {
	SubjectCode  string `json:"subjectCode"`
	SubjectName  string `json:"subjectName"`
	TotalClasses int    `json:"totalClasses"`
	Attended     int    `json:"attended"`
	Percentage   string `json:"percentage"`
}

// OverallStats is the roll-up across all subjects.
type OverallStats struct {
	TotalClasses int    `json:"totalClasses"`
	Attended     int    `json:"attended"`
	Percentage   string `json:"percentage"`
}

// Summary is the aggregate a student sees. Field names are part of the
// frontend contract.
type Summary struct {
	Overall     OverallStats             `json:"overall"`
	SubjectWise []SubjectStats           `json:"subjectWise"`
	Recent      []shared.AttendanceEvent `json:"recent"`
}

// countsAttended reports whether a status counts toward attended classes.
// Late counts toward total but not attended.
func countsAttended(status string) bool {
	return status == shared.StatusPresent || status == shared.StatusOnDuty
}

// percentage guards the zero-classes division: no classes means 0, never NaN.
func percentage(attended, total int) string {
	if total == 0 {
		return shared.FormatFixed2(0)
	}
	return shared.FormatFixed2(float64(attended) / float64(total) * 100)
}

// Summarize reduces a student's full event history into overall and
// per-subject statistics. Subjects appear in first-seen order of the event
// set; recent holds the most recent limit events by date descending. The
// reduction has no side effects.
func Summarize(events []shared.AttendanceEvent, limit int) Summary {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	summary := Summary{
		SubjectWise: []SubjectStats{},
		Recent:      []shared.AttendanceEvent{},
	}

	subjectIdx := make(map[string]int)
	for _, event := range events {
		summary.Overall.TotalClasses++
		if countsAttended(event.Status) {
			summary.Overall.Attended++
		}

		idx, seen := subjectIdx[event.SubjectCode]
		if !seen {
			idx = len(summary.SubjectWise)
			subjectIdx[event.SubjectCode] = idx
			summary.SubjectWise = append(summary.SubjectWise, SubjectStats{
				SubjectCode: event.SubjectCode,
				SubjectName: event.SubjectName,
			})
		}

		summary.SubjectWise[idx].TotalClasses++
		if countsAttended(event.Status) {
			summary.SubjectWise[idx].Attended++
		}
	}

	summary.Overall.Percentage = percentage(summary.Overall.Attended, summary.Overall.TotalClasses)
	for i := range summary.SubjectWise {
		stats := &summary.SubjectWise[i]
		stats.Percentage = percentage(stats.Attended, stats.TotalClasses)
	}

	// Most recent events, date descending
	recent := make([]shared.AttendanceEvent, len(events))
	copy(recent, events)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Date.After(recent[j].Date)
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}
	summary.Recent = recent

	return summary
}
