// ============================================================================
// internal/admin/service.go
// System stats for the admin dashboard
// ============================================================================

package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"studentportal/internal/shared"
	"studentportal/internal/store"
)

// Directory is the account and cascade access the removal path depends on.
// *store.RecordStore satisfies it.
type Directory interface {
	FindUserByID(ctx context.Context, userID string) (*shared.User, error)
	DeleteStudentRecords(ctx context.Context, studentID string) error
	DeleteUserAccount(ctx context.Context, userID string) error
}

// Service computes portal-wide statistics and handles account removal.
type Service struct {
	db  *mongo.Database
	dir Directory
}

// NewService creates an admin service.
func NewService(st *store.RecordStore) *Service {
	return &Service{db: st.Database(), dir: st}
}

// RemoveStudent deletes a student account and cascades to every record the
// student owns: attendance events, marks, fee ledgers, and sessions.
func (s *Service) RemoveStudent(ctx context.Context, userID string) error {
	user, err := s.dir.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != shared.RoleStudent {
		return shared.NewValidationError("user_id", "only student accounts can be removed")
	}

	recordKey := user.StudentID
	if recordKey == "" {
		recordKey = user.ID
	}
	if err := s.dir.DeleteStudentRecords(ctx, recordKey); err != nil {
		return err
	}
	return s.dir.DeleteUserAccount(ctx, userID)
}

// Distribution summarizes a metric across the student body.
type Distribution struct {
	Count  int    `json:"count"`
	Mean   string `json:"mean"`
	Median string `json:"median"`
	P25    string `json:"p25"`
	P75    string `json:"p75"`
}

// SystemStats is the admin dashboard payload.
type SystemStats struct {
	TotalStudents    int64        `json:"total_students"`
	TotalFaculty     int64        `json:"total_faculty"`
	AttendanceEvents int64        `json:"attendance_events"`
	MarksRecords     int64        `json:"marks_records"`
	FeesCollected    int64        `json:"fees_collected"`
	FeesPending      int64        `json:"fees_pending"`
	LastPaymentAt    time.Time    `json:"last_payment_at"`
	Attendance       Distribution `json:"attendance_distribution"`
	GradePoints      Distribution `json:"grade_point_distribution"`
}

// GetSystemStats assembles counts, fee totals, and per-student attendance
// and grade-point distributions.
func (s *Service) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	result := &SystemStats{}

	usersCol := s.db.Collection("users")
	var err error
	if result.TotalStudents, err = usersCol.CountDocuments(queryCtx, bson.M{"role": shared.RoleStudent}); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	if result.TotalFaculty, err = usersCol.CountDocuments(queryCtx, bson.M{"role": shared.RoleFaculty}); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	if result.AttendanceEvents, err = s.db.Collection("attendance_events").CountDocuments(queryCtx, bson.M{}); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	if result.MarksRecords, err = s.db.Collection("marks_records").CountDocuments(queryCtx, bson.M{}); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}

	if err := s.feeTotals(queryCtx, result); err != nil {
		return nil, err
	}

	attendancePercents, err := s.perStudentAttendance(queryCtx)
	if err != nil {
		return nil, err
	}
	result.Attendance = describe(attendancePercents)

	gradePoints, err := s.gradePointSamples(queryCtx)
	if err != nil {
		return nil, err
	}
	result.GradePoints = describe(gradePoints)

	return result, nil
}

func (s *Service) feeTotals(ctx context.Context, result *SystemStats) error {
	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":          nil,
			"collected":    bson.M{"$sum": "$payment.amount_paid"},
			"pending":      bson.M{"$sum": "$payment.amount_pending"},
			"last_payment": bson.M{"$max": "$payment.last_payment_date"},
		}},
	}

	cursor, err := s.db.Collection("fee_records").Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	// Mongo hands accumulator results back as int32, int64, or double
	// depending on the stored values, so coerce rather than decode.
	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	if len(rows) == 0 {
		return nil
	}

	if collected, err := shared.GetInt64(rows[0]["collected"]); err == nil {
		result.FeesCollected = collected
	}
	if pending, err := shared.GetInt64(rows[0]["pending"]); err == nil {
		result.FeesPending = pending
	}
	if last, err := shared.GetTime(rows[0]["last_payment"]); err == nil {
		result.LastPaymentAt = last
	}
	return nil
}

// perStudentAttendance groups events by student and returns each student's
// overall attendance percentage.
func (s *Service) perStudentAttendance(ctx context.Context) ([]float64, error) {
	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":   "$student_id",
			"total": bson.M{"$sum": 1},
			"attended": bson.M{"$sum": bson.M{
				"$cond": []interface{}{
					bson.M{"$in": []interface{}{"$status", []string{shared.StatusPresent, shared.StatusOnDuty}}},
					1,
					0,
				},
			}},
		}},
	}

	cursor, err := s.db.Collection("attendance_events").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}

	samples := make([]float64, 0, len(rows))
	for _, row := range rows {
		if _, err := shared.GetString(row["_id"]); err != nil {
			continue // group without a student id
		}
		total, err := shared.GetInt64(row["total"])
		if err != nil || total == 0 {
			continue
		}
		attended, err := shared.GetInt64(row["attended"])
		if err != nil {
			continue
		}
		samples = append(samples, float64(attended)/float64(total)*100)
	}
	return samples, nil
}

// gradePointSamples collects the grade points of every graded subject.
func (s *Service) gradePointSamples(ctx context.Context) ([]float64, error) {
	filter := bson.M{"final.result": bson.M{"$in": []string{shared.ResultPass, shared.ResultFail}}}
	cursor, err := s.db.Collection("marks_records").Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var samples []float64
	for cursor.Next(ctx) {
		var rec struct {
			Final struct {
				GradePoint float64 `bson:"grade_point"`
			} `bson:"final"`
		}
		if err := cursor.Decode(&rec); err != nil {
			continue
		}
		samples = append(samples, rec.Final.GradePoint)
	}
	return samples, nil
}

// describe reduces samples to mean/median/quartiles. Empty input yields
// zeros rather than the library's NaN.
func describe(samples []float64) Distribution {
	dist := Distribution{
		Count:  len(samples),
		Mean:   shared.FormatFixed2(0),
		Median: shared.FormatFixed2(0),
		P25:    shared.FormatFixed2(0),
		P75:    shared.FormatFixed2(0),
	}
	if len(samples) == 0 {
		return dist
	}

	if mean, err := stats.Mean(samples); err == nil {
		dist.Mean = shared.FormatFixed2(mean)
	}
	if median, err := stats.Median(samples); err == nil {
		dist.Median = shared.FormatFixed2(median)
	}
	if p25, err := stats.Percentile(samples, 25); err == nil {
		dist.P25 = shared.FormatFixed2(p25)
	}
	if p75, err := stats.Percentile(samples, 75); err == nil {
		dist.P75 = shared.FormatFixed2(p75)
	}
	return dist
}
