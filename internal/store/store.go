// ============================================================================
// internal/store/store.go
// RecordStore adapter: typed reads by filter plus upsert-by-natural-key
// ============================================================================

package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studentportal/internal/shared"
)

// Upsert action outcomes, reported per batch item to the caller.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

const queryTimeout = 10 * time.Second

// RecordStore wraps the injected Mongo database with the read and write
// contracts the aggregation core depends on.
type RecordStore struct {
	db            *mongo.Database
	attendanceCol *mongo.Collection
	marksCol      *mongo.Collection
	feesCol       *mongo.Collection
	scheduleCol   *mongo.Collection
	usersCol      *mongo.Collection
	sessionsCol   *mongo.Collection
}

// New creates a RecordStore over an injected database handle.
func New(db *mongo.Database) *RecordStore {
	return &RecordStore{
		db:            db,
		attendanceCol: db.Collection("attendance_events"),
		marksCol:      db.Collection("marks_records"),
		feesCol:       db.Collection("fee_records"),
		scheduleCol:   db.Collection("schedule_entries"),
		usersCol:      db.Collection("users"),
		sessionsCol:   db.Collection("sessions"),
	}
}

// Database exposes the underlying handle for collaborators (auth, admin).
func (s *RecordStore) Database() *mongo.Database {
	return s.db
}

// Ping verifies the store is reachable.
func (s *RecordStore) Ping(ctx context.Context) error {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.db.Client().Ping(queryCtx, nil)
}

// ============================================================================
// Upsert Coordinator
// ============================================================================

// UpsertByNaturalKey applies "find existing record by natural key, update in
// place, else create" as a single conditional Mongo upsert. The read and the
// write are one operation, so two concurrent submissions for the same key
// cannot race into duplicates; the last write wins on the mutated fields.
//
// set holds the fields the write path owns; setOnInsert holds the full
// defaults for a newly created record (including its _id). Returns whether
// the record was created or updated.
func (s *RecordStore) UpsertByNaturalKey(ctx context.Context, col *mongo.Collection, key bson.M, set bson.M, setOnInsert bson.M) (string, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	update := bson.M{"$set": set}
	if len(setOnInsert) > 0 {
		update["$setOnInsert"] = setOnInsert
	}

	opts := options.Update().SetUpsert(true)
	result, err := col.UpdateOne(queryCtx, key, update, opts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}

	if result.UpsertedCount > 0 {
		return ActionCreated, nil
	}
	return ActionUpdated, nil
}

// UpsertAttendance upserts one attendance event by its natural key
// (student_id, subject_code, date).
func (s *RecordStore) UpsertAttendance(ctx context.Context, key, set, setOnInsert bson.M) (string, error) {
	return s.UpsertByNaturalKey(ctx, s.attendanceCol, key, set, setOnInsert)
}

// UpsertMarks upserts one marks record by its natural key
// (student_id, subject_code, semester).
func (s *RecordStore) UpsertMarks(ctx context.Context, key, set, setOnInsert bson.M) (string, error) {
	return s.UpsertByNaturalKey(ctx, s.marksCol, key, set, setOnInsert)
}

// ============================================================================
// Attendance Reads
// ============================================================================

// FindAttendanceByStudent returns the full stored attendance history for one
// student, oldest first. First-seen subject order in the result drives the
// subject-wise ordering of the aggregate.
func (s *RecordStore) FindAttendanceByStudent(ctx context.Context, studentID string) ([]shared.AttendanceEvent, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"student_id": studentID}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "subject_code", Value: 1}})

	cursor, err := s.attendanceCol.Find(queryCtx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	defer cursor.Close(queryCtx)

	var events []shared.AttendanceEvent
	if err := cursor.All(queryCtx, &events); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return events, nil
}

// ============================================================================
// Marks Reads
// ============================================================================

// FindMarksByStudent returns all marks records for one student across
// semesters, ordered by semester then subject code.
func (s *RecordStore) FindMarksByStudent(ctx context.Context, studentID string) ([]shared.MarksRecord, error) {
	return s.findMarks(ctx, bson.M{"student_id": studentID})
}

// FindMarksByStudentAndSemester returns one semester's marks records.
func (s *RecordStore) FindMarksByStudentAndSemester(ctx context.Context, studentID string, semester int32) ([]shared.MarksRecord, error) {
	return s.findMarks(ctx, bson.M{"student_id": studentID, "semester": semester})
}

func (s *RecordStore) findMarks(ctx context.Context, filter bson.M) ([]shared.MarksRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	findOptions := options.Find().
		SetSort(bson.D{{Key: "semester", Value: 1}, {Key: "subject_code", Value: 1}})

	cursor, err := s.marksCol.Find(queryCtx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	defer cursor.Close(queryCtx)

	var records []shared.MarksRecord
	if err := cursor.All(queryCtx, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return records, nil
}

// ============================================================================
// Fee Reads
// ============================================================================

// FindFeesByStudent returns all fee records for one student, newest semester
// first.
func (s *RecordStore) FindFeesByStudent(ctx context.Context, studentID string) ([]shared.FeeRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"student_id": studentID}
	findOptions := options.Find().SetSort(bson.D{{Key: "semester", Value: -1}})

	cursor, err := s.feesCol.Find(queryCtx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	defer cursor.Close(queryCtx)

	var records []shared.FeeRecord
	if err := cursor.All(queryCtx, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return records, nil
}

// FindFeeByStudentAndSemester returns one fee record by its natural key.
func (s *RecordStore) FindFeeByStudentAndSemester(ctx context.Context, studentID string, semester int32) (*shared.FeeRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var record shared.FeeRecord
	err := s.feesCol.FindOne(queryCtx, bson.M{"student_id": studentID, "semester": semester}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return &record, nil
}

// ReplaceFeeRecord persists a rederived fee record in full. The ledger is
// derived before persistence, never inside a storage lifecycle hook.
func (s *RecordStore) ReplaceFeeRecord(ctx context.Context, record *shared.FeeRecord) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"student_id": record.StudentID, "semester": record.Semester}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.feesCol.ReplaceOne(queryCtx, filter, record, opts); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return nil
}

// ApplyFeePayment appends one transaction to a ledger and adjusts the paid
// amount as a single atomic update, returning the record as written. The
// push and the increment ride one operation, so concurrent payments to the
// same (student, semester) cannot drop each other's transaction.
func (s *RecordStore) ApplyFeePayment(ctx context.Context, studentID string, semester int32, txn shared.FeeTransaction, now time.Time) (*shared.FeeRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"student_id": studentID, "semester": semester}
	update := bson.M{
		"$push": bson.M{"transactions": txn},
		"$inc":  bson.M{"payment.amount_paid": txn.Amount},
		"$max":  bson.M{"payment.last_payment_date": txn.PaymentDate},
		"$set":  bson.M{"updated_at": now},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var record shared.FeeRecord
	if err := s.feesCol.FindOneAndUpdate(queryCtx, filter, update, opts).Decode(&record); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return &record, nil
}

// UpdateFeeDerivedState persists only the rederived fields of a ledger.
// The paid amount and transaction list are owned by ApplyFeePayment and are
// deliberately not written here.
func (s *RecordStore) UpdateFeeDerivedState(ctx context.Context, recordID string, totalFee int64, payment shared.FeePayment) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"structure.total_fee":    totalFee,
		"payment.amount_pending": payment.AmountPending,
		"payment.payment_status": payment.PaymentStatus,
	}}
	if _, err := s.feesCol.UpdateByID(queryCtx, recordID, update); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return nil
}

// ============================================================================
// Schedule Reads
// ============================================================================

// FindScheduleBySection returns all timetable entries for a section/semester.
func (s *RecordStore) FindScheduleBySection(ctx context.Context, section string, semester int32) ([]shared.ScheduleEntry, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"section": section, "semester": semester}
	cursor, err := s.scheduleCol.Find(queryCtx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	defer cursor.Close(queryCtx)

	var entries []shared.ScheduleEntry
	if err := cursor.All(queryCtx, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return entries, nil
}

// InsertScheduleEntry persists one timetable slot.
func (s *RecordStore) InsertScheduleEntry(ctx context.Context, entry *shared.ScheduleEntry) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := s.scheduleCol.InsertOne(queryCtx, entry); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return nil
}

// ============================================================================
// User Reads
// ============================================================================

// FindUserByID returns a user account by its ID.
func (s *RecordStore) FindUserByID(ctx context.Context, userID string) (*shared.User, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user shared.User
	err := s.usersCol.FindOne(queryCtx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return &user, nil
}

// DeleteStudentRecords cascades deletion of a student's owned records.
// The only path that ever deletes attendance, marks, or fee documents.
func (s *RecordStore) DeleteStudentRecords(ctx context.Context, studentID string) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"student_id": studentID}
	for _, col := range []*mongo.Collection{s.attendanceCol, s.marksCol, s.feesCol} {
		if _, err := col.DeleteMany(queryCtx, filter); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
		}
	}
	return nil
}

// DeleteUserAccount removes a user and every session belonging to them.
func (s *RecordStore) DeleteUserAccount(ctx context.Context, userID string) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := s.usersCol.DeleteOne(queryCtx, bson.M{"_id": userID}); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	if _, err := s.sessionsCol.DeleteMany(queryCtx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return nil
}
