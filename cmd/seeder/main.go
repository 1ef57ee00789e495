package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"studentportal/internal/fees"
	"studentportal/internal/marks"
	"studentportal/internal/shared"
	"studentportal/internal/store"

	"go.mongodb.org/mongo-driver/mongo"
)

// Seed accounts. Every account uses the same development password.
const (
	AdminID1   = "admin-001"
	FacultyID1 = "faculty-001"
	FacultyID2 = "faculty-002"
	StudentID1 = "21CS001" // Arun Kumar
	StudentID2 = "21CS002" // Priya Sharma
	StudentID3 = "21CS003" // Rahul Verma

	CommonPassword = "password"

	CurrentYear     = "2025-2026"
	CurrentSemester = int32(5)
	Section         = "CS-A"
)

// SubjectSeed drives schedule, attendance and marks seeding for one subject.
type SubjectSeed struct {
	Code      string
	Name      string
	Credits   int32
	FacultyID string
	Day       string
	Start     string
	End       string
	Room      string
}

func main() {
	log.Println("INFO: Starting Database Seeder...")

	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("WARN: .env file not found, using system environment variables")
	}

	cfg, err := shared.LoadServerConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		log.Fatalf("FATAL: Failed to connect to MongoDB: %v", err)
	}
	defer shared.DisconnectMongoDB(client)

	// Clean start
	if err := db.Drop(context.Background()); err != nil {
		log.Fatalf("FATAL: Failed to drop database: %v", err)
	}
	log.Println("INFO: Database cleared.")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	recordStore := store.New(db)

	subjects := []SubjectSeed{
		{"CS501", "Operating Systems", 4, FacultyID1, "M", "09:00", "10:00", "A-101"},
		{"CS502", "Database Systems", 4, FacultyID1, "T", "10:00", "11:00", "A-101"},
		{"CS503", "Computer Networks", 3, FacultyID2, "W", "11:00", "12:00", "A-102"},
		{"CS504", "Software Engineering", 3, FacultyID2, "TH", "14:00", "15:00", "A-102"},
	}

	seedUsers(ctx, db)
	seedSchedule(ctx, recordStore, subjects)
	seedAttendance(ctx, db, subjects)
	seedMarks(ctx, db, subjects)
	seedFees(ctx, recordStore)

	log.Println("INFO: Seeding complete.")
}

func hashPassword(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("FATAL: Failed to hash password: %v", err)
	}
	return string(hash)
}

func seedUsers(ctx context.Context, db *mongo.Database) {
	hash := hashPassword(CommonPassword)
	now := time.Now().UTC()

	users := []interface{}{
		shared.User{ID: AdminID1, Email: "admin@example.com", PasswordHash: hash,
			Name: "Portal Admin", Role: shared.RoleAdmin, IsActive: true, CreatedAt: now},
		shared.User{ID: FacultyID1, Email: "anita.rao@example.com", PasswordHash: hash,
			Name: "Anita Rao", Role: shared.RoleFaculty, FacultyID: FacultyID1, IsActive: true, CreatedAt: now},
		shared.User{ID: FacultyID2, Email: "suresh.nair@example.com", PasswordHash: hash,
			Name: "Suresh Nair", Role: shared.RoleFaculty, FacultyID: FacultyID2, IsActive: true, CreatedAt: now},
		shared.User{ID: "user-" + StudentID1, Email: "arun@example.com", PasswordHash: hash,
			Name: "Arun Kumar", Role: shared.RoleStudent, StudentID: StudentID1,
			Section: Section, Semester: CurrentSemester, IsActive: true, CreatedAt: now},
		shared.User{ID: "user-" + StudentID2, Email: "priya@example.com", PasswordHash: hash,
			Name: "Priya Sharma", Role: shared.RoleStudent, StudentID: StudentID2,
			Section: Section, Semester: CurrentSemester, IsActive: true, CreatedAt: now},
		shared.User{ID: "user-" + StudentID3, Email: "rahul@example.com", PasswordHash: hash,
			Name: "Rahul Verma", Role: shared.RoleStudent, StudentID: StudentID3,
			Section: Section, Semester: CurrentSemester, IsActive: true, CreatedAt: now},
	}

	if _, err := db.Collection("users").InsertMany(ctx, users); err != nil {
		log.Fatalf("FATAL: Failed to seed users: %v", err)
	}
	log.Printf("INFO: Seeded %d users.", len(users))
}

func seedSchedule(ctx context.Context, st *store.RecordStore, subjects []SubjectSeed) {
	for _, sub := range subjects {
		entry := shared.ScheduleEntry{
			ID:          shared.GenerateID("SCH"),
			Section:     Section,
			Semester:    CurrentSemester,
			SubjectCode: sub.Code,
			SubjectName: sub.Name,
			Day:         sub.Day,
			StartTime:   sub.Start,
			EndTime:     sub.End,
			Room:        sub.Room,
			FacultyID:   sub.FacultyID,
		}
		if err := st.InsertScheduleEntry(ctx, &entry); err != nil {
			log.Fatalf("FATAL: Failed to seed schedule: %v", err)
		}
	}
	log.Printf("INFO: Seeded %d schedule entries.", len(subjects))
}

func seedAttendance(ctx context.Context, db *mongo.Database, subjects []SubjectSeed) {
	students := []string{StudentID1, StudentID2, StudentID3}
	// Statuses cycle so every student ends up with a different percentage.
	cycle := []string{
		shared.StatusPresent, shared.StatusPresent, shared.StatusPresent,
		shared.StatusAbsent, shared.StatusPresent, shared.StatusLate,
		shared.StatusPresent, shared.StatusOnDuty, shared.StatusPresent,
		shared.StatusPresent,
	}

	var events []interface{}
	now := time.Now().UTC()
	for si, studentID := range students {
		for _, sub := range subjects {
			for week := 0; week < 10; week++ {
				date := shared.NormalizeDate(now.AddDate(0, 0, -7*(10-week)))
				events = append(events, shared.AttendanceEvent{
					ID:           shared.GenerateAttendanceID(),
					StudentID:    studentID,
					SubjectCode:  sub.Code,
					SubjectName:  sub.Name,
					Date:         date,
					Status:       cycle[(week+si)%len(cycle)],
					Semester:     CurrentSemester,
					AcademicYear: CurrentYear,
					MarkedBy:     sub.FacultyID,
					CreatedAt:    now,
					UpdatedAt:    now,
				})
			}
		}
	}

	if _, err := db.Collection("attendance_events").InsertMany(ctx, events); err != nil {
		log.Fatalf("FATAL: Failed to seed attendance: %v", err)
	}
	log.Printf("INFO: Seeded %d attendance events.", len(events))
}

func seedMarks(ctx context.Context, db *mongo.Database, subjects []SubjectSeed) {
	scheme := marks.DefaultScheme()
	students := []string{StudentID1, StudentID2, StudentID3}
	now := time.Now().UTC()

	var records []interface{}
	for si, studentID := range students {
		for bi, sub := range subjects {
			internal := shared.InternalMarks{
				CIA1:       int32(14 + (si+bi)%6),
				CIA2:       int32(15 + (si+2*bi)%5),
				CIA3:       int32(13 + (2*si+bi)%7),
				Assignment: int32(7 + (si+bi)%3),
			}
			internal = scheme.ClampComponents(internal)

			theory := int32(55 + 5*((si+bi)%8))
			grade, point := scheme.GradeFor(theory)
			final := shared.FinalMarks{
				TheoryMarks: theory,
				Grade:       grade,
				GradePoint:  point,
				Result:      scheme.ResultFor(theory),
			}

			records = append(records, shared.MarksRecord{
				ID:           shared.GenerateMarksID(),
				StudentID:    studentID,
				SubjectCode:  sub.Code,
				SubjectName:  sub.Name,
				Semester:     CurrentSemester,
				AcademicYear: CurrentYear,
				Credits:      sub.Credits,
				Internal:     internal,
				Final:        final,
				EnteredBy:    sub.FacultyID,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
		}
	}

	if _, err := db.Collection("marks_records").InsertMany(ctx, records); err != nil {
		log.Fatalf("FATAL: Failed to seed marks: %v", err)
	}
	log.Printf("INFO: Seeded %d marks records.", len(records))
}

func seedFees(ctx context.Context, st *store.RecordStore) {
	students := []string{StudentID1, StudentID2, StudentID3}
	structure := shared.FeeStructure{
		TuitionFee: 60000,
		ExamFee:    1500,
		LibraryFee: 2000,
		LabFee:     5000,
		SportsFee:  1000,
		HostelFee:  0,
		BusFee:     0,
		OtherFees:  10000,
	}
	now := time.Now().UTC()
	dueDate := shared.NormalizeDate(now.AddDate(0, 1, 0))

	// Payment shares: one paid in full, one partial, one nothing yet.
	paidShare := []int64{1, 2, 0}

	for i, studentID := range students {
		record := shared.FeeRecord{
			ID:           shared.GenerateFeeID(),
			StudentID:    studentID,
			AcademicYear: CurrentYear,
			Semester:     CurrentSemester,
			Structure:    structure,
			Concession:   0,
			Payment:      shared.FeePayment{DueDate: dueDate},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		total := fees.StructureTotal(structure, record.Concession)

		if share := paidShare[i]; share > 0 {
			txn := shared.FeeTransaction{
				TransactionID: fmt.Sprintf("seed-txn-%s", studentID),
				Amount:        total / share,
				PaymentMode:   "UPI",
				PaymentDate:   shared.NormalizeDate(now),
				ReceiptNumber: fmt.Sprintf("RCP-SEED-%d", i+1),
				RecordedBy:    AdminID1,
			}
			fees.Append(&record, txn, now)
		} else {
			fees.Derive(&record, now)
		}

		if err := st.ReplaceFeeRecord(ctx, &record); err != nil {
			log.Fatalf("FATAL: Failed to seed fees: %v", err)
		}
	}
	log.Printf("INFO: Seeded %d fee records.", len(students))
}
