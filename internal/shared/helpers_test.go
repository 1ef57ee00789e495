package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 66.67, Round2(66.666666))
	assert.Equal(t, 66.66, Round2(66.664))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, 100.0, Round2(99.999))
}

func TestFormatFixed2(t *testing.T) {
	assert.Equal(t, "0.00", FormatFixed2(0))
	assert.Equal(t, "7.14", FormatFixed2(50.0/7.0))
	assert.Equal(t, "100.00", FormatFixed2(100))
	assert.Equal(t, "66.67", FormatFixed2(66.666666))
}

func TestNormalizeDate(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	in := time.Date(2025, 8, 15, 23, 45, 12, 999, loc)

	got := NormalizeDate(in)

	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, 0, got.Minute())
	assert.Equal(t, 0, got.Second())
	assert.Equal(t, 0, got.Nanosecond())
}

func TestParseTimeRange(t *testing.T) {
	start, end := ParseTimeRange("9:00-10:00")
	assert.Equal(t, "9:00", start)
	assert.Equal(t, "10:00", end)

	start, end = ParseTimeRange(" 14:00 - 15:30 ")
	assert.Equal(t, "14:00", start)
	assert.Equal(t, "15:30", end)

	start, end = ParseTimeRange("garbage")
	assert.Empty(t, start)
	assert.Empty(t, end)
}

func TestTimesOverlap(t *testing.T) {
	tests := []struct {
		name           string
		s1, e1, s2, e2 string
		want           bool
	}{
		{"disjoint", "9:00", "10:00", "10:00", "11:00", false},
		{"contained", "9:00", "12:00", "10:00", "11:00", true},
		{"partial", "9:00", "10:30", "10:00", "11:00", true},
		{"identical", "9:00", "10:00", "9:00", "10:00", true},
		{"reversed order disjoint", "11:00", "12:00", "9:00", "11:00", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TimesOverlap(tc.s1, tc.e1, tc.s2, tc.e2))
		})
	}
}

func TestDayIndex(t *testing.T) {
	assert.Equal(t, 0, DayIndex("M"))
	assert.Equal(t, 3, DayIndex("TH"))
	assert.Equal(t, 5, DayIndex("S"))
	assert.Equal(t, 6, DayIndex("SUN"))
	assert.Equal(t, 6, DayIndex(""))
}

func TestAttendanceStatusValidation(t *testing.T) {
	assert.True(t, IsValidAttendanceStatus(StatusPresent))
	assert.True(t, IsValidAttendanceStatus(StatusLate))
	assert.True(t, IsValidAttendanceStatus(StatusOnDuty))
	assert.False(t, IsValidAttendanceStatus("present")) // case-sensitive
	assert.False(t, IsValidAttendanceStatus("Holiday"))
}

func TestOverrideGrades(t *testing.T) {
	assert.True(t, IsOverrideGrade(GradeP))
	assert.True(t, IsOverrideGrade(GradeAB))
	assert.True(t, IsOverrideGrade(GradeW))
	assert.False(t, IsOverrideGrade(GradeO))
	assert.False(t, IsOverrideGrade(GradeF))
}

func TestGradeValidation(t *testing.T) {
	assert.True(t, IsValidGrade(GradeO))
	assert.True(t, IsValidGrade(GradeAPlus))
	assert.True(t, IsValidGrade(GradeF))
	assert.True(t, IsValidGrade(GradeAB)) // override states are valid grades too
	assert.False(t, IsValidGrade("Z"))
	assert.False(t, IsValidGrade("a")) // case-sensitive
	assert.False(t, IsValidGrade(""))
}

func TestGetInt64(t *testing.T) {
	// Mongo aggregations hand back int32, int64, or double depending on
	// the stored values
	got, err := GetInt64(int32(42))
	assert.NoError(t, err)
	assert.Equal(t, int64(42), got)

	got, err = GetInt64(int64(1 << 40))
	assert.NoError(t, err)
	assert.Equal(t, int64(1<<40), got)

	got, err = GetInt64(float64(99.7))
	assert.NoError(t, err)
	assert.Equal(t, int64(99), got)

	_, err = GetInt64("42")
	assert.Error(t, err)

	_, err = GetInt64(nil)
	assert.Error(t, err)
}

func TestGetString(t *testing.T) {
	got, err := GetString("21CS001")
	assert.NoError(t, err)
	assert.Equal(t, "21CS001", got)

	_, err = GetString(nil)
	assert.Error(t, err)

	_, err = GetString(42)
	assert.Error(t, err)
}

func TestGetTime(t *testing.T) {
	want := time.Date(2025, 8, 15, 10, 30, 0, 0, time.UTC)

	got, err := GetTime(primitive.NewDateTimeFromTime(want))
	assert.NoError(t, err)
	assert.True(t, got.Equal(want))

	got, err = GetTime(want)
	assert.NoError(t, err)
	assert.True(t, got.Equal(want))

	_, err = GetTime("2025-08-15")
	assert.Error(t, err)
}
