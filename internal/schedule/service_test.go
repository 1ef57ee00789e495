package schedule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentportal/internal/shared"
)

type fakeStore struct {
	entries []shared.ScheduleEntry
}

func (f *fakeStore) FindScheduleBySection(_ context.Context, section string, semester int32) ([]shared.ScheduleEntry, error) {
	var out []shared.ScheduleEntry
	for _, entry := range f.entries {
		if entry.Section == section && entry.Semester == semester {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertScheduleEntry(_ context.Context, entry *shared.ScheduleEntry) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func entryRequest(day, start, end string) EntryRequest {
	return EntryRequest{
		Section:     "CS-A",
		Semester:    5,
		SubjectCode: "CS501",
		Day:         day,
		StartTime:   start,
		EndTime:     end,
	}
}

func TestCreateEntry(t *testing.T) {
	st := &fakeStore{}
	svc := NewService(st)

	entry, err := svc.CreateEntry(context.Background(), entryRequest("M", "9:00", "10:00"))
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Len(t, st.entries, 1)
}

func TestCreateEntryRejectsOverlap(t *testing.T) {
	st := &fakeStore{}
	svc := NewService(st)
	ctx := context.Background()

	_, err := svc.CreateEntry(ctx, entryRequest("M", "9:00", "10:30"))
	require.NoError(t, err)

	_, err = svc.CreateEntry(ctx, entryRequest("M", "10:00", "11:00"))
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	// Same slot on another day is fine
	_, err = svc.CreateEntry(ctx, entryRequest("T", "10:00", "11:00"))
	assert.NoError(t, err)
}

func TestCreateEntryValidation(t *testing.T) {
	svc := NewService(&fakeStore{})
	ctx := context.Background()

	_, err := svc.CreateEntry(ctx, entryRequest("FUNDAY", "9:00", "10:00"))
	assert.True(t, shared.IsValidation(err))

	_, err = svc.CreateEntry(ctx, entryRequest("M", "10:00", "9:00"))
	assert.True(t, shared.IsValidation(err))
}

func TestGetWeeklyOrdering(t *testing.T) {
	st := &fakeStore{entries: []shared.ScheduleEntry{
		{Section: "CS-A", Semester: 5, SubjectCode: "CS503", Day: "T", StartTime: "9:00", EndTime: "10:00"},
		{Section: "CS-A", Semester: 5, SubjectCode: "CS502", Day: "M", StartTime: "11:00", EndTime: "12:00"},
		{Section: "CS-A", Semester: 5, SubjectCode: "CS501", Day: "M", StartTime: "9:00", EndTime: "10:00"},
	}}
	svc := NewService(st)

	entries, err := svc.GetWeekly(context.Background(), "CS-A", 5)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "CS501", entries[0].SubjectCode)
	assert.Equal(t, "CS502", entries[1].SubjectCode)
	assert.Equal(t, "CS503", entries[2].SubjectCode)
}

func TestGetWeeklyEmpty(t *testing.T) {
	svc := NewService(&fakeStore{})

	_, err := svc.GetWeekly(context.Background(), "CS-B", 5)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
