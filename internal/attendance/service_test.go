package attendance

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"studentportal/internal/shared"
	"studentportal/internal/store"
)

// fakeStore applies the same natural-key upsert contract as the record
// store: an existing key gets only the set fields, a new key gets the
// insert defaults too.
type fakeStore struct {
	docs   map[string]bson.M
	events []shared.AttendanceEvent
	fail   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]bson.M{}}
}

func naturalKey(key bson.M) string {
	return fmt.Sprintf("%v|%v|%v", key["student_id"], key["subject_code"], key["date"])
}

func (f *fakeStore) UpsertAttendance(_ context.Context, key, set, setOnInsert bson.M) (string, error) {
	if f.fail {
		return "", fmt.Errorf("%w: connection reset", shared.ErrStoreUnavailable)
	}

	k := naturalKey(key)
	doc, exists := f.docs[k]
	if !exists {
		doc = bson.M{}
		for field, value := range key {
			doc[field] = value
		}
		for field, value := range setOnInsert {
			doc[field] = value
		}
	}
	for field, value := range set {
		doc[field] = value
	}
	f.docs[k] = doc

	if exists {
		return store.ActionUpdated, nil
	}
	return store.ActionCreated, nil
}

func (f *fakeStore) FindAttendanceByStudent(_ context.Context, studentID string) ([]shared.AttendanceEvent, error) {
	var out []shared.AttendanceEvent
	for _, ev := range f.events {
		if ev.StudentID == studentID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func markRequest(status string, students ...string) MarkRequest {
	req := MarkRequest{
		SubjectCode: "CS501",
		SubjectName: "Operating Systems",
		Date:        "2025-08-18",
		Semester:    5,
	}
	for _, id := range students {
		req.Entries = append(req.Entries, MarkEntry{StudentID: id, Status: status})
	}
	return req
}

func TestMarkCreatesNewEvents(t *testing.T) {
	st := newFakeStore()
	svc := NewService(st, nil)

	outcomes, err := svc.Mark(context.Background(), "faculty-001", markRequest(shared.StatusPresent, "21CS001", "21CS002"))
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		assert.Equal(t, store.ActionCreated, outcome.Action)
		assert.Empty(t, outcome.Error)
	}
	assert.Len(t, st.docs, 2)
}

func TestMarkResubmissionUpdatesInPlace(t *testing.T) {
	st := newFakeStore()
	svc := NewService(st, nil)
	ctx := context.Background()

	_, err := svc.Mark(ctx, "faculty-001", markRequest(shared.StatusPresent, "21CS001"))
	require.NoError(t, err)

	// Re-marking the same student, subject, and date must correct the
	// existing event, never create a second one.
	outcomes, err := svc.Mark(ctx, "faculty-001", markRequest(shared.StatusAbsent, "21CS001"))
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	assert.Equal(t, store.ActionUpdated, outcomes[0].Action)
	require.Len(t, st.docs, 1)
	for _, doc := range st.docs {
		assert.Equal(t, shared.StatusAbsent, doc["status"])
	}
}

func TestMarkIdenticalBatchIsIdempotent(t *testing.T) {
	st := newFakeStore()
	svc := NewService(st, nil)
	ctx := context.Background()
	req := markRequest(shared.StatusPresent, "21CS001", "21CS002", "21CS003")

	_, err := svc.Mark(ctx, "faculty-001", req)
	require.NoError(t, err)

	outcomes, err := svc.Mark(ctx, "faculty-001", req)
	require.NoError(t, err)

	require.Len(t, outcomes, 3)
	for _, outcome := range outcomes {
		assert.Equal(t, store.ActionUpdated, outcome.Action)
	}
	assert.Len(t, st.docs, 3)
}

func TestMarkRejectsWholeBatchOnBadShape(t *testing.T) {
	st := newFakeStore()
	svc := NewService(st, nil)

	req := markRequest(shared.StatusPresent, "21CS001")
	req.Entries = append(req.Entries, MarkEntry{StudentID: "21CS002", Status: "Vacation"})

	_, err := svc.Mark(context.Background(), "faculty-001", req)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	// Nothing was written, including the valid entry
	assert.Empty(t, st.docs)
}

func TestMarkReportsPerItemStoreFailures(t *testing.T) {
	st := newFakeStore()
	st.fail = true
	svc := NewService(st, nil)

	outcomes, err := svc.Mark(context.Background(), "faculty-001", markRequest(shared.StatusPresent, "21CS001"))
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	assert.Empty(t, outcomes[0].Action)
	assert.NotEmpty(t, outcomes[0].Error)
}

func TestGetStudentSummaryNoEvents(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	_, err := svc.GetStudentSummary(context.Background(), "21CS001")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSummaryJSONFieldNames(t *testing.T) {
	events := []shared.AttendanceEvent{{
		StudentID:   "21CS001",
		SubjectCode: "CS501",
		SubjectName: "Operating Systems",
		Status:      shared.StatusPresent,
	}}

	raw, err := json.Marshal(Summarize(events, 0))
	require.NoError(t, err)

	body := string(raw)
	assert.Contains(t, body, `"subjectWise":[{"subjectCode":"CS501","subjectName":"Operating Systems"`)
	assert.Contains(t, body, `"recent":`)
	assert.NotContains(t, body, `"subject_code"`)
	assert.NotContains(t, body, `"subject_name"`)
}
