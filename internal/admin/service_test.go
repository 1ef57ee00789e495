package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentportal/internal/shared"
)

type fakeDirectory struct {
	users map[string]*shared.User

	deletedRecordsFor string
	deletedAccount    string
}

func (f *fakeDirectory) FindUserByID(_ context.Context, userID string) (*shared.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (f *fakeDirectory) DeleteStudentRecords(_ context.Context, studentID string) error {
	f.deletedRecordsFor = studentID
	return nil
}

func (f *fakeDirectory) DeleteUserAccount(_ context.Context, userID string) error {
	f.deletedAccount = userID
	return nil
}

func TestRemoveStudentCascades(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*shared.User{
		"USR_1": {ID: "USR_1", Role: shared.RoleStudent, StudentID: "21CS001"},
	}}
	svc := &Service{dir: dir}

	err := svc.RemoveStudent(context.Background(), "USR_1")
	require.NoError(t, err)

	// Owned records are keyed on the roll number, the account on the user id
	assert.Equal(t, "21CS001", dir.deletedRecordsFor)
	assert.Equal(t, "USR_1", dir.deletedAccount)
}

func TestRemoveStudentWithoutRollNumber(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*shared.User{
		"USR_2": {ID: "USR_2", Role: shared.RoleStudent},
	}}
	svc := &Service{dir: dir}

	err := svc.RemoveStudent(context.Background(), "USR_2")
	require.NoError(t, err)

	assert.Equal(t, "USR_2", dir.deletedRecordsFor)
	assert.Equal(t, "USR_2", dir.deletedAccount)
}

func TestRemoveStudentRejectsStaffAccounts(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*shared.User{
		"USR_3": {ID: "USR_3", Role: shared.RoleFaculty},
	}}
	svc := &Service{dir: dir}

	err := svc.RemoveStudent(context.Background(), "USR_3")
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	// Nothing was deleted
	assert.Empty(t, dir.deletedRecordsFor)
	assert.Empty(t, dir.deletedAccount)
}

func TestRemoveStudentUnknownUser(t *testing.T) {
	svc := &Service{dir: &fakeDirectory{users: map[string]*shared.User{}}}

	err := svc.RemoveStudent(context.Background(), "USR_404")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDescribe(t *testing.T) {
	dist := describe([]float64{60, 70, 80, 90})

	assert.Equal(t, 4, dist.Count)
	assert.Equal(t, "75.00", dist.Mean)
	assert.Equal(t, "75.00", dist.Median)
}

func TestDescribeEmpty(t *testing.T) {
	dist := describe(nil)

	assert.Equal(t, 0, dist.Count)
	assert.Equal(t, "0.00", dist.Mean)
	assert.Equal(t, "0.00", dist.Median)
	assert.Equal(t, "0.00", dist.P25)
	assert.Equal(t, "0.00", dist.P75)
}
