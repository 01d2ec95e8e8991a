package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms-go/hms-api/internal/models"
)

func TestAssignmentRepositoryReplaceRoom(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM room_assignments WHERE LOWER(hostel_name) = LOWER($1) AND room_id = $2")).
		WithArgs("Magsi", "A-01").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO room_assignments").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceRoom(context.Background(), "Magsi", "A-01", []models.RoomAssignment{
		{HostelID: "h1", HostelName: "Magsi", RoomID: "A-01", StudentID: "s1", StudentName: "Sana", RegistrationNumber: "2K21-CS-17", Department: "CS"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryReplaceRoomEmptySetClearsRoom(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM room_assignments").
		WithArgs("Magsi", "A-01").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceRoom(context.Background(), "Magsi", "A-01", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListLegacyByHostelVariants(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "hostel_name", "room_id", "student_name", "registration_number", "department", "imported_at"}).
		AddRow("1", "Armabel", "B-03", "Old Entry", "2K18-EE-02", "EE", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM legacy_allotments WHERE LOWER(hostel_name) = ANY($1)")).
		WillReturnRows(rows)

	allotments, err := repo.ListLegacyByHostelVariants(context.Background(), []string{"Armabel", "Armabel Hostel"})
	require.NoError(t, err)
	require.Len(t, allotments, 1)
	assert.Equal(t, "B-03", allotments[0].RoomID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteByStudentIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM room_assignments WHERE student_id = ANY($1)")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.DeleteByStudentIDs(context.Background(), []string{"s1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
