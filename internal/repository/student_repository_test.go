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

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "father_name", "registration_number", "department", "batch", "district", "phone",
		"hostel_name", "room_number", "hostel_fee", "fee_table", "created_at", "updated_at"})
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := studentRows().
		AddRow("1", "Sana Baloch", "Aslam", "2K21-CS-17", "CS", "2021", "Khuzdar", "0300",
			"Magsi", "A-01", 6000.0, []byte(`{"sem1":"paid"}`), time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, name, father_name").WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{}, nil)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "paid", students[0].FeeTable["sem1"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListWardenScoped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LOWER(hostel_name) = ANY($1)")).
		WillReturnRows(studentRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.StudentFilter{}, []string{"Magsi"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{Name: "Sana Baloch", RegistrationNumber: "2K21-CS-17", Department: "CS", HostelName: "Magsi", RoomNumber: "A-01"}
	err := repo.Create(context.Background(), student)
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteByIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = ANY($1)")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteByIDs(context.Background(), []string{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	n, err := repo.DeleteByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCountOverdue(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(models.FeeStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	total, err := repo.CountOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
