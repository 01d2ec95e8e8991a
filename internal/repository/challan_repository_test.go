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

func challanRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "number", "student_id", "registration_number", "student_name", "hostel_name",
		"semester", "amount", "status", "issued_at", "paid_at", "created_at",
	})
}

func TestChallanRepositoryListFiltersByStatusAndHostels(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChallanRepository(db)

	now := time.Now()
	rows := challanRows().
		AddRow("c1", "CH-1700000000000-123", "s1", "2K21-CS-17", "Sana", "Magsi",
			"semester1", 24000.0, "PENDING", now, nil, now)
	mock.ExpectQuery("SELECT .+ FROM challans WHERE").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM challans WHERE")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	status := models.ChallanStatusPending
	challans, total, err := repo.List(context.Background(), models.ChallanFilter{Status: &status}, []string{"Magsi"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, challans, 1)
	assert.Equal(t, "CH-1700000000000-123", challans[0].Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChallanRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChallanRepository(db)

	mock.ExpectExec("INSERT INTO challans").
		WillReturnResult(sqlmock.NewResult(1, 1))

	challan := &models.Challan{
		Number:             "CH-1700000000000-456",
		StudentID:          "s1",
		RegistrationNumber: "2K21-CS-17",
		StudentName:        "Sana",
		HostelName:         "Magsi",
		Semester:           "semester1",
		Amount:             24000,
		Status:             models.ChallanStatusPending,
	}
	err := repo.Create(context.Background(), challan)
	require.NoError(t, err)
	assert.NotEmpty(t, challan.ID)
	assert.False(t, challan.IssuedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChallanRepositoryMarkPaid(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChallanRepository(db)

	paidAt := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE challans SET status = $2, paid_at = $3 WHERE id = $1")).
		WithArgs("c1", models.ChallanStatusPaid, paidAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkPaid(context.Background(), "c1", paidAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChallanRepositoryDeleteByStudentIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChallanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM challans WHERE student_id = ANY($1)")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteByStudentIDs(context.Background(), []string{"s1", "s2"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChallanRepositoryDeleteByStudentIDsEmptySetShortCircuits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewChallanRepository(db)

	n, err := repo.DeleteByStudentIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
