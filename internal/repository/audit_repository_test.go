package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms-go/hms-api/internal/models"
)

func TestAuditRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	subject := "2K21-CS-17"
	err := repo.Create(context.Background(), &models.AuditLog{
		Action:    models.AuditActionStudentCreate,
		Message:   "Student Sana Baloch (2K21-CS-17) added to Magsi A-01",
		SubjectID: &subject,
		Hostel:    "Magsi",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryDeleteBySubjectIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM audit_logs WHERE subject_id = ANY($1)")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteBySubjectIDs(context.Background(), []string{"2K21-CS-17", "2K21-CS-18"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryDeleteByMessageMatchTargetsLegacyRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM audit_logs WHERE subject_id IS NULL AND message ILIKE ANY($1)")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.DeleteByMessageMatch(context.Background(), []string{"2K21-CS-17"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryDeleteByMessageMatchEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	n, err := repo.DeleteByMessageMatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
