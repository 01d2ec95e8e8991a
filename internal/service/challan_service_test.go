package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms-go/hms-api/internal/dto"
	"github.com/hms-go/hms-api/internal/models"
	appErrors "github.com/hms-go/hms-api/pkg/errors"
)

type mockChallanCRUDRepo struct {
	challans []models.Challan
	created  []*models.Challan
	paid     []string
}

func (m *mockChallanCRUDRepo) List(ctx context.Context, filter models.ChallanFilter, hostels []string) ([]models.Challan, int, error) {
	return m.challans, len(m.challans), nil
}

func (m *mockChallanCRUDRepo) FindByID(ctx context.Context, id string) (*models.Challan, error) {
	for i := range m.challans {
		if m.challans[i].ID == id {
			c := m.challans[i]
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockChallanCRUDRepo) Create(ctx context.Context, challan *models.Challan) error {
	challan.ID = "ch-new"
	m.created = append(m.created, challan)
	return nil
}

func (m *mockChallanCRUDRepo) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	m.paid = append(m.paid, id)
	return nil
}

type mockChallanStudentRepo struct {
	students []models.Student
	updated  []*models.Student
}

func (m *mockChallanStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	for i := range m.students {
		if m.students[i].ID == id {
			st := m.students[i]
			return &st, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockChallanStudentRepo) FindByRegistration(ctx context.Context, reg string) (*models.Student, error) {
	for i := range m.students {
		if m.students[i].RegistrationNumber == reg {
			st := m.students[i]
			return &st, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockChallanStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.updated = append(m.updated, student)
	return nil
}

type challanServiceFixture struct {
	svc      *ChallanService
	repo     *mockChallanCRUDRepo
	students *mockChallanStudentRepo
	audit    *mockAuditRepo
}

func newChallanServiceFixture(t *testing.T) *challanServiceFixture {
	t.Helper()
	f := &challanServiceFixture{
		repo:     &mockChallanCRUDRepo{},
		students: &mockChallanStudentRepo{},
		audit:    &mockAuditRepo{},
	}
	roster := NewRosterService(&mockHostelRepo{}, &mockRosterStudentRepo{}, &mockRosterAssignmentRepo{}, nil, 0, nil)
	f.svc = NewChallanService(f.repo, f.students, f.audit, roster, nil, nil)
	return f
}

func TestChallanServiceMarkPaid(t *testing.T) {
	f := newChallanServiceFixture(t)
	f.repo.challans = []models.Challan{{
		ID:                 "ch-1",
		Number:             "CH-1700000000000-042",
		StudentID:          "s1",
		RegistrationNumber: "R-100",
		StudentName:        "Ali Raza",
		HostelName:         "Porali",
		Semester:           "sem1",
		Status:             models.ChallanStatusPending,
	}}
	f.students.students = []models.Student{{
		ID: "s1", RegistrationNumber: "R-100", Name: "Ali Raza", HostelName: "Porali",
		FeeTable: models.FeeTable{"sem1": models.FeeStatusPending},
	}}

	challan, err := f.svc.MarkPaid(context.Background(), "ch-1", dto.MarkChallanPaidRequest{Semester: "sem1"}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ChallanStatusPaid, challan.Status)
	require.NotNil(t, challan.PaidAt)
	assert.Equal(t, []string{"ch-1"}, f.repo.paid)

	require.Len(t, f.students.updated, 1)
	assert.Equal(t, models.FeeStatusPaid, f.students.updated[0].FeeTable["sem1"])

	require.Len(t, f.audit.entries, 1)
	entry := f.audit.entries[0]
	assert.Equal(t, models.AuditActionChallanPaid, entry.Action)
	require.NotNil(t, entry.SubjectID)
	assert.Equal(t, "R-100", *entry.SubjectID)
}

func TestChallanServiceMarkPaidAlreadySettled(t *testing.T) {
	f := newChallanServiceFixture(t)
	f.repo.challans = []models.Challan{{
		ID: "ch-1", HostelName: "Porali", Status: models.ChallanStatusPaid,
	}}

	_, err := f.svc.MarkPaid(context.Background(), "ch-1", dto.MarkChallanPaidRequest{Semester: "sem1"}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.paid)
}

func TestChallanServiceMarkPaidForbiddenForWarden(t *testing.T) {
	f := newChallanServiceFixture(t)
	f.repo.challans = []models.Challan{{
		ID: "ch-1", HostelName: "Porali", Status: models.ChallanStatusPending,
	}}
	actor := &models.JWTClaims{Role: models.RoleWarden, AssignedHostels: []string{"Other"}}

	_, err := f.svc.MarkPaid(context.Background(), "ch-1", dto.MarkChallanPaidRequest{Semester: "sem1"}, actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestChallanServiceIssueDefaultsAmount(t *testing.T) {
	f := newChallanServiceFixture(t)
	f.students.students = []models.Student{{
		ID: "s1", RegistrationNumber: "R-100", Name: "Ali Raza", HostelName: "Porali", HostelFee: 24000,
	}}

	challan, err := f.svc.Issue(context.Background(), "s1", "sem2", 0, nil)
	require.NoError(t, err)

	assert.Equal(t, 24000.0, challan.Amount)
	assert.Equal(t, "sem2", challan.Semester)
	assert.Equal(t, models.ChallanStatusPending, challan.Status)
	require.Len(t, f.repo.created, 1)
}

func TestChallanServiceFeeStructure(t *testing.T) {
	f := newChallanServiceFixture(t)
	f.students.students = []models.Student{{
		ID: "s1", RegistrationNumber: "R-100", Name: "Ali Raza", HostelName: "Porali", HostelFee: 24000,
		FeeTable: models.FeeTable{"sem1": models.FeeStatusPaid, "sem2": models.FeeStatusPending},
	}}

	resp, err := f.svc.FeeStructure(context.Background(), "R-100", nil)
	require.NoError(t, err)
	assert.Equal(t, "R-100", resp.RegistrationNumber)
	assert.Equal(t, models.FeeStatusPaid, resp.FeeTable["sem1"])
}

func TestChallanServiceFeeStructureUnknownRegistration(t *testing.T) {
	f := newChallanServiceFixture(t)

	_, err := f.svc.FeeStructure(context.Background(), "R-404", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
