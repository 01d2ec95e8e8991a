package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms-go/hms-api/internal/dto"
	"github.com/hms-go/hms-api/internal/models"
	appErrors "github.com/hms-go/hms-api/pkg/errors"
)

type mockStudentRepo struct {
	calls *[]string

	students    []models.Student
	byHostel    []models.Student
	byBatch     []models.Student
	existingReg string

	created   []*models.Student
	updated   []*models.Student
	deleted   [][]string
	deleteErr error
}

func (m *mockStudentRepo) record(name string) {
	if m.calls != nil {
		*m.calls = append(*m.calls, name)
	}
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter, hostels []string) ([]models.Student, int, error) {
	return m.students, len(m.students), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	for i := range m.students {
		if m.students[i].ID == id {
			st := m.students[i]
			return &st, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByRegistration(ctx context.Context, reg, excludeID string) (bool, error) {
	return m.existingReg != "" && strings.EqualFold(reg, m.existingReg), nil
}

func (m *mockStudentRepo) ListByHostelVariants(ctx context.Context, variants []string) ([]models.Student, error) {
	return m.byHostel, nil
}

func (m *mockStudentRepo) ListByDepartmentBatch(ctx context.Context, department, batch string) ([]models.Student, error) {
	return m.byBatch, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	m.record("students.create")
	student.ID = fmt.Sprintf("st-%d", len(m.created)+1)
	m.created = append(m.created, student)
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.record("students.update")
	m.updated = append(m.updated, student)
	return nil
}

func (m *mockStudentRepo) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	m.record("students.delete")
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	m.deleted = append(m.deleted, ids)
	return len(ids), nil
}

type mockAssignmentRepo struct {
	calls *[]string

	replaced  map[string][]models.RoomAssignment
	deleteErr error
	deletedBy [][]string
}

func (m *mockAssignmentRepo) record(name string) {
	if m.calls != nil {
		*m.calls = append(*m.calls, name)
	}
}

func (m *mockAssignmentRepo) ReplaceRoom(ctx context.Context, hostelName, roomID string, assignments []models.RoomAssignment) error {
	m.record("assignments.replace")
	if m.replaced == nil {
		m.replaced = make(map[string][]models.RoomAssignment)
	}
	m.replaced[roomID] = assignments
	return nil
}

func (m *mockAssignmentRepo) DeleteByStudentIDs(ctx context.Context, studentIDs []string) (int, error) {
	m.record("assignments.delete")
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	m.deletedBy = append(m.deletedBy, studentIDs)
	return len(studentIDs), nil
}

type mockChallanRepo struct {
	calls *[]string

	created   []*models.Challan
	deleteErr error
}

func (m *mockChallanRepo) record(name string) {
	if m.calls != nil {
		*m.calls = append(*m.calls, name)
	}
}

func (m *mockChallanRepo) Create(ctx context.Context, challan *models.Challan) error {
	m.record("challans.create")
	m.created = append(m.created, challan)
	return nil
}

func (m *mockChallanRepo) DeleteByStudentIDs(ctx context.Context, studentIDs []string) (int, error) {
	m.record("challans.delete")
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	return 2 * len(studentIDs), nil
}

type mockAuditRepo struct {
	calls *[]string

	entries      []*models.AuditLog
	subjectIDs   [][]string
	textMatches  [][]string
	createErr    error
	subjectErr   error
	textMatchErr error
}

func (m *mockAuditRepo) record(name string) {
	if m.calls != nil {
		*m.calls = append(*m.calls, name)
	}
}

func (m *mockAuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	m.record("audit.create")
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, log)
	return nil
}

func (m *mockAuditRepo) DeleteBySubjectIDs(ctx context.Context, subjectIDs []string) (int, error) {
	m.record("audit.sweep.subject")
	if m.subjectErr != nil {
		return 0, m.subjectErr
	}
	m.subjectIDs = append(m.subjectIDs, subjectIDs)
	return len(subjectIDs), nil
}

func (m *mockAuditRepo) DeleteByMessageMatch(ctx context.Context, registrations []string) (int, error) {
	m.record("audit.sweep.text")
	if m.textMatchErr != nil {
		return 0, m.textMatchErr
	}
	m.textMatches = append(m.textMatches, registrations)
	return 1, nil
}

func (m *mockAuditRepo) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	return nil, 0, nil
}

type studentServiceFixture struct {
	svc         *StudentService
	repo        *mockStudentRepo
	assignments *mockAssignmentRepo
	challans    *mockChallanRepo
	audit       *mockAuditRepo
	calls       []string
}

func newStudentServiceFixture(t *testing.T) *studentServiceFixture {
	t.Helper()
	f := &studentServiceFixture{
		repo:        &mockStudentRepo{},
		assignments: &mockAssignmentRepo{},
		challans:    &mockChallanRepo{},
		audit:       &mockAuditRepo{},
	}
	f.repo.calls = &f.calls
	f.assignments.calls = &f.calls
	f.challans.calls = &f.calls
	f.audit.calls = &f.calls

	hostels := &mockHostelRepo{hostel: testHostel()}
	roster := NewRosterService(hostels, f.repo, &mockRosterAssignmentRepo{}, nil, 0, nil)
	f.svc = NewStudentService(f.repo, hostels, f.assignments, f.challans, f.audit, roster, true, nil, nil)
	return f
}

// strictService rebuilds the fixture's service with overflow admission
// disabled.
func (f *studentServiceFixture) strictService() *StudentService {
	hostels := &mockHostelRepo{hostel: testHostel()}
	roster := NewRosterService(hostels, f.repo, &mockRosterAssignmentRepo{}, nil, 0, nil)
	return NewStudentService(f.repo, hostels, f.assignments, f.challans, f.audit, roster, false, nil, nil)
}

func TestStudentServiceCreate(t *testing.T) {
	f := newStudentServiceFixture(t)

	student, err := f.svc.Create(context.Background(), dto.CreateStudentRequest{
		Name:               "Ali Raza",
		RegistrationNumber: "2021-CS-042",
		Department:         "CS",
		HostelName:         "porali hostel",
		RoomNumber:         "b2",
		HostelFee:          24000,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Porali", student.HostelName)
	assert.Equal(t, "B-02", student.RoomNumber)
	assert.NotNil(t, student.FeeTable)

	require.Len(t, f.challans.created, 1)
	challan := f.challans.created[0]
	assert.Equal(t, "sem1", challan.Semester)
	assert.Equal(t, models.ChallanStatusPending, challan.Status)
	assert.Equal(t, 24000.0, challan.Amount)
	assert.True(t, strings.HasPrefix(challan.Number, "CH-"))

	require.Len(t, f.audit.entries, 1)
	entry := f.audit.entries[0]
	assert.Equal(t, models.AuditActionStudentCreate, entry.Action)
	require.NotNil(t, entry.SubjectID)
	assert.Equal(t, "2021-CS-042", *entry.SubjectID)

	assert.Contains(t, f.assignments.replaced, "B-02")
}

func TestStudentServiceCreateAutoAssigns(t *testing.T) {
	f := newStudentServiceFixture(t)
	f.repo.byHostel = []models.Student{
		{ID: "s1", Name: "One", RegistrationNumber: "R-1", RoomNumber: "A-01"},
		{ID: "s2", Name: "Two", RegistrationNumber: "R-2", RoomNumber: "A-01"},
	}

	student, err := f.svc.Create(context.Background(), dto.CreateStudentRequest{
		Name:               "New Resident",
		RegistrationNumber: "2021-CS-077",
		Department:         "CS",
		HostelName:         "Porali",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "A-02", student.RoomNumber)
}

func TestStudentServiceCreateDuplicateRegistration(t *testing.T) {
	f := newStudentServiceFixture(t)
	f.repo.existingReg = "2021-CS-042"

	_, err := f.svc.Create(context.Background(), dto.CreateStudentRequest{
		Name:               "Ali Raza",
		RegistrationNumber: "2021-cs-042",
		Department:         "CS",
		HostelName:         "Porali",
		RoomNumber:         "A-01",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.created)
}

func TestStudentServiceCreateForbiddenForUnassignedWarden(t *testing.T) {
	f := newStudentServiceFixture(t)
	actor := &models.JWTClaims{Role: models.RoleWarden, AssignedHostels: []string{"Other"}}

	_, err := f.svc.Create(context.Background(), dto.CreateStudentRequest{
		Name:               "Ali Raza",
		RegistrationNumber: "2021-CS-042",
		Department:         "CS",
		HostelName:         "Porali",
		RoomNumber:         "A-01",
	}, actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateStrictModeRejectsFullRoom(t *testing.T) {
	f := newStudentServiceFixture(t)
	strict := f.strictService()
	f.repo.byHostel = []models.Student{
		{ID: "s1", Name: "One", RegistrationNumber: "R-1", RoomNumber: "A-01"},
		{ID: "s2", Name: "Two", RegistrationNumber: "R-2", RoomNumber: "A-01"},
	}

	_, err := strict.Create(context.Background(), dto.CreateStudentRequest{
		Name:               "Late Arrival",
		RegistrationNumber: "2021-CS-088",
		Department:         "CS",
		HostelName:         "Porali",
		RoomNumber:         "A-01",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoCapacity.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.created)

	student, err := strict.Create(context.Background(), dto.CreateStudentRequest{
		Name:               "Late Arrival",
		RegistrationNumber: "2021-CS-088",
		Department:         "CS",
		HostelName:         "Porali",
		RoomNumber:         "a2",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "A-02", student.RoomNumber)
}

func TestStudentServiceUpdateRebuildsBothRoomsOnMove(t *testing.T) {
	f := newStudentServiceFixture(t)
	f.repo.students = []models.Student{
		{ID: "st-9", Name: "Mover", RegistrationNumber: "R-9", HostelName: "Porali", RoomNumber: "A-01"},
	}

	newRoom := "B-01"
	_, err := f.svc.Update(context.Background(), "st-9", dto.UpdateStudentRequest{RoomNumber: &newRoom}, nil)
	require.NoError(t, err)

	assert.Contains(t, f.assignments.replaced, "A-01")
	assert.Contains(t, f.assignments.replaced, "B-01")
}

func TestStudentServiceDeleteCascadeOrder(t *testing.T) {
	f := newStudentServiceFixture(t)
	f.repo.students = []models.Student{
		{ID: "st-1", Name: "Leaver", RegistrationNumber: "R-100", HostelName: "Porali", RoomNumber: "A-01"},
	}

	result, err := f.svc.Delete(context.Background(), "st-1", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.StudentsDeleted)
	assert.Equal(t, 2, result.ChallansDeleted)
	assert.Equal(t, 1, result.AssignmentsDeleted)
	assert.Equal(t, 2, result.AuditEntriesSwept)
	assert.Empty(t, result.AuditSweepError)

	assert.Equal(t, []string{
		"challans.delete",
		"assignments.delete",
		"students.delete",
		"assignments.replace",
		"audit.sweep.subject",
		"audit.sweep.text",
		"audit.create",
	}, f.calls)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionStudentDelete, f.audit.entries[0].Action)
}

func TestStudentServiceDeleteChallanFailureIsFatal(t *testing.T) {
	f := newStudentServiceFixture(t)
	f.repo.students = []models.Student{
		{ID: "st-1", Name: "Leaver", RegistrationNumber: "R-100", HostelName: "Porali", RoomNumber: "A-01"},
	}
	f.challans.deleteErr = errors.New("challans table locked")

	_, err := f.svc.Delete(context.Background(), "st-1", nil)
	require.Error(t, err)

	var cascadeErr *appErrors.CascadeError
	require.ErrorAs(t, err, &cascadeErr)
	assert.Equal(t, appErrors.CascadeStepChallans, cascadeErr.Step)
	assert.True(t, cascadeErr.Fatal)
	assert.Empty(t, f.repo.deleted)
}

func TestStudentServiceDeleteAuditSweepIsBestEffort(t *testing.T) {
	f := newStudentServiceFixture(t)
	f.repo.students = []models.Student{
		{ID: "st-1", Name: "Leaver", RegistrationNumber: "R-100", HostelName: "Porali", RoomNumber: "A-01"},
	}
	f.audit.subjectErr = errors.New("audit table unavailable")

	result, err := f.svc.Delete(context.Background(), "st-1", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.StudentsDeleted)
	assert.Equal(t, 0, result.AuditEntriesSwept)
	assert.Contains(t, result.AuditSweepError, "audit table unavailable")

	// The deletion entry itself is still written after the failed sweep.
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionStudentDelete, f.audit.entries[0].Action)
}

func TestStudentServiceDeleteReportsFailedDeletionAudit(t *testing.T) {
	f := newStudentServiceFixture(t)
	f.repo.students = []models.Student{
		{ID: "st-1", Name: "Leaver", RegistrationNumber: "R-100", HostelName: "Porali", RoomNumber: "A-01"},
	}
	f.audit.createErr = errors.New("audit insert rejected")

	result, err := f.svc.Delete(context.Background(), "st-1", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.StudentsDeleted)
	assert.Contains(t, result.AuditSweepError, string(appErrors.CascadeStepAuditRecord))
	assert.Contains(t, result.AuditSweepError, "audit insert rejected")
}

func TestStudentServiceDeleteBatchBoundsTextSweep(t *testing.T) {
	f := newStudentServiceFixture(t)
	batch := make([]models.Student, 60)
	for i := range batch {
		batch[i] = models.Student{
			ID:                 fmt.Sprintf("st-%d", i),
			Name:               fmt.Sprintf("Student %d", i),
			RegistrationNumber: fmt.Sprintf("R-%03d", i),
			HostelName:         "Porali",
			RoomNumber:         fmt.Sprintf("A-%02d", i%4+1),
		}
	}
	f.repo.byBatch = batch

	result, err := f.svc.DeleteBatch(context.Background(), dto.BatchDeleteStudentsRequest{
		Department: "CS",
		Batch:      "2021",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 60, result.StudentsDeleted)

	require.Len(t, f.audit.subjectIDs, 1)
	assert.Len(t, f.audit.subjectIDs[0], 60)
	require.Len(t, f.audit.textMatches, 1)
	assert.Len(t, f.audit.textMatches[0], auditSweepTextLimit)

	// Every distinct room touched by the batch is rebuilt exactly once.
	assert.Len(t, f.assignments.replaced, 4)
}

func TestStudentServiceDeleteBatchEmpty(t *testing.T) {
	f := newStudentServiceFixture(t)

	result, err := f.svc.DeleteBatch(context.Background(), dto.BatchDeleteStudentsRequest{
		Department: "CS",
		Batch:      "1999",
	}, nil)
	require.NoError(t, err)
	assert.Zero(t, result.StudentsDeleted)
	assert.Empty(t, f.calls)
}
