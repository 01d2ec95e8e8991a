package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms-go/hms-api/internal/models"
	appErrors "github.com/hms-go/hms-api/pkg/errors"
)

type mockHostelRepo struct {
	hostel *models.Hostel
}

func (m *mockHostelRepo) FindByNameVariants(ctx context.Context, variants []string) (*models.Hostel, error) {
	if m.hostel == nil {
		return nil, sql.ErrNoRows
	}
	return m.hostel, nil
}

type mockRosterStudentRepo struct {
	students []models.Student
}

func (m *mockRosterStudentRepo) ListByHostelVariants(ctx context.Context, variants []string) ([]models.Student, error) {
	return m.students, nil
}

type mockRosterAssignmentRepo struct {
	assignments []models.RoomAssignment
	legacy      []models.LegacyAllotment
	legacyErr   error
}

func (m *mockRosterAssignmentRepo) ListByHostelVariants(ctx context.Context, variants []string) ([]models.RoomAssignment, error) {
	return m.assignments, nil
}

func (m *mockRosterAssignmentRepo) ListLegacyByHostelVariants(ctx context.Context, variants []string) ([]models.LegacyAllotment, error) {
	if m.legacyErr != nil {
		return nil, m.legacyErr
	}
	return m.legacy, nil
}

func testHostel() *models.Hostel {
	return &models.Hostel{
		ID:              "h1",
		Name:            "Porali",
		CapacityPerRoom: 2,
		NumberOfRooms:   4,
		NumberOfBlocks:  2,
		TotalCapacity:   8,
	}
}

func TestRosterServiceMergesSourcesByPrecedence(t *testing.T) {
	hostels := &mockHostelRepo{hostel: testHostel()}
	students := &mockRosterStudentRepo{students: []models.Student{
		{ID: "s1", Name: "Live Entry", RegistrationNumber: "R-NEW", Department: "CS", RoomNumber: "A-01"},
	}}
	assignments := &mockRosterAssignmentRepo{
		legacy: []models.LegacyAllotment{
			{RoomID: "A-01", StudentName: "Stale Entry", RegistrationNumber: "R-OLD", Department: "CS"},
			{RoomID: "B-02", StudentName: "Legacy Only", RegistrationNumber: "R-LEG", Department: "EE"},
		},
	}
	svc := NewRosterService(hostels, students, assignments, nil, 0, nil)

	resp, err := svc.Roster(context.Background(), "Porali Hostel", nil)
	require.NoError(t, err)
	assert.Equal(t, "Porali", resp.Hostel)
	assert.Equal(t, 2, resp.CapacityPerRoom)
	assert.Equal(t, 4, resp.TotalRooms)
	assert.Equal(t, 2, resp.Occupied)

	require.Len(t, resp.Rooms, 4)
	a01 := resp.Rooms[0]
	assert.Equal(t, "A-01", a01.ID)
	assert.Equal(t, 1, a01.Occupied)
	assert.Equal(t, "R-NEW", a01.Students[0].RegistrationNumber)

	// Rooms the live registry never mentions keep the legacy occupants.
	b02 := resp.Rooms[3]
	assert.Equal(t, "B-02", b02.ID)
	assert.Equal(t, "R-LEG", b02.Students[0].RegistrationNumber)
}

func TestRosterServiceKeepsOverflowRooms(t *testing.T) {
	hostels := &mockHostelRepo{hostel: testHostel()}
	students := &mockRosterStudentRepo{students: []models.Student{
		{ID: "s1", Name: "Drifted", RegistrationNumber: "R-1", RoomNumber: "Z-09"},
	}}
	svc := NewRosterService(hostels, students, &mockRosterAssignmentRepo{}, nil, 0, nil)

	resp, err := svc.Roster(context.Background(), "Porali", nil)
	require.NoError(t, err)
	require.Len(t, resp.Rooms, 5)
	last := resp.Rooms[4]
	assert.Equal(t, "Z-09", last.ID)
	assert.Equal(t, 1, last.Occupied)
}

func TestRosterServiceUnknownHostel(t *testing.T) {
	svc := NewRosterService(&mockHostelRepo{}, &mockRosterStudentRepo{}, &mockRosterAssignmentRepo{}, nil, 0, nil)

	_, err := svc.Roster(context.Background(), "Nowhere", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRosterServiceAutoAssign(t *testing.T) {
	hostels := &mockHostelRepo{hostel: testHostel()}
	students := &mockRosterStudentRepo{students: []models.Student{
		{ID: "s1", Name: "One", RegistrationNumber: "R-1", RoomNumber: "A-01"},
		{ID: "s2", Name: "Two", RegistrationNumber: "R-2", RoomNumber: "A-01"},
	}}
	svc := NewRosterService(hostels, students, &mockRosterAssignmentRepo{}, nil, 0, nil)

	roomID, err := svc.AutoAssign(context.Background(), "Porali")
	require.NoError(t, err)
	assert.Equal(t, "A-02", roomID)
}

func TestRosterServiceRosterScopesWardens(t *testing.T) {
	hostels := &mockHostelRepo{hostel: testHostel()}
	svc := NewRosterService(hostels, &mockRosterStudentRepo{}, &mockRosterAssignmentRepo{}, nil, 0, nil)

	warden := &models.JWTClaims{UserID: "u1", Role: models.RoleWarden, AssignedHostels: []string{"Magsi"}}
	_, err := svc.Roster(context.Background(), "Porali", warden)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	warden.AssignedHostels = []string{"Porali"}
	resp, err := svc.Roster(context.Background(), "Porali Hostel", warden)
	require.NoError(t, err)
	assert.Equal(t, "Porali", resp.Hostel)
}

func TestRosterServiceAutoAssignDegradesWhenSourcesUnavailable(t *testing.T) {
	hostels := &mockHostelRepo{hostel: testHostel()}
	assignments := &mockRosterAssignmentRepo{legacyErr: errors.New("legacy allotments table unavailable")}
	svc := NewRosterService(hostels, &mockRosterStudentRepo{}, assignments, nil, 0, nil)

	// The occupancy view itself still fails.
	_, err := svc.Roster(context.Background(), "Porali", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSourceUnavailable.Code, appErrors.FromError(err).Code)

	// Assignment degrades to the regenerated sequence instead of blocking.
	roomID, err := svc.AutoAssign(context.Background(), "Porali")
	require.NoError(t, err)
	assert.Equal(t, "A-01", roomID)
}

func TestRosterServiceAutoAssignSaturated(t *testing.T) {
	hostel := testHostel()
	hostel.NumberOfBlocks = 1
	hostel.NumberOfRooms = 1
	students := &mockRosterStudentRepo{students: []models.Student{
		{ID: "s1", Name: "One", RegistrationNumber: "R-1", RoomNumber: "A-01"},
		{ID: "s2", Name: "Two", RegistrationNumber: "R-2", RoomNumber: "A-01"},
	}}
	svc := NewRosterService(&mockHostelRepo{hostel: hostel}, students, &mockRosterAssignmentRepo{}, nil, 0, nil)

	_, err := svc.AutoAssign(context.Background(), "Porali")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoCapacity.Code, appErrors.FromError(err).Code)
}
