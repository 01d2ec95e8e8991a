package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms-go/hms-api/internal/dto"
	"github.com/hms-go/hms-api/internal/middleware"
	"github.com/hms-go/hms-api/internal/models"
	"github.com/hms-go/hms-api/internal/service"
)

type fakeHostelRepo struct {
	hostel *models.Hostel
}

func (f *fakeHostelRepo) FindByNameVariants(ctx context.Context, variants []string) (*models.Hostel, error) {
	if f.hostel == nil {
		return nil, sql.ErrNoRows
	}
	return f.hostel, nil
}

type fakeStudentRepo struct {
	students []models.Student
}

func (f *fakeStudentRepo) ListByHostelVariants(ctx context.Context, variants []string) ([]models.Student, error) {
	return f.students, nil
}

type fakeAssignmentRepo struct{}

func (f *fakeAssignmentRepo) ListByHostelVariants(ctx context.Context, variants []string) ([]models.RoomAssignment, error) {
	return nil, nil
}

func (f *fakeAssignmentRepo) ListLegacyByHostelVariants(ctx context.Context, variants []string) ([]models.LegacyAllotment, error) {
	return nil, nil
}

func newRosterHandler(hostel *models.Hostel, students []models.Student) *HostelHandler {
	roster := service.NewRosterService(
		&fakeHostelRepo{hostel: hostel},
		&fakeStudentRepo{students: students},
		&fakeAssignmentRepo{},
		nil, 0, nil,
	)
	return NewHostelHandler(nil, roster)
}

func TestHostelHandlerRoster(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newRosterHandler(
		&models.Hostel{ID: "h1", Name: "Porali", CapacityPerRoom: 2, NumberOfRooms: 2, NumberOfBlocks: 1, TotalCapacity: 4},
		[]models.Student{{ID: "s1", Name: "Resident", RegistrationNumber: "R-1", RoomNumber: "A-01"}},
	)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/hostels/Porali/roster", nil)
	c.Params = gin.Params{{Key: "name", Value: "Porali"}}

	handler.Roster(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data dto.RosterResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Porali", envelope.Data.Hostel)
	assert.Equal(t, 2, envelope.Data.TotalRooms)
	assert.Equal(t, 1, envelope.Data.Occupied)
	require.Len(t, envelope.Data.Rooms, 2)
	// Rooms are padded to capacity with placeholder seats.
	assert.Len(t, envelope.Data.Rooms[0].Students, 2)
}

func TestHostelHandlerRosterDeniesForeignWarden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newRosterHandler(
		&models.Hostel{ID: "h1", Name: "Porali", CapacityPerRoom: 2, NumberOfRooms: 2, NumberOfBlocks: 1, TotalCapacity: 4},
		nil,
	)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/hostels/Porali/roster", nil)
	c.Params = gin.Params{{Key: "name", Value: "Porali"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleWarden, AssignedHostels: []string{"Magsi"}})

	handler.Roster(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHostelHandlerRosterUnknownHostel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newRosterHandler(nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/hostels/Nowhere/roster", nil)
	c.Params = gin.Params{{Key: "name", Value: "Nowhere"}}

	handler.Roster(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
