package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hms-go/hms-api/internal/allocation"
	"github.com/hms-go/hms-api/internal/dto"
	"github.com/hms-go/hms-api/internal/models"
	appErrors "github.com/hms-go/hms-api/pkg/errors"
)

type rosterHostelRepository interface {
	FindByNameVariants(ctx context.Context, variants []string) (*models.Hostel, error)
}

type rosterStudentRepository interface {
	ListByHostelVariants(ctx context.Context, variants []string) ([]models.Student, error)
}

type rosterAssignmentRepository interface {
	ListByHostelVariants(ctx context.Context, variants []string) ([]models.RoomAssignment, error)
	ListLegacyByHostelVariants(ctx context.Context, variants []string) ([]models.LegacyAllotment, error)
}

// RosterService materializes a hostel's occupancy view. The room sequence is
// regenerated from the structural definition on every build; occupancy is
// merged from three sources in ascending precedence: imported legacy
// allotments, persisted room assignments, then the live student registry.
type RosterService struct {
	hostels     rosterHostelRepository
	students    rosterStudentRepository
	assignments rosterAssignmentRepository
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewRosterService constructs the roster service.
func NewRosterService(hostels rosterHostelRepository, students rosterStudentRepository, assignments rosterAssignmentRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &RosterService{hostels: hostels, students: students, assignments: assignments, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

func rosterCacheKey(hostelName string) string {
	return "roster:" + strings.ToLower(strings.Join(strings.Fields(hostelName), " "))
}

// Roster returns the full occupancy view of a hostel, cached briefly.
// Wardens only get the rosters of their assigned hostels; anonymous and
// non-warden callers see any hostel.
func (s *RosterService) Roster(ctx context.Context, hostelName string, actor *models.JWTClaims) (*dto.RosterResponse, error) {
	if !actorCanAccessHostel(actor, hostelName) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "hostel is not assigned to you")
	}

	key := rosterCacheKey(hostelName)
	var cached dto.RosterResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	hostel, err := s.resolveHostel(ctx, hostelName)
	if err != nil {
		return nil, err
	}

	rooms, err := s.Rooms(ctx, hostel)
	if err != nil {
		return nil, err
	}

	occupied := 0
	for _, r := range rooms {
		occupied += r.Occupied
	}
	def := hostel.StructureDef()
	resp := &dto.RosterResponse{
		Hostel:          hostel.Name,
		CapacityPerRoom: def.Capacity(),
		TotalRooms:      len(rooms),
		TotalCapacity:   hostel.TotalCapacity,
		Occupied:        occupied,
		Rooms:           rooms,
	}

	if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
		s.logger.Warn("roster cache set failed", zap.String("hostel", hostel.Name), zap.Error(err))
	}
	return resp, nil
}

// Rooms rebuilds the annotated room list for a hostel from all occupancy
// sources. Rooms mentioned by a source but absent from the structural
// definition are kept as overflow rows.
func (s *RosterService) Rooms(ctx context.Context, hostel *models.Hostel) ([]allocation.Room, error) {
	ids, err := allocation.GenerateRoomIDs(hostel.StructureDef())
	if err != nil {
		return nil, err
	}

	variants := allocation.HostelNameVariants(hostel.Name)

	legacy, err := s.assignments.ListLegacyByHostelVariants(ctx, variants)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSourceUnavailable.Code, appErrors.ErrSourceUnavailable.Status, "failed to load legacy allotments")
	}
	assigned, err := s.assignments.ListByHostelVariants(ctx, variants)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSourceUnavailable.Code, appErrors.ErrSourceUnavailable.Status, "failed to load room assignments")
	}
	registry, err := s.students.ListByHostelVariants(ctx, variants)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSourceUnavailable.Code, appErrors.ErrSourceUnavailable.Status, "failed to load student registry")
	}

	legacySource := allocation.Source{Name: "legacy"}
	for _, a := range legacy {
		legacySource.Entries = append(legacySource.Entries, allocation.SourceEntry{
			Room:     a.RoomID,
			Occupant: allocation.Occupant{Name: a.StudentName, RegistrationNumber: a.RegistrationNumber, Department: a.Department},
		})
	}
	assignedSource := allocation.Source{Name: "assignments"}
	for _, a := range assigned {
		assignedSource.Entries = append(assignedSource.Entries, allocation.SourceEntry{
			Room:     a.RoomID,
			Occupant: allocation.Occupant{Name: a.StudentName, RegistrationNumber: a.RegistrationNumber, Department: a.Department},
		})
	}
	registrySource := allocation.Source{Name: "registry"}
	for _, st := range registry {
		registrySource.Entries = append(registrySource.Entries, allocation.SourceEntry{
			Room:     st.RoomNumber,
			Occupant: allocation.Occupant{Name: st.Name, RegistrationNumber: st.RegistrationNumber, Department: st.Department},
		})
	}

	roster := allocation.MergeRoster(ids, legacySource, assignedSource, registrySource)
	return allocation.AnnotateCapacity(roster, hostel.StructureDef().Capacity()), nil
}

// AutoAssign picks the first room, in block and number order, with spare
// nominal capacity. When the occupancy sources cannot be read it degrades
// to the regenerated id sequence and hands out the first room blind rather
// than blocking the admission.
func (s *RosterService) AutoAssign(ctx context.Context, hostelName string) (string, error) {
	hostel, err := s.resolveHostel(ctx, hostelName)
	if err != nil {
		return "", err
	}
	rooms, err := s.Rooms(ctx, hostel)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrSourceUnavailable.Code {
			ids, genErr := allocation.GenerateRoomIDs(hostel.StructureDef())
			if genErr == nil && len(ids) > 0 {
				s.logger.Warn("occupancy sources unavailable, assigning first room without occupancy data",
					zap.String("hostel", hostel.Name), zap.Error(err))
				return ids[0], nil
			}
		}
		return "", err
	}
	roomID, err := allocation.FirstAvailable(rooms)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrNoCapacity, fmt.Sprintf("no capacity available in %s", hostel.Name))
	}
	return roomID, nil
}

// Invalidate drops every cached roster view along with the dashboard
// summary. Called after any student or hostel mutation.
func (s *RosterService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "roster:*"); err != nil {
		s.logger.Warn("roster cache invalidation failed", zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *RosterService) resolveHostel(ctx context.Context, hostelName string) (*models.Hostel, error) {
	variants := allocation.HostelNameVariants(hostelName)
	hostel, err := s.hostels.FindByNameVariants(ctx, variants)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("hostel %q not found", hostelName))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve hostel")
	}
	return hostel, nil
}
