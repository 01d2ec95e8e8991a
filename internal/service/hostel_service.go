package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hms-go/hms-api/internal/allocation"
	"github.com/hms-go/hms-api/internal/dto"
	"github.com/hms-go/hms-api/internal/models"
	appErrors "github.com/hms-go/hms-api/pkg/errors"
)

type hostelRepository interface {
	List(ctx context.Context, filter models.HostelFilter) ([]models.Hostel, int, error)
	FindByID(ctx context.Context, id string) (*models.Hostel, error)
	FindByNameVariants(ctx context.Context, variants []string) (*models.Hostel, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, hostel *models.Hostel) error
	Update(ctx context.Context, hostel *models.Hostel) error
	Delete(ctx context.Context, id string) error
}

type hostelStudentRepository interface {
	ListByHostelVariants(ctx context.Context, variants []string) ([]models.Student, error)
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
}

type hostelAssignmentRepository interface {
	DeleteByStudentIDs(ctx context.Context, studentIDs []string) (int, error)
	DeleteByHostelVariants(ctx context.Context, variants []string) (int, error)
}

// HostelService handles hostel structure management. Structural definitions
// are validated by generating the room sequence at write time, so a hostel
// that cannot produce rooms is rejected before it is stored.
type HostelService struct {
	repo      hostelRepository
	students  hostelStudentRepository
	challans  studentChallanRepository
	occupancy hostelAssignmentRepository
	audit     studentAuditRepository
	roster    *RosterService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHostelService constructs the hostel service.
func NewHostelService(repo hostelRepository, students hostelStudentRepository, challans studentChallanRepository, occupancy hostelAssignmentRepository, audit studentAuditRepository, roster *RosterService, validate *validator.Validate, logger *zap.Logger) *HostelService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HostelService{
		repo:      repo,
		students:  students,
		challans:  challans,
		occupancy: occupancy,
		audit:     audit,
		roster:    roster,
		validator: validate,
		logger:    logger,
	}
}

// List returns hostels and pagination metadata.
func (s *HostelService) List(ctx context.Context, filter models.HostelFilter) ([]models.Hostel, *models.Pagination, error) {
	hostels, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list hostels")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return hostels, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListWithStats enriches each hostel with live occupancy computed from the
// registry, honoring stored name variants.
func (s *HostelService) ListWithStats(ctx context.Context) ([]dto.HostelStats, error) {
	hostels, _, err := s.repo.List(ctx, models.HostelFilter{PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list hostels")
	}

	stats := make([]dto.HostelStats, 0, len(hostels))
	for _, h := range hostels {
		residents, err := s.students.ListByHostelVariants(ctx, allocation.HostelNameVariants(h.Name))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count hostel residents")
		}
		occupied := len(residents)
		empty := h.TotalCapacity - occupied
		if empty < 0 {
			empty = 0
		}
		def := h.StructureDef()
		stats = append(stats, dto.HostelStats{
			ID:              h.ID,
			Name:            h.Name,
			TotalCapacity:   h.TotalCapacity,
			TotalRooms:      h.NumberOfRooms,
			OccupiedSlots:   occupied,
			EmptySlots:      empty,
			CapacityPerRoom: def.Capacity(),
		})
	}
	return stats, nil
}

// Get returns one hostel.
func (s *HostelService) Get(ctx context.Context, id string) (*models.Hostel, error) {
	hostel, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "hostel not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hostel")
	}
	return hostel, nil
}

// Create registers a new hostel after validating its structural definition.
func (s *HostelService) Create(ctx context.Context, req dto.CreateHostelRequest, actor *models.JWTClaims) (*models.Hostel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hostel payload")
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate hostel name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "hostel name already used")
	}

	hostel := &models.Hostel{
		Name:            req.Name,
		CapacityPerRoom: req.CapacityPerRoom,
		NumberOfRooms:   req.NumberOfRooms,
		NumberOfBlocks:  req.NumberOfBlocks,
		Blocks:          models.BlockList(req.Blocks),
	}
	if err := s.recomputeTotals(hostel); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, hostel); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create hostel")
	}

	s.recordAudit(ctx, actor, models.AuditActionHostelCreate, hostel.Name,
		fmt.Sprintf("Hostel %s created with %d rooms", hostel.Name, hostel.NumberOfRooms))
	s.roster.Invalidate(ctx)
	return hostel, nil
}

// Update applies partial changes and recomputes derived totals.
func (s *HostelService) Update(ctx context.Context, id string, req dto.UpdateHostelRequest, actor *models.JWTClaims) (*models.Hostel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hostel payload")
	}

	hostel, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != hostel.Name {
		exists, err := s.repo.ExistsByName(ctx, *req.Name, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate hostel name")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "hostel name already used")
		}
		hostel.Name = *req.Name
	}
	if req.CapacityPerRoom != nil {
		hostel.CapacityPerRoom = *req.CapacityPerRoom
	}
	if req.NumberOfRooms != nil {
		hostel.NumberOfRooms = *req.NumberOfRooms
	}
	if req.NumberOfBlocks != nil {
		hostel.NumberOfBlocks = *req.NumberOfBlocks
	}
	if req.Blocks != nil {
		hostel.Blocks = models.BlockList(*req.Blocks)
	}
	if err := s.recomputeTotals(hostel); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, hostel); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update hostel")
	}

	s.recordAudit(ctx, actor, models.AuditActionHostelUpdate, hostel.Name,
		fmt.Sprintf("Hostel %s updated", hostel.Name))
	s.roster.Invalidate(ctx)
	return hostel, nil
}

// Delete removes a hostel and everything attached to it: residents, their
// challans and assignments, plus legacy rows. One summary audit entry with
// the counts is written at the end.
func (s *HostelService) Delete(ctx context.Context, id string, actor *models.JWTClaims) (*models.CascadeResult, error) {
	hostel, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	variants := allocation.HostelNameVariants(hostel.Name)
	residents, err := s.students.ListByHostelVariants(ctx, variants)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hostel residents")
	}

	ids := make([]string, len(residents))
	for i, st := range residents {
		ids[i] = st.ID
	}

	result := &models.CascadeResult{}

	n, err := s.challans.DeleteByStudentIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.NewCascadeError(appErrors.CascadeStepChallans, hostel.Name, true, err)
	}
	result.ChallansDeleted = n

	n, err = s.occupancy.DeleteByStudentIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.NewCascadeError(appErrors.CascadeStepOccupancy, hostel.Name, true, err)
	}
	result.AssignmentsDeleted = n
	if n, err = s.occupancy.DeleteByHostelVariants(ctx, variants); err != nil {
		return nil, appErrors.NewCascadeError(appErrors.CascadeStepOccupancy, hostel.Name, true, err)
	}
	result.AssignmentsDeleted += n

	deleted, err := s.students.DeleteByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete hostel residents")
	}
	result.StudentsDeleted = deleted

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete hostel")
	}

	s.recordAudit(ctx, actor, models.AuditActionHostelDelete, hostel.Name,
		fmt.Sprintf("Hostel %s deleted: %d students, %d challans, %d assignments removed",
			hostel.Name, result.StudentsDeleted, result.ChallansDeleted, result.AssignmentsDeleted))
	s.roster.Invalidate(ctx)
	return result, nil
}

// recomputeTotals regenerates the room sequence and derives room and
// capacity totals from it. Client-supplied totals are never trusted.
func (s *HostelService) recomputeTotals(hostel *models.Hostel) error {
	ids, err := allocation.GenerateRoomIDs(hostel.StructureDef())
	if err != nil {
		return appErrors.Clone(appErrors.ErrInvalidStructure,
			fmt.Sprintf("hostel %q has neither blocks nor a positive room count", hostel.Name))
	}
	def := hostel.StructureDef()
	hostel.NumberOfRooms = len(ids)
	hostel.TotalCapacity = len(ids) * def.Capacity()
	return nil
}

func (s *HostelService) recordAudit(ctx context.Context, actor *models.JWTClaims, action, hostelName, message string) {
	log := &models.AuditLog{Action: action, Message: message, Hostel: hostelName}
	if actor != nil {
		log.UserID = &actor.UserID
		log.Username = actor.Username
	}
	if err := s.audit.Create(ctx, log); err != nil {
		s.logger.Warn("audit record failed", zap.String("action", action), zap.Error(err))
	}
}
