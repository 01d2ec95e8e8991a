package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hms-go/hms-api/internal/allocation"
	"github.com/hms-go/hms-api/internal/dto"
	"github.com/hms-go/hms-api/internal/models"
	appErrors "github.com/hms-go/hms-api/pkg/errors"
)

// auditSweepTextLimit bounds the free-text cleanup after a batch deletion.
// Only pre-migration audit rows without a subject id need the text match,
// and an unbounded ILIKE fan-out over thousands of registrations is not
// worth the legacy rows it would catch.
const auditSweepTextLimit = 50

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter, hostels []string) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByRegistration(ctx context.Context, reg string, excludeID string) (bool, error)
	ListByHostelVariants(ctx context.Context, variants []string) ([]models.Student, error)
	ListByDepartmentBatch(ctx context.Context, department, batch string) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
}

type studentAssignmentRepository interface {
	ReplaceRoom(ctx context.Context, hostelName, roomID string, assignments []models.RoomAssignment) error
	DeleteByStudentIDs(ctx context.Context, studentIDs []string) (int, error)
}

type studentChallanRepository interface {
	Create(ctx context.Context, challan *models.Challan) error
	DeleteByStudentIDs(ctx context.Context, studentIDs []string) (int, error)
}

type studentAuditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	DeleteBySubjectIDs(ctx context.Context, subjectIDs []string) (int, error)
	DeleteByMessageMatch(ctx context.Context, registrations []string) (int, error)
}

// StudentService handles resident registration, movement and removal. All
// occupancy writes go through wholesale room rebuilds so the persisted
// assignments never drift from the registry.
type StudentService struct {
	repo          studentRepository
	hostels       rosterHostelRepository
	assignments   studentAssignmentRepository
	challans      studentChallanRepository
	audit         studentAuditRepository
	roster        *RosterService
	allowOverflow bool
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewStudentService constructs the student service. allowOverflow keeps the
// lenient admission policy: explicit room requests are accepted past nominal
// capacity. Strict mode rejects them with NO_CAPACITY_AVAILABLE.
func NewStudentService(repo studentRepository, hostels rosterHostelRepository, assignments studentAssignmentRepository, challans studentChallanRepository, audit studentAuditRepository, roster *RosterService, allowOverflow bool, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:          repo,
		hostels:       hostels,
		assignments:   assignments,
		challans:      challans,
		audit:         audit,
		roster:        roster,
		allowOverflow: allowOverflow,
		validator:     validate,
		logger:        logger,
	}
}

// List returns students and pagination metadata. Wardens only see students
// of their assigned hostels.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter, actor *models.JWTClaims) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter, wardenHostels(actor))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !actorCanAccessHostel(actor, student.HostelName) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student belongs to another hostel")
	}
	return student, nil
}

// Create registers a new student, places them in a room and issues the
// opening challan. An empty room number triggers auto-assignment.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest, actor *models.JWTClaims) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	exists, err := s.repo.ExistsByRegistration(ctx, req.RegistrationNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate registration number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration number already used")
	}

	hostel, err := s.resolveHostel(ctx, req.HostelName)
	if err != nil {
		return nil, err
	}
	if !actorCanAccessHostel(actor, hostel.Name) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "hostel is not assigned to you")
	}

	roomID := allocation.NormalizeRoomID(req.RoomNumber)
	if strings.TrimSpace(roomID) == "" {
		roomID, err = s.roster.AutoAssign(ctx, hostel.Name)
		if err != nil {
			return nil, err
		}
	} else if err := s.checkRoomCapacity(ctx, hostel, roomID); err != nil {
		return nil, err
	}

	student := &models.Student{
		Name:               req.Name,
		FatherName:         req.FatherName,
		RegistrationNumber: req.RegistrationNumber,
		Department:         req.Department,
		Batch:              req.Batch,
		District:           req.District,
		Phone:              req.Phone,
		HostelName:         hostel.Name,
		RoomNumber:         roomID,
		HostelFee:          req.HostelFee,
		FeeTable:           models.FeeTable{},
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	if err := s.rebuildRoom(ctx, hostel.Name, roomID); err != nil {
		s.logger.Error("room rebuild after create failed", zap.String("room", roomID), zap.Error(err))
	}

	challan := &models.Challan{
		Number:             NewChallanNumber(),
		StudentID:          student.ID,
		RegistrationNumber: student.RegistrationNumber,
		StudentName:        student.Name,
		HostelName:         hostel.Name,
		Semester:           "sem1",
		Amount:             student.HostelFee,
		Status:             models.ChallanStatusPending,
	}
	if err := s.challans.Create(ctx, challan); err != nil {
		s.logger.Warn("opening challan creation failed", zap.String("student", student.ID), zap.Error(err))
	}

	s.recordAudit(ctx, actor, models.AuditActionStudentCreate, student.RegistrationNumber, hostel.Name,
		fmt.Sprintf("Student %s (%s) added to %s %s", student.Name, student.RegistrationNumber, hostel.Name, roomID))
	s.roster.Invalidate(ctx)
	return student, nil
}

// Update applies partial changes. A hostel or room change rebuilds both the
// old and the new room wholesale from the registry.
func (s *StudentService) Update(ctx context.Context, id string, req dto.UpdateStudentRequest, actor *models.JWTClaims) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	oldHostel := student.HostelName
	oldRoom := student.RoomNumber

	if req.RegistrationNumber != nil && !strings.EqualFold(*req.RegistrationNumber, student.RegistrationNumber) {
		exists, err := s.repo.ExistsByRegistration(ctx, *req.RegistrationNumber, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate registration number")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration number already used")
		}
		student.RegistrationNumber = *req.RegistrationNumber
	}
	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.FatherName != nil {
		student.FatherName = *req.FatherName
	}
	if req.Department != nil {
		student.Department = *req.Department
	}
	if req.Batch != nil {
		student.Batch = *req.Batch
	}
	if req.District != nil {
		student.District = *req.District
	}
	if req.Phone != nil {
		student.Phone = *req.Phone
	}
	if req.HostelFee != nil {
		student.HostelFee = *req.HostelFee
	}
	if req.HostelName != nil {
		hostel, err := s.resolveHostel(ctx, *req.HostelName)
		if err != nil {
			return nil, err
		}
		if !actorCanAccessHostel(actor, hostel.Name) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "hostel is not assigned to you")
		}
		student.HostelName = hostel.Name
	}
	if req.RoomNumber != nil {
		newRoom := allocation.NormalizeRoomID(*req.RoomNumber)
		if newRoom != "" && !allocation.SameRoomID(newRoom, oldRoom) {
			hostel, err := s.resolveHostel(ctx, student.HostelName)
			if err != nil {
				return nil, err
			}
			if err := s.checkRoomCapacity(ctx, hostel, newRoom); err != nil {
				return nil, err
			}
		}
		student.RoomNumber = newRoom
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	moved := !allocation.MatchesHostel(oldHostel, student.HostelName) || !allocation.SameRoomID(oldRoom, student.RoomNumber)
	if moved {
		if err := s.rebuildRoom(ctx, oldHostel, oldRoom); err != nil {
			s.logger.Error("old room rebuild failed", zap.String("room", oldRoom), zap.Error(err))
		}
		if err := s.rebuildRoom(ctx, student.HostelName, student.RoomNumber); err != nil {
			s.logger.Error("new room rebuild failed", zap.String("room", student.RoomNumber), zap.Error(err))
		}
	}

	s.recordAudit(ctx, actor, models.AuditActionStudentUpdate, student.RegistrationNumber, student.HostelName,
		fmt.Sprintf("Student %s (%s) updated", student.Name, student.RegistrationNumber))
	s.roster.Invalidate(ctx)
	return student, nil
}

// Delete removes a student with the full cascade: challans first, then
// room assignments, both fatal on failure; the audit sweep is best effort;
// the deletion audit entry is written last so it survives the sweep.
func (s *StudentService) Delete(ctx context.Context, id string, actor *models.JWTClaims) (*models.CascadeResult, error) {
	student, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	result := &models.CascadeResult{}

	n, err := s.challans.DeleteByStudentIDs(ctx, []string{id})
	if err != nil {
		return nil, appErrors.NewCascadeError(appErrors.CascadeStepChallans, student.RegistrationNumber, true, err)
	}
	result.ChallansDeleted = n

	n, err = s.assignments.DeleteByStudentIDs(ctx, []string{id})
	if err != nil {
		return nil, appErrors.NewCascadeError(appErrors.CascadeStepOccupancy, student.RegistrationNumber, true, err)
	}
	result.AssignmentsDeleted = n

	deleted, err := s.repo.DeleteByIDs(ctx, []string{id})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	result.StudentsDeleted = deleted

	if err := s.rebuildRoom(ctx, student.HostelName, student.RoomNumber); err != nil {
		s.logger.Error("room rebuild after delete failed", zap.String("room", student.RoomNumber), zap.Error(err))
	}

	result.AuditEntriesSwept, result.AuditSweepError = s.sweepAuditEntries(ctx, []string{student.RegistrationNumber})

	if err := s.recordAudit(ctx, actor, models.AuditActionStudentDelete, student.RegistrationNumber, student.HostelName,
		fmt.Sprintf("Student %s (%s) deleted from %s %s", student.Name, student.RegistrationNumber, student.HostelName, student.RoomNumber)); err != nil {
		cascadeErr := appErrors.NewCascadeError(appErrors.CascadeStepAuditRecord, student.RegistrationNumber, false, err)
		if result.AuditSweepError == "" {
			result.AuditSweepError = cascadeErr.Error()
		}
	}
	s.roster.Invalidate(ctx)
	return result, nil
}

// DeleteBatch removes every student of a department whose batch contains
// the given substring, running the same cascade set-wise. The subject-id
// audit sweep covers every removed student; the free-text sweep is bounded.
func (s *StudentService) DeleteBatch(ctx context.Context, req dto.BatchDeleteStudentsRequest, actor *models.JWTClaims) (*models.CascadeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch delete payload")
	}

	students, err := s.repo.ListByDepartmentBatch(ctx, req.Department, req.Batch)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch students")
	}
	if len(students) == 0 {
		return &models.CascadeResult{}, nil
	}

	for _, st := range students {
		if !actorCanAccessHostel(actor, st.HostelName) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "batch spans hostels not assigned to you")
		}
	}

	ids := make([]string, len(students))
	regs := make([]string, len(students))
	touchedRooms := make(map[[2]string]struct{})
	for i, st := range students {
		ids[i] = st.ID
		regs[i] = st.RegistrationNumber
		touchedRooms[[2]string{st.HostelName, st.RoomNumber}] = struct{}{}
	}

	result := &models.CascadeResult{}
	batchLabel := fmt.Sprintf("%s/%s", req.Department, req.Batch)

	n, err := s.challans.DeleteByStudentIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.NewCascadeError(appErrors.CascadeStepChallans, batchLabel, true, err)
	}
	result.ChallansDeleted = n

	n, err = s.assignments.DeleteByStudentIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.NewCascadeError(appErrors.CascadeStepOccupancy, batchLabel, true, err)
	}
	result.AssignmentsDeleted = n

	deleted, err := s.repo.DeleteByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete batch students")
	}
	result.StudentsDeleted = deleted

	for room := range touchedRooms {
		if err := s.rebuildRoom(ctx, room[0], room[1]); err != nil {
			s.logger.Error("room rebuild after batch delete failed", zap.String("room", room[1]), zap.Error(err))
		}
	}

	result.AuditEntriesSwept, result.AuditSweepError = s.sweepAuditEntries(ctx, regs)

	if err := s.recordAudit(ctx, actor, models.AuditActionStudentBatchDelete, "", "",
		fmt.Sprintf("Batch delete %s removed %d students", batchLabel, result.StudentsDeleted)); err != nil {
		cascadeErr := appErrors.NewCascadeError(appErrors.CascadeStepAuditRecord, batchLabel, false, err)
		if result.AuditSweepError == "" {
			result.AuditSweepError = cascadeErr.Error()
		}
	}
	s.roster.Invalidate(ctx)
	return result, nil
}

// sweepAuditEntries clears audit rows about the removed students. The
// structured subject-id match runs over the whole set; the legacy free-text
// match only over the first auditSweepTextLimit registrations. Failures are
// reported, never fatal.
func (s *StudentService) sweepAuditEntries(ctx context.Context, regs []string) (int, string) {
	swept := 0
	n, err := s.audit.DeleteBySubjectIDs(ctx, regs)
	if err != nil {
		cascadeErr := appErrors.NewCascadeError(appErrors.CascadeStepAuditSweep, strings.Join(regs, ","), false, err)
		s.logger.Warn("audit subject sweep failed", zap.Error(cascadeErr))
		return swept, cascadeErr.Error()
	}
	swept += n

	textRegs := regs
	if len(textRegs) > auditSweepTextLimit {
		textRegs = textRegs[:auditSweepTextLimit]
	}
	n, err = s.audit.DeleteByMessageMatch(ctx, textRegs)
	if err != nil {
		cascadeErr := appErrors.NewCascadeError(appErrors.CascadeStepAuditSweep, strings.Join(textRegs, ","), false, err)
		s.logger.Warn("audit text sweep failed", zap.Error(cascadeErr))
		return swept, cascadeErr.Error()
	}
	swept += n
	return swept, ""
}

// checkRoomCapacity enforces strict admission when overflow is disabled.
// Unreadable occupancy sources skip the check; admission never blocks on a
// secondary source.
func (s *StudentService) checkRoomCapacity(ctx context.Context, hostel *models.Hostel, roomID string) error {
	if s.allowOverflow {
		return nil
	}
	rooms, err := s.roster.Rooms(ctx, hostel)
	if err != nil {
		s.logger.Warn("capacity check skipped, occupancy sources unavailable",
			zap.String("hostel", hostel.Name), zap.Error(err))
		return nil
	}
	if !allocation.RoomAcceptsAssignment(rooms, roomID, false) {
		return appErrors.Clone(appErrors.ErrNoCapacity, fmt.Sprintf("room %s in %s has no free slot", roomID, hostel.Name))
	}
	return nil
}

// rebuildRoom regenerates a room's assignment rows from the live registry.
func (s *StudentService) rebuildRoom(ctx context.Context, hostelName, roomID string) error {
	if strings.TrimSpace(roomID) == "" {
		return nil
	}
	hostel, err := s.resolveHostel(ctx, hostelName)
	if err != nil {
		return err
	}
	residents, err := s.repo.ListByHostelVariants(ctx, allocation.HostelNameVariants(hostel.Name))
	if err != nil {
		return fmt.Errorf("load registry for room rebuild: %w", err)
	}

	assignments := make([]models.RoomAssignment, 0, len(residents))
	for _, st := range residents {
		if !allocation.SameRoomID(st.RoomNumber, roomID) {
			continue
		}
		assignments = append(assignments, models.RoomAssignment{
			HostelID:           hostel.ID,
			HostelName:         hostel.Name,
			RoomID:             allocation.NormalizeRoomID(roomID),
			StudentID:          st.ID,
			StudentName:        st.Name,
			RegistrationNumber: st.RegistrationNumber,
			Department:         st.Department,
		})
	}
	return s.assignments.ReplaceRoom(ctx, hostel.Name, allocation.NormalizeRoomID(roomID), assignments)
}

func (s *StudentService) resolveHostel(ctx context.Context, name string) (*models.Hostel, error) {
	hostel, err := s.hostels.FindByNameVariants(ctx, allocation.HostelNameVariants(name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("hostel %q not found", name))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve hostel")
	}
	return hostel, nil
}

func (s *StudentService) recordAudit(ctx context.Context, actor *models.JWTClaims, action, subjectID, hostel, message string) error {
	log := &models.AuditLog{Action: action, Message: message, Hostel: hostel}
	if subjectID != "" {
		log.SubjectID = &subjectID
	}
	if actor != nil {
		log.UserID = &actor.UserID
		log.Username = actor.Username
	}
	if err := s.audit.Create(ctx, log); err != nil {
		s.logger.Warn("audit record failed", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

// NewChallanNumber builds a challan identifier from the current millisecond
// timestamp plus a random three digit suffix.
func NewChallanNumber() string {
	return fmt.Sprintf("CH-%d-%03d", time.Now().UnixMilli(), rand.Intn(1000))
}

func wardenHostels(actor *models.JWTClaims) []string {
	if actor == nil || actor.Role != models.RoleWarden {
		return nil
	}
	return actor.AssignedHostels
}

func actorCanAccessHostel(actor *models.JWTClaims, hostelName string) bool {
	if actor == nil || actor.Role != models.RoleWarden {
		return true
	}
	for _, assigned := range actor.AssignedHostels {
		// Variant-match both ways so "Porali" covers "Porali Hostel" and
		// vice versa regardless of which side carries the suffix.
		if allocation.MatchesHostel(assigned, hostelName) || allocation.MatchesHostel(hostelName, assigned) {
			return true
		}
	}
	return false
}
