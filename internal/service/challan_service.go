package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hms-go/hms-api/internal/dto"
	"github.com/hms-go/hms-api/internal/models"
	appErrors "github.com/hms-go/hms-api/pkg/errors"
)

type challanRepository interface {
	List(ctx context.Context, filter models.ChallanFilter, hostels []string) ([]models.Challan, int, error)
	FindByID(ctx context.Context, id string) (*models.Challan, error)
	Create(ctx context.Context, challan *models.Challan) error
	MarkPaid(ctx context.Context, id string, paidAt time.Time) error
}

type challanStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByRegistration(ctx context.Context, reg string) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
}

// ChallanService handles fee challan listing and settlement. Marking a
// challan paid also flips the student's fee table entry for that semester.
type ChallanService struct {
	repo      challanRepository
	students  challanStudentRepository
	audit     studentAuditRepository
	roster    *RosterService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChallanService constructs the challan service.
func NewChallanService(repo challanRepository, students challanStudentRepository, audit studentAuditRepository, roster *RosterService, validate *validator.Validate, logger *zap.Logger) *ChallanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChallanService{repo: repo, students: students, audit: audit, roster: roster, validator: validate, logger: logger}
}

// List returns challans and pagination metadata, warden-scoped.
func (s *ChallanService) List(ctx context.Context, filter models.ChallanFilter, actor *models.JWTClaims) ([]models.Challan, *models.Pagination, error) {
	challans, total, err := s.repo.List(ctx, filter, wardenHostels(actor))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list challans")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return challans, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Issue creates a fresh challan for a student.
func (s *ChallanService) Issue(ctx context.Context, studentID, semester string, amount float64, actor *models.JWTClaims) (*models.Challan, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !actorCanAccessHostel(actor, student.HostelName) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student belongs to another hostel")
	}
	if amount <= 0 {
		amount = student.HostelFee
	}

	challan := &models.Challan{
		Number:             NewChallanNumber(),
		StudentID:          student.ID,
		RegistrationNumber: student.RegistrationNumber,
		StudentName:        student.Name,
		HostelName:         student.HostelName,
		Semester:           semester,
		Amount:             amount,
		Status:             models.ChallanStatusPending,
	}
	if err := s.repo.Create(ctx, challan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create challan")
	}
	return challan, nil
}

// MarkPaid settles a challan and records the payment in the student's fee
// table.
func (s *ChallanService) MarkPaid(ctx context.Context, id string, req dto.MarkChallanPaidRequest, actor *models.JWTClaims) (*models.Challan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid challan payload")
	}

	challan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "challan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load challan")
	}
	if !actorCanAccessHostel(actor, challan.HostelName) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "challan belongs to another hostel")
	}
	if challan.Status == models.ChallanStatusPaid {
		return nil, appErrors.Clone(appErrors.ErrConflict, "challan already settled")
	}

	paidAt := time.Now().UTC()
	if err := s.repo.MarkPaid(ctx, id, paidAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to settle challan")
	}
	challan.Status = models.ChallanStatusPaid
	challan.PaidAt = &paidAt

	student, err := s.students.FindByID(ctx, challan.StudentID)
	if err == nil {
		if student.FeeTable == nil {
			student.FeeTable = models.FeeTable{}
		}
		student.FeeTable[req.Semester] = models.FeeStatusPaid
		if err := s.students.Update(ctx, student); err != nil {
			s.logger.Warn("fee table update after settlement failed", zap.String("student", student.ID), zap.Error(err))
		}
	} else {
		s.logger.Warn("student lookup after settlement failed", zap.String("challan", id), zap.Error(err))
	}

	if s.audit != nil {
		entry := &models.AuditLog{
			Action:    models.AuditActionChallanPaid,
			Message:   fmt.Sprintf("Challan %s settled for %s (%s)", challan.Number, challan.StudentName, req.Semester),
			SubjectID: &challan.RegistrationNumber,
			Hostel:    challan.HostelName,
		}
		if actor != nil {
			entry.UserID = &actor.UserID
			entry.Username = actor.Username
		}
		if err := s.audit.Create(ctx, entry); err != nil {
			s.logger.Warn("audit record failed", zap.String("challan", id), zap.Error(err))
		}
	}

	s.roster.Invalidate(ctx)
	return challan, nil
}

// FeeStructure returns a student's per-semester fee state by registration
// number.
func (s *ChallanService) FeeStructure(ctx context.Context, registration string, actor *models.JWTClaims) (*dto.FeeStructureResponse, error) {
	student, err := s.students.FindByRegistration(ctx, registration)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !actorCanAccessHostel(actor, student.HostelName) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student belongs to another hostel")
	}
	return &dto.FeeStructureResponse{
		RegistrationNumber: student.RegistrationNumber,
		Name:               student.Name,
		HostelName:         student.HostelName,
		HostelFee:          student.HostelFee,
		FeeTable:           student.FeeTable,
	}, nil
}
