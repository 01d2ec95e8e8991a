package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hms-go/hms-api/internal/dto"
	"github.com/hms-go/hms-api/internal/models"
	appErrors "github.com/hms-go/hms-api/pkg/errors"
)

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
}

// AuditService serves the audit trail. Wardens only see entries tagged with
// their hostels.
type AuditService struct {
	repo      auditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(repo auditRepository, validate *validator.Validate, logger *zap.Logger) *AuditService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, validator: validate, logger: logger}
}

// List returns audit entries and pagination metadata.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter, actor *models.JWTClaims) ([]models.AuditLog, *models.Pagination, error) {
	if scoped := wardenHostels(actor); len(scoped) > 0 {
		filter.Hostels = scoped
	}
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return logs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Record stores a UI-originated audit entry on behalf of the caller.
func (s *AuditService) Record(ctx context.Context, req dto.CreateAuditLogRequest, actor *models.JWTClaims) (*models.AuditLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid audit payload")
	}
	entry := &models.AuditLog{
		Action:  req.Action,
		Message: req.Message,
		Hostel:  req.Hostel,
	}
	if req.SubjectID != "" {
		entry.SubjectID = &req.SubjectID
	}
	if actor != nil {
		entry.UserID = &actor.UserID
		entry.Username = actor.Username
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record audit entry")
	}
	return entry, nil
}
