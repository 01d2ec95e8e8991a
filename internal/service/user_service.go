package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hms-go/hms-api/internal/dto"
	"github.com/hms-go/hms-api/internal/models"
	appErrors "github.com/hms-go/hms-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByLogin(ctx context.Context, email, username, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
}

// UserService handles staff account management.
type UserService struct {
	repo      userRepository
	audit     studentAuditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the user service.
func NewUserService(repo userRepository, audit studentAuditRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create provisions a new user account.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest, actor *models.JWTClaims) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	exists, err := s.repo.ExistsByLogin(ctx, req.Email, req.Username, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate user login")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email or username already used")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	assigned := req.AssignedHostels
	if req.Role != models.RoleWarden {
		assigned = nil
	}
	user := &models.User{
		Username:        req.Username,
		Email:           req.Email,
		PasswordHash:    string(hash),
		FullName:        req.FullName,
		Role:            req.Role,
		AssignedHostels: models.StringList(assigned),
		Active:          true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.recordAudit(ctx, actor, models.AuditActionUserCreate, fmt.Sprintf("User %s (%s) created", user.Username, user.Role))
	return user, nil
}

// Update applies partial changes to a user.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest, actor *models.JWTClaims) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		exists, err := s.repo.ExistsByLogin(ctx, *req.Email, user.Username, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate user login")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
		}
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.AssignedHostels != nil {
		user.AssignedHostels = models.StringList(*req.AssignedHostels)
	}
	if user.Role != models.RoleWarden {
		user.AssignedHostels = nil
	}
	if req.Active != nil {
		user.Active = *req.Active
		if !user.Active {
			if err := s.repo.RevokeUserRefreshTokens(ctx, id); err != nil {
				s.logger.Warn("failed to revoke tokens of deactivated user", zap.Error(err))
			}
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	s.recordAudit(ctx, actor, models.AuditActionUserUpdate, fmt.Sprintf("User %s updated", user.Username))
	return user, nil
}

// Delete removes a user account.
func (s *UserService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if actor != nil && actor.UserID == id {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot delete your own account")
	}

	if err := s.repo.RevokeUserRefreshTokens(ctx, id); err != nil {
		s.logger.Warn("failed to revoke tokens of deleted user", zap.Error(err))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.recordAudit(ctx, actor, models.AuditActionUserDelete, fmt.Sprintf("User %s deleted", user.Username))
	return nil
}

func (s *UserService) recordAudit(ctx context.Context, actor *models.JWTClaims, action, message string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{Action: action, Message: message}
	if actor != nil {
		entry.UserID = &actor.UserID
		entry.Username = actor.Username
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", zap.String("action", action), zap.Error(err))
	}
}
