package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hms-go/hms-api/internal/dto"
	appErrors "github.com/hms-go/hms-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

type dashboardHostelRepository interface {
	CountAll(ctx context.Context) (int, error)
	SumCapacity(ctx context.Context) (int, error)
}

type dashboardStudentRepository interface {
	CountAll(ctx context.Context) (int, error)
	CountOverdue(ctx context.Context) (int, error)
}

type dashboardUserRepository interface {
	CountActive(ctx context.Context) (int, error)
}

type dashboardChallanRepository interface {
	CountPending(ctx context.Context) (int, error)
}

// DashboardService aggregates landing metrics, cached in Redis.
type DashboardService struct {
	hostels  dashboardHostelRepository
	students dashboardStudentRepository
	users    dashboardUserRepository
	challans dashboardChallanRepository
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(hostels dashboardHostelRepository, students dashboardStudentRepository, users dashboardUserRepository, challans dashboardChallanRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{hostels: hostels, students: students, users: users, challans: challans, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Summary returns the aggregated dashboard payload.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardResponse, error) {
	var cached dto.DashboardResponse
	if hit, _ := s.cache.Get(ctx, dashboardCacheKey, &cached); hit {
		return &cached, nil
	}

	totalHostels, err := s.hostels.CountAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count hostels")
	}
	totalCapacity, err := s.hostels.SumCapacity(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum capacity")
	}
	totalStudents, err := s.students.CountAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	overdue, err := s.students.CountOverdue(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count overdue students")
	}
	activeUsers, err := s.users.CountActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count users")
	}
	pendingChallans, err := s.challans.CountPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending challans")
	}

	vacant := totalCapacity - totalStudents
	if vacant < 0 {
		vacant = 0
	}

	resp := &dto.DashboardResponse{
		TotalHostels:    totalHostels,
		TotalStudents:   totalStudents,
		TotalCapacity:   totalCapacity,
		VacantPlaces:    vacant,
		ActiveUsers:     activeUsers,
		OverdueStudents: overdue,
		PendingChallans: pendingChallans,
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, resp, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache set failed", zap.Error(err))
	}
	return resp, nil
}
