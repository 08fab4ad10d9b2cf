package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"go-taskhub/internal/access"
	"go-taskhub/internal/task"
	"go-taskhub/internal/user"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	cacheTTL = 60 * time.Second

	bossCacheKeyPrefix     = "dashboard:boss:"
	employeeCacheKeyPrefix = "dashboard:employee:"
)

// BossCacheKey scopes the boss dashboard per tenant. Superadmin has no
// tenant and gets the cross-company variant under a shared key.
func BossCacheKey(actor access.Actor) string {
	if actor.IsSuperadmin() {
		return bossCacheKeyPrefix + "all"
	}
	return bossCacheKeyPrefix + actor.CompanyID.String()
}

func EmployeeCacheKey(actor access.Actor) string {
	return employeeCacheKeyPrefix + actor.ID.String()
}

type Service interface {
	Boss(ctx context.Context, actor access.Actor) (BossDashboardResponse, error)
	Employee(ctx context.Context, actor access.Actor) (EmployeeDashboardResponse, error)
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	now    func() time.Time
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("dashboard.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("dashboard.service")
	}
	return &service{
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		now:    time.Now,
		logger: l,
	}
}

func (s *service) Boss(ctx context.Context, actor access.Actor) (BossDashboardResponse, error) {
	cacheKey := BossCacheKey(actor)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp BossDashboardResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		resp, err := s.buildBoss(ctx, actor)
		if err != nil {
			return nil, err
		}
		s.store(ctx, cacheKey, resp)
		return resp, nil
	})
	if err != nil {
		return BossDashboardResponse{}, err
	}
	return v.(BossDashboardResponse), nil
}

func (s *service) buildBoss(ctx context.Context, actor access.Actor) (BossDashboardResponse, error) {
	now := s.now().UTC()

	// Superadmin passes uuid.Nil and aggregates across every tenant.
	companyID := actor.CompanyID

	stats, err := s.repo.CompanyStats(ctx, companyID, now)
	if err != nil {
		s.logger.Error("boss dashboard stats failed", zap.Error(err))
		return BossDashboardResponse{}, err
	}

	resp := BossDashboardResponse{
		Stats:       stats,
		TeamMembers: []user.UserResponse{},
	}

	if !actor.IsSuperadmin() {
		members, err := s.repo.TeamMembers(ctx, companyID)
		if err != nil {
			s.logger.Error("boss dashboard team members failed", zap.Error(err))
			return BossDashboardResponse{}, err
		}
		resp.TeamMembers = user.MapToListResponse(members)
	}

	recent, err := s.repo.RecentTasks(ctx, companyID)
	if err != nil {
		s.logger.Error("boss dashboard recent tasks failed", zap.Error(err))
		return BossDashboardResponse{}, err
	}
	resp.RecentTasks = task.MapToListResponse(recent)

	overdue, err := s.repo.OverdueTasks(ctx, companyID, now)
	if err != nil {
		s.logger.Error("boss dashboard overdue tasks failed", zap.Error(err))
		return BossDashboardResponse{}, err
	}
	resp.Overdue = task.MapToListResponse(overdue)

	return resp, nil
}

func (s *service) Employee(ctx context.Context, actor access.Actor) (EmployeeDashboardResponse, error) {
	cacheKey := EmployeeCacheKey(actor)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp EmployeeDashboardResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		resp, err := s.buildEmployee(ctx, actor)
		if err != nil {
			return nil, err
		}
		s.store(ctx, cacheKey, resp)
		return resp, nil
	})
	if err != nil {
		return EmployeeDashboardResponse{}, err
	}
	return v.(EmployeeDashboardResponse), nil
}

func (s *service) buildEmployee(ctx context.Context, actor access.Actor) (EmployeeDashboardResponse, error) {
	now := s.now().UTC()

	stats, err := s.repo.AssignedStats(ctx, actor.ID, now)
	if err != nil {
		s.logger.Error("employee dashboard stats failed", zap.Error(err))
		return EmployeeDashboardResponse{}, err
	}

	completed, err := s.repo.RecentCompletedTasks(ctx, actor.ID)
	if err != nil {
		s.logger.Error("employee dashboard recent completed failed", zap.Error(err))
		return EmployeeDashboardResponse{}, err
	}

	overdue, err := s.repo.AssignedOverdueTasks(ctx, actor.ID, now)
	if err != nil {
		s.logger.Error("employee dashboard overdue failed", zap.Error(err))
		return EmployeeDashboardResponse{}, err
	}

	return EmployeeDashboardResponse{
		Stats:           stats,
		RecentCompleted: task.MapToListResponse(completed),
		Overdue:         task.MapToListResponse(overdue),
	}, nil
}

func (s *service) store(ctx context.Context, key string, resp any) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, payload, cacheTTL).Err(); err != nil {
		s.logger.Warn("dashboard cache store failed", zap.String("key", key), zap.Error(err))
	}
}
