package dashboard_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-taskhub/internal/access"
	"go-taskhub/internal/dashboard"
	"go-taskhub/internal/task"
	"go-taskhub/internal/user"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeDashboardRepository struct {
	companyStatsFn         func(ctx context.Context, companyID uuid.UUID, now time.Time) (dashboard.TaskStats, error)
	assignedStatsFn        func(ctx context.Context, userID uuid.UUID, now time.Time) (dashboard.TaskStats, error)
	teamMembersFn          func(ctx context.Context, companyID uuid.UUID) ([]user.User, error)
	recentTasksFn          func(ctx context.Context, companyID uuid.UUID) ([]task.Task, error)
	overdueTasksFn         func(ctx context.Context, companyID uuid.UUID, now time.Time) ([]task.Task, error)
	assignedOverdueFn      func(ctx context.Context, userID uuid.UUID, now time.Time) ([]task.Task, error)
	recentCompletedTasksFn func(ctx context.Context, userID uuid.UUID) ([]task.Task, error)
}

func (f *fakeDashboardRepository) CompanyStats(ctx context.Context, companyID uuid.UUID, now time.Time) (dashboard.TaskStats, error) {
	if f.companyStatsFn != nil {
		return f.companyStatsFn(ctx, companyID, now)
	}
	return dashboard.TaskStats{}, nil
}

func (f *fakeDashboardRepository) AssignedStats(ctx context.Context, userID uuid.UUID, now time.Time) (dashboard.TaskStats, error) {
	if f.assignedStatsFn != nil {
		return f.assignedStatsFn(ctx, userID, now)
	}
	return dashboard.TaskStats{}, nil
}

func (f *fakeDashboardRepository) TeamMembers(ctx context.Context, companyID uuid.UUID) ([]user.User, error) {
	if f.teamMembersFn != nil {
		return f.teamMembersFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakeDashboardRepository) RecentTasks(ctx context.Context, companyID uuid.UUID) ([]task.Task, error) {
	if f.recentTasksFn != nil {
		return f.recentTasksFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakeDashboardRepository) OverdueTasks(ctx context.Context, companyID uuid.UUID, now time.Time) ([]task.Task, error) {
	if f.overdueTasksFn != nil {
		return f.overdueTasksFn(ctx, companyID, now)
	}
	return nil, nil
}

func (f *fakeDashboardRepository) AssignedOverdueTasks(ctx context.Context, userID uuid.UUID, now time.Time) ([]task.Task, error) {
	if f.assignedOverdueFn != nil {
		return f.assignedOverdueFn(ctx, userID, now)
	}
	return nil, nil
}

func (f *fakeDashboardRepository) RecentCompletedTasks(ctx context.Context, userID uuid.UUID) ([]task.Task, error) {
	if f.recentCompletedTasksFn != nil {
		return f.recentCompletedTasksFn(ctx, userID)
	}
	return nil, nil
}

func managerActor(companyID uuid.UUID) access.Actor {
	return access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleManager}
}

func TestDashboardService_Boss(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("aggregates company stats, team and task lists", func(t *testing.T) {
		actor := managerActor(companyID)

		memberID := uuid.New()
		repo := &fakeDashboardRepository{
			companyStatsFn: func(ctx context.Context, gotCompany uuid.UUID, now time.Time) (dashboard.TaskStats, error) {
				assert.Equal(t, companyID, gotCompany)
				return dashboard.TaskStats{Total: 12, Todo: 4, InProgress: 3, Review: 1, Completed: 4, HighPriority: 2, Overdue: 1}, nil
			},
			teamMembersFn: func(ctx context.Context, gotCompany uuid.UUID) ([]user.User, error) {
				assert.Equal(t, companyID, gotCompany)
				return []user.User{{ID: memberID, CompanyID: &companyID, Name: "Dewi", Role: access.RoleEmployee, IsActive: true}}, nil
			},
			recentTasksFn: func(ctx context.Context, gotCompany uuid.UUID) ([]task.Task, error) {
				return []task.Task{{ID: uuid.New(), CompanyID: companyID, Title: "Quarterly report"}}, nil
			},
			overdueTasksFn: func(ctx context.Context, gotCompany uuid.UUID, now time.Time) ([]task.Task, error) {
				return []task.Task{{ID: uuid.New(), CompanyID: companyID, Title: "Audit follow-up"}}, nil
			},
		}

		rdb, redisMock := redismock.NewClientMock()
		cacheKey := dashboard.BossCacheKey(actor)
		redisMock.ExpectGet(cacheKey).RedisNil()
		redisMock.Regexp().ExpectSet(cacheKey, `.*`, 60*time.Second).SetVal("OK")

		svc := dashboard.NewService(repo, rdb)
		resp, err := svc.Boss(ctx, actor)

		assert.NoError(t, err)
		assert.Equal(t, int64(12), resp.Stats.Total)
		assert.Equal(t, int64(2), resp.Stats.HighPriority)
		assert.Len(t, resp.TeamMembers, 1)
		assert.Equal(t, memberID.String(), resp.TeamMembers[0].ID)
		assert.Len(t, resp.RecentTasks, 1)
		assert.Len(t, resp.Overdue, 1)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("serves from cache without touching the store", func(t *testing.T) {
		actor := managerActor(companyID)

		cached := dashboard.BossDashboardResponse{
			Stats:       dashboard.TaskStats{Total: 7, Completed: 7},
			TeamMembers: []user.UserResponse{},
		}
		payload, err := json.Marshal(cached)
		assert.NoError(t, err)

		repo := &fakeDashboardRepository{
			companyStatsFn: func(ctx context.Context, companyID uuid.UUID, now time.Time) (dashboard.TaskStats, error) {
				t.Fatal("stats should not be recomputed on a cache hit")
				return dashboard.TaskStats{}, nil
			},
		}

		rdb, redisMock := redismock.NewClientMock()
		redisMock.ExpectGet(dashboard.BossCacheKey(actor)).SetVal(string(payload))

		svc := dashboard.NewService(repo, rdb)
		resp, err := svc.Boss(ctx, actor)

		assert.NoError(t, err)
		assert.Equal(t, int64(7), resp.Stats.Total)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("superadmin aggregates across tenants and skips team members", func(t *testing.T) {
		actor := access.Actor{ID: uuid.New(), Role: access.RoleSuperadmin}

		teamCalls := 0
		repo := &fakeDashboardRepository{
			companyStatsFn: func(ctx context.Context, gotCompany uuid.UUID, now time.Time) (dashboard.TaskStats, error) {
				assert.Equal(t, uuid.Nil, gotCompany)
				return dashboard.TaskStats{Total: 99}, nil
			},
			teamMembersFn: func(ctx context.Context, companyID uuid.UUID) ([]user.User, error) {
				teamCalls++
				return nil, nil
			},
		}

		svc := dashboard.NewService(repo, nil)
		resp, err := svc.Boss(ctx, actor)

		assert.NoError(t, err)
		assert.Equal(t, "dashboard:boss:all", dashboard.BossCacheKey(actor))
		assert.Equal(t, int64(99), resp.Stats.Total)
		assert.Zero(t, teamCalls)
		assert.Empty(t, resp.TeamMembers)
	})

	t.Run("store failure surfaces to the caller", func(t *testing.T) {
		actor := managerActor(companyID)
		repo := &fakeDashboardRepository{
			companyStatsFn: func(ctx context.Context, companyID uuid.UUID, now time.Time) (dashboard.TaskStats, error) {
				return dashboard.TaskStats{}, errors.New("connection refused")
			},
		}

		svc := dashboard.NewService(repo, nil)
		_, err := svc.Boss(ctx, actor)

		assert.Error(t, err)
	})
}

func TestDashboardService_Employee(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("aggregates only the actor's assigned tasks", func(t *testing.T) {
		actor := access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleEmployee}

		repo := &fakeDashboardRepository{
			assignedStatsFn: func(ctx context.Context, gotUser uuid.UUID, now time.Time) (dashboard.TaskStats, error) {
				assert.Equal(t, actor.ID, gotUser)
				return dashboard.TaskStats{Total: 5, Completed: 2, Overdue: 1}, nil
			},
			recentCompletedTasksFn: func(ctx context.Context, gotUser uuid.UUID) ([]task.Task, error) {
				assert.Equal(t, actor.ID, gotUser)
				return []task.Task{{ID: uuid.New(), Title: "Ship onboarding doc", Status: task.StatusCompleted}}, nil
			},
			assignedOverdueFn: func(ctx context.Context, gotUser uuid.UUID, now time.Time) ([]task.Task, error) {
				return []task.Task{{ID: uuid.New(), Title: "Renew certificates"}}, nil
			},
		}

		rdb, redisMock := redismock.NewClientMock()
		cacheKey := dashboard.EmployeeCacheKey(actor)
		redisMock.ExpectGet(cacheKey).RedisNil()
		redisMock.Regexp().ExpectSet(cacheKey, `.*`, 60*time.Second).SetVal("OK")

		svc := dashboard.NewService(repo, rdb)
		resp, err := svc.Employee(ctx, actor)

		assert.NoError(t, err)
		assert.Equal(t, int64(5), resp.Stats.Total)
		assert.Len(t, resp.RecentCompleted, 1)
		assert.Len(t, resp.Overdue, 1)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("cache key is scoped per user", func(t *testing.T) {
		a := access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleEmployee}
		b := access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleEmployee}

		assert.NotEqual(t, dashboard.EmployeeCacheKey(a), dashboard.EmployeeCacheKey(b))
	})

	t.Run("cache write failure does not fail the request", func(t *testing.T) {
		actor := access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleEmployee}
		repo := &fakeDashboardRepository{
			assignedStatsFn: func(ctx context.Context, userID uuid.UUID, now time.Time) (dashboard.TaskStats, error) {
				return dashboard.TaskStats{Total: 3}, nil
			},
		}

		rdb, redisMock := redismock.NewClientMock()
		cacheKey := dashboard.EmployeeCacheKey(actor)
		redisMock.ExpectGet(cacheKey).RedisNil()
		redisMock.Regexp().ExpectSet(cacheKey, `.*`, 60*time.Second).SetErr(errors.New("readonly replica"))

		svc := dashboard.NewService(repo, rdb)
		resp, err := svc.Employee(ctx, actor)

		assert.NoError(t, err)
		assert.Equal(t, int64(3), resp.Stats.Total)
	})
}
