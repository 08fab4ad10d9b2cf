package access_test

import (
	"testing"

	"go-taskhub/internal/access"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanAccessTask(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()
	creator := uuid.New()
	assignee := uuid.New()
	stranger := uuid.New()

	companyTask := access.TaskRef{
		CompanyID:   tenantA,
		CreatedBy:   creator,
		AssigneeIDs: []uuid.UUID{assignee},
		Visibility:  access.VisibilityCompany,
	}
	personalTask := access.TaskRef{
		CompanyID:   tenantA,
		CreatedBy:   creator,
		AssigneeIDs: []uuid.UUID{creator},
		Visibility:  access.VisibilityPersonal,
	}

	actor := func(id uuid.UUID, companyID uuid.UUID, role access.Role) access.Actor {
		return access.Actor{ID: id, CompanyID: companyID, Role: role}
	}

	ops := []access.Operation{access.OpRead, access.OpUpdate, access.OpDelete, access.OpComment}

	t.Run("superadmin is allowed everything", func(t *testing.T) {
		super := access.Actor{ID: uuid.New(), Role: access.RoleSuperadmin}
		for _, op := range ops {
			assert.True(t, access.CanAccessTask(super, op, companyTask).Allowed, string(op))
			assert.True(t, access.CanAccessTask(super, op, personalTask).Allowed, string(op))
		}
	})

	t.Run("cross tenant is denied for every role", func(t *testing.T) {
		for _, role := range []access.Role{access.RoleAdmin, access.RoleManager, access.RoleEmployee} {
			foreign := actor(uuid.New(), tenantB, role)
			for _, op := range ops {
				assert.False(t, access.CanAccessTask(foreign, op, companyTask).Allowed,
					"%s should not cross tenants for %s", role, op)
			}
		}
	})

	t.Run("management has full rights over company tasks", func(t *testing.T) {
		for _, role := range []access.Role{access.RoleAdmin, access.RoleManager} {
			m := actor(stranger, tenantA, role)
			for _, op := range ops {
				assert.True(t, access.CanAccessTask(m, op, companyTask).Allowed)
			}
		}
	})

	t.Run("personal tasks are private even from management", func(t *testing.T) {
		m := actor(stranger, tenantA, access.RoleManager)
		for _, op := range ops {
			assert.False(t, access.CanAccessTask(m, op, personalTask).Allowed, string(op))
		}

		// Rank never reopens a personal task, even for a manager who
		// created or is assigned to it.
		owner := actor(creator, tenantA, access.RoleManager)
		for _, op := range ops {
			assert.False(t, access.CanAccessTask(owner, op, personalTask).Allowed, string(op))
		}
	})

	t.Run("employee rights hinge on assignment or authorship", func(t *testing.T) {
		assigned := actor(assignee, tenantA, access.RoleEmployee)
		author := actor(creator, tenantA, access.RoleEmployee)
		outsider := actor(stranger, tenantA, access.RoleEmployee)

		for _, op := range ops {
			assert.True(t, access.CanAccessTask(assigned, op, companyTask).Allowed, string(op))
			assert.True(t, access.CanAccessTask(author, op, companyTask).Allowed, string(op))
			assert.False(t, access.CanAccessTask(outsider, op, companyTask).Allowed, string(op))
		}
	})
}

func TestVisibilityFor(t *testing.T) {
	assert.Equal(t, access.VisibilityPersonal, access.VisibilityFor(access.RoleEmployee))
	assert.Equal(t, access.VisibilityCompany, access.VisibilityFor(access.RoleManager))
	assert.Equal(t, access.VisibilityCompany, access.VisibilityFor(access.RoleAdmin))
	assert.Equal(t, access.VisibilityCompany, access.VisibilityFor(access.RoleSuperadmin))
}

func TestSelfAssignmentOnly(t *testing.T) {
	self := uuid.New()
	other := uuid.New()

	assert.True(t, access.SelfAssignmentOnly(self, nil))
	assert.True(t, access.SelfAssignmentOnly(self, []uuid.UUID{self}))
	assert.False(t, access.SelfAssignmentOnly(self, []uuid.UUID{self, other}))
	assert.False(t, access.SelfAssignmentOnly(self, []uuid.UUID{other}))
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"superadmin", "admin", "manager", "employee"} {
		role, ok := access.ParseRole(valid)
		assert.True(t, ok)
		assert.Equal(t, valid, string(role))
	}

	_, ok := access.ParseRole("owner")
	assert.False(t, ok)
}
